package game

import (
	"fmt"

	"promptmatch/internal/domain"
)

type Board struct {
	Name  string `json:"name"`
	Rows  int    `json:"rows"`
	Cols  int    `json:"cols"`
	Label string `json:"label"`
}

func (b Board) TileCount() int { return b.Rows * b.Cols }

// Boards are the supported grid sizes, all with an even tile count.
var Boards = []Board{
	{Name: "2x3", Rows: 2, Cols: 3, Label: "2×3 (Easy)"},
	{Name: "3x4", Rows: 3, Cols: 4, Label: "3×4 (Medium)"},
	{Name: "4x4", Rows: 4, Cols: 4, Label: "4×4 (Hard)"},
}

const DefaultBoard = "3x4"

func LookupBoard(name string) (Board, error) {
	if name == "" {
		name = DefaultBoard
	}
	for _, b := range Boards {
		if b.Name == name {
			return b, nil
		}
	}
	return Board{}, fmt.Errorf("%w: %q", domain.ErrUnknownBoard, name)
}
