package game

import (
	"fmt"

	"promptmatch/internal/domain"
)

type ContentMode string

const (
	ContentNumbers ContentMode = "numbers"
	ContentPrompts ContentMode = "prompts"
)

// Factory builds decks for a board size and content mode.
type Factory struct {
	prompts []Prompt
}

func NewFactory() *Factory {
	return &Factory{prompts: DefaultPrompts}
}

// NewFactoryWithPrompts uses a custom prompt pool instead of the built-in one.
func NewFactoryWithPrompts(prompts []Prompt) *Factory {
	return &Factory{prompts: prompts}
}

func (f *Factory) Modes() []ContentMode {
	return []ContentMode{ContentPrompts, ContentNumbers}
}

func (f *Factory) Source(mode ContentMode) (ContentSource, error) {
	switch mode {
	case ContentPrompts, "":
		return PromptSource{Pool: f.prompts}, nil
	case ContentNumbers:
		return NumberSource{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownContent, mode)
	}
}

// NewDeck generates a shuffled deck for the named board.
func (f *Factory) NewDeck(board string, mode ContentMode) ([]domain.Tile, error) {
	b, err := LookupBoard(board)
	if err != nil {
		return nil, err
	}
	src, err := f.Source(mode)
	if err != nil {
		return nil, err
	}
	return GenerateDeck(b.TileCount(), src, NewRand())
}
