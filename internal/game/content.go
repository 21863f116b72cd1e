package game

import (
	"fmt"
	"math/rand/v2"
	"strconv"

	"promptmatch/internal/domain"
)

// PairContent is one matchable item before it is split into two tiles.
// It is either Plain or Prompt.
type PairContent interface {
	split(firstID, pairValue int) (domain.Tile, domain.Tile)
}

// Plain is an anonymous numbered pair: both halves look the same.
type Plain struct {
	Value int
}

func (p Plain) split(firstID, pairValue int) (domain.Tile, domain.Tile) {
	label := strconv.Itoa(p.Value)
	a := domain.Tile{ID: firstID, PairValue: pairValue, Kind: domain.TileKindPlain, Payload: label}
	b := a
	b.ID = firstID + 1
	return a, b
}

// Prompt pairs a text prompt with the image generated from it.
type Prompt struct {
	Text  string `json:"prompt"`
	Image string `json:"image"`
}

func (p Prompt) split(firstID, pairValue int) (domain.Tile, domain.Tile) {
	return domain.Tile{ID: firstID, PairValue: pairValue, Kind: domain.TileKindText, Payload: p.Text},
		domain.Tile{ID: firstID + 1, PairValue: pairValue, Kind: domain.TileKindImage, Payload: p.Image}
}

// ContentSource picks n distinct pair contents.
type ContentSource interface {
	Pick(n int, rng *rand.Rand) ([]PairContent, error)
}

// NumberSource labels pairs 1..n. It never runs out.
type NumberSource struct{}

func (NumberSource) Pick(n int, _ *rand.Rand) ([]PairContent, error) {
	out := make([]PairContent, n)
	for i := range out {
		out[i] = Plain{Value: i + 1}
	}
	return out, nil
}

// PromptSource draws pairs from a fixed pool without replacement.
type PromptSource struct {
	Pool []Prompt
}

func (s PromptSource) Pick(n int, rng *rand.Rand) ([]PairContent, error) {
	if n > len(s.Pool) {
		return nil, fmt.Errorf("%w: need %d pairs, pool has %d", domain.ErrInsufficientContent, n, len(s.Pool))
	}
	pool := append([]Prompt(nil), s.Pool...)
	// partial Fisher-Yates: the first n slots end up a uniform sample
	for i := 0; i < n; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	out := make([]PairContent, n)
	for i := range out {
		out[i] = pool[i]
	}
	return out, nil
}

// DefaultPrompts is the built-in catalogue of AI image prompts.
var DefaultPrompts = []Prompt{
	{Text: "Astronaut baking a cake", Image: "ai_images/astronaut-baking-cake.png"},
	{Text: "Book as a boat", Image: "ai_images/book-as-boat.png"},
	{Text: "Cat riding a skateboard", Image: "ai_images/cat-riding-skateboard.png"},
	{Text: "Coffee cup spaceship", Image: "ai_images/coffee-cup-spaceship.png"},
	{Text: "Desert ice cream truck", Image: "ai_images/desert-ice-cream-truck.png"},
	{Text: "Dragon drinking tea", Image: "ai_images/dragon-drinking-tea.png"},
	{Text: "Floating island city", Image: "ai_images/floating-island-city.png"},
	{Text: "Pizza slice umbrella", Image: "ai_images/pizza-slice-umbrella.png"},
	{Text: "Robot reading a book", Image: "ai_images/robot-reading-book.png"},
	{Text: "Treehouse in space", Image: "ai_images/treehouse-in-space.png"},
	{Text: "Underwater bicycle", Image: "ai_images/underwater-bicycle.png"},
}
