package game

import (
	"fmt"
	"math/rand/v2"

	"promptmatch/internal/domain"
)

// fillerPayload marks the unpaired tile of an odd-sized deck.
const fillerPayload = "?"

// NewRand returns a freshly seeded generator. A *rand.Rand is not safe for
// concurrent use, so callers take one per deck.
func NewRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// GenerateDeck builds tileCount tiles from source and shuffles them.
// Odd counts get one filler tile with no partner.
func GenerateDeck(tileCount int, source ContentSource, rng *rand.Rand) ([]domain.Tile, error) {
	if tileCount <= 0 {
		return nil, fmt.Errorf("tile count must be positive, got %d", tileCount)
	}
	numPairs := tileCount / 2

	items, err := source.Pick(numPairs, rng)
	if err != nil {
		return nil, err
	}
	if len(items) < numPairs {
		return nil, fmt.Errorf("%w: source returned %d of %d pairs", domain.ErrInsufficientContent, len(items), numPairs)
	}

	tiles := make([]domain.Tile, 0, tileCount)
	for k, item := range items[:numPairs] {
		a, b := item.split(k*2, k+1)
		tiles = append(tiles, a, b)
	}

	if tileCount%2 == 1 {
		tiles = append(tiles, domain.Tile{
			ID:        len(tiles),
			PairValue: len(tiles) + 1,
			Kind:      domain.TileKindText,
			Payload:   fillerPayload,
		})
	}

	Shuffle(tiles, rng)
	return tiles, nil
}

// Shuffle is an unbiased in-place Fisher-Yates shuffle.
func Shuffle[T any](s []T, rng *rand.Rand) {
	for i := len(s) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}
