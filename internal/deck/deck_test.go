package deck_test

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"party-server/internal/deck"
	"party-server/internal/models"
)

func newPile(n int) models.Pile {
	pile := make(models.Pile, n)
	for i := range pile {
		pile[i] = uuid.New()
	}
	return pile
}

func asSet(pile models.Pile) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(pile))
	for _, id := range pile {
		set[id] = struct{}{}
	}
	return set
}

func TestShuffle(t *testing.T) {
	t.Run("Preserves contents and leaves input untouched", func(t *testing.T) {
		pile := newPile(50)
		original := make(models.Pile, len(pile))
		copy(original, pile)

		shuffled := deck.Shuffle(pile, rand.New(rand.NewSource(1)))

		assert.Equal(t, original, pile)
		assert.Len(t, shuffled, len(pile))
		assert.Equal(t, asSet(pile), asSet(shuffled))
	})

	t.Run("Deterministic for a fixed seed", func(t *testing.T) {
		pile := newPile(20)
		a := deck.Shuffle(pile, rand.New(rand.NewSource(7)))
		b := deck.Shuffle(pile, rand.New(rand.NewSource(7)))
		assert.Equal(t, a, b)
	})
}

func TestDraw(t *testing.T) {
	t.Run("Takes from the front", func(t *testing.T) {
		pile := newPile(5)
		drawn, rest, err := deck.Draw(pile, 2)
		require.NoError(t, err)
		assert.Equal(t, models.Pile(pile[:2]), drawn)
		assert.Equal(t, models.Pile(pile[2:]), rest)
	})

	t.Run("Shortfall fails the whole draw", func(t *testing.T) {
		pile := newPile(3)
		drawn, rest, err := deck.Draw(pile, 4)
		require.Error(t, err)
		assert.Equal(t, models.KindInsufficientSupply, models.KindOf(err))
		assert.Nil(t, drawn)
		assert.Equal(t, pile, rest)
	})

	t.Run("Negative count is a validation error", func(t *testing.T) {
		_, _, err := deck.Draw(newPile(3), -1)
		require.Error(t, err)
		assert.Equal(t, models.KindValidation, models.KindOf(err))
	})

	t.Run("Zero draw from an empty pile succeeds", func(t *testing.T) {
		drawn, rest, err := deck.Draw(models.Pile{}, 0)
		require.NoError(t, err)
		assert.Empty(t, drawn)
		assert.Empty(t, rest)
	})
}

func TestDrawOne(t *testing.T) {
	pile := newPile(2)
	top, rest, err := deck.DrawOne(pile)
	require.NoError(t, err)
	assert.Equal(t, pile[0], top)
	assert.Equal(t, models.Pile(pile[1:]), rest)

	_, _, err = deck.DrawOne(models.Pile{})
	assert.Equal(t, models.KindInsufficientSupply, models.KindOf(err))
}

func TestReshuffleIntoDraw(t *testing.T) {
	t.Run("Discard goes beneath the existing draw pile", func(t *testing.T) {
		draw := newPile(3)
		discard := newPile(5)

		newDraw, newDiscard := deck.ReshuffleIntoDraw(draw, discard, rand.New(rand.NewSource(3)))

		require.Len(t, newDraw, 8)
		assert.Empty(t, newDiscard)
		// near-term draws stay as they were
		assert.Equal(t, draw, newDraw[:3])
		assert.Equal(t, asSet(discard), asSet(newDraw[3:]))
	})

	t.Run("Round trip conserves the card population", func(t *testing.T) {
		draw := newPile(10)
		discard := newPile(10)
		union := asSet(append(append(models.Pile{}, draw...), discard...))

		newDraw, newDiscard := deck.ReshuffleIntoDraw(draw, discard, rand.New(rand.NewSource(9)))

		assert.Equal(t, union, asSet(append(newDraw, newDiscard...)))
	})
}

func TestBonusCardCount(t *testing.T) {
	assert.Equal(t, 0, deck.BonusCardCount(1))
	assert.Equal(t, 0, deck.BonusCardCount(2))
	assert.Equal(t, 2, deck.BonusCardCount(3))
	assert.Equal(t, 3, deck.BonusCardCount(4))
}

func TestDealBonus(t *testing.T) {
	t.Run("Deals in participant order and skips the auto player", func(t *testing.T) {
		pile := newPile(6)
		players := []*models.Participant{
			{ID: uuid.New(), Name: "ann"},
			{ID: uuid.New(), Name: "bot", IsAutoPlayer: true},
			{ID: uuid.New(), Name: "ben"},
		}

		rest, err := deck.DealBonus(players, pile, 2)
		require.NoError(t, err)
		assert.Equal(t, models.Pile(pile[:2]), players[0].Hand)
		assert.Empty(t, players[1].Hand)
		assert.Equal(t, models.Pile(pile[2:4]), players[2].Hand)
		assert.Equal(t, models.Pile(pile[4:]), rest)
	})

	t.Run("Preflight shortfall deals to nobody", func(t *testing.T) {
		pile := newPile(3)
		players := []*models.Participant{
			{ID: uuid.New(), Name: "ann"},
			{ID: uuid.New(), Name: "ben"},
		}

		rest, err := deck.DealBonus(players, pile, 2)
		require.Error(t, err)
		assert.Equal(t, models.KindInsufficientSupply, models.KindOf(err))
		assert.Empty(t, players[0].Hand)
		assert.Empty(t, players[1].Hand)
		assert.Equal(t, pile, rest)
	})
}

func TestIsLow(t *testing.T) {
	assert.True(t, deck.IsLow(newPile(5), 5))
	assert.True(t, deck.IsLow(models.Pile{}, 5))
	assert.False(t, deck.IsLow(newPile(6), 5))
}
