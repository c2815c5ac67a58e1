// Package deck implements the card pile operations of the game engine. All
// functions operate on explicit pile values and never touch persistent
// state; randomness comes from an injected *rand.Rand so callers control
// seeding.
package deck

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"party-server/internal/models"
)

// Shuffle returns a shuffled copy of the pile.
func Shuffle(pile models.Pile, rng *rand.Rand) models.Pile {
	out := make(models.Pile, len(pile))
	copy(out, pile)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// Draw removes n cards from the front of the pile. The pile is never
// under-filled: a shortfall fails the whole draw.
func Draw(pile models.Pile, n int) (drawn models.Pile, rest models.Pile, err error) {
	if n < 0 {
		return nil, pile, models.NewGameError(models.KindValidation, "cannot draw %d cards", n)
	}
	if len(pile) < n {
		return nil, pile, models.NewGameError(models.KindInsufficientSupply,
			"pile has %d cards, %d required (%d short)", len(pile), n, n-len(pile))
	}
	drawn = make(models.Pile, n)
	copy(drawn, pile[:n])
	rest = pile[n:]
	return drawn, rest, nil
}

// DrawOne removes the top card of the pile.
func DrawOne(pile models.Pile) (uuid.UUID, models.Pile, error) {
	drawn, rest, err := Draw(pile, 1)
	if err != nil {
		return uuid.Nil, pile, err
	}
	return drawn[0], rest, nil
}

// ReturnToBottom appends cards to the back of the pile. Used both for
// returning an extracted hand to the draw pile and for discarding.
func ReturnToBottom(pile models.Pile, cards ...uuid.UUID) models.Pile {
	return append(pile, cards...)
}

// ReshuffleIntoDraw shuffles the discard pile and appends it beneath the
// existing draw pile, so already-determined near-term draws are not
// disturbed. The returned discard is empty.
func ReshuffleIntoDraw(draw, discard models.Pile, rng *rand.Rand) (newDraw, newDiscard models.Pile) {
	newDraw = make(models.Pile, 0, len(draw)+len(discard))
	newDraw = append(newDraw, draw...)
	newDraw = append(newDraw, Shuffle(discard, rng)...)
	return newDraw, models.Pile{}
}

// BonusCardCount returns the extra hand cards every participant needs for a
// multi-blank prompt, so hands stay playable: pick-1 for picks of three or
// more, zero otherwise.
func BonusCardCount(pick int) int {
	if pick >= 3 {
		return pick - 1
	}
	return 0
}

// DealBonus draws n cards per participant in participant-list order from one
// shared pile. The capacity check runs before any allocation, so a shortfall
// fails the deal as a whole instead of partway through the list. The
// auto-player keeps no hand and is skipped.
func DealBonus(participants []*models.Participant, pile models.Pile, n int) (models.Pile, error) {
	if n <= 0 {
		return pile, nil
	}
	recipients := 0
	for _, p := range participants {
		if !p.IsAutoPlayer {
			recipients++
		}
	}
	if len(pile) < recipients*n {
		return pile, models.NewGameError(models.KindInsufficientSupply,
			"pile has %d cards, %d required to deal %d bonus cards to %d participants",
			len(pile), recipients*n, n, recipients)
	}
	for _, p := range participants {
		if p.IsAutoPlayer {
			continue
		}
		drawn, rest, err := Draw(pile, n)
		if err != nil {
			return pile, err
		}
		p.Hand = append(p.Hand, drawn...)
		pile = rest
	}
	return pile, nil
}

// IsLow reports whether the pile dropped to or below the warning threshold.
func IsLow(pile models.Pile, threshold int) bool {
	return len(pile) <= threshold
}

// WarningMessage is the operator-facing low-pile notice. It surfaces as a
// toast, never blocks play.
func WarningMessage(pileName string, pile models.Pile) string {
	return fmt.Sprintf("%s pile is running low: %d cards left", pileName, len(pile))
}
