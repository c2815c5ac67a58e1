package models_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"party-server/internal/models"
)

func TestValidateSessionCode(t *testing.T) {
	assert.True(t, models.ValidateSessionCode("ABCD"))
	assert.True(t, models.ValidateSessionCode("W234"))

	assert.False(t, models.ValidateSessionCode(""))
	assert.False(t, models.ValidateSessionCode("ABC"))
	assert.False(t, models.ValidateSessionCode("ABCDE"))
	assert.False(t, models.ValidateSessionCode("abcd"))
	// ambiguous glyphs are not in the alphabet
	assert.False(t, models.ValidateSessionCode("AB0D"))
	assert.False(t, models.ValidateSessionCode("AB1D"))
	assert.False(t, models.ValidateSessionCode("ABID"))
	assert.False(t, models.ValidateSessionCode("ABOD"))
}

func TestNewSessionCode(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		code := models.NewSessionCode(rng)
		assert.True(t, models.ValidateSessionCode(code), "generated code %q must validate", code)
	}
}

func TestParticipantHand(t *testing.T) {
	card := uuid.New()
	other := uuid.New()
	p := &models.Participant{Hand: models.Pile{card, other}}

	assert.True(t, p.HasCard(card))
	p.RemoveFromHand(card)
	assert.False(t, p.HasCard(card))
	assert.Equal(t, models.Pile{other}, p.Hand)
}

func TestEligibleSubmitters(t *testing.T) {
	judge := &models.Participant{ID: uuid.New(), Name: "judge"}
	player := &models.Participant{ID: uuid.New(), Name: "player"}
	paused := &models.Participant{ID: uuid.New(), Name: "paused", IsPaused: true}
	auto := &models.Participant{ID: uuid.New(), Name: "bot", IsAutoPlayer: true}

	st := &models.SessionState{
		Phase:        models.PhasePlaying,
		Participants: []*models.Participant{judge, player, paused, auto},
		Round:        &models.RoundState{JudgeID: judge.ID},
	}

	submitters := st.EligibleSubmitters()
	require.Len(t, submitters, 2)
	assert.Equal(t, player.ID, submitters[0].ID)
	assert.Equal(t, auto.ID, submitters[1].ID)
}

func TestTopScorer(t *testing.T) {
	t.Run("Highest score wins", func(t *testing.T) {
		a := &models.Participant{ID: uuid.New(), Score: 1}
		b := &models.Participant{ID: uuid.New(), Score: 3}
		st := &models.SessionState{Participants: []*models.Participant{a, b}}
		assert.Equal(t, b, st.TopScorer())
	})

	t.Run("Tie resolves to the earliest joiner", func(t *testing.T) {
		a := &models.Participant{ID: uuid.New(), Score: 2}
		b := &models.Participant{ID: uuid.New(), Score: 2}
		st := &models.SessionState{Participants: []*models.Participant{a, b}}
		assert.Equal(t, a, st.TopScorer())
	})

	t.Run("Auto player never wins", func(t *testing.T) {
		auto := &models.Participant{ID: uuid.New(), Score: 10, IsAutoPlayer: true}
		human := &models.Participant{ID: uuid.New(), Score: 1}
		st := &models.SessionState{Participants: []*models.Participant{auto, human}}
		assert.Equal(t, human, st.TopScorer())
	})
}

func TestRemoveParticipant(t *testing.T) {
	target := &models.Participant{ID: uuid.New(), Name: "target"}
	other := &models.Participant{ID: uuid.New(), Name: "other"}
	st := &models.SessionState{
		Phase:        models.PhasePlaying,
		Participants: []*models.Participant{target, other},
		Rotation: models.Rotation{
			Order:   []uuid.UUID{other.ID, target.ID},
			Skipped: []uuid.UUID{target.ID},
		},
		Round: &models.RoundState{
			JudgeID:     other.ID,
			SkipVotes:   []uuid.UUID{target.ID},
			NextJudgeID: &target.ID,
		},
	}

	removed := st.RemoveParticipant(target.ID)
	require.NotNil(t, removed)
	assert.Equal(t, target.ID, removed.ID)

	assert.Nil(t, st.Participant(target.ID))
	assert.Equal(t, []uuid.UUID{other.ID}, st.Rotation.Order)
	assert.Empty(t, st.Rotation.Skipped)
	assert.Empty(t, st.Round.SkipVotes)
	assert.Nil(t, st.Round.NextJudgeID)

	assert.Nil(t, st.RemoveParticipant(target.ID), "second removal finds nothing")
}

func TestToastPruning(t *testing.T) {
	st := &models.SessionState{}
	base := time.Now().UTC()

	st.AddToast("old", base)
	st.AddToast("fresh", base.Add(models.ToastTTL))
	require.Len(t, st.Toasts, 2, "a toast at exactly the TTL boundary survives")

	st.PruneToasts(base.Add(models.ToastTTL + time.Second))
	require.Len(t, st.Toasts, 1)
	assert.Equal(t, "fresh", st.Toasts[0].Message)
}

func TestGameErrorKinds(t *testing.T) {
	err := models.NewGameError(models.KindInvalidState, "bad phase %q", "waiting")
	assert.Equal(t, models.KindInvalidState, models.KindOf(err))
	assert.Contains(t, err.Error(), `bad phase "waiting"`)

	assert.Equal(t, models.KindNotFound, models.KindOf(models.ErrNotFound))
	assert.Equal(t, models.KindInternal, models.KindOf(assert.AnError))
}
