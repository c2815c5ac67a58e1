package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"party-server/internal/interfaces/mocks"
	"party-server/internal/models"
	"party-server/internal/service"
)

// catalogFor registers a GetByIDs stub resolving every card the session can
// reference: all hands, the prompt and everything on the table.
func catalogFor(cards *mocks.CardRepository, sess *models.Session) {
	catalog := make(map[uuid.UUID]*models.Card)
	add := func(id uuid.UUID, cardType models.CardType) {
		catalog[id] = &models.Card{ID: id, Type: cardType, Text: "card " + id.String()[:8], Pick: 1}
	}
	for _, p := range sess.State.Participants {
		for _, id := range p.Hand {
			add(id, models.CardTypeResponse)
		}
	}
	if r := sess.State.Round; r != nil {
		add(r.PromptID, models.CardTypePrompt)
		for _, sub := range r.Submissions {
			for _, id := range sub.CardIDs {
				add(id, models.CardTypeResponse)
			}
		}
	}
	cards.On("GetByIDs", mock.Anything, mock.Anything).Return(catalog, nil)
}

func TestProject(t *testing.T) {
	ctx := context.Background()

	newProjector := func(sess *models.Session) *service.Projector {
		cards := new(mocks.CardRepository)
		catalogFor(cards, sess)
		return service.NewProjector(cards, zap.NewNop())
	}

	t.Run("Only the viewer's hand is hydrated", func(t *testing.T) {
		sess := playingSession("ABCD", "judge", "bob", "carol")
		bob := sess.State.Participants[1]
		p := newProjector(sess)

		view, err := p.Project(ctx, sess, bob.ID)
		require.NoError(t, err)

		assert.Len(t, view.Hand, len(bob.Hand))
		for _, pv := range view.Participants {
			assert.Equal(t, 5, pv.HandSize)
		}
	})

	t.Run("Spectators get no hand", func(t *testing.T) {
		sess := playingSession("ABCD", "judge", "bob", "carol")
		p := newProjector(sess)

		view, err := p.Project(ctx, sess, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, view.Hand)
		assert.Len(t, view.Participants, 3)
	})

	t.Run("Submissions stay hidden until everyone played", func(t *testing.T) {
		sess := playingSession("ABCD", "judge", "bob", "carol")
		bob := sess.State.Participants[1]
		carol := sess.State.Participants[2]
		sess.State.Round.Submissions = []models.Submission{
			{ID: uuid.New(), ParticipantID: bob.ID, CardIDs: models.Pile{uuid.New()}},
		}
		p := newProjector(sess)

		judgeView, err := p.Project(ctx, sess, sess.State.Round.JudgeID)
		require.NoError(t, err)
		require.NotNil(t, judgeView.Round)
		assert.False(t, judgeView.Round.Revealed)
		require.Len(t, judgeView.Round.Submissions, 1)
		assert.Nil(t, judgeView.Round.Submissions[0].Cards, "hidden from the judge while pending")

		bobView, err := p.Project(ctx, sess, bob.ID)
		require.NoError(t, err)
		assert.NotNil(t, bobView.Round.Submissions[0].Cards, "own submission is visible")
		assert.True(t, bobView.Round.Submissions[0].Mine)

		carolView, err := p.Project(ctx, sess, carol.ID)
		require.NoError(t, err)
		assert.Nil(t, carolView.Round.Submissions[0].Cards)
	})

	t.Run("Complete table reveals submissions to the judge only", func(t *testing.T) {
		sess := playingSession("ABCD", "judge", "bob", "carol")
		bob := sess.State.Participants[1]
		carol := sess.State.Participants[2]
		sess.State.Round.Submissions = []models.Submission{
			{ID: uuid.New(), ParticipantID: bob.ID, CardIDs: models.Pile{uuid.New()}},
			{ID: uuid.New(), ParticipantID: carol.ID, CardIDs: models.Pile{uuid.New()}},
		}
		p := newProjector(sess)

		view, err := p.Project(ctx, sess, sess.State.Round.JudgeID)
		require.NoError(t, err)
		assert.True(t, view.Round.Revealed)
		for _, sv := range view.Round.Submissions {
			assert.NotNil(t, sv.Cards)
		}

		bobView, err := p.Project(ctx, sess, bob.ID)
		require.NoError(t, err)
		assert.False(t, bobView.Round.Revealed)
		for _, sv := range bobView.Round.Submissions {
			if sv.Mine {
				assert.NotNil(t, sv.Cards)
			} else {
				assert.Nil(t, sv.Cards, "only the judge sees the table before the round is decided")
			}
		}
	})

	t.Run("Decided round reveals submissions to everyone", func(t *testing.T) {
		sess := playingSession("ABCD", "judge", "bob", "carol")
		bob := sess.State.Participants[1]
		carol := sess.State.Participants[2]
		sess.State.Round.Submissions = []models.Submission{
			{ID: uuid.New(), ParticipantID: bob.ID, CardIDs: models.Pile{uuid.New()}},
			{ID: uuid.New(), ParticipantID: carol.ID, CardIDs: models.Pile{uuid.New()}},
		}
		sess.State.Round.WinnerID = &carol.ID
		p := newProjector(sess)

		for _, viewer := range []uuid.UUID{bob.ID, carol.ID, uuid.New()} {
			view, err := p.Project(ctx, sess, viewer)
			require.NoError(t, err)
			assert.True(t, view.Round.Revealed)
			for _, sv := range view.Round.Submissions {
				assert.NotNil(t, sv.Cards)
			}
		}
	})

	t.Run("Submission order is stable across projections", func(t *testing.T) {
		sess := playingSession("ABCD", "judge", "bob", "carol", "dave", "erin")
		var subs []models.Submission
		for _, pl := range sess.State.Participants[1:] {
			subs = append(subs, models.Submission{
				ID: uuid.New(), ParticipantID: pl.ID, CardIDs: models.Pile{uuid.New()},
			})
		}
		sess.State.Round.Submissions = subs
		p := newProjector(sess)

		first, err := p.Project(ctx, sess, uuid.New())
		require.NoError(t, err)
		second, err := p.Project(ctx, sess, uuid.New())
		require.NoError(t, err)

		var a, b []uuid.UUID
		for i := range first.Round.Submissions {
			a = append(a, first.Round.Submissions[i].ID)
			b = append(b, second.Round.Submissions[i].ID)
		}
		assert.Equal(t, a, b)
	})

	t.Run("Finished session carries the result", func(t *testing.T) {
		sess := playingSession("ABCD", "judge", "bob", "carol")
		winner := sess.State.Participants[1]
		sess.State.Phase = models.PhaseFinished
		sess.State.Round = nil
		sess.State.Result = &models.GameResult{
			WinnerID: winner.ID,
			Reason:   models.EndReasonScoreReached,
		}
		for _, pl := range sess.State.Participants {
			pl.Hand = models.Pile{}
		}
		p := newProjector(sess)

		view, err := p.Project(ctx, sess, winner.ID)
		require.NoError(t, err)
		assert.Nil(t, view.Round)
		require.NotNil(t, view.Result)
		assert.Equal(t, winner.ID, view.Result.WinnerID)
		assert.Equal(t, winner.Name, view.Result.WinnerName)
		assert.Equal(t, string(models.EndReasonScoreReached), view.Result.EndReason)
	})

	t.Run("Missing catalog cards degrade to placeholders", func(t *testing.T) {
		sess := playingSession("ABCD", "judge", "bob", "carol")
		bob := sess.State.Participants[1]
		cards := new(mocks.CardRepository)
		cards.On("GetByIDs", mock.Anything, mock.Anything).Return(map[uuid.UUID]*models.Card{}, nil)
		p := service.NewProjector(cards, zap.NewNop())

		view, err := p.Project(ctx, sess, bob.ID)
		require.NoError(t, err)
		require.NotEmpty(t, view.Hand)
		assert.Equal(t, "[missing card]", view.Hand[0].Text)
	})
}
