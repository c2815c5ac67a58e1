package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"party-server/internal/deck"
	"party-server/internal/models"
)

const maxNameLength = 30

// minEligibleParticipants is the hard floor of non-auto participants during
// active play; dropping below it force-ends the session.
const minEligibleParticipants = 3

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", models.NewGameError(models.KindValidation, "display name must not be empty")
	}
	if len(name) > maxNameLength {
		return "", models.NewGameError(models.KindValidation, "display name must be at most %d characters", maxNameLength)
	}
	return name, nil
}

// normalizeSettings fills zero values with configured defaults, then
// validates the result.
func (s *gameServiceImpl) normalizeSettings(settings models.GameSettings) (models.GameSettings, error) {
	if settings.MinPlayers == 0 {
		settings.MinPlayers = s.cfg.DefaultMinPlayers
	}
	if settings.MaxPlayers == 0 {
		settings.MaxPlayers = s.cfg.DefaultMaxPlayers
	}
	if settings.HandSize == 0 {
		settings.HandSize = s.cfg.DefaultHandSize
	}
	if settings.MaxScore == 0 {
		settings.MaxScore = s.cfg.DefaultMaxScore
	}
	switch {
	case settings.MinPlayers < minEligibleParticipants:
		return settings, models.NewGameError(models.KindValidation, "minimum players must be at least %d", minEligibleParticipants)
	case settings.MaxPlayers < settings.MinPlayers:
		return settings, models.NewGameError(models.KindValidation, "maximum players must not be below minimum players")
	case settings.MaxPlayers > 20:
		return settings, models.NewGameError(models.KindValidation, "maximum players must be at most 20")
	case settings.HandSize < 3 || settings.HandSize > 20:
		return settings, models.NewGameError(models.KindValidation, "hand size must be between 3 and 20")
	case settings.MaxScore < 1 || settings.MaxScore > 50:
		return settings, models.NewGameError(models.KindValidation, "max score must be between 1 and 50")
	}
	return settings, nil
}

// promptPick resolves the prompt's required-choice count, defaulting to 1
// when the card row no longer resolves (content integrity issue, not a game
// fault).
func (s *gameServiceImpl) promptPick(ctx context.Context, promptID uuid.UUID) (int, error) {
	card, err := s.cards.GetCard(ctx, promptID)
	if err != nil {
		if errors.Is(err, models.ErrCardNotFound) {
			s.logger.Warn("Prompt card no longer resolves, defaulting pick to 1",
				zap.String("cardID", promptID.String()))
			return 1, nil
		}
		return 0, err
	}
	return card.PickCount(), nil
}

// CheckForWinner returns the first participant whose score reached the
// configured max score, or nil. Pure predicate over the state.
func CheckForWinner(st *models.SessionState) *models.Participant {
	for _, p := range st.Participants {
		if p.Score >= st.Settings.MaxScore {
			return p
		}
	}
	return nil
}

// AllSubmitted reports whether every expected submitter (judge and paused
// excluded, auto-player included) has submitted this round.
func AllSubmitted(st *models.SessionState) bool {
	if st.Round == nil {
		return false
	}
	return len(st.Round.Submissions) >= len(st.EligibleSubmitters())
}

// finishGame moves the state to the finished arm and drops the playing arm.
func (s *gameServiceImpl) finishGame(st *models.SessionState, winnerID uuid.UUID, reason models.EndReason) {
	now := time.Now().UTC()
	st.Phase = models.PhaseFinished
	st.Round = nil
	st.Result = &models.GameResult{WinnerID: winnerID, Reason: reason, EndedAt: now}
	if winner := st.Participant(winnerID); winner != nil {
		st.AddToast(winner.Name+" wins the game", now)
	}
}

// nextCzarLocked walks the locked rotation order starting after afterID,
// wrapping, and returns the first entry that is still present, eligible and
// not paused.
func nextCzarLocked(st *models.SessionState, afterID uuid.UUID) (uuid.UUID, error) {
	order := st.Rotation.Order
	if len(order) == 0 {
		return uuid.Nil, models.NewGameError(models.KindInvalidState, "judge rotation is empty")
	}
	start := 0
	for i, id := range order {
		if id == afterID {
			start = i + 1
			break
		}
	}
	for i := 0; i < len(order); i++ {
		id := order[(start+i)%len(order)]
		if id == afterID {
			continue
		}
		p := st.Participant(id)
		if p == nil || p.IsAutoPlayer || p.IsPaused {
			continue
		}
		return id, nil
	}
	return uuid.Nil, models.NewGameError(models.KindInvalidState, "no eligible judge remains in the rotation")
}

// pickRandomJudge selects a random present, eligible, non-paused participant
// excluding exclude. Used for the first judge and for skip/removal paths
// while the rotation is still unlocked.
func (s *gameServiceImpl) pickRandomJudge(st *models.SessionState, exclude uuid.UUID) (uuid.UUID, error) {
	candidates := make([]uuid.UUID, 0, len(st.Participants))
	for _, p := range st.Participants {
		if p.IsAutoPlayer || p.IsPaused || p.ID == exclude {
			continue
		}
		candidates = append(candidates, p.ID)
	}
	if len(candidates) == 0 {
		return uuid.Nil, models.NewGameError(models.KindInvalidState, "no eligible judge available")
	}
	return candidates[s.intn(len(candidates))], nil
}

// autoSubmit drafts the auto-player's submission straight from the draw pile
// (it keeps no hand). A shortfall is a hard failure like any required draw.
func (s *gameServiceImpl) autoSubmit(sess *models.Session, pick int) error {
	st := &sess.State
	auto := st.AutoPlayer()
	if auto == nil || st.Round == nil || auto.IsPaused {
		return nil
	}
	drawn, rest, err := deck.Draw(sess.Piles.DrawResponses, pick)
	if err != nil {
		return err
	}
	sess.Piles.DrawResponses = rest
	st.Round.Submissions = append(st.Round.Submissions, models.Submission{
		ID:            uuid.New(),
		ParticipantID: auto.ID,
		CardIDs:       drawn,
	})
	return nil
}

// surfaceLowPileWarnings adds operator toasts when piles run low. Warnings
// never block play.
func (s *gameServiceImpl) surfaceLowPileWarnings(sess *models.Session) {
	now := time.Now().UTC()
	if deck.IsLow(sess.Piles.DrawResponses, s.cfg.PileWarningThreshold) {
		sess.State.AddToast(deck.WarningMessage("response", sess.Piles.DrawResponses), now)
	}
	if deck.IsLow(sess.Piles.DrawPrompts, s.cfg.PileWarningThreshold) {
		sess.State.AddToast(deck.WarningMessage("prompt", sess.Piles.DrawPrompts), now)
	}
}

// discardSubmissions moves every submitted card to the response discard pile
// and clears the submission list.
func discardSubmissions(sess *models.Session) {
	r := sess.State.Round
	if r == nil {
		return
	}
	for _, sub := range r.Submissions {
		sess.Piles.DiscardResponses = deck.ReturnToBottom(sess.Piles.DiscardResponses, sub.CardIDs...)
	}
	r.Submissions = nil
}

// insertIntoRotation places newID in the order directly between two anchors
// when they are adjacent (including the wrap pair), or next to whichever
// anchor is present otherwise. Returns false when neither anchor appears.
func insertIntoRotation(rot *models.Rotation, newID uuid.UUID, anchorA, anchorB uuid.UUID) bool {
	idxA, idxB := -1, -1
	for i, id := range rot.Order {
		switch id {
		case anchorA:
			idxA = i
		case anchorB:
			idxB = i
		}
	}
	insertAt := -1
	switch {
	case idxA >= 0 && idxB >= 0:
		lo, hi := idxA, idxB
		if lo > hi {
			lo, hi = hi, lo
		}
		if hi-lo == 1 {
			insertAt = hi
		} else if lo == 0 && hi == len(rot.Order)-1 {
			// wrap pair: between last and first means the end of the list
			insertAt = len(rot.Order)
		} else {
			// anchors are not contiguous; fall back to the first one
			insertAt = idxA + 1
		}
	case idxA >= 0:
		insertAt = idxA + 1
	case idxB >= 0:
		insertAt = idxB + 1
	default:
		return false
	}
	rot.Order = append(rot.Order, uuid.Nil)
	copy(rot.Order[insertAt+1:], rot.Order[insertAt:])
	rot.Order[insertAt] = newID
	return true
}
