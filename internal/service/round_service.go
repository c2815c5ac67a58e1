package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"party-server/internal/deck"
	"party-server/internal/interfaces"
	"party-server/internal/models"
)

// RoundService runs the submit / judge / advance cycle of a playing session.
type RoundService interface {
	// Submit plays cards from the caller's hand against the current prompt.
	// The hand is refilled from the draw pile in the same mutation.
	Submit(ctx context.Context, code string, participantID uuid.UUID, cardIDs []uuid.UUID) (*models.Session, error)

	// PickWinner lets the judge award the round. Reaching the score cap
	// finishes the game immediately.
	PickWinner(ctx context.Context, code string, judgeID uuid.UUID, submissionID uuid.UUID) (*models.Session, error)

	// AdvanceRound moves a decided round to the next one: discards the
	// table, draws a fresh prompt and seats the next judge. Judge or host.
	AdvanceRound(ctx context.Context, code string, callerID uuid.UUID) (*models.Session, error)

	// RevealSubmissions lets the judge open review before everyone has
	// submitted.
	RevealSubmissions(ctx context.Context, code string, judgeID uuid.UUID) (*models.Session, error)

	// History returns the recorded rounds of a session, oldest first.
	History(ctx context.Context, code string) ([]*models.RoundRecord, error)
}

func (s *gameServiceImpl) Submit(ctx context.Context, code string, participantID uuid.UUID, cardIDs []uuid.UUID) (*models.Session, error) {
	return s.mutate(ctx, code, func(ctx context.Context, tx interfaces.DBTX, sess *models.Session) error {
		st := &sess.State
		if st.Phase != models.PhasePlaying {
			return models.NewGameError(models.KindInvalidState, "session is not playing")
		}
		r := st.Round
		p := st.Participant(participantID)
		if p == nil {
			return models.NewGameError(models.KindNotFound, "participant not found")
		}
		if participantID == r.JudgeID {
			return models.NewGameError(models.KindValidation, "the judge does not submit")
		}
		if p.IsPaused {
			return models.NewGameError(models.KindValidation, "paused participants do not submit")
		}
		if r.WinnerID != nil {
			return models.NewGameError(models.KindInvalidState, "the round is already decided")
		}
		if r.SubmissionBy(participantID) != nil {
			return models.NewGameError(models.KindValidation, "already submitted this round")
		}

		pick, err := s.promptPick(ctx, r.PromptID)
		if err != nil {
			return err
		}
		if len(cardIDs) != pick {
			return models.NewGameError(models.KindValidation,
				"prompt requires %d cards, got %d", pick, len(cardIDs))
		}
		if hasDuplicates(cardIDs) {
			return models.NewGameError(models.KindValidation, "duplicate cards in submission")
		}
		for _, cardID := range cardIDs {
			if !p.HasCard(cardID) {
				return models.NewGameError(models.KindValidation, "submitted card is not in hand")
			}
		}

		for _, cardID := range cardIDs {
			p.RemoveFromHand(cardID)
		}
		r.Submissions = append(r.Submissions, models.Submission{
			ID:            uuid.New(),
			ParticipantID: participantID,
			CardIDs:       append([]uuid.UUID{}, cardIDs...),
		})

		// refill straight away so the hand is whole for the next round; any
		// bonus for that round's prompt is dealt separately when it starts
		refill := st.Settings.HandSize - len(p.Hand)
		if refill > 0 {
			drawn, rest, err := deck.Draw(sess.Piles.DrawResponses, refill)
			if err != nil {
				return err
			}
			p.Hand = append(p.Hand, drawn...)
			sess.Piles.DrawResponses = rest
		}
		s.surfaceLowPileWarnings(sess)
		return nil
	})
}

func (s *gameServiceImpl) PickWinner(ctx context.Context, code string, judgeID uuid.UUID, submissionID uuid.UUID) (*models.Session, error) {
	return s.mutate(ctx, code, func(ctx context.Context, tx interfaces.DBTX, sess *models.Session) error {
		st := &sess.State
		if st.Phase != models.PhasePlaying {
			return models.NewGameError(models.KindInvalidState, "session is not playing")
		}
		r := st.Round
		if judgeID != r.JudgeID {
			return models.NewGameError(models.KindUnauthorized, "only the judge picks the winner")
		}
		if r.WinnerID != nil {
			return models.NewGameError(models.KindInvalidState, "the round is already decided")
		}
		if !r.ForceReview && !AllSubmitted(st) {
			return models.NewGameError(models.KindInvalidState, "not everyone has submitted yet")
		}

		var winning *models.Submission
		for i := range r.Submissions {
			if r.Submissions[i].ID == submissionID {
				winning = &r.Submissions[i]
				break
			}
		}
		if winning == nil {
			return models.NewGameError(models.KindNotFound, "submission not found")
		}
		winner := st.Participant(winning.ParticipantID)
		if winner == nil {
			return models.NewGameError(models.KindNotFound, "winning participant no longer present")
		}

		winner.Score++
		r.WinnerID = &winning.ParticipantID

		record := models.RoundRecord{
			SessionCode:  sess.Code,
			RoundNumber:  r.Number,
			PromptID:     r.PromptID,
			JudgeID:      r.JudgeID,
			WinnerID:     winning.ParticipantID,
			WinningCards: append([]uuid.UUID{}, winning.CardIDs...),
			Submissions:  append([]models.Submission{}, r.Submissions...),
			CreatedAt:    time.Now().UTC(),
		}
		if err := s.rounds.Append(ctx, tx, &record); err != nil {
			return err
		}

		st.AddToast(winner.Name+" won the round", time.Now().UTC())
		s.logger.Info("Round decided",
			zap.String("sessionCode", sess.Code),
			zap.Int("round", r.Number),
			zap.String("winner", winner.Name))

		if w := CheckForWinner(st); w != nil {
			s.finishGame(st, w.ID, models.EndReasonScoreReached)
		}
		return nil
	})
}

func (s *gameServiceImpl) AdvanceRound(ctx context.Context, code string, callerID uuid.UUID) (*models.Session, error) {
	return s.mutate(ctx, code, func(ctx context.Context, tx interfaces.DBTX, sess *models.Session) error {
		st := &sess.State
		if st.Phase != models.PhasePlaying {
			return models.NewGameError(models.KindInvalidState, "session is not playing")
		}
		caller := st.Participant(callerID)
		if caller == nil {
			return models.NewGameError(models.KindNotFound, "participant not found")
		}
		if callerID != st.Round.JudgeID && !caller.IsCreator {
			return models.NewGameError(models.KindUnauthorized, "only the judge or the host advances the round")
		}
		if st.Round.WinnerID == nil {
			return models.NewGameError(models.KindInvalidState, "pick a winner before advancing")
		}
		if len(st.Rotation.Skipped) > 0 {
			return models.NewGameError(models.KindInvalidState,
				"skipped players must be placed into the judge order first")
		}
		return s.advanceRoundLocked(ctx, sess, nil)
	})
}

func (s *gameServiceImpl) RevealSubmissions(ctx context.Context, code string, judgeID uuid.UUID) (*models.Session, error) {
	return s.mutate(ctx, code, func(ctx context.Context, tx interfaces.DBTX, sess *models.Session) error {
		st := &sess.State
		if st.Phase != models.PhasePlaying {
			return models.NewGameError(models.KindInvalidState, "session is not playing")
		}
		if judgeID != st.Round.JudgeID {
			return models.NewGameError(models.KindUnauthorized, "only the judge opens early review")
		}
		if len(st.Round.Submissions) == 0 {
			return models.NewGameError(models.KindInvalidState, "nothing has been submitted yet")
		}
		st.Round.ForceReview = true
		st.AddToast("The judge opened the submissions early", time.Now().UTC())
		return nil
	})
}

func (s *gameServiceImpl) History(ctx context.Context, code string) ([]*models.RoundRecord, error) {
	if !models.ValidateSessionCode(code) {
		return nil, models.NewGameError(models.KindValidation, "malformed session code %q", code)
	}
	return s.rounds.ListBySession(ctx, s.db, code)
}

// advanceRoundLocked performs the shared round transition. forcedJudge, when
// set, overrides normal succession; the caller is responsible for the
// rotation bookkeeping in that case.
func (s *gameServiceImpl) advanceRoundLocked(ctx context.Context, sess *models.Session, forcedJudge *uuid.UUID) error {
	st := &sess.State
	r := st.Round

	discardSubmissions(sess)
	sess.Piles.DiscardPrompts = deck.ReturnToBottom(sess.Piles.DiscardPrompts, r.PromptID)

	if len(sess.Piles.DrawPrompts) == 0 {
		if st.Settings.UnlimitedRenew && len(sess.Piles.DiscardPrompts) > 0 {
			sess.Piles.DrawPrompts, sess.Piles.DiscardPrompts =
				s.reshuffled(sess.Piles.DrawPrompts, sess.Piles.DiscardPrompts)
			st.AddToast("Prompt discard pile was shuffled back in", time.Now().UTC())
		} else {
			winner := st.TopScorer()
			if winner == nil {
				return models.NewGameError(models.KindInvalidState, "no participants remain")
			}
			s.finishGame(st, winner.ID, models.EndReasonPromptsExhausted)
			return nil
		}
	}

	var judgeID uuid.UUID
	var err error
	if forcedJudge != nil {
		judgeID = *forcedJudge
	} else {
		judgeID, err = s.nextJudge(st, r.JudgeID)
		if err != nil {
			return err
		}
	}

	promptID, rest, err := deck.DrawOne(sess.Piles.DrawPrompts)
	if err != nil {
		return err
	}
	sess.Piles.DrawPrompts = rest
	pick, err := s.promptPick(ctx, promptID)
	if err != nil {
		return err
	}
	if bonus := deck.BonusCardCount(pick); bonus > 0 {
		sess.Piles.DrawResponses, err = deck.DealBonus(st.Participants, sess.Piles.DrawResponses, bonus)
		if err != nil {
			return err
		}
	}

	st.Round = &models.RoundState{
		Number:      r.Number + 1,
		JudgeID:     judgeID,
		PromptID:    promptID,
		Submissions: []models.Submission{},
	}
	if err := s.autoSubmit(sess, pick); err != nil {
		return err
	}
	s.surfaceLowPileWarnings(sess)
	s.logger.Info("Round advanced",
		zap.String("sessionCode", sess.Code),
		zap.Int("round", st.Round.Number))
	return nil
}

func hasDuplicates(ids []uuid.UUID) bool {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}
