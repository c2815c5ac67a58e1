package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"party-server/internal/deck"
	"party-server/internal/interfaces"
	"party-server/internal/models"
)

// LifecycleService manages session creation, membership, judge rotation and
// host duties.
type LifecycleService interface {
	// CreateSession builds piles from the tag filter and inserts the session
	// under a freshly generated code, retrying a bounded number of times on
	// collisions. Returns the session and the creator's participant id.
	CreateSession(ctx context.Context, creatorName string, tagIDs []uuid.UUID, settings models.GameSettings) (*models.Session, uuid.UUID, error)

	// Join adds a participant to a waiting session.
	Join(ctx context.Context, code, name string) (*models.Session, uuid.UUID, error)

	// JoinLate adds a participant to a running session, inserting them into
	// the judge rotation between the two named adjacent participants and
	// dealing a full hand immediately.
	JoinLate(ctx context.Context, code, name string, anchorA, anchorB uuid.UUID) (*models.Session, uuid.UUID, error)

	// Start transitions a waiting session to playing: deals hands, draws the
	// opening prompt and selects the first judge at random. Creator only.
	Start(ctx context.Context, code string, callerID uuid.UUID) (*models.Session, error)

	// Leave removes the caller; their hand goes to the discard pile.
	Leave(ctx context.Context, code string, participantID uuid.UUID) (*models.Session, error)

	// RemovePlayer removes the target administratively; their hand returns
	// to the draw pile. Creator only.
	RemovePlayer(ctx context.Context, code string, callerID, targetID uuid.UUID) (*models.Session, error)

	// SetNextCzar records the current judge's successor nomination while the
	// rotation is unlocked. Closing the circle surfaces skipped players.
	SetNextCzar(ctx context.Context, code string, callerID, nomineeID uuid.UUID) (*models.Session, error)

	// PlaceSkippedPlayer inserts a skipped participant into the rotation
	// after afterID; the placed participant judges the next round
	// immediately. Creator only. The rotation locks once no skipped remain.
	PlaceSkippedPlayer(ctx context.Context, code string, callerID, skippedID, afterID uuid.UUID) (*models.Session, error)

	// VoteToSkipCzar toggles the caller's skip vote; two distinct votes
	// advance the judge.
	VoteToSkipCzar(ctx context.Context, code string, voterID uuid.UUID) (*models.Session, error)

	// SkipCzar advances the judge unconditionally. Creator only.
	SkipCzar(ctx context.Context, code string, callerID uuid.UUID) (*models.Session, error)

	// TogglePlayerPause pauses or resumes a participant; paused players are
	// excluded from the judge rotation and the submission requirement.
	// Creator or the participant themselves.
	TogglePlayerPause(ctx context.Context, code string, callerID, targetID uuid.UUID) (*models.Session, error)

	// TransferHost hands the creator flag to another participant, optionally
	// removing the old host from the session.
	TransferHost(ctx context.Context, code string, callerID, newHostID uuid.UUID, removeOld bool) (*models.Session, error)

	// ReshuffleDiscardPile folds both discard piles beneath their draw
	// piles. Creator only, playing phase only.
	ReshuffleDiscardPile(ctx context.Context, code string, callerID uuid.UUID) (*models.Session, error)

	// DeleteSession removes a finished session permanently, round history
	// included. Creator only.
	DeleteSession(ctx context.Context, code string, callerID uuid.UUID) error

	// GetSession is a lock-free snapshot read; it may race benignly with a
	// concurrent mutation and must be treated as possibly stale.
	GetSession(ctx context.Context, code string) (*models.Session, error)
}

func (s *gameServiceImpl) CreateSession(ctx context.Context, creatorName string, tagIDs []uuid.UUID, settings models.GameSettings) (*models.Session, uuid.UUID, error) {
	name, err := validateName(creatorName)
	if err != nil {
		return nil, uuid.Nil, err
	}
	settings, err = s.normalizeSettings(settings)
	if err != nil {
		return nil, uuid.Nil, err
	}

	tags, err := s.cards.FilterActiveTagIDs(ctx, tagIDs)
	if err != nil {
		return nil, uuid.Nil, err
	}
	promptIDs, err := s.cards.ListActiveIDs(ctx, models.CardTypePrompt, tags)
	if err != nil {
		return nil, uuid.Nil, err
	}
	responseIDs, err := s.cards.ListActiveIDs(ctx, models.CardTypeResponse, tags)
	if err != nil {
		return nil, uuid.Nil, err
	}

	now := time.Now().UTC()
	creator := &models.Participant{
		ID:        uuid.New(),
		Name:      name,
		Hand:      models.Pile{},
		IsCreator: true,
		JoinedAt:  now,
	}
	sess := &models.Session{
		TagIDs: tags,
		Piles: models.Piles{
			DrawPrompts:      s.shuffled(promptIDs),
			DrawResponses:    s.shuffled(responseIDs),
			DiscardPrompts:   models.Pile{},
			DiscardResponses: models.Pile{},
		},
		State: models.SessionState{
			Phase:        models.PhaseWaiting,
			Settings:     settings,
			Participants: []*models.Participant{creator},
		},
	}

	for attempt := 0; attempt < s.cfg.SessionCodeAttempts; attempt++ {
		sess.Code = s.newSessionCode()
		err = s.sessions.Insert(ctx, s.db, sess)
		if err == nil {
			s.logger.Info("Session created",
				zap.String("sessionCode", sess.Code),
				zap.Int("promptCards", len(sess.Piles.DrawPrompts)),
				zap.Int("responseCards", len(sess.Piles.DrawResponses)))
			return sess, creator.ID, nil
		}
		if !errors.Is(err, models.ErrSessionCodeTaken) {
			return nil, uuid.Nil, err
		}
	}
	s.logger.Error("Session code generation exhausted",
		zap.Int("attempts", s.cfg.SessionCodeAttempts))
	return nil, uuid.Nil, models.NewGameError(models.KindCodeGenerationExhausted,
		"could not find a free session code in %d attempts", s.cfg.SessionCodeAttempts)
}

func (s *gameServiceImpl) Join(ctx context.Context, code, name string) (*models.Session, uuid.UUID, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, uuid.Nil, err
	}
	var participantID uuid.UUID
	sess, err := s.mutate(ctx, code, func(ctx context.Context, tx interfaces.DBTX, sess *models.Session) error {
		st := &sess.State
		if st.Phase != models.PhaseWaiting {
			return models.NewGameError(models.KindInvalidState, "session already started; use late join")
		}
		if err := checkJoinable(st, name); err != nil {
			return err
		}
		now := time.Now().UTC()
		p := &models.Participant{ID: uuid.New(), Name: name, Hand: models.Pile{}, JoinedAt: now}
		st.Participants = append(st.Participants, p)
		st.AddToast(name+" joined the session", now)
		participantID = p.ID
		return nil
	})
	if err != nil {
		return nil, uuid.Nil, err
	}
	return sess, participantID, nil
}

func (s *gameServiceImpl) JoinLate(ctx context.Context, code, name string, anchorA, anchorB uuid.UUID) (*models.Session, uuid.UUID, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, uuid.Nil, err
	}
	var participantID uuid.UUID
	sess, err := s.mutate(ctx, code, func(ctx context.Context, tx interfaces.DBTX, sess *models.Session) error {
		st := &sess.State
		if st.Phase != models.PhasePlaying {
			return models.NewGameError(models.KindInvalidState, "late join is only possible while the session is playing")
		}
		if err := checkJoinable(st, name); err != nil {
			return err
		}
		if st.Participant(anchorA) == nil || st.Participant(anchorB) == nil {
			return models.NewGameError(models.KindValidation, "both named neighbours must be current participants")
		}

		// full hand plus the current prompt's bonus so the newcomer can play
		// this round
		pick, err := s.promptPick(ctx, st.Round.PromptID)
		if err != nil {
			return err
		}
		handSize := st.Settings.HandSize + deck.BonusCardCount(pick)
		hand, rest, err := deck.Draw(sess.Piles.DrawResponses, handSize)
		if err != nil {
			return err
		}
		sess.Piles.DrawResponses = rest

		now := time.Now().UTC()
		p := &models.Participant{ID: uuid.New(), Name: name, Hand: hand, JoinedAt: now}
		st.Participants = append(st.Participants, p)
		// The rotation only records ids once they have appeared as judges; if
		// neither neighbour has judged yet, the newcomer is picked up by the
		// skipped-player diff at the wrap instead.
		insertIntoRotation(&st.Rotation, p.ID, anchorA, anchorB)
		st.AddToast(name+" joined mid-game", now)
		s.surfaceLowPileWarnings(sess)
		participantID = p.ID
		return nil
	})
	if err != nil {
		return nil, uuid.Nil, err
	}
	return sess, participantID, nil
}

func (s *gameServiceImpl) Start(ctx context.Context, code string, callerID uuid.UUID) (*models.Session, error) {
	return s.mutate(ctx, code, func(ctx context.Context, tx interfaces.DBTX, sess *models.Session) error {
		st := &sess.State
		if err := requireCreator(st, callerID); err != nil {
			return err
		}
		if st.Phase != models.PhaseWaiting {
			return models.NewGameError(models.KindInvalidState, "session is already %s", st.Phase)
		}
		if len(st.Participants) < st.Settings.MinPlayers {
			return models.NewGameError(models.KindValidation,
				"need at least %d participants to start, have %d", st.Settings.MinPlayers, len(st.Participants))
		}
		if len(sess.Piles.DrawPrompts) == 0 {
			return models.NewGameError(models.KindInsufficientSupply, "no prompt cards available for the selected tags")
		}
		needed := len(st.Participants) * st.Settings.HandSize
		if len(sess.Piles.DrawResponses) < needed {
			return models.NewGameError(models.KindInsufficientSupply,
				"response pile has %d cards, %d required for opening hands", len(sess.Piles.DrawResponses), needed)
		}

		now := time.Now().UTC()
		if st.Settings.AutoPlayerEnabled {
			st.Participants = append(st.Participants, &models.Participant{
				ID:           uuid.New(),
				Name:         s.cfg.AutoPlayerName,
				Hand:         models.Pile{}, // the auto-player keeps no hand
				IsAutoPlayer: true,
				JoinedAt:     now,
			})
		}

		for _, p := range st.Participants {
			if p.IsAutoPlayer {
				continue
			}
			hand, rest, err := deck.Draw(sess.Piles.DrawResponses, st.Settings.HandSize)
			if err != nil {
				return err
			}
			p.Hand = hand
			sess.Piles.DrawResponses = rest
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

		judgeID, err := s.pickRandomJudge(st, uuid.Nil)
		if err != nil {
			return err
		}
		st.Rotation = models.Rotation{Order: []uuid.UUID{judgeID}}
		st.Phase = models.PhasePlaying
		st.Round = &models.RoundState{
			Number:      1,
			JudgeID:     judgeID,
			PromptID:    promptID,
			Submissions: []models.Submission{},
		}
		if err := s.autoSubmit(sess, pick); err != nil {
			return err
		}
		st.AddToast("The game has started", now)
		s.surfaceLowPileWarnings(sess)
		s.logger.Info("Session started",
			zap.String("sessionCode", sess.Code),
			zap.Int("participants", len(st.Participants)))
		return nil
	})
}

func (s *gameServiceImpl) Leave(ctx context.Context, code string, participantID uuid.UUID) (*models.Session, error) {
	return s.mutate(ctx, code, func(ctx context.Context, tx interfaces.DBTX, sess *models.Session) error {
		// self-leave discards the hand so quitting never recycles good cards
		// back into circulation
		return s.removeParticipantLocked(ctx, sess, participantID, false)
	})
}

func (s *gameServiceImpl) RemovePlayer(ctx context.Context, code string, callerID, targetID uuid.UUID) (*models.Session, error) {
	return s.mutate(ctx, code, func(ctx context.Context, tx interfaces.DBTX, sess *models.Session) error {
		st := &sess.State
		if err := requireCreator(st, callerID); err != nil {
			return err
		}
		if callerID == targetID {
			return models.NewGameError(models.KindValidation, "use leave to remove yourself")
		}
		// administrative removal returns the hand to the draw pile
		return s.removeParticipantLocked(ctx, sess, targetID, true)
	})
}

func (s *gameServiceImpl) SetNextCzar(ctx context.Context, code string, callerID, nomineeID uuid.UUID) (*models.Session, error) {
	return s.mutate(ctx, code, func(ctx context.Context, tx interfaces.DBTX, sess *models.Session) error {
		st := &sess.State
		if st.Phase != models.PhasePlaying {
			return models.NewGameError(models.KindInvalidState, "session is not playing")
		}
		if st.Round.JudgeID != callerID {
			return models.NewGameError(models.KindUnauthorized, "only the current judge nominates a successor")
		}
		if st.Rotation.Locked {
			return models.NewGameError(models.KindInvalidState, "judge order is locked; succession is automatic")
		}
		if st.Round.NextJudgeID != nil {
			return models.NewGameError(models.KindInvalidState, "a successor is already nominated")
		}
		nominee := st.Participant(nomineeID)
		if nominee == nil {
			return models.NewGameError(models.KindNotFound, "nominated participant not found")
		}
		if nominee.IsAutoPlayer {
			return models.NewGameError(models.KindValidation, "the auto-player never judges")
		}
		if nominee.IsPaused {
			return models.NewGameError(models.KindValidation, "a paused participant cannot judge")
		}

		now := time.Now().UTC()
		if len(st.Rotation.Order) > 0 && nomineeID == st.Rotation.Order[0] {
			// The nomination closes the circle. Diff the eligible set against
			// everyone who has held the judge role; this is the only moment
			// the skipped set is computed.
			skipped := skippedParticipants(st)
			if len(skipped) > 0 {
				st.Rotation.Skipped = skipped
				st.AddToast("Some players never had a judge turn; the host must place them", now)
				return nil
			}
			st.Rotation.Locked = true
			st.Round.NextJudgeID = &nomineeID
			st.AddToast("Judge order is now locked", now)
			return nil
		}
		if st.Rotation.Contains(nomineeID) {
			return models.NewGameError(models.KindValidation, "%s already had a judge turn", nominee.Name)
		}
		st.Rotation.Order = append(st.Rotation.Order, nomineeID)
		st.Round.NextJudgeID = &nomineeID
		st.AddToast(nominee.Name+" will judge the next round", now)
		return nil
	})
}

func (s *gameServiceImpl) PlaceSkippedPlayer(ctx context.Context, code string, callerID, skippedID, afterID uuid.UUID) (*models.Session, error) {
	return s.mutate(ctx, code, func(ctx context.Context, tx interfaces.DBTX, sess *models.Session) error {
		st := &sess.State
		if err := requireCreator(st, callerID); err != nil {
			return err
		}
		if st.Phase != models.PhasePlaying {
			return models.NewGameError(models.KindInvalidState, "session is not playing")
		}
		if st.Rotation.Locked {
			return models.NewGameError(models.KindInvalidState, "judge order is already locked")
		}
		// placement advances the round, so the current one must be decided
		if st.Round.WinnerID == nil {
			return models.NewGameError(models.KindInvalidState, "pick a winner before placing skipped players")
		}
		found := false
		for _, id := range st.Rotation.Skipped {
			if id == skippedID {
				found = true
				break
			}
		}
		if !found {
			return models.NewGameError(models.KindValidation, "participant is not in the skipped set")
		}
		afterIdx := -1
		for i, id := range st.Rotation.Order {
			if id == afterID {
				afterIdx = i
				break
			}
		}
		if afterIdx < 0 {
			return models.NewGameError(models.KindValidation, "placement anchor is not in the judge order")
		}

		st.Rotation.Order = append(st.Rotation.Order, uuid.Nil)
		copy(st.Rotation.Order[afterIdx+2:], st.Rotation.Order[afterIdx+1:])
		st.Rotation.Order[afterIdx+1] = skippedID
		st.Rotation.RemoveFromSkipped(skippedID)
		if len(st.Rotation.Skipped) == 0 {
			st.Rotation.Locked = true
			st.AddToast("Judge order is now locked", time.Now().UTC())
		}
		// the placed participant takes the judge seat for the next round
		return s.advanceRoundLocked(ctx, sess, &skippedID)
	})
}

func (s *gameServiceImpl) VoteToSkipCzar(ctx context.Context, code string, voterID uuid.UUID) (*models.Session, error) {
	return s.mutate(ctx, code, func(ctx context.Context, tx interfaces.DBTX, sess *models.Session) error {
		st := &sess.State
		if st.Phase != models.PhasePlaying {
			return models.NewGameError(models.KindInvalidState, "session is not playing")
		}
		voter := st.Participant(voterID)
		if voter == nil {
			return models.NewGameError(models.KindNotFound, "participant not found")
		}
		if voter.IsAutoPlayer {
			return models.NewGameError(models.KindValidation, "the auto-player does not vote")
		}
		if voterID == st.Round.JudgeID {
			return models.NewGameError(models.KindValidation, "the judge cannot vote to skip themselves")
		}

		r := st.Round
		if r.HasSkipVote(voterID) {
			// toggle off
			for i, v := range r.SkipVotes {
				if v == voterID {
					r.SkipVotes = append(r.SkipVotes[:i], r.SkipVotes[i+1:]...)
					break
				}
			}
			return nil
		}
		r.SkipVotes = append(r.SkipVotes, voterID)
		if len(r.SkipVotes) < 2 {
			return nil
		}
		return s.skipCzarLocked(ctx, sess)
	})
}

func (s *gameServiceImpl) SkipCzar(ctx context.Context, code string, callerID uuid.UUID) (*models.Session, error) {
	return s.mutate(ctx, code, func(ctx context.Context, tx interfaces.DBTX, sess *models.Session) error {
		st := &sess.State
		if err := requireCreator(st, callerID); err != nil {
			return err
		}
		if st.Phase != models.PhasePlaying {
			return models.NewGameError(models.KindInvalidState, "session is not playing")
		}
		return s.skipCzarLocked(ctx, sess)
	})
}

func (s *gameServiceImpl) TogglePlayerPause(ctx context.Context, code string, callerID, targetID uuid.UUID) (*models.Session, error) {
	return s.mutate(ctx, code, func(ctx context.Context, tx interfaces.DBTX, sess *models.Session) error {
		st := &sess.State
		caller := st.Participant(callerID)
		if caller == nil {
			return models.NewGameError(models.KindNotFound, "participant not found")
		}
		if !caller.IsCreator && callerID != targetID {
			return models.NewGameError(models.KindUnauthorized, "only the host pauses other players")
		}
		target := st.Participant(targetID)
		if target == nil {
			return models.NewGameError(models.KindNotFound, "participant not found")
		}
		if target.IsAutoPlayer {
			return models.NewGameError(models.KindValidation, "the auto-player cannot be paused")
		}

		target.IsPaused = !target.IsPaused
		now := time.Now().UTC()
		if target.IsPaused {
			st.AddToast(target.Name+" is paused", now)
			// a paused judge cannot finish the round; hand the seat on
			if st.Phase == models.PhasePlaying && st.Round.JudgeID == targetID {
				return s.skipCzarLocked(ctx, sess)
			}
		} else {
			st.AddToast(target.Name+" is back", now)
		}
		return nil
	})
}

func (s *gameServiceImpl) TransferHost(ctx context.Context, code string, callerID, newHostID uuid.UUID, removeOld bool) (*models.Session, error) {
	return s.mutate(ctx, code, func(ctx context.Context, tx interfaces.DBTX, sess *models.Session) error {
		st := &sess.State
		if err := requireCreator(st, callerID); err != nil {
			return err
		}
		newHost := st.Participant(newHostID)
		if newHost == nil {
			return models.NewGameError(models.KindNotFound, "participant not found")
		}
		if newHost.IsAutoPlayer {
			return models.NewGameError(models.KindValidation, "the auto-player cannot host")
		}
		if newHostID == callerID {
			return models.NewGameError(models.KindValidation, "caller is already the host")
		}

		st.Participant(callerID).IsCreator = false
		newHost.IsCreator = true
		st.AddToast(newHost.Name+" is now the host", time.Now().UTC())
		if removeOld {
			return s.removeParticipantLocked(ctx, sess, callerID, false)
		}
		return nil
	})
}

func (s *gameServiceImpl) ReshuffleDiscardPile(ctx context.Context, code string, callerID uuid.UUID) (*models.Session, error) {
	return s.mutate(ctx, code, func(ctx context.Context, tx interfaces.DBTX, sess *models.Session) error {
		st := &sess.State
		if err := requireCreator(st, callerID); err != nil {
			return err
		}
		if st.Phase != models.PhasePlaying {
			return models.NewGameError(models.KindInvalidState, "session is not playing")
		}
		sess.Piles.DrawResponses, sess.Piles.DiscardResponses =
			s.reshuffled(sess.Piles.DrawResponses, sess.Piles.DiscardResponses)
		sess.Piles.DrawPrompts, sess.Piles.DiscardPrompts =
			s.reshuffled(sess.Piles.DrawPrompts, sess.Piles.DiscardPrompts)
		st.AddToast("Discard piles were shuffled back in", time.Now().UTC())
		return nil
	})
}

func (s *gameServiceImpl) DeleteSession(ctx context.Context, code string, callerID uuid.UUID) error {
	return s.locker.WithLock(ctx, code, func(ctx context.Context, tx interfaces.DBTX) error {
		sess, err := s.sessions.GetByCode(ctx, tx, code)
		if err != nil {
			return err
		}
		if err := requireCreator(&sess.State, callerID); err != nil {
			return err
		}
		if sess.State.Phase != models.PhaseFinished {
			return models.NewGameError(models.KindInvalidState, "only finished sessions can be deleted")
		}
		if err := s.rounds.DeleteBySession(ctx, tx, code); err != nil {
			return err
		}
		if err := s.sessions.Delete(ctx, tx, code); err != nil {
			return err
		}
		s.logger.Info("Session deleted", zap.String("sessionCode", code))
		return nil
	})
}

func (s *gameServiceImpl) GetSession(ctx context.Context, code string) (*models.Session, error) {
	if !models.ValidateSessionCode(code) {
		return nil, models.NewGameError(models.KindValidation, "malformed session code %q", code)
	}
	return s.sessions.GetByCode(ctx, s.db, code)
}

// --- internal helpers ---

func checkJoinable(st *models.SessionState, name string) error {
	if len(st.Participants) >= st.Settings.MaxPlayers {
		return models.NewGameError(models.KindValidation, "session is full")
	}
	if st.ParticipantByName(name) != nil {
		return models.NewGameError(models.KindValidation, "name %q is already taken", name)
	}
	return nil
}

func requireCreator(st *models.SessionState, callerID uuid.UUID) error {
	caller := st.Participant(callerID)
	if caller == nil {
		return models.NewGameError(models.KindNotFound, "participant not found")
	}
	if !caller.IsCreator {
		return models.NewGameError(models.KindUnauthorized, "only the host may do this")
	}
	return nil
}

// skippedParticipants is the ordered-set difference between all eligible
// non-paused participants and the recorded judge order.
func skippedParticipants(st *models.SessionState) []uuid.UUID {
	skipped := make([]uuid.UUID, 0)
	for _, p := range st.Participants {
		if p.IsAutoPlayer || p.IsPaused {
			continue
		}
		if !st.Rotation.Contains(p.ID) {
			skipped = append(skipped, p.ID)
		}
	}
	return skipped
}

// skipCzarLocked hands the judge seat on without advancing the round:
// submitted cards are discarded, submissions and votes cleared, the prompt
// and round number stay.
func (s *gameServiceImpl) skipCzarLocked(ctx context.Context, sess *models.Session) error {
	st := &sess.State
	r := st.Round
	oldJudge := r.JudgeID

	discardSubmissions(sess)
	r.SkipVotes = nil
	r.ForceReview = false

	var nextID uuid.UUID
	var err error
	switch {
	case st.Rotation.Locked:
		nextID, err = nextCzarLocked(st, oldJudge)
	case r.NextJudgeID != nil:
		nextID = *r.NextJudgeID
		r.NextJudgeID = nil
	default:
		// the skipped judge never nominated; pick someone at random and
		// record their appearance
		nextID, err = s.pickRandomJudge(st, oldJudge)
		if err == nil && !st.Rotation.Contains(nextID) {
			st.Rotation.Order = append(st.Rotation.Order, nextID)
		}
	}
	if err != nil {
		return err
	}
	r.JudgeID = nextID

	pick, err := s.promptPick(ctx, r.PromptID)
	if err != nil {
		return err
	}
	if err := s.autoSubmit(sess, pick); err != nil {
		return err
	}
	if next := st.Participant(nextID); next != nil {
		st.AddToast("Judge skipped; "+next.Name+" now judges", time.Now().UTC())
	}
	return nil
}

// removeParticipantLocked extracts a participant. returnToDraw selects the
// administrative variant (hand back to the draw pile) over self-leave (hand
// to the discard pile).
func (s *gameServiceImpl) removeParticipantLocked(ctx context.Context, sess *models.Session, id uuid.UUID, returnToDraw bool) error {
	st := &sess.State
	p := st.Participant(id)
	if p == nil {
		return models.NewGameError(models.KindNotFound, "participant not found")
	}
	if p.IsAutoPlayer {
		return models.NewGameError(models.KindValidation, "the auto-player cannot be removed")
	}

	wasJudge := st.Round != nil && st.Round.JudgeID == id
	hadSubmissions := st.Round != nil && len(st.Round.Submissions) > 0

	// drop their pending submission; those cards are out of play
	if st.Round != nil {
		if sub := st.Round.SubmissionBy(id); sub != nil {
			sess.Piles.DiscardResponses = deck.ReturnToBottom(sess.Piles.DiscardResponses, sub.CardIDs...)
			for i := range st.Round.Submissions {
				if st.Round.Submissions[i].ParticipantID == id {
					st.Round.Submissions = append(st.Round.Submissions[:i], st.Round.Submissions[i+1:]...)
					break
				}
			}
		}
	}

	removed := st.RemoveParticipant(id)
	if returnToDraw {
		sess.Piles.DrawResponses = deck.ReturnToBottom(sess.Piles.DrawResponses, removed.Hand...)
	} else {
		sess.Piles.DiscardResponses = deck.ReturnToBottom(sess.Piles.DiscardResponses, removed.Hand...)
	}
	removed.Hand = nil

	now := time.Now().UTC()
	st.AddToast(removed.Name+" left the session", now)

	// keep exactly one creator
	if removed.IsCreator {
		promoted := false
		for _, q := range st.Participants {
			if !q.IsAutoPlayer {
				q.IsCreator = true
				st.AddToast(q.Name+" is now the host", now)
				promoted = true
				break
			}
		}
		if !promoted && st.Phase != models.PhaseFinished {
			// nobody left to host; the floor check below will finish the game
			s.logger.Warn("Session has no human participants left", zap.String("sessionCode", sess.Code))
		}
	}

	if st.Phase != models.PhasePlaying {
		return nil
	}
	if len(st.EligibleParticipants()) < minEligibleParticipants {
		winner := st.TopScorer()
		if winner == nil {
			return models.NewGameError(models.KindInvalidState, "no participants remain")
		}
		s.finishGame(st, winner.ID, models.EndReasonTooFewPlayers)
		return nil
	}
	if !wasJudge {
		return nil
	}
	if hadSubmissions {
		// mid-round judge loss forces a round redo: same round number, fresh
		// prompt, fresh bonus deal
		return s.resetRoundLocked(ctx, sess)
	}
	// no submissions yet; just seat the next judge on the same prompt
	nextID, err := s.nextJudge(st, id)
	if err != nil {
		return err
	}
	st.Round.JudgeID = nextID
	return nil
}

// nextJudge resolves succession for the current rotation mode.
func (s *gameServiceImpl) nextJudge(st *models.SessionState, afterID uuid.UUID) (uuid.UUID, error) {
	if st.Rotation.Locked {
		return nextCzarLocked(st, afterID)
	}
	if st.Round != nil && st.Round.NextJudgeID != nil {
		next := *st.Round.NextJudgeID
		st.Round.NextJudgeID = nil
		return next, nil
	}
	next, err := s.pickRandomJudge(st, afterID)
	if err != nil {
		return uuid.Nil, err
	}
	if !st.Rotation.Contains(next) {
		st.Rotation.Order = append(st.Rotation.Order, next)
	}
	return next, nil
}

// resetRoundLocked redoes the current round after a judge removal: all
// submitted cards are discarded, a fresh prompt is drawn and bonus cards
// re-dealt. The round number does not change and the phase stays playing.
func (s *gameServiceImpl) resetRoundLocked(ctx context.Context, sess *models.Session) error {
	st := &sess.State
	r := st.Round

	discardSubmissions(sess)
	r.SkipVotes = nil
	r.ForceReview = false
	r.WinnerID = nil

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
	promptID, rest, err := deck.DrawOne(sess.Piles.DrawPrompts)
	if err != nil {
		return err
	}
	sess.Piles.DrawPrompts = rest
	r.PromptID = promptID

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

	nextID, err := s.nextJudge(st, r.JudgeID)
	if err != nil {
		return err
	}
	r.JudgeID = nextID
	if err := s.autoSubmit(sess, pick); err != nil {
		return err
	}
	st.AddToast("The round was redone with a fresh prompt", time.Now().UTC())
	s.surfaceLowPileWarnings(sess)
	return nil
}
