package service

import (
	"context"
	"hash/fnv"
	"math/rand"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"party-server/internal/interfaces"
	"party-server/internal/models"
)

// CardView is a hydrated card as shown to a client.
type CardView struct {
	ID   uuid.UUID       `json:"id"`
	Type models.CardType `json:"type"`
	Text string          `json:"text"`
	Pick int             `json:"pick,omitempty"`
}

// ParticipantView exposes a participant without their hand contents.
type ParticipantView struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Score        int       `json:"score"`
	HandSize     int       `json:"handSize"`
	IsCreator    bool      `json:"isCreator"`
	IsPaused     bool      `json:"isPaused"`
	IsAutoPlayer bool      `json:"isAutoPlayer"`
	HasSubmitted bool      `json:"hasSubmitted"`
}

// SubmissionView is one played set of cards. Cards is nil while submissions
// are still hidden.
type SubmissionView struct {
	ID    uuid.UUID  `json:"id"`
	Cards []CardView `json:"cards,omitempty"`
	// WinnerName is set only once the round is decided.
	WinnerName string `json:"winnerName,omitempty"`
	// Mine marks the viewer's own submission so clients can highlight it.
	Mine bool `json:"mine"`
}

// RoundView is the viewer-specific projection of the current round.
type RoundView struct {
	Number      int              `json:"number"`
	JudgeID     uuid.UUID        `json:"judgeId"`
	Prompt      CardView         `json:"prompt"`
	Submissions []SubmissionView `json:"submissions"`
	Revealed    bool             `json:"revealed"`
	SkipVotes   int              `json:"skipVotes"`
	WinnerID    *uuid.UUID       `json:"winnerId,omitempty"`
}

// ResultView reports a finished game.
type ResultView struct {
	WinnerID   uuid.UUID `json:"winnerId"`
	WinnerName string    `json:"winnerName"`
	EndReason  string    `json:"endReason"`
}

// SessionView is the full client-facing snapshot of a session as seen by one
// viewer. Only the viewer's own hand is hydrated.
type SessionView struct {
	Code          string              `json:"code"`
	Phase         models.SessionPhase `json:"phase"`
	Settings      models.GameSettings `json:"settings"`
	Participants  []ParticipantView   `json:"participants"`
	Hand          []CardView          `json:"hand"`
	Round         *RoundView          `json:"round,omitempty"`
	Result        *ResultView         `json:"result,omitempty"`
	SkippedIDs    []uuid.UUID         `json:"skippedIds,omitempty"`
	RotationOrder []uuid.UUID         `json:"rotationOrder,omitempty"`
	Toasts        []models.Toast      `json:"toasts"`
	DrawCounts    map[string]int      `json:"drawCounts"`
}

// Projector turns a stored session into viewer-specific snapshots. It never
// mutates the session and holds no lock; callers accept snapshot staleness.
type Projector struct {
	cards  interfaces.CardRepository
	logger *zap.Logger
}

func NewProjector(cards interfaces.CardRepository, logger *zap.Logger) *Projector {
	return &Projector{cards: cards, logger: logger.Named("Projector")}
}

// Project builds the view of sess for viewerID. An unknown viewer gets the
// spectator view: no hand, no privileged submission contents.
func (p *Projector) Project(ctx context.Context, sess *models.Session, viewerID uuid.UUID) (*SessionView, error) {
	st := &sess.State
	resolved, err := p.resolveCards(ctx, sess, viewerID)
	if err != nil {
		return nil, err
	}

	view := &SessionView{
		Code:         sess.Code,
		Phase:        st.Phase,
		Settings:     st.Settings,
		Participants: make([]ParticipantView, 0, len(st.Participants)),
		Hand:         []CardView{},
		Toasts:       st.Toasts,
		DrawCounts: map[string]int{
			"prompts":   len(sess.Piles.DrawPrompts),
			"responses": len(sess.Piles.DrawResponses),
		},
	}
	if view.Toasts == nil {
		view.Toasts = []models.Toast{}
	}

	for _, part := range st.Participants {
		pv := ParticipantView{
			ID:           part.ID,
			Name:         part.Name,
			Score:        part.Score,
			HandSize:     len(part.Hand),
			IsCreator:    part.IsCreator,
			IsPaused:     part.IsPaused,
			IsAutoPlayer: part.IsAutoPlayer,
		}
		if st.Round != nil {
			pv.HasSubmitted = st.Round.SubmissionBy(part.ID) != nil
		}
		view.Participants = append(view.Participants, pv)
	}

	if viewer := st.Participant(viewerID); viewer != nil {
		for _, cardID := range viewer.Hand {
			view.Hand = append(view.Hand, p.cardView(cardID, resolved))
		}
	}

	if st.Phase == models.PhasePlaying && len(st.Rotation.Skipped) > 0 {
		view.SkippedIDs = st.Rotation.Skipped
		view.RotationOrder = st.Rotation.Order
	}

	switch st.Phase {
	case models.PhasePlaying:
		view.Round = p.roundView(sess, viewerID, resolved)
	case models.PhaseFinished:
		winner := st.Participant(st.Result.WinnerID)
		winnerName := "unknown"
		if winner != nil {
			winnerName = winner.Name
		}
		view.Result = &ResultView{
			WinnerID:   st.Result.WinnerID,
			WinnerName: winnerName,
			EndReason:  string(st.Result.Reason),
		}
	}
	return view, nil
}

func (p *Projector) roundView(sess *models.Session, viewerID uuid.UUID, resolved map[uuid.UUID]*models.Card) *RoundView {
	st := &sess.State
	r := st.Round
	// A complete table (or forced review) opens the submissions to the judge
	// only; everyone sees them once the round is decided.
	tableComplete := r.ForceReview || AllSubmitted(st)
	revealed := r.WinnerID != nil || (tableComplete && viewerID == r.JudgeID)
	rv := &RoundView{
		Number:      r.Number,
		JudgeID:     r.JudgeID,
		Prompt:      p.cardView(r.PromptID, resolved),
		Submissions: make([]SubmissionView, 0, len(r.Submissions)),
		Revealed:    revealed,
		SkipVotes:   len(r.SkipVotes),
		WinnerID:    r.WinnerID,
	}

	// order submissions by a per-round deterministic shuffle so the judge
	// cannot correlate table position with submission time, while repeated
	// reads agree
	order := shuffledIndices(len(r.Submissions), sess.Code, r.Number)
	for _, idx := range order {
		sub := r.Submissions[idx]
		sv := SubmissionView{
			ID:   sub.ID,
			Mine: sub.ParticipantID == viewerID,
		}
		if revealed || sv.Mine {
			for _, cardID := range sub.CardIDs {
				sv.Cards = append(sv.Cards, p.cardView(cardID, resolved))
			}
		}
		if r.WinnerID != nil && sub.ParticipantID == *r.WinnerID {
			if winner := st.Participant(sub.ParticipantID); winner != nil {
				sv.WinnerName = winner.Name
			}
		}
		rv.Submissions = append(rv.Submissions, sv)
	}
	return rv
}

// resolveCards batch-loads every card id the viewer is entitled to see.
func (p *Projector) resolveCards(ctx context.Context, sess *models.Session, viewerID uuid.UUID) (map[uuid.UUID]*models.Card, error) {
	st := &sess.State
	ids := make([]uuid.UUID, 0, 32)
	if viewer := st.Participant(viewerID); viewer != nil {
		ids = append(ids, viewer.Hand...)
	}
	if st.Round != nil {
		ids = append(ids, st.Round.PromptID)
		for _, sub := range st.Round.Submissions {
			ids = append(ids, sub.CardIDs...)
		}
	}
	if len(ids) == 0 {
		return map[uuid.UUID]*models.Card{}, nil
	}
	return p.cards.GetByIDs(ctx, ids)
}

// cardView hydrates a single id, falling back to a placeholder when the card
// has gone missing from the catalog.
func (p *Projector) cardView(cardID uuid.UUID, resolved map[uuid.UUID]*models.Card) CardView {
	card, ok := resolved[cardID]
	if !ok || card == nil {
		p.logger.Warn("Card referenced by session is missing from the catalog",
			zap.String("cardId", cardID.String()))
		return CardView{ID: cardID, Text: "[missing card]"}
	}
	cv := CardView{ID: card.ID, Type: card.Type, Text: card.Text}
	if card.Type == models.CardTypePrompt {
		cv.Pick = card.PickCount()
	}
	return cv
}

// shuffledIndices permutes 0..n-1 with a seed derived from the session code
// and round number, so every projection of the same round agrees.
func shuffledIndices(n int, code string, round int) []int {
	h := fnv.New64a()
	h.Write([]byte(code))
	h.Write([]byte{byte(round), byte(round >> 8), byte(round >> 16), byte(round >> 24)})
	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	return idx
}
