package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Pile is an ordered list of card ids. The front (index 0) is the top of the
// pile: draws consume from the front, returns append to the back.
type Pile []uuid.UUID

// Piles holds the four card piles of a session, split by card type.
type Piles struct {
	DrawPrompts      Pile `json:"drawPrompts"`
	DrawResponses    Pile `json:"drawResponses"`
	DiscardPrompts   Pile `json:"discardPrompts"`
	DiscardResponses Pile `json:"discardResponses"`
}

// SessionPhase is the discriminator of the SessionState union.
type SessionPhase string

const (
	PhaseWaiting  SessionPhase = "waiting"
	PhasePlaying  SessionPhase = "playing"
	PhaseFinished SessionPhase = "finished"
)

// EndReason records why a session reached PhaseFinished.
type EndReason string

const (
	EndReasonScoreReached     EndReason = "score_reached"
	EndReasonPromptsExhausted EndReason = "prompts_exhausted"
	EndReasonTooFewPlayers    EndReason = "too_few_players"
)

// GameSettings are fixed at creation time.
type GameSettings struct {
	MinPlayers        int  `json:"minPlayers"`
	MaxPlayers        int  `json:"maxPlayers"`
	HandSize          int  `json:"handSize"`
	MaxScore          int  `json:"maxScore"`
	AutoPlayerEnabled bool `json:"autoPlayerEnabled"`
	UnlimitedRenew    bool `json:"unlimitedRenew"`
}

// Participant is a human player or the single automated stand-in.
type Participant struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Score        int       `json:"score"`
	Hand         Pile      `json:"hand"`
	IsCreator    bool      `json:"isCreator"`
	IsAutoPlayer bool      `json:"isAutoPlayer"`
	IsPaused     bool      `json:"isPaused"`
	JoinedAt     time.Time `json:"joinedAt"`
}

// HasCard reports whether the card is currently in the participant's hand.
func (p *Participant) HasCard(cardID uuid.UUID) bool {
	for _, id := range p.Hand {
		if id == cardID {
			return true
		}
	}
	return false
}

// RemoveFromHand removes the card from the hand, reporting whether it was held.
func (p *Participant) RemoveFromHand(cardID uuid.UUID) bool {
	for i, id := range p.Hand {
		if id == cardID {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return true
		}
	}
	return false
}

// Submission is one participant's answer for the current round. The id is
// what judges pick by, so the author stays hidden until the reveal.
type Submission struct {
	ID            uuid.UUID   `json:"id"`
	ParticipantID uuid.UUID   `json:"participantId"`
	CardIDs       Pile        `json:"cardIds"`
}

// Rotation is the append-only record of who has held the judge role, in the
// order judges actually appeared. Once the order wraps back to its first
// entry with no gaps it locks; gaps are surfaced in Skipped until the host
// re-inserts every skipped participant.
type Rotation struct {
	Order   []uuid.UUID `json:"order"`
	Locked  bool        `json:"locked"`
	Skipped []uuid.UUID `json:"skipped,omitempty"`
}

// Contains reports whether the participant appears in the recorded order.
func (r *Rotation) Contains(id uuid.UUID) bool {
	for _, o := range r.Order {
		if o == id {
			return true
		}
	}
	return false
}

// RemoveFromSkipped drops the id from the skipped set, reporting presence.
func (r *Rotation) RemoveFromSkipped(id uuid.UUID) bool {
	for i, s := range r.Skipped {
		if s == id {
			r.Skipped = append(r.Skipped[:i], r.Skipped[i+1:]...)
			return true
		}
	}
	return false
}

// RoundState carries the fields that only exist while the session is playing.
type RoundState struct {
	Number      int          `json:"number"`
	JudgeID     uuid.UUID    `json:"judgeId"`
	PromptID    uuid.UUID    `json:"promptId"`
	Submissions []Submission `json:"submissions"`
	SkipVotes   []uuid.UUID  `json:"skipVotes,omitempty"`
	WinnerID    *uuid.UUID   `json:"winnerId,omitempty"`    // set between winner pick and round advance
	NextJudgeID *uuid.UUID   `json:"nextJudgeId,omitempty"` // pending nomination while rotation is unlocked
	ForceReview bool         `json:"forceReview,omitempty"` // judge requested early submission review
}

// SubmissionBy returns the participant's submission for this round, if any.
func (r *RoundState) SubmissionBy(participantID uuid.UUID) *Submission {
	for i := range r.Submissions {
		if r.Submissions[i].ParticipantID == participantID {
			return &r.Submissions[i]
		}
	}
	return nil
}

// HasSkipVote reports whether the participant currently votes to skip.
func (r *RoundState) HasSkipVote(participantID uuid.UUID) bool {
	for _, v := range r.SkipVotes {
		if v == participantID {
			return true
		}
	}
	return false
}

// GameResult carries the fields that only exist once the session finished.
type GameResult struct {
	WinnerID uuid.UUID `json:"winnerId"`
	Reason   EndReason `json:"reason"`
	EndedAt  time.Time `json:"endedAt"`
}

// Toast is an ephemeral notification shown to all participants.
type Toast struct {
	ID        uuid.UUID `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToastTTL is how long a toast stays visible; older ones are pruned on every
// mutation that touches the toast list.
const ToastTTL = 30 * time.Second

// SessionState is the mutable payload of a session. Phase is the union tag:
// Round is non-nil exactly while playing, Result exactly once finished.
type SessionState struct {
	Phase        SessionPhase   `json:"phase"`
	Settings     GameSettings   `json:"settings"`
	Participants []*Participant `json:"participants"`
	Rotation     Rotation       `json:"rotation"`
	Round        *RoundState    `json:"round,omitempty"`
	Result       *GameResult    `json:"result,omitempty"`
	Toasts       []Toast        `json:"toasts,omitempty"`
}

// Participant looks up a participant by id.
func (s *SessionState) Participant(id uuid.UUID) *Participant {
	for _, p := range s.Participants {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// ParticipantByName looks up a participant by display name, case-insensitive.
func (s *SessionState) ParticipantByName(name string) *Participant {
	for _, p := range s.Participants {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

// Creator returns the participant holding the creator flag.
func (s *SessionState) Creator() *Participant {
	for _, p := range s.Participants {
		if p.IsCreator {
			return p
		}
	}
	return nil
}

// AutoPlayer returns the automated participant, or nil.
func (s *SessionState) AutoPlayer() *Participant {
	for _, p := range s.Participants {
		if p.IsAutoPlayer {
			return p
		}
	}
	return nil
}

// EligibleParticipants returns non-auto participants. These count toward the
// minimum-player floor and the judge rotation.
func (s *SessionState) EligibleParticipants() []*Participant {
	out := make([]*Participant, 0, len(s.Participants))
	for _, p := range s.Participants {
		if !p.IsAutoPlayer {
			out = append(out, p)
		}
	}
	return out
}

// EligibleSubmitters returns the participants expected to submit for the
// current round: everyone except the judge and paused players. The
// auto-player is included since it always submits.
func (s *SessionState) EligibleSubmitters() []*Participant {
	if s.Round == nil {
		return nil
	}
	out := make([]*Participant, 0, len(s.Participants))
	for _, p := range s.Participants {
		if p.ID == s.Round.JudgeID || p.IsPaused {
			continue
		}
		out = append(out, p)
	}
	return out
}

// TopScorer returns the participant with the highest score. Ties resolve to
// the earliest joiner; the auto-player is never the winner.
func (s *SessionState) TopScorer() *Participant {
	var best *Participant
	for _, p := range s.Participants {
		if p.IsAutoPlayer {
			continue
		}
		if best == nil || p.Score > best.Score {
			best = p
		}
	}
	return best
}

// RemoveParticipant detaches the participant from the state, including the
// rotation order, skipped set and any pending skip votes. The removed entry
// is returned so the caller can dispose of its hand.
func (s *SessionState) RemoveParticipant(id uuid.UUID) *Participant {
	var removed *Participant
	for i, p := range s.Participants {
		if p.ID == id {
			removed = p
			s.Participants = append(s.Participants[:i], s.Participants[i+1:]...)
			break
		}
	}
	if removed == nil {
		return nil
	}
	for i, o := range s.Rotation.Order {
		if o == id {
			s.Rotation.Order = append(s.Rotation.Order[:i], s.Rotation.Order[i+1:]...)
			break
		}
	}
	s.Rotation.RemoveFromSkipped(id)
	if s.Round != nil {
		for i, v := range s.Round.SkipVotes {
			if v == id {
				s.Round.SkipVotes = append(s.Round.SkipVotes[:i], s.Round.SkipVotes[i+1:]...)
				break
			}
		}
		if s.Round.NextJudgeID != nil && *s.Round.NextJudgeID == id {
			s.Round.NextJudgeID = nil
		}
	}
	return removed
}

// AddToast appends a notification and prunes expired ones.
func (s *SessionState) AddToast(message string, now time.Time) {
	s.Toasts = append(s.Toasts, Toast{ID: uuid.New(), Message: message, CreatedAt: now})
	s.PruneToasts(now)
}

// PruneToasts drops toasts older than ToastTTL.
func (s *SessionState) PruneToasts(now time.Time) {
	kept := s.Toasts[:0]
	for _, t := range s.Toasts {
		if now.Sub(t.CreatedAt) <= ToastTTL {
			kept = append(kept, t)
		}
	}
	s.Toasts = kept
}

// Session is one running game, identified by its immutable short code.
type Session struct {
	Code      string       `json:"code"`
	TagIDs    []uuid.UUID  `json:"tagIds"`
	Piles     Piles        `json:"piles"`
	State     SessionState `json:"state"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// RoundRecord is one append-only round-history row, stored apart from the
// session payload for query performance.
type RoundRecord struct {
	SessionCode  string       `json:"sessionCode"`
	RoundNumber  int          `json:"roundNumber"`
	PromptID     uuid.UUID    `json:"promptId"`
	JudgeID      uuid.UUID    `json:"judgeId"`
	WinnerID     uuid.UUID    `json:"winnerId"`
	WinningCards []uuid.UUID  `json:"winningCards"`
	Submissions  []Submission `json:"submissions"`
	CreatedAt    time.Time    `json:"createdAt"`
}
