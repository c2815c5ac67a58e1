package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"party-server/internal/config"
	"party-server/internal/deck"
	"party-server/internal/interfaces"
	"party-server/internal/models"
)

// GameService is the full mutation surface of a session: lifecycle
// management plus the round state machine. Every mutating method runs inside
// the session lock; snapshot reads do not take it and may race benignly with
// a concurrent mutation.
type GameService interface {
	LifecycleService
	RoundService
}

type gameServiceImpl struct {
	db       interfaces.DBTX // pool handle for lock-free reads and inserts
	sessions interfaces.SessionRepository
	cards    interfaces.CardRepository
	rounds   interfaces.RoundRecordRepository
	locker   interfaces.SessionLocker
	cfg      config.Game
	logger   *zap.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewGameService wires the game engine. rng drives shuffles, code generation
// and judge selection; tests pass a seeded source.
func NewGameService(
	db interfaces.DBTX,
	sessions interfaces.SessionRepository,
	cards interfaces.CardRepository,
	rounds interfaces.RoundRecordRepository,
	locker interfaces.SessionLocker,
	cfg config.Game,
	rng *rand.Rand,
	logger *zap.Logger,
) GameService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &gameServiceImpl{
		db:       db,
		sessions: sessions,
		cards:    cards,
		rounds:   rounds,
		locker:   locker,
		cfg:      cfg,
		rng:      rng,
		logger:   logger.Named("GameService"),
	}
}

// mutate runs fn on the loaded session inside the session lock and writes
// the session back on success. The transaction the locker opened carries
// every repository call, so a failure anywhere rolls the whole mutation back.
func (s *gameServiceImpl) mutate(ctx context.Context, code string, fn func(ctx context.Context, tx interfaces.DBTX, sess *models.Session) error) (*models.Session, error) {
	var out *models.Session
	err := s.locker.WithLock(ctx, code, func(ctx context.Context, tx interfaces.DBTX) error {
		sess, err := s.sessions.GetByCode(ctx, tx, code)
		if err != nil {
			return err
		}
		if err := fn(ctx, tx, sess); err != nil {
			return err
		}
		sess.State.PruneToasts(time.Now().UTC())
		if err := s.sessions.Update(ctx, tx, sess); err != nil {
			return err
		}
		out = sess
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// shuffled returns a shuffled copy of the pile under the rng mutex.
func (s *gameServiceImpl) shuffled(pile models.Pile) models.Pile {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return deck.Shuffle(pile, s.rng)
}

// reshuffled folds the discard pile beneath the draw pile under the rng mutex.
func (s *gameServiceImpl) reshuffled(draw, discard models.Pile) (models.Pile, models.Pile) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return deck.ReshuffleIntoDraw(draw, discard, s.rng)
}

// intn is rand.Intn under the rng mutex.
func (s *gameServiceImpl) intn(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

func (s *gameServiceImpl) newSessionCode() string {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return models.NewSessionCode(s.rng)
}
