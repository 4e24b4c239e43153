// internal/historian/historian.go pops game action records from a Redis queue and persists them to Postgres.
package historian

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/ginrummy/internal/cache"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Popper is the part of a Redis client the historian reads with.
type Popper interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// ActionStore is where batches end up, normally a *database.Store.
type ActionStore interface {
	InsertActions(ctx context.Context, batch []cache.GameActionRecord) error
	MarkAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error)
}

// Service batches action records and marks games abandoned after a period
// without any action.
type Service struct {
	BatchSize       int
	FlushDelay      time.Duration
	Inactivity      time.Duration // duration until a game is marked "abandoned"
	InactivityCheck time.Duration // how often to look for abandoned games
	PopTimeout      time.Duration

	popper Popper
	store  ActionStore
	queue  string
	log    *logrus.Logger

	lastActivity sync.Map // map[uuid.UUID]time.Time for tracking last activity per game

	batchMu sync.Mutex
	batch   []cache.GameActionRecord
}

// New builds a Service with default tuning; adjust the exported fields before Run.
func New(popper Popper, store ActionStore, queue string, logger *logrus.Logger) *Service {
	if queue == "" {
		queue = cache.DefaultQueueName
	}
	return &Service{
		BatchSize:       20,
		FlushDelay:      500 * time.Millisecond,
		Inactivity:      10 * time.Minute,
		InactivityCheck: time.Minute,
		PopTimeout:      time.Second,
		popper:          popper,
		store:           store,
		queue:           queue,
		log:             logger,
	}
}

// Run reads the queue until ctx is cancelled, then flushes whatever is still batched.
func (s *Service) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.inactivityLoop(ctx)
	}()

	s.log.Infof("Historian reading from queue %q.", s.queue)
	s.readLoop(ctx)
	wg.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.flush(flushCtx)
	s.log.Info("Historian shut down.")
}

// readLoop continuously uses BLPop to retrieve messages from the queue.
func (s *Service) readLoop(ctx context.Context) {
	ticker := time.NewTicker(s.FlushDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			s.flush(ctx)

		default:
			res, err := s.popper.BLPop(ctx, s.PopTimeout, s.queue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					s.log.Errorf("BLPop: %v", err)
					// keep a dead connection from spinning
					time.Sleep(s.PopTimeout)
				}
				continue
			}
			if len(res) < 2 {
				continue
			}

			// res[0] is the queue name and res[1] the payload.
			record, err := cache.DecodeGameAction(res[1])
			if err != nil {
				s.log.Warnf("Skipping queue entry: %v", err)
				continue
			}
			s.track(record)
			s.appendToBatch(ctx, record)
		}
	}
}

// track updates the game's last activity. Finished games are no longer tracked.
func (s *Service) track(record cache.GameActionRecord) {
	if record.ActionType == "game_end" {
		s.lastActivity.Delete(record.GameID)
		return
	}
	s.lastActivity.Store(record.GameID, time.Now())
}

// appendToBatch adds a record to the in-memory batch and flushes if the threshold is reached.
func (s *Service) appendToBatch(ctx context.Context, record cache.GameActionRecord) {
	s.batchMu.Lock()
	s.batch = append(s.batch, record)
	full := len(s.batch) >= s.BatchSize
	s.batchMu.Unlock()

	if full {
		s.flush(ctx)
	}
}

// Pending returns how many records wait for the next flush.
func (s *Service) Pending() int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return len(s.batch)
}

// flush writes the current batch to the store in a single transaction.
func (s *Service) flush(ctx context.Context) {
	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return
	}
	batchCopy := make([]cache.GameActionRecord, len(s.batch))
	copy(batchCopy, s.batch)
	s.batch = s.batch[:0]
	s.batchMu.Unlock()

	if err := s.store.InsertActions(ctx, batchCopy); err != nil {
		s.log.Errorf("Failed to flush %d actions: %v", len(batchCopy), err)
		return
	}
	s.log.Debugf("Flushed %d actions to DB.", len(batchCopy))
}

// inactivityLoop periodically marks games with no recent action as abandoned.
func (s *Service) inactivityLoop(ctx context.Context) {
	ticker := time.NewTicker(s.InactivityCheck)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.sweepInactive(ctx, now)
		}
	}
}

// sweepInactive abandons every tracked game idle since before now - Inactivity.
func (s *Service) sweepInactive(ctx context.Context, now time.Time) {
	s.lastActivity.Range(func(key, val interface{}) bool {
		gameID, ok1 := key.(uuid.UUID)
		last, ok2 := val.(time.Time)
		if !ok1 || !ok2 || now.Sub(last) <= s.Inactivity {
			return true
		}
		// the game's actions must be stored before the game can be abandoned
		s.flush(ctx)
		changed, err := s.store.MarkAbandoned(ctx, gameID)
		if err != nil {
			s.log.Errorf("Failed to mark game %v abandoned: %v", gameID, err)
			return true
		}
		if changed {
			s.log.Infof("Marked game %v as abandoned due to inactivity.", gameID)
		}
		s.lastActivity.Delete(gameID)
		return true
	})
}
