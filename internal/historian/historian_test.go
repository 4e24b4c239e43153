// internal/historian/historian_test.go
package historian

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/ginrummy/internal/cache"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQueue stands in for Redis: BLPop hands out pushed payloads in order.
type fakeQueue struct {
	ch chan string
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{ch: make(chan string, 100)}
}

func (q *fakeQueue) push(t *testing.T, rec cache.GameActionRecord) {
	t.Helper()
	q.ch <- mustEncode(t, rec)
}

func (q *fakeQueue) BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd {
	select {
	case payload := <-q.ch:
		return redis.NewStringSliceResult([]string{keys[0], payload}, nil)
	case <-time.After(timeout):
		return redis.NewStringSliceResult(nil, redis.Nil)
	case <-ctx.Done():
		return redis.NewStringSliceResult(nil, ctx.Err())
	}
}

type fakeStore struct {
	mu        sync.Mutex
	batches   [][]cache.GameActionRecord
	abandoned []uuid.UUID
}

func (f *fakeStore) InsertActions(_ context.Context, batch []cache.GameActionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeStore) MarkAbandoned(_ context.Context, gameID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.abandoned = append(f.abandoned, gameID)
	return true, nil
}

func (f *fakeStore) stored() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

func (f *fakeStore) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func mustEncode(t *testing.T, rec cache.GameActionRecord) string {
	t.Helper()
	data, err := cache.EncodeGameAction(rec)
	require.NoError(t, err)
	return string(data)
}

func record(gameID uuid.UUID, idx int, typ string) cache.GameActionRecord {
	return cache.GameActionRecord{
		GameID:        gameID,
		ActionIndex:   idx,
		ActionType:    typ,
		ActionPayload: map[string]interface{}{},
		Timestamp:     time.Now().UnixMilli(),
	}
}

func newTestService(q Popper, store ActionStore) *Service {
	logger, _ := test.NewNullLogger()
	s := New(q, store, "", logger)
	s.PopTimeout = 10 * time.Millisecond
	s.FlushDelay = time.Hour
	s.InactivityCheck = time.Hour
	return s
}

// runService starts s and returns a func that stops it and waits for Run to return.
func runService(s *Service) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	return func() {
		cancel()
		<-done
	}
}

func TestFlushOnBatchSize(t *testing.T) {
	q, store := newFakeQueue(), &fakeStore{}
	s := newTestService(q, store)
	s.BatchSize = 3
	stop := runService(s)
	defer stop()

	id := uuid.New()
	for i := 1; i <= 3; i++ {
		q.push(t, record(id, i, "player_discard"))
	}
	require.Eventually(t, func() bool { return store.stored() == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, store.batchCount(), "one transaction for the batch")
	assert.Equal(t, 0, s.Pending())
}

func TestFlushOnDelay(t *testing.T) {
	q, store := newFakeQueue(), &fakeStore{}
	s := newTestService(q, store)
	s.BatchSize = 100
	s.FlushDelay = 20 * time.Millisecond
	stop := runService(s)
	defer stop()

	q.push(t, record(uuid.New(), 1, "game_deal"))
	require.Eventually(t, func() bool { return store.stored() == 1 }, time.Second, 5*time.Millisecond)
}

func TestShutdownFlushesRemainder(t *testing.T) {
	q, store := newFakeQueue(), &fakeStore{}
	s := newTestService(q, store)
	s.BatchSize = 100
	stop := runService(s)

	q.push(t, record(uuid.New(), 1, "game_deal"))
	q.push(t, record(uuid.New(), 1, "game_deal"))
	require.Eventually(t, func() bool { return s.Pending() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, store.stored())

	stop()
	assert.Equal(t, 2, store.stored())
}

func TestInvalidEntriesAreSkipped(t *testing.T) {
	q, store := newFakeQueue(), &fakeStore{}
	s := newTestService(q, store)
	s.BatchSize = 1
	stop := runService(s)
	defer stop()

	q.ch <- "{not json"
	q.push(t, record(uuid.New(), 1, "game_deal"))
	require.Eventually(t, func() bool { return store.stored() == 1 }, time.Second, 5*time.Millisecond)
}

func TestSweepInactive(t *testing.T) {
	store := &fakeStore{}
	s := newTestService(newFakeQueue(), store)
	s.Inactivity = time.Minute

	idle, active, finished := uuid.New(), uuid.New(), uuid.New()
	s.track(record(idle, 1, "game_deal"))
	s.track(record(active, 1, "game_deal"))
	s.track(record(finished, 1, "game_deal"))
	s.track(record(finished, 2, "game_end"))
	s.lastActivity.Store(idle, time.Now().Add(-2*time.Minute))

	s.sweepInactive(context.Background(), time.Now())
	assert.Equal(t, []uuid.UUID{idle}, store.abandoned)

	// swept games are forgotten
	s.sweepInactive(context.Background(), time.Now())
	assert.Len(t, store.abandoned, 1)

	s.sweepInactive(context.Background(), time.Now().Add(2*time.Minute))
	assert.ElementsMatch(t, []uuid.UUID{idle, active}, store.abandoned)
}

// With REDIS_ADDR set, records published by cache.Publisher reach the store.
func TestRedisEndToEnd(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb, err := cache.Connect(ctx, addr, 0)
	require.NoError(t, err)
	defer rdb.Close()

	queue := "gin_actions_test_" + uuid.NewString()
	defer rdb.Del(ctx, queue)
	pub := cache.NewPublisher(rdb, queue)

	store := &fakeStore{}
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	s := New(rdb, store, queue, logger)
	s.BatchSize = 2
	s.PopTimeout = 100 * time.Millisecond
	stop := runService(s)
	defer stop()

	id := uuid.New()
	require.NoError(t, pub.PublishGameAction(ctx, record(id, 1, "game_deal")))
	require.NoError(t, pub.PublishGameAction(ctx, record(id, 2, "player_draw_stockpile")))

	require.Eventually(t, func() bool { return store.stored() == 2 }, 3*time.Second, 20*time.Millisecond)
	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, 1, store.batches[0][0].ActionIndex)
	assert.Equal(t, id, store.batches[0][1].GameID)
}
