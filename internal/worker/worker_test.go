package worker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-scoring/internal/model"
	"github.com/stemsi/exstem-scoring/internal/queue"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeQueue is an in-memory Queue. Pop waits briefly on an empty queue.
type fakeQueue struct {
	mu    sync.Mutex
	lists map[string][][]byte
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{lists: make(map[string][][]byte)}
}

func (q *fakeQueue) Push(ctx context.Context, name string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return q.PushRaw(ctx, name, raw)
}

func (q *fakeQueue) PushRaw(_ context.Context, name string, raw []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.lists[name] = append(q.lists[name], raw)
	return nil
}

func (q *fakeQueue) Pop(ctx context.Context, name string, _ time.Duration) ([]byte, error) {
	raw, err := q.TryPop(ctx, name)
	if err == queue.ErrEmpty {
		select {
		case <-ctx.Done():
		case <-time.After(5 * time.Millisecond):
		}
	}
	return raw, err
}

func (q *fakeQueue) TryPop(_ context.Context, name string) ([]byte, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.lists[name]
	if len(items) == 0 {
		return nil, queue.ErrEmpty
	}
	q.lists[name] = items[1:]
	return items[0], nil
}

func (q *fakeQueue) Len(name string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.lists[name])
}

func (q *fakeQueue) decode(t *testing.T, name string, i int, dst any) {
	t.Helper()
	q.mu.Lock()
	defer q.mu.Unlock()
	require.Greater(t, len(q.lists[name]), i)
	require.NoError(t, json.Unmarshal(q.lists[name][i], dst))
}

// MockScoreStore is a mock implementation of ScoreStore
type MockScoreStore struct {
	mock.Mock
}

func (m *MockScoreStore) BulkSaveScores(ctx context.Context, batch []model.ScorePayload) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func (m *MockScoreStore) SaveScore(ctx context.Context, p model.ScorePayload) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// MockAnswerStore is a mock implementation of AnswerStore
type MockAnswerStore struct {
	mock.Mock
}

func (m *MockAnswerStore) MergeAnswer(ctx context.Context, id uuid.UUID, key string, value json.RawMessage) error {
	args := m.Called(ctx, id, key, value)
	return args.Error(0)
}

// MockBufferCleaner is a mock implementation of BufferCleaner
type MockBufferCleaner struct {
	mock.Mock
}

func (m *MockBufferCleaner) ClearBuffers(ctx context.Context, submissionIDs ...string) error {
	args := m.Called(ctx, submissionIDs)
	return args.Error(0)
}

// MockRescorer is a mock implementation of Rescorer
type MockRescorer struct {
	mock.Mock
}

func (m *MockRescorer) Rescore(ctx context.Context, id uuid.UUID) (model.ScorePayload, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.ScorePayload)
	return p, args.Error(1)
}

// runUntilDrained starts a worker, waits until name is empty, then stops it
// and waits for Start to return.
func runUntilDrained(t *testing.T, q *fakeQueue, name string, start func(context.Context)) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		start(ctx)
	}()

	require.Eventually(t, func() bool { return q.Len(name) == 0 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
