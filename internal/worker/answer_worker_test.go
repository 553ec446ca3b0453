package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Paddione/network-quiz/internal/config"
	"github.com/Paddione/network-quiz/internal/model"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type fakeWriter struct {
	mu      sync.Mutex
	records []model.AnswerRecord
	failN   int
}

func (f *fakeWriter) RecordAnswer(ctx context.Context, rec model.AnswerRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failN > 0 {
		f.failN--
		return errors.New("db unavailable")
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeWriter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func setup(t *testing.T) (*redis.Client, *fakeWriter, *AnswerWorker) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	writer := &fakeWriter{}
	return rdb, writer, NewAnswerWorker(writer, rdb, zerolog.Nop())
}

func push(t *testing.T, rdb *redis.Client, rec model.AnswerRecord) {
	t.Helper()
	raw, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := rdb.RPush(context.Background(), config.WorkerKey.PersistAnswersQueue, raw).Err(); err != nil {
		t.Fatalf("rpush: %v", err)
	}
}

func waitFor(t *testing.T, d time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func TestWorkerPersistsQueuedAnswers(t *testing.T) {
	rdb, writer, w := setup(t)

	opt := 2
	push(t, rdb, model.AnswerRecord{GamePlayerID: 1, QuestionID: 100, OptionIndex: &opt, IsCorrect: true, ResponseTimeMs: 4000})
	push(t, rdb, model.AnswerRecord{GamePlayerID: 2, QuestionID: 100, IsCorrect: false, ResponseTimeMs: 30000})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	waitFor(t, 2*time.Second, func() bool { return writer.count() == 2 }, "both answers persisted")

	writer.mu.Lock()
	defer writer.mu.Unlock()
	if writer.records[0].GamePlayerID != 1 || !writer.records[0].IsCorrect {
		t.Fatalf("first record = %+v", writer.records[0])
	}
	if writer.records[1].OptionIndex != nil {
		t.Fatalf("timeout record kept an option index")
	}
}

func TestWorkerRequeuesOnFailure(t *testing.T) {
	rdb, writer, w := setup(t)
	writer.failN = 1

	push(t, rdb, model.AnswerRecord{GamePlayerID: 1, QuestionID: 100})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	// First attempt fails and goes back on the queue; the retry lands.
	waitFor(t, 8*time.Second, func() bool { return writer.count() == 1 }, "record persisted after retry")
}

func TestWorkerDrainsOnShutdown(t *testing.T) {
	rdb, writer, w := setup(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	// Queue items and stop immediately; the drain pass must flush them.
	for i := 0; i < 5; i++ {
		push(t, rdb, model.AnswerRecord{GamePlayerID: int64(i + 1), QuestionID: 100})
	}
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("worker did not stop")
	}
	if writer.count() != 5 {
		t.Fatalf("drained %d of 5 records", writer.count())
	}

	n, err := rdb.LLen(context.Background(), config.WorkerKey.PersistAnswersQueue).Result()
	if err != nil {
		t.Fatalf("llen: %v", err)
	}
	if n != 0 {
		t.Fatalf("%d items left on queue after drain", n)
	}
}

func TestWorkerSkipsCorruptItems(t *testing.T) {
	rdb, writer, w := setup(t)

	if err := rdb.RPush(context.Background(), config.WorkerKey.PersistAnswersQueue, "not json").Err(); err != nil {
		t.Fatalf("rpush: %v", err)
	}
	push(t, rdb, model.AnswerRecord{GamePlayerID: 1, QuestionID: 100})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	waitFor(t, 2*time.Second, func() bool { return writer.count() == 1 }, "valid record persisted past corrupt one")
}
