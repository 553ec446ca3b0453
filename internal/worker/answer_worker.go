package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Paddione/network-quiz/internal/config"
	"github.com/Paddione/network-quiz/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// AnswerWriter persists one answer row. Satisfied by the game repository.
type AnswerWriter interface {
	RecordAnswer(ctx context.Context, rec model.AnswerRecord) error
}

// AnswerWorker consumes persist_answers_queue and writes answer rows to
// PostgreSQL, keeping the live game path off the database.
type AnswerWorker struct {
	writer AnswerWriter
	rdb    *redis.Client
	log    zerolog.Logger
}

// NewAnswerWorker creates a new AnswerWorker.
func NewAnswerWorker(writer AnswerWriter, rdb *redis.Client, log zerolog.Logger) *AnswerWorker {
	return &AnswerWorker{
		writer: writer,
		rdb:    rdb,
		log:    log.With().Str("component", "answer_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *AnswerWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *AnswerWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistAnswersQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var rec model.AnswerRecord
	if err := json.Unmarshal([]byte(result[1]), &rec); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	if err := w.writer.RecordAnswer(ctx, rec); err != nil {
		w.log.Error().Err(err).
			Int64("game_player_id", rec.GamePlayerID).
			Int64("question_id", rec.QuestionID).
			Msg("Persist error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

// drain processes all remaining items in the queue before shutdown.
func (w *AnswerWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.PersistAnswersQueue).Result()
		if err != nil {
			break
		}

		var rec model.AnswerRecord
		if err := json.Unmarshal([]byte(result), &rec); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.writer.RecordAnswer(ctx, rec); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
