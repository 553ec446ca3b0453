package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Paddione/network-quiz/internal/config"
	"github.com/Paddione/network-quiz/internal/model"
	"github.com/Paddione/network-quiz/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// GameRecorder persists game lifecycle facts for the coordinator. Lifecycle
// rows (game, players, final standings) are written directly; per-answer
// rows go through a Redis queue drained by the answer worker, keeping the
// hot answer path off Postgres.
type GameRecorder struct {
	repo *repository.GameRepository
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewGameRecorder creates a new GameRecorder.
func NewGameRecorder(repo *repository.GameRepository, rdb *redis.Client, log zerolog.Logger) *GameRecorder {
	return &GameRecorder{
		repo: repo,
		rdb:  rdb,
		log:  log.With().Str("component", "game-recorder").Logger(),
	}
}

// CreateGame opens the games row for a new session.
func (s *GameRecorder) CreateGame(ctx context.Context, quizSetID int64, multiplayer bool, gameCode string, playerCount int) (int64, error) {
	return s.repo.CreateGame(ctx, quizSetID, multiplayer, gameCode, playerCount)
}

// AddPlayer opens a game_players row for a session participant.
func (s *GameRecorder) AddPlayer(ctx context.Context, gameID int64, userID *int64, playerName string) (int64, error) {
	return s.repo.AddPlayer(ctx, gameID, userID, playerName)
}

// RecordAnswer queues an answer for asynchronous persistence.
func (s *GameRecorder) RecordAnswer(ctx context.Context, rec model.AnswerRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode answer: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, raw).Err(); err != nil {
		return fmt.Errorf("queue answer: %w", err)
	}
	return nil
}

// MarkEnded closes a game row without standings (abandoned session).
func (s *GameRecorder) MarkEnded(ctx context.Context, gameID int64) error {
	return s.repo.MarkEnded(ctx, gameID)
}

// Finalize writes final scores and the winner flag for a completed game.
func (s *GameRecorder) Finalize(ctx context.Context, gameID int64, scores []model.PlayerScore, winnerName string) error {
	return s.repo.Finalize(ctx, gameID, scores, winnerName)
}
