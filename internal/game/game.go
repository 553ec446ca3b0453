package game

import (
	"context"

	"github.com/Paddione/network-quiz/internal/model"
)

// Conn is the slice of a websocket client the coordinator needs. Keeping it
// this small lets session tests run without sockets.
type Conn interface {
	ID() string
	SendEvent(event string, payload any) error
}

// QuizSource provides quiz content for new sessions.
type QuizSource interface {
	RandomActiveID(ctx context.Context) (int64, error)
	GetSnapshot(ctx context.Context, quizSetID int64) (*model.QuizSnapshot, error)
}

// Recorder persists game lifecycle facts. Every call is best-effort from the
// coordinator's point of view: failures are logged and play continues.
type Recorder interface {
	CreateGame(ctx context.Context, quizSetID int64, multiplayer bool, gameCode string, playerCount int) (int64, error)
	AddPlayer(ctx context.Context, gameID int64, userID *int64, playerName string) (int64, error)
	RecordAnswer(ctx context.Context, rec model.AnswerRecord) error
	MarkEnded(ctx context.Context, gameID int64) error
	Finalize(ctx context.Context, gameID int64, scores []model.PlayerScore, winnerName string) error
}
