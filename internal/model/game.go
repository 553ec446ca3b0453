package model

import "time"

// GamePlayer is a persisted participant row.
type GamePlayer struct {
	ID         int64  `json:"id"`
	GameID     int64  `json:"game_id"`
	UserID     *int64 `json:"user_id,omitempty"`
	PlayerName string `json:"player_name"`
	Score      int    `json:"score"`
	IsWinner   bool   `json:"is_winner"`
}

// AnswerRecord is one per-question submission queued for persistence.
// OptionIndex is nil when the participant timed out without answering.
// ResponseTimeMs is derived from the remaining countdown at submission,
// clamped to non-negative.
type AnswerRecord struct {
	GamePlayerID   int64 `json:"game_player_id"`
	QuestionID     int64 `json:"question_id"`
	OptionIndex    *int  `json:"option_index"`
	IsCorrect      bool  `json:"is_correct"`
	ResponseTimeMs int   `json:"response_time_ms"`
}

// PlayerScore is a final (name, score) pair handed to game finalization.
type PlayerScore struct {
	GamePlayerID int64  `json:"game_player_id"`
	PlayerName   string `json:"player_name"`
	Score        int    `json:"score"`
}

// ActiveGame is a lobby listing row.
type ActiveGame struct {
	ID            int64     `json:"id"`
	GameCode      string    `json:"game_code"`
	IsMultiplayer bool      `json:"is_multiplayer"`
	PlayerCount   int       `json:"player_count"`
	MaxPlayers    int       `json:"max_players"`
	QuizTitle     string    `json:"quiz_title"`
	StartedAt     time.Time `json:"started_at"`
}

// Highscore is one row of the global or personal highscore listings.
type Highscore struct {
	PlayerName    string    `json:"player_name,omitempty"`
	Score         int       `json:"score"`
	QuizTitle     string    `json:"quiz_title"`
	StartedAt     time.Time `json:"started_at"`
	IsMultiplayer bool      `json:"is_multiplayer"`
	PlayerCount   int       `json:"player_count"`
}

// ScorePoint is one sample of a user's highscore history for graphing.
type ScorePoint struct {
	Score     int       `json:"score"`
	StartedAt time.Time `json:"started_at"`
	QuizName  string    `json:"quiz_name"`
}
