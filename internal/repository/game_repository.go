package repository

import (
	"context"
	"errors"

	"github.com/Paddione/network-quiz/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GameRepository handles games, game_players and player_answers data access.
type GameRepository struct {
	pool *pgxpool.Pool
}

// NewGameRepository creates a new GameRepository.
func NewGameRepository(pool *pgxpool.Pool) *GameRepository {
	return &GameRepository{pool: pool}
}

// CreateGame inserts a new games row and returns its id.
func (r *GameRepository) CreateGame(ctx context.Context, quizSetID int64, multiplayer bool, gameCode string, playerCount int) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO games (quiz_set_id, is_multiplayer, game_code, player_count)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		quizSetID, multiplayer, gameCode, playerCount,
	).Scan(&id)
	return id, err
}

// AddPlayer inserts a game_players row and returns its id.
func (r *GameRepository) AddPlayer(ctx context.Context, gameID int64, userID *int64, playerName string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO game_players (game_id, user_id, player_name, score)
		 VALUES ($1, $2, $3, 0)
		 RETURNING id`,
		gameID, userID, playerName,
	).Scan(&id)
	return id, err
}

// MarkEnded stamps a game's end time (abandoned or completed).
func (r *GameRepository) MarkEnded(ctx context.Context, gameID int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE games SET ended_at = NOW() WHERE id = $1 AND ended_at IS NULL`, gameID)
	return err
}

// Finalize stamps the end time, writes final scores and flags the single
// winner row. The winner is decided by the coordinator (first entry of the
// stable score-descending sort), not recomputed here, so ties persist
// deterministically.
func (r *GameRepository) Finalize(ctx context.Context, gameID int64, scores []model.PlayerScore, winnerName string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE games SET ended_at = NOW() WHERE id = $1 AND ended_at IS NULL`, gameID); err != nil {
		return err
	}

	for _, ps := range scores {
		if _, err := tx.Exec(ctx,
			`UPDATE game_players SET score = $1 WHERE game_id = $2 AND player_name = $3`,
			ps.Score, gameID, ps.PlayerName); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE game_players SET is_winner = TRUE WHERE game_id = $1 AND player_name = $2`,
		gameID, winnerName); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// RecordAnswer resolves the chosen option index to an options row (by
// sequence order, like the snapshot does) and inserts the player_answers row.
// A nil OptionIndex stores a NULL option (timeout).
func (r *GameRepository) RecordAnswer(ctx context.Context, rec model.AnswerRecord) error {
	var optionID *int64
	if rec.OptionIndex != nil {
		var id int64
		err := r.pool.QueryRow(ctx,
			`SELECT id FROM options WHERE question_id = $1
			 ORDER BY sequence_number LIMIT 1 OFFSET $2`,
			rec.QuestionID, *rec.OptionIndex,
		).Scan(&id)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		if err == nil {
			optionID = &id
		}
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO player_answers (game_player_id, question_id, option_id, is_correct, response_time_ms)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.GamePlayerID, rec.QuestionID, optionID, rec.IsCorrect, rec.ResponseTimeMs,
	)
	return err
}

// ListActive retrieves joinable or recently started games for the lobby:
// not ended, started within the last 30 minutes, multiplayer below capacity.
func (r *GameRepository) ListActive(ctx context.Context) ([]model.ActiveGame, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT
			g.id, g.game_code, g.is_multiplayer, g.player_count,
			CASE WHEN g.is_multiplayer THEN 5 ELSE 1 END AS max_players,
			qs.title AS quiz_title, g.started_at
		 FROM games g
		 JOIN quiz_sets qs ON g.quiz_set_id = qs.id
		 WHERE g.ended_at IS NULL
		   AND g.started_at > NOW() - INTERVAL '30 minutes'
		   AND (NOT g.is_multiplayer OR g.player_count < 5)
		 ORDER BY g.started_at DESC
		 LIMIT 20`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []model.ActiveGame
	for rows.Next() {
		var g model.ActiveGame
		if err := rows.Scan(&g.ID, &g.GameCode, &g.IsMultiplayer, &g.PlayerCount,
			&g.MaxPlayers, &g.QuizTitle, &g.StartedAt); err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// Highscores retrieves the global top 50 of finished games.
func (r *GameRepository) Highscores(ctx context.Context) ([]model.Highscore, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT gp.player_name, gp.score, qs.title, g.started_at, g.is_multiplayer, g.player_count
		 FROM game_players gp
		 JOIN games g ON gp.game_id = g.id
		 JOIN quiz_sets qs ON g.quiz_set_id = qs.id
		 WHERE g.ended_at IS NOT NULL
		 ORDER BY gp.score DESC, g.started_at DESC
		 LIMIT 50`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHighscores(rows, true)
}

// PersonalHighscores retrieves a user's best 10 finished games.
func (r *GameRepository) PersonalHighscores(ctx context.Context, userID int64) ([]model.Highscore, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT gp.score, qs.title, g.started_at, g.is_multiplayer, g.player_count
		 FROM game_players gp
		 JOIN games g ON gp.game_id = g.id
		 JOIN quiz_sets qs ON g.quiz_set_id = qs.id
		 WHERE gp.user_id = $1 AND g.ended_at IS NOT NULL
		 ORDER BY gp.score DESC, g.started_at DESC
		 LIMIT 10`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHighscores(rows, false)
}

func scanHighscores(rows pgx.Rows, withName bool) ([]model.Highscore, error) {
	var scores []model.Highscore
	for rows.Next() {
		var h model.Highscore
		var err error
		if withName {
			err = rows.Scan(&h.PlayerName, &h.Score, &h.QuizTitle, &h.StartedAt, &h.IsMultiplayer, &h.PlayerCount)
		} else {
			err = rows.Scan(&h.Score, &h.QuizTitle, &h.StartedAt, &h.IsMultiplayer, &h.PlayerCount)
		}
		if err != nil {
			return nil, err
		}
		scores = append(scores, h)
	}
	return scores, rows.Err()
}

// ScoreHistory retrieves a user's score-over-time samples for graphing,
// oldest first.
func (r *GameRepository) ScoreHistory(ctx context.Context, userID int64) ([]model.ScorePoint, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT gp.score, g.started_at, qs.title
		 FROM game_players gp
		 JOIN games g ON gp.game_id = g.id
		 JOIN quiz_sets qs ON g.quiz_set_id = qs.id
		 WHERE gp.user_id = $1 AND g.ended_at IS NOT NULL
		 ORDER BY g.started_at ASC
		 LIMIT 100`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []model.ScorePoint
	for rows.Next() {
		var p model.ScorePoint
		if err := rows.Scan(&p.Score, &p.StartedAt, &p.QuizName); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
