package repository

import (
	"context"
	"errors"

	"github.com/Paddione/network-quiz/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoActiveQuiz is returned when no active quiz set exists to play.
var ErrNoActiveQuiz = errors.New("no active quiz sets available")

// QuizRepository handles quiz content data access: the quiz_sets → chapters
// → questions → options tree, strictly ordered by sequence_number.
type QuizRepository struct {
	pool *pgxpool.Pool
}

// NewQuizRepository creates a new QuizRepository.
func NewQuizRepository(pool *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{pool: pool}
}

// ─── Quiz sets ──────────────────────────────────────────────────────

// ListActive retrieves active quiz sets with chapter/question counts.
func (r *QuizRepository) ListActive(ctx context.Context) ([]model.QuizSet, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT
			id, title, description, is_active, created_at,
			(SELECT COUNT(*) FROM chapters WHERE quiz_set_id = quiz_sets.id) AS chapters_count,
			(SELECT COUNT(*) FROM chapters c JOIN questions q ON c.id = q.chapter_id
			 WHERE c.quiz_set_id = quiz_sets.id) AS questions_count
		 FROM quiz_sets
		 WHERE is_active = TRUE
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuizSets(rows)
}

// ListAll retrieves every quiz set (admin listing), newest first.
func (r *QuizRepository) ListAll(ctx context.Context) ([]model.QuizSet, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT
			id, title, description, is_active, created_at,
			(SELECT COUNT(*) FROM chapters WHERE quiz_set_id = quiz_sets.id) AS chapters_count,
			(SELECT COUNT(*) FROM chapters c JOIN questions q ON c.id = q.chapter_id
			 WHERE c.quiz_set_id = quiz_sets.id) AS questions_count
		 FROM quiz_sets
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuizSets(rows)
}

func scanQuizSets(rows pgx.Rows) ([]model.QuizSet, error) {
	var sets []model.QuizSet
	for rows.Next() {
		var s model.QuizSet
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.IsActive, &s.CreatedAt,
			&s.ChaptersCount, &s.QuestionsCount); err != nil {
			return nil, err
		}
		sets = append(sets, s)
	}
	return sets, rows.Err()
}

// GetSet retrieves a single quiz set with counts.
func (r *QuizRepository) GetSet(ctx context.Context, id int64) (*model.QuizSet, error) {
	s := &model.QuizSet{}
	err := r.pool.QueryRow(ctx,
		`SELECT
			id, title, description, is_active, created_at,
			(SELECT COUNT(*) FROM chapters WHERE quiz_set_id = quiz_sets.id),
			(SELECT COUNT(*) FROM chapters c JOIN questions q ON c.id = q.chapter_id
			 WHERE c.quiz_set_id = quiz_sets.id)
		 FROM quiz_sets WHERE id = $1`, id,
	).Scan(&s.ID, &s.Title, &s.Description, &s.IsActive, &s.CreatedAt,
		&s.ChaptersCount, &s.QuestionsCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// CreateSet inserts a new quiz set (inactive until content is ready).
func (r *QuizRepository) CreateSet(ctx context.Context, s *model.QuizSet) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO quiz_sets (title, description, is_active)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		s.Title, s.Description, s.IsActive,
	).Scan(&s.ID, &s.CreatedAt)
}

// UpdateSet updates title, description and active flag.
func (r *QuizRepository) UpdateSet(ctx context.Context, s *model.QuizSet) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE quiz_sets SET title = $1, description = $2, is_active = $3 WHERE id = $4`,
		s.Title, s.Description, s.IsActive, s.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSet removes a quiz set and, via FK cascade, its content tree.
func (r *QuizRepository) DeleteSet(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM quiz_sets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RandomActiveID picks one active quiz set at random for matchmade games.
func (r *QuizRepository) RandomActiveID(ctx context.Context) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM quiz_sets WHERE is_active = TRUE ORDER BY RANDOM() LIMIT 1`,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNoActiveQuiz
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ─── Chapters ───────────────────────────────────────────────────────

// ListChapters retrieves a quiz set's chapters in sequence order.
func (r *QuizRepository) ListChapters(ctx context.Context, quizSetID int64) ([]model.Chapter, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, quiz_set_id, title, sequence_number
		 FROM chapters WHERE quiz_set_id = $1
		 ORDER BY sequence_number`, quizSetID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chapters []model.Chapter
	for rows.Next() {
		var c model.Chapter
		if err := rows.Scan(&c.ID, &c.QuizSetID, &c.Title, &c.SequenceNumber); err != nil {
			return nil, err
		}
		chapters = append(chapters, c)
	}
	return chapters, rows.Err()
}

// CreateChapter inserts a new chapter.
func (r *QuizRepository) CreateChapter(ctx context.Context, c *model.Chapter) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO chapters (quiz_set_id, title, sequence_number)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		c.QuizSetID, c.Title, c.SequenceNumber,
	).Scan(&c.ID)
}

// UpdateChapter updates a chapter's title and ordering.
func (r *QuizRepository) UpdateChapter(ctx context.Context, c *model.Chapter) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE chapters SET title = $1, sequence_number = $2 WHERE id = $3`,
		c.Title, c.SequenceNumber, c.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteChapter removes a chapter and its questions via cascade.
func (r *QuizRepository) DeleteChapter(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM chapters WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ─── Questions ──────────────────────────────────────────────────────

// ListQuestions retrieves a chapter's questions in sequence order.
func (r *QuizRepository) ListQuestions(ctx context.Context, chapterID int64) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, chapter_id, question_text, explanation, type, has_image, image_path, sequence_number
		 FROM questions WHERE chapter_id = $1
		 ORDER BY sequence_number`, chapterID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.ChapterID, &q.QuestionText, &q.Explanation,
			&q.Type, &q.HasImage, &q.ImagePath, &q.SequenceNumber); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// CreateQuestion inserts a new question.
func (r *QuizRepository) CreateQuestion(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (chapter_id, question_text, explanation, type, has_image, image_path, sequence_number)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		q.ChapterID, q.QuestionText, q.Explanation, q.Type, q.HasImage, q.ImagePath, q.SequenceNumber,
	).Scan(&q.ID)
}

// UpdateQuestion updates an existing question.
func (r *QuizRepository) UpdateQuestion(ctx context.Context, q *model.Question) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE questions
		 SET question_text = $1, explanation = $2, type = $3, has_image = $4,
		     image_path = $5, sequence_number = $6
		 WHERE id = $7`,
		q.QuestionText, q.Explanation, q.Type, q.HasImage, q.ImagePath, q.SequenceNumber, q.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteQuestion removes a question and its options via cascade.
func (r *QuizRepository) DeleteQuestion(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// QuizSetIDForChapter resolves the owning quiz set of a chapter.
func (r *QuizRepository) QuizSetIDForChapter(ctx context.Context, chapterID int64) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`SELECT quiz_set_id FROM chapters WHERE id = $1`, chapterID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return id, err
}

// QuizSetIDForQuestion resolves the owning quiz set of a question.
func (r *QuizRepository) QuizSetIDForQuestion(ctx context.Context, questionID int64) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`SELECT c.quiz_set_id FROM questions q JOIN chapters c ON q.chapter_id = c.id
		 WHERE q.id = $1`, questionID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return id, err
}

// QuestionIDForOption resolves the owning question of an option.
func (r *QuizRepository) QuestionIDForOption(ctx context.Context, optionID int64) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`SELECT question_id FROM options WHERE id = $1`, optionID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return id, err
}

// ─── Options ────────────────────────────────────────────────────────

// ListOptions retrieves a question's options in sequence order.
func (r *QuizRepository) ListOptions(ctx context.Context, questionID int64) ([]model.Option, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, question_id, option_text, is_correct, sequence_number
		 FROM options WHERE question_id = $1
		 ORDER BY sequence_number`, questionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []model.Option
	for rows.Next() {
		var o model.Option
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.OptionText, &o.IsCorrect, &o.SequenceNumber); err != nil {
			return nil, err
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

// CreateOption inserts a new option.
func (r *QuizRepository) CreateOption(ctx context.Context, o *model.Option) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO options (question_id, option_text, is_correct, sequence_number)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		o.QuestionID, o.OptionText, o.IsCorrect, o.SequenceNumber,
	).Scan(&o.ID)
}

// UpdateOption updates an existing option.
func (r *QuizRepository) UpdateOption(ctx context.Context, o *model.Option) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE options SET option_text = $1, is_correct = $2, sequence_number = $3 WHERE id = $4`,
		o.OptionText, o.IsCorrect, o.SequenceNumber, o.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOption removes an option.
func (r *QuizRepository) DeleteOption(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM options WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ─── Snapshot ───────────────────────────────────────────────────────

// Snapshot builds the full immutable content tree for a quiz set.
// Option correctness is resolved here, once: Correct is the index of the
// first is_correct option in sequence order, falling back to 0 when no
// option is flagged.
func (r *QuizRepository) Snapshot(ctx context.Context, quizSetID int64) (*model.QuizSnapshot, error) {
	set, err := r.GetSet(ctx, quizSetID)
	if err != nil {
		return nil, err
	}

	snap := &model.QuizSnapshot{
		QuizSetID:   set.ID,
		Title:       set.Title,
		Description: set.Description,
	}

	chapters, err := r.ListChapters(ctx, quizSetID)
	if err != nil {
		return nil, err
	}

	for _, ch := range chapters {
		sc := model.SnapshotChapter{ID: ch.ID, Title: ch.Title}

		questions, err := r.ListQuestions(ctx, ch.ID)
		if err != nil {
			return nil, err
		}

		for _, q := range questions {
			sq := model.SnapshotQuestion{
				ID:          q.ID,
				Text:        q.QuestionText,
				Explanation: q.Explanation,
				Type:        q.Type,
				HasImage:    q.HasImage,
			}
			if q.HasImage && q.ImagePath != nil {
				path := "/uploads/" + *q.ImagePath
				sq.ImagePath = &path
			}

			options, err := r.ListOptions(ctx, q.ID)
			if err != nil {
				return nil, err
			}
			sq.Options = make([]string, len(options))
			for i, o := range options {
				sq.Options[i] = o.OptionText
			}
			sq.Correct = correctIndex(options)

			sc.Questions = append(sc.Questions, sq)
		}

		snap.Chapters = append(snap.Chapters, sc)
	}

	return snap, nil
}

func correctIndex(options []model.Option) int {
	for i, o := range options {
		if o.IsCorrect {
			return i
		}
	}
	return 0
}
