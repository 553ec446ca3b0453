package model

import "time"

// QuestionType enumerates supported question formats.
// Only MULTIPLE is exercised by the game client today.
type QuestionType string

const (
	QuestionTypeMultiple QuestionType = "multiple"
)

// QuizSet is the root of the quiz content tree.
type QuizSet struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	// Aggregate counts, populated by listing queries only.
	ChaptersCount  int `json:"chapters_count,omitempty"`
	QuestionsCount int `json:"questions_count,omitempty"`
}

// Chapter groups questions within a quiz set, ordered by sequence number.
type Chapter struct {
	ID             int64  `json:"id"`
	QuizSetID      int64  `json:"quiz_set_id"`
	Title          string `json:"title"`
	SequenceNumber int    `json:"sequence_number"`
}

// Question belongs to a chapter.
type Question struct {
	ID             int64        `json:"id"`
	ChapterID      int64        `json:"chapter_id"`
	QuestionText   string       `json:"question_text"`
	Explanation    string       `json:"explanation"`
	Type           QuestionType `json:"type"`
	HasImage       bool         `json:"has_image"`
	ImagePath      *string      `json:"image_path,omitempty"`
	SequenceNumber int          `json:"sequence_number"`
}

// Option is one answer choice of a question.
type Option struct {
	ID             int64  `json:"id"`
	QuestionID     int64  `json:"question_id"`
	OptionText     string `json:"option_text"`
	IsCorrect      bool   `json:"is_correct"`
	SequenceNumber int    `json:"sequence_number"`
}

// ─── Admin editor payloads ──────────────────────────────────────────

// CreateQuizSetRequest is the payload for creating a quiz set.
type CreateQuizSetRequest struct {
	Title       string `json:"title" binding:"required,notblank,min=3,max=255"`
	Description string `json:"description" binding:"max=2000"`
}

// UpdateQuizSetRequest is the payload for updating a quiz set.
type UpdateQuizSetRequest struct {
	Title       string `json:"title" binding:"omitempty,notblank,min=3,max=255"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	IsActive    *bool  `json:"is_active" binding:"omitempty"`
}

// CreateChapterRequest is the payload for adding a chapter to a quiz set.
type CreateChapterRequest struct {
	Title          string `json:"title" binding:"required,notblank,min=1,max=255"`
	SequenceNumber int    `json:"sequence_number" binding:"min=0"`
}

// CreateQuestionRequest is the payload for adding a question to a chapter.
type CreateQuestionRequest struct {
	QuestionText   string  `json:"question_text" binding:"required,notblank,min=1,max=2000"`
	Explanation    string  `json:"explanation" binding:"max=2000"`
	Type           string  `json:"type" binding:"required,oneof=multiple"`
	ImagePath      *string `json:"image_path" binding:"omitempty,max=512"`
	SequenceNumber int     `json:"sequence_number" binding:"min=0"`
}

// CreateOptionRequest is the payload for adding an option to a question.
type CreateOptionRequest struct {
	OptionText     string `json:"option_text" binding:"required,notblank,min=1,max=1000"`
	IsCorrect      bool   `json:"is_correct"`
	SequenceNumber int    `json:"sequence_number" binding:"min=0"`
}
