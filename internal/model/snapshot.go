package model

// QuizSnapshot is the immutable copy of a quiz content tree taken once at
// session start. The game coordinator never goes back to storage during play;
// option correctness is resolved here and never recomputed.
type QuizSnapshot struct {
	QuizSetID   int64             `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Chapters    []SnapshotChapter `json:"chapters"`
}

// SnapshotChapter is one chapter of a snapshot, questions in sequence order.
type SnapshotChapter struct {
	ID        int64              `json:"id"`
	Title     string             `json:"title"`
	Questions []SnapshotQuestion `json:"questions"`
}

// SnapshotQuestion carries the option texts in sequence order and the index
// of the correct option within them. Field names match what the game client
// consumes.
type SnapshotQuestion struct {
	ID          int64        `json:"id"`
	Text        string       `json:"question"`
	Explanation string       `json:"explanation,omitempty"`
	Type        QuestionType `json:"type"`
	HasImage    bool         `json:"has_image"`
	ImagePath   *string      `json:"image_path,omitempty"`
	Options     []string     `json:"options"`
	Correct     int          `json:"correct"`
}

// QuestionCount returns the total number of questions across all chapters.
func (s *QuizSnapshot) QuestionCount() int {
	n := 0
	for _, c := range s.Chapters {
		n += len(c.Questions)
	}
	return n
}
