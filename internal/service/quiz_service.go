package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Paddione/network-quiz/internal/config"
	"github.com/Paddione/network-quiz/internal/model"
	"github.com/Paddione/network-quiz/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const snapshotTTL = 10 * time.Minute

// QuizService manages quiz content and the Redis-cached play snapshots the
// game coordinator consumes. Every content mutation invalidates the owning
// quiz set's snapshot so new lobbies never see a stale tree.
type QuizService struct {
	repo *repository.QuizRepository
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewQuizService creates a new QuizService.
func NewQuizService(repo *repository.QuizRepository, rdb *redis.Client, log zerolog.Logger) *QuizService {
	return &QuizService{
		repo: repo,
		rdb:  rdb,
		log:  log.With().Str("component", "quiz-service").Logger(),
	}
}

// ListActive returns quiz sets available for play.
func (s *QuizService) ListActive(ctx context.Context) ([]model.QuizSet, error) {
	return s.repo.ListActive(ctx)
}

// ListAll returns every quiz set, active or not, for the editor.
func (s *QuizService) ListAll(ctx context.Context) ([]model.QuizSet, error) {
	return s.repo.ListAll(ctx)
}

// GetSet returns one quiz set.
func (s *QuizService) GetSet(ctx context.Context, id int64) (*model.QuizSet, error) {
	return s.repo.GetSet(ctx, id)
}

// RandomActiveID picks a random active quiz set for a new game.
func (s *QuizService) RandomActiveID(ctx context.Context) (int64, error) {
	return s.repo.RandomActiveID(ctx)
}

// GetSnapshot returns the full play tree for a quiz set, served from Redis
// when possible. A cache miss rebuilds from Postgres and repopulates the
// cache best-effort.
func (s *QuizService) GetSnapshot(ctx context.Context, quizSetID int64) (*model.QuizSnapshot, error) {
	key := config.CacheKey.QuizSnapshotKey(quizSetID)

	cached, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		var snap model.QuizSnapshot
		if err := json.Unmarshal([]byte(cached), &snap); err == nil {
			return &snap, nil
		}
		s.log.Warn().Int64("quiz_set_id", quizSetID).Msg("discarding corrupt cached snapshot")
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Int64("quiz_set_id", quizSetID).Msg("snapshot cache read failed")
	}

	snap, err := s.repo.Snapshot(ctx, quizSetID)
	if err != nil {
		return nil, fmt.Errorf("build snapshot: %w", err)
	}

	if raw, err := json.Marshal(snap); err == nil {
		if err := s.rdb.Set(ctx, key, raw, snapshotTTL).Err(); err != nil {
			s.log.Warn().Err(err).Int64("quiz_set_id", quizSetID).Msg("snapshot cache write failed")
		}
	}
	return snap, nil
}

// invalidateSnapshot drops a quiz set's cached snapshot after a mutation.
func (s *QuizService) invalidateSnapshot(ctx context.Context, quizSetID int64) {
	key := config.CacheKey.QuizSnapshotKey(quizSetID)
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.log.Warn().Err(err).Int64("quiz_set_id", quizSetID).Msg("snapshot invalidation failed")
	}
}

// CreateSet creates a quiz set.
func (s *QuizService) CreateSet(ctx context.Context, set *model.QuizSet) error {
	return s.repo.CreateSet(ctx, set)
}

// UpdateSet updates a quiz set's metadata or active flag.
func (s *QuizService) UpdateSet(ctx context.Context, set *model.QuizSet) error {
	if err := s.repo.UpdateSet(ctx, set); err != nil {
		return err
	}
	s.invalidateSnapshot(ctx, set.ID)
	return nil
}

// DeleteSet deletes a quiz set and, via FK cascade, its chapters, questions
// and options.
func (s *QuizService) DeleteSet(ctx context.Context, id int64) error {
	if err := s.repo.DeleteSet(ctx, id); err != nil {
		return err
	}
	s.invalidateSnapshot(ctx, id)
	return nil
}

// ListChapters returns a set's chapters in sequence order.
func (s *QuizService) ListChapters(ctx context.Context, quizSetID int64) ([]model.Chapter, error) {
	return s.repo.ListChapters(ctx, quizSetID)
}

// CreateChapter adds a chapter to a set.
func (s *QuizService) CreateChapter(ctx context.Context, ch *model.Chapter) error {
	if err := s.repo.CreateChapter(ctx, ch); err != nil {
		return err
	}
	s.invalidateSnapshot(ctx, ch.QuizSetID)
	return nil
}

// UpdateChapter updates a chapter.
func (s *QuizService) UpdateChapter(ctx context.Context, ch *model.Chapter) error {
	if err := s.repo.UpdateChapter(ctx, ch); err != nil {
		return err
	}
	s.invalidateOwnerOfChapter(ctx, ch.ID)
	return nil
}

// DeleteChapter deletes a chapter and its questions.
func (s *QuizService) DeleteChapter(ctx context.Context, chapterID int64) error {
	quizSetID, err := s.repo.QuizSetIDForChapter(ctx, chapterID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteChapter(ctx, chapterID); err != nil {
		return err
	}
	s.invalidateSnapshot(ctx, quizSetID)
	return nil
}

// ListQuestions returns a chapter's questions in sequence order.
func (s *QuizService) ListQuestions(ctx context.Context, chapterID int64) ([]model.Question, error) {
	return s.repo.ListQuestions(ctx, chapterID)
}

// CreateQuestion adds a question to a chapter.
func (s *QuizService) CreateQuestion(ctx context.Context, q *model.Question) error {
	if err := s.repo.CreateQuestion(ctx, q); err != nil {
		return err
	}
	s.invalidateOwnerOfChapter(ctx, q.ChapterID)
	return nil
}

// UpdateQuestion updates a question.
func (s *QuizService) UpdateQuestion(ctx context.Context, q *model.Question) error {
	if err := s.repo.UpdateQuestion(ctx, q); err != nil {
		return err
	}
	s.invalidateOwnerOfQuestion(ctx, q.ID)
	return nil
}

// DeleteQuestion deletes a question and its options.
func (s *QuizService) DeleteQuestion(ctx context.Context, questionID int64) error {
	quizSetID, err := s.repo.QuizSetIDForQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteQuestion(ctx, questionID); err != nil {
		return err
	}
	s.invalidateSnapshot(ctx, quizSetID)
	return nil
}

// ListOptions returns a question's options in sequence order.
func (s *QuizService) ListOptions(ctx context.Context, questionID int64) ([]model.Option, error) {
	return s.repo.ListOptions(ctx, questionID)
}

// CreateOption adds an option to a question.
func (s *QuizService) CreateOption(ctx context.Context, o *model.Option) error {
	if err := s.repo.CreateOption(ctx, o); err != nil {
		return err
	}
	s.invalidateOwnerOfQuestion(ctx, o.QuestionID)
	return nil
}

// UpdateOption updates an option.
func (s *QuizService) UpdateOption(ctx context.Context, o *model.Option) error {
	if err := s.repo.UpdateOption(ctx, o); err != nil {
		return err
	}
	questionID := o.QuestionID
	if questionID == 0 {
		id, err := s.repo.QuestionIDForOption(ctx, o.ID)
		if err != nil {
			s.log.Warn().Err(err).Int64("option_id", o.ID).Msg("owner lookup for invalidation failed")
			return nil
		}
		questionID = id
	}
	s.invalidateOwnerOfQuestion(ctx, questionID)
	return nil
}

// DeleteOption deletes an option.
func (s *QuizService) DeleteOption(ctx context.Context, optionID int64) error {
	questionID, err := s.repo.QuestionIDForOption(ctx, optionID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteOption(ctx, optionID); err != nil {
		return err
	}
	s.invalidateOwnerOfQuestion(ctx, questionID)
	return nil
}

func (s *QuizService) invalidateOwnerOfChapter(ctx context.Context, chapterID int64) {
	quizSetID, err := s.repo.QuizSetIDForChapter(ctx, chapterID)
	if err != nil {
		s.log.Warn().Err(err).Int64("chapter_id", chapterID).Msg("owner lookup for invalidation failed")
		return
	}
	s.invalidateSnapshot(ctx, quizSetID)
}

func (s *QuizService) invalidateOwnerOfQuestion(ctx context.Context, questionID int64) {
	quizSetID, err := s.repo.QuizSetIDForQuestion(ctx, questionID)
	if err != nil {
		s.log.Warn().Err(err).Int64("question_id", questionID).Msg("owner lookup for invalidation failed")
		return
	}
	s.invalidateSnapshot(ctx, quizSetID)
}
