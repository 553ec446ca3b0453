package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Paddione/network-quiz/internal/middleware"
	"github.com/Paddione/network-quiz/internal/repository"
	"github.com/Paddione/network-quiz/internal/response"
	"github.com/Paddione/network-quiz/internal/service"
	"github.com/gin-gonic/gin"
)

// QuizHandler serves the public read API: playable quiz sets, joinable
// games and the highscore boards.
type QuizHandler struct {
	quizService *service.QuizService
	games       *repository.GameRepository
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService *service.QuizService, games *repository.GameRepository) *QuizHandler {
	return &QuizHandler{
		quizService: quizService,
		games:       games,
	}
}

// ListSets godoc
// GET /api/quiz/sets
// Lists active quiz sets with their content counts.
func (h *QuizHandler) ListSets(c *gin.Context) {
	sets, err := h.quizService.ListActive(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quiz_sets": sets})
}

// GetSet godoc
// GET /api/quiz/sets/:id
// Returns one quiz set's metadata.
func (h *QuizHandler) GetSet(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	set, err := h.quizService.GetSet(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quiz_set": set})
}

// ListActiveGames godoc
// GET /api/quiz/games/active
// Lists joinable or recently started games.
func (h *QuizHandler) ListActiveGames(c *gin.Context) {
	games, err := h.games.ListActive(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"games": games})
}

// Highscores godoc
// GET /api/quiz/highscores
// Returns the global top 50 of finished games.
func (h *QuizHandler) Highscores(c *gin.Context) {
	scores, err := h.games.Highscores(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"highscores": scores})
}

// PersonalHighscores godoc
// GET /api/quiz/personal-highscores
// Returns the authenticated user's best 10 finished games.
func (h *QuizHandler) PersonalHighscores(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	scores, err := h.games.PersonalHighscores(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"highscores": scores})
}

// HighscoreHistory godoc
// GET /api/quiz/highscore-history
// Returns the authenticated user's score samples over time, oldest first.
func (h *QuizHandler) HighscoreHistory(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	points, err := h.games.ScoreHistory(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"history": points})
}

// parseIDParam parses a numeric path param, failing the request on junk.
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}
