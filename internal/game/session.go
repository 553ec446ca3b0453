package game

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/Paddione/network-quiz/internal/model"
	"github.com/Paddione/network-quiz/internal/ws"
	"github.com/rs/zerolog"
)

// State is a session's lifecycle phase.
type State int

const (
	StateJoining State = iota
	StateActive
	StateRevealing
	StateChapterBoundary
	StateEnded
)

const persistTimeout = 5 * time.Second

// Participant is one player inside a running session. GamePlayerID is the
// game_players row id, or 0 when that write failed; answer persistence is
// skipped for such players.
type Participant struct {
	Conn         Conn
	Name         string
	UserID       *int64
	GamePlayerID int64
	Score        int
	Answered     bool
}

// Session drives one game from roster to final standings. All event
// handlers serialize on mu, so per-session ordering matches arrival order.
// Persistence happens off the lock; its failures never interrupt play.
type Session struct {
	mu sync.Mutex

	id          string
	gameCode    string
	dbID        int64
	multiplayer bool

	participants []*Participant
	snapshot     *model.QuizSnapshot
	rawQuiz      json.RawMessage

	state    State
	chapter  int
	question int

	timer    *time.Timer
	timerGen int

	seconds   int
	finalized bool

	recorder Recorder
	onEnd    func(sessionID string)
	log      zerolog.Logger
}

// NewSession builds a session in the Joining state.
func NewSession(id, gameCode string, dbID int64, multiplayer bool,
	participants []*Participant, snapshot *model.QuizSnapshot, rawQuiz json.RawMessage,
	seconds int, recorder Recorder, onEnd func(string), log zerolog.Logger) *Session {
	return &Session{
		id:           id,
		gameCode:     gameCode,
		dbID:         dbID,
		multiplayer:  multiplayer,
		participants: participants,
		snapshot:     snapshot,
		rawQuiz:      rawQuiz,
		seconds:      seconds,
		recorder:     recorder,
		onEnd:        onEnd,
		log:          log.With().Str("session_id", id).Str("game_code", gameCode).Logger(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Participants returns the roster in join order.
func (s *Session) Participants() []*Participant {
	return s.participants
}

// Start moves the session from Joining to the first question and broadcasts
// the full quiz snapshot. Repeated or out-of-state starts are no-ops, so
// several clients racing to start is harmless.
func (s *Session) Start(conn Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateJoining || s.participantLocked(conn.ID()) == nil {
		return
	}

	first := s.nextChapterWithQuestions(0)
	if first < 0 {
		s.broadcastLocked(ws.EventGameError, ws.GameErrorPayload{Message: "quiz has no questions"})
		s.log.Warn().Int64("quiz_set_id", s.snapshot.QuizSetID).Msg("refusing to start empty quiz")
		s.abandonLocked()
		return
	}

	s.chapter = first
	s.question = 0
	s.state = StateActive
	s.resetAnswersLocked()
	s.broadcastLocked(ws.EventGameStarted, ws.GameStartedPayload{
		GameCode:    s.gameCode,
		Multiplayer: s.multiplayer,
		Players:     s.playerNamesLocked(),
		Scores:      s.scoreboardLocked(),
		Quiz:        s.rawQuiz,
		Seconds:     s.seconds,
	})
	s.scheduleTimerLocked()
	s.log.Info().
		Int("players", len(s.participants)).
		Int("questions", s.snapshot.QuestionCount()).
		Msg("game started")
}

// Answer records a participant's pick for the current question, computes the
// verdict and score server-side, and mirrors the result to every
// participant. Duplicate answers, answers outside the Active state and
// answers for a stale question id are ignored.
func (s *Session) Answer(conn Conn, payload ws.AnswerPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return
	}
	p := s.participantLocked(conn.ID())
	if p == nil || p.Answered {
		return
	}
	q := s.currentQuestionLocked()
	if payload.QuestionID != q.ID {
		return
	}

	remaining := clamp(payload.RemainingSeconds, 0, s.seconds)
	correct := payload.Option != nil && *payload.Option == q.Correct
	points := 0
	if correct {
		points = 10 + remaining/3
	}

	p.Answered = true
	p.Score += points

	s.persistAnswerLocked(p, q.ID, payload.Option, correct, (s.seconds-remaining)*1000)
	s.broadcastLocked(ws.EventAnswer, ws.AnswerBroadcast{
		Player:           p.Name,
		QuestionID:       q.ID,
		Option:           payload.Option,
		Correct:          correct,
		Score:            points,
		RemainingSeconds: remaining,
	})

	if s.allAnsweredLocked() {
		s.stopTimerLocked()
		s.state = StateRevealing
	}
}

// questionDeadline fires when the question timer elapses. It synthesizes a
// "no answer" for everyone who has not answered yet. A stale generation
// means the state already moved on, so the fire is ignored.
func (s *Session) questionDeadline(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive || gen != s.timerGen {
		return
	}

	q := s.currentQuestionLocked()
	for _, p := range s.participants {
		if p.Answered {
			continue
		}
		p.Answered = true
		s.persistAnswerLocked(p, q.ID, nil, false, s.seconds*1000)
		s.broadcastLocked(ws.EventAnswer, ws.AnswerBroadcast{
			Player:     p.Name,
			QuestionID: q.ID,
			Correct:    false,
			Score:      0,
			TimedOut:   true,
		})
	}
	s.state = StateRevealing
}

// NextQuestion advances a Revealing session to the next question of the
// current chapter. At the chapter's last question it moves to the chapter
// boundary without broadcasting; the next nextChapter event carries on.
// Any participant may proceed.
func (s *Session) NextQuestion(conn Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.participantLocked(conn.ID())
	if s.state != StateRevealing || p == nil {
		return
	}

	if s.question+1 >= len(s.snapshot.Chapters[s.chapter].Questions) {
		s.state = StateChapterBoundary
		return
	}

	s.question++
	s.state = StateActive
	s.resetAnswersLocked()
	s.broadcastLocked(ws.EventNextQuestion, ws.ProceedPayload{Player: p.Name})
	s.scheduleTimerLocked()
}

// NextChapter advances past a chapter boundary, or past the reveal of a
// chapter's last question. After the final chapter it ends the game.
func (s *Session) NextChapter(conn Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.participantLocked(conn.ID())
	if p == nil {
		return
	}
	switch s.state {
	case StateChapterBoundary:
	case StateRevealing:
		if s.question+1 < len(s.snapshot.Chapters[s.chapter].Questions) {
			return
		}
	default:
		return
	}

	next := s.nextChapterWithQuestions(s.chapter + 1)
	if next < 0 {
		s.endLocked()
		return
	}

	s.chapter = next
	s.question = 0
	s.state = StateActive
	s.resetAnswersLocked()
	s.broadcastLocked(ws.EventNextChapter, ws.ProceedPayload{Player: p.Name})
	s.scheduleTimerLocked()
}

// HandleDisconnect tears the whole session down when any participant drops.
// Remaining players get a playerLeft notice; the game row is closed without
// a winner.
func (s *Session) HandleDisconnect(conn Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.participantLocked(conn.ID())
	if p == nil || s.state == StateEnded {
		return
	}

	for _, other := range s.participants {
		if other.Conn.ID() == conn.ID() {
			continue
		}
		if err := other.Conn.SendEvent(ws.EventPlayerLeft, ws.PlayerLeftPayload{Player: p.Name}); err != nil {
			s.log.Debug().Err(err).Str("player", other.Name).Msg("playerLeft send failed")
		}
	}
	s.log.Info().Str("player", p.Name).Msg("player left, destroying session")
	s.abandonLocked()
}

// endLocked finishes the game: final standings, a single persisted winner,
// and the gameEnded broadcast. The winner is the first entry of the stable
// score-descending sort, so ties resolve to the earliest joiner.
func (s *Session) endLocked() {
	s.stopTimerLocked()
	s.state = StateEnded

	scores := make([]model.PlayerScore, len(s.participants))
	entries := make([]ws.ScoreEntry, len(s.participants))
	for i, p := range s.participants {
		scores[i] = model.PlayerScore{GamePlayerID: p.GamePlayerID, PlayerName: p.Name, Score: p.Score}
		entries[i] = ws.ScoreEntry{Player: p.Name, Score: p.Score}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })

	top := scores[0].Score
	var winners []string
	for _, sc := range scores {
		if sc.Score == top {
			winners = append(winners, sc.PlayerName)
		}
	}

	if s.dbID != 0 && !s.finalized {
		s.finalized = true
		dbID, winner := s.dbID, scores[0].PlayerName
		final := append([]model.PlayerScore(nil), scores...)
		log := s.log
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			defer cancel()
			if err := s.recorder.Finalize(ctx, dbID, final, winner); err != nil {
				log.Error().Err(err).Int64("game_id", dbID).Msg("finalize failed")
			}
		}()
	}

	s.broadcastLocked(ws.EventGameEnded, ws.GameEndedPayload{Scores: entries, Winners: winners})
	s.log.Info().Str("winner", scores[0].PlayerName).Int("top_score", top).Msg("game ended")
	if s.onEnd != nil {
		s.onEnd(s.id)
	}
}

// abandonLocked closes the session without standings or a winner.
func (s *Session) abandonLocked() {
	s.stopTimerLocked()
	s.state = StateEnded

	if s.dbID != 0 {
		dbID, log := s.dbID, s.log
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			defer cancel()
			if err := s.recorder.MarkEnded(ctx, dbID); err != nil {
				log.Error().Err(err).Int64("game_id", dbID).Msg("mark ended failed")
			}
		}()
	}
	if s.onEnd != nil {
		s.onEnd(s.id)
	}
}

func (s *Session) persistAnswerLocked(p *Participant, questionID int64, option *int, correct bool, responseMs int) {
	if p.GamePlayerID == 0 {
		return
	}
	if responseMs < 0 {
		responseMs = 0
	}
	rec := model.AnswerRecord{
		GamePlayerID:   p.GamePlayerID,
		QuestionID:     questionID,
		OptionIndex:    option,
		IsCorrect:      correct,
		ResponseTimeMs: responseMs,
	}
	log := s.log
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.recorder.RecordAnswer(ctx, rec); err != nil {
			log.Warn().Err(err).Int64("question_id", questionID).Msg("answer persistence failed")
		}
	}()
}

func (s *Session) scheduleTimerLocked() {
	s.timerGen++
	gen := s.timerGen
	s.timer = time.AfterFunc(time.Duration(s.seconds)*time.Second, func() {
		s.questionDeadline(gen)
	})
}

// stopTimerLocked cancels the pending deadline. The generation bump keeps a
// fire that already slipped past Stop from acting on the new state.
func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
}

func (s *Session) broadcastLocked(event string, payload any) {
	for _, p := range s.participants {
		if err := p.Conn.SendEvent(event, payload); err != nil {
			s.log.Debug().Err(err).Str("player", p.Name).Str("event", event).Msg("broadcast send failed")
		}
	}
}

func (s *Session) participantLocked(connID string) *Participant {
	for _, p := range s.participants {
		if p.Conn.ID() == connID {
			return p
		}
	}
	return nil
}

func (s *Session) currentQuestionLocked() *model.SnapshotQuestion {
	return &s.snapshot.Chapters[s.chapter].Questions[s.question]
}

func (s *Session) allAnsweredLocked() bool {
	for _, p := range s.participants {
		if !p.Answered {
			return false
		}
	}
	return true
}

func (s *Session) resetAnswersLocked() {
	for _, p := range s.participants {
		p.Answered = false
	}
}

func (s *Session) playerNamesLocked() []string {
	names := make([]string, len(s.participants))
	for i, p := range s.participants {
		names[i] = p.Name
	}
	return names
}

func (s *Session) scoreboardLocked() map[string]int {
	scores := make(map[string]int, len(s.participants))
	for _, p := range s.participants {
		scores[p.Name] = p.Score
	}
	return scores
}

// nextChapterWithQuestions returns the first chapter index at or after from
// that has at least one question, or -1.
func (s *Session) nextChapterWithQuestions(from int) int {
	for i := from; i < len(s.snapshot.Chapters); i++ {
		if len(s.snapshot.Chapters[i].Questions) > 0 {
			return i
		}
	}
	return -1
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
