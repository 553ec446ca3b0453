package game

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"math/big"
	"strings"
	"time"

	"github.com/Paddione/network-quiz/internal/ws"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const setupTimeout = 10 * time.Second

// Hub is the entry point for all game events. It owns the matchmaking lobby
// and the session registry and routes each connection's events to its
// session.
type Hub struct {
	lobby    *Lobby
	registry *Registry
	quizzes  QuizSource
	recorder Recorder
	seconds  int
	log      zerolog.Logger
}

// NewHub creates a hub dispatching matches of lobbySize players with
// questionSeconds per question.
func NewHub(quizzes QuizSource, recorder Recorder, lobbySize, questionSeconds int, log zerolog.Logger) *Hub {
	return &Hub{
		lobby:    NewLobby(lobbySize),
		registry: NewRegistry(),
		quizzes:  quizzes,
		recorder: recorder,
		seconds:  questionSeconds,
		log:      log.With().Str("component", "game-hub").Logger(),
	}
}

// Join places a player into matchmaking. Single-player joins skip the queue
// and get a session of their own immediately. A multiplayer join either
// completes a batch and creates a session, or updates everyone waiting.
func (h *Hub) Join(conn Conn, payload ws.JoinPayload) {
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		name = "Anonymous"
	}
	entry := Entry{Conn: conn, Name: name, UserID: payload.UserID}

	if payload.SinglePlayer {
		h.createSession([]Entry{entry}, false)
		return
	}

	batch, waiting := h.lobby.Enqueue(entry)
	if batch != nil {
		h.createSession(batch, true)
		return
	}
	h.notifyWaiting(waiting)
}

// StartGame begins the joined session's first question.
func (h *Hub) StartGame(conn Conn) {
	if s, ok := h.registry.LookupByConn(conn.ID()); ok {
		s.Start(conn)
	}
}

// Answer routes an answer to the connection's session.
func (h *Hub) Answer(conn Conn, payload ws.AnswerPayload) {
	if s, ok := h.registry.LookupByConn(conn.ID()); ok {
		s.Answer(conn, payload)
	}
}

// NextQuestion advances the connection's session within the chapter.
func (h *Hub) NextQuestion(conn Conn) {
	if s, ok := h.registry.LookupByConn(conn.ID()); ok {
		s.NextQuestion(conn)
	}
}

// NextChapter advances the connection's session across a chapter boundary.
func (h *Hub) NextChapter(conn Conn) {
	if s, ok := h.registry.LookupByConn(conn.ID()); ok {
		s.NextChapter(conn)
	}
}

// Disconnect removes a connection from wherever it is: the waiting queue,
// where the rest keep waiting, or a live session, which is destroyed.
func (h *Hub) Disconnect(conn Conn) {
	if waiting, removed := h.lobby.Remove(conn.ID()); removed {
		h.notifyWaiting(waiting)
		return
	}
	if s, ok := h.registry.LookupByConn(conn.ID()); ok {
		s.HandleDisconnect(conn)
	}
}

// Sessions reports the number of live sessions, for the health endpoint.
func (h *Hub) Sessions() int {
	return h.registry.Len()
}

func (h *Hub) notifyWaiting(waiting []Entry) {
	if len(waiting) == 0 {
		return
	}
	names := make([]string, len(waiting))
	scores := make(map[string]int, len(waiting))
	for i, e := range waiting {
		names[i] = e.Name
		scores[e.Name] = 0
	}
	payload := ws.PlayerJoinedPayload{Players: names, Scores: scores, Needed: h.lobby.Size() - len(waiting)}
	for _, e := range waiting {
		if err := e.Conn.SendEvent(ws.EventPlayerJoined, payload); err != nil {
			h.log.Debug().Err(err).Str("player", e.Name).Msg("waiting update send failed")
		}
	}
}

// createSession picks a random active quiz, snapshots it, opens the game
// row best-effort and registers the session. Content failures are reported
// to the batch and nothing is created; persistence failures only degrade
// recording.
func (h *Hub) createSession(batch []Entry, multiplayer bool) {
	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	quizSetID, err := h.quizzes.RandomActiveID(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("no quiz available for new session")
		h.rejectBatch(batch, "no quiz sets available")
		return
	}
	snapshot, err := h.quizzes.GetSnapshot(ctx, quizSetID)
	if err != nil {
		h.log.Error().Err(err).Int64("quiz_set_id", quizSetID).Msg("snapshot load failed")
		h.rejectBatch(batch, "quiz content unavailable")
		return
	}
	rawQuiz, err := json.Marshal(snapshot)
	if err != nil {
		h.log.Error().Err(err).Int64("quiz_set_id", quizSetID).Msg("snapshot encode failed")
		h.rejectBatch(batch, "quiz content unavailable")
		return
	}

	gameCode := randCode(10)
	var dbID int64
	if id, err := h.recorder.CreateGame(ctx, quizSetID, multiplayer, gameCode, len(batch)); err != nil {
		h.log.Error().Err(err).Str("game_code", gameCode).Msg("game row create failed, playing unrecorded")
	} else {
		dbID = id
	}

	participants := make([]*Participant, len(batch))
	for i, e := range batch {
		p := &Participant{Conn: e.Conn, Name: e.Name, UserID: e.UserID}
		if dbID != 0 {
			if playerID, err := h.recorder.AddPlayer(ctx, dbID, e.UserID, e.Name); err != nil {
				h.log.Error().Err(err).Str("player", e.Name).Msg("player row create failed")
			} else {
				p.GamePlayerID = playerID
			}
		}
		participants[i] = p
	}

	session := NewSession(uuid.NewString(), gameCode, dbID, multiplayer,
		participants, snapshot, rawQuiz, h.seconds, h.recorder, h.registry.Destroy, h.log)
	h.registry.Add(session)

	names := make([]string, len(participants))
	scores := make(map[string]int, len(participants))
	for i, p := range participants {
		names[i] = p.Name
		scores[p.Name] = p.Score
	}
	payload := ws.PlayerJoinedPayload{Players: names, Scores: scores, Needed: 0}
	for _, p := range participants {
		if err := p.Conn.SendEvent(ws.EventPlayerJoined, payload); err != nil {
			h.log.Debug().Err(err).Str("player", p.Name).Msg("roster send failed")
		}
	}
	h.log.Info().Str("game_code", gameCode).Int64("quiz_set_id", quizSetID).
		Int("players", len(participants)).Bool("multiplayer", multiplayer).Msg("session created")

	if !multiplayer {
		session.Start(participants[0].Conn)
	}
}

func (h *Hub) rejectBatch(batch []Entry, message string) {
	for _, e := range batch {
		if err := e.Conn.SendEvent(ws.EventGameError, ws.GameErrorPayload{Message: message}); err != nil {
			h.log.Debug().Err(err).Str("player", e.Name).Msg("reject send failed")
		}
	}
}

const codeAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func randCode(n int) string {
	var b strings.Builder
	b.Grow(n)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			b.WriteByte(codeAlphabet[0])
			continue
		}
		b.WriteByte(codeAlphabet[idx.Int64()])
	}
	return b.String()
}
