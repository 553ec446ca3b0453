package ws

import "encoding/json"

// Event names carried on the game channel. Inbound and outbound events
// share one namespace; "answer" flows both ways.
const (
	EventJoin         = "join"
	EventStartGame    = "startGame"
	EventAnswer       = "answer"
	EventNextQuestion = "nextQuestion"
	EventNextChapter  = "nextChapter"

	EventPlayerJoined = "playerJoined"
	EventGameStarted  = "gameStarted"
	EventPlayerLeft   = "playerLeft"
	EventGameEnded    = "gameEnded"
	EventGameError    = "gameError"
)

// Envelope is the tagged-union frame every game message travels in.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope marshals a payload into an Envelope. Marshal failures are
// programmer errors on our own payload structs, so they surface as-is.
func NewEnvelope(event string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Payload: raw}, nil
}

// JoinPayload enters the matchmaking queue, or requests an immediate
// single-player session.
type JoinPayload struct {
	Name         string `json:"name"`
	UserID       *int64 `json:"userId,omitempty"`
	SinglePlayer bool   `json:"singlePlayer,omitempty"`
}

// AnswerPayload is a participant's pick for the current question.
// Option is nil when the client reports running out of time on its own.
// RemainingSeconds is client-reported and clamped server-side.
type AnswerPayload struct {
	QuestionID       int64 `json:"questionId"`
	Option           *int  `json:"option"`
	RemainingSeconds int   `json:"remainingSeconds"`
}

// PlayerJoinedPayload tells queued players who is waiting with them.
// Scores is keyed by player name; everyone is at zero until play starts.
type PlayerJoinedPayload struct {
	Players []string       `json:"players"`
	Scores  map[string]int `json:"scores"`
	Needed  int            `json:"needed"`
}

// GameStartedPayload carries the full quiz snapshot so clients can render
// every question without further round trips.
type GameStartedPayload struct {
	GameCode    string          `json:"gameCode"`
	Multiplayer bool            `json:"multiplayer"`
	Players     []string        `json:"players"`
	Scores      map[string]int  `json:"scores"`
	Quiz        json.RawMessage `json:"quiz"`
	Seconds     int             `json:"seconds"`
}

// AnswerBroadcast mirrors an answer to every participant, the sender
// included, with the server-computed verdict attached. RemainingSeconds is
// the clamped countdown value the answer was scored against.
type AnswerBroadcast struct {
	Player           string `json:"player"`
	QuestionID       int64  `json:"questionId"`
	Option           *int   `json:"option"`
	Correct          bool   `json:"correct"`
	Score            int    `json:"score"`
	RemainingSeconds int    `json:"remainingSeconds"`
	TimedOut         bool   `json:"timedOut,omitempty"`
}

// ProceedPayload advances all clients past a reveal or chapter boundary.
type ProceedPayload struct {
	Player string `json:"player"`
}

// PlayerLeftPayload announces a disconnect that destroyed the session.
type PlayerLeftPayload struct {
	Player string `json:"player"`
}

// ScoreEntry is one row of the final standings.
type ScoreEntry struct {
	Player string `json:"player"`
	Score  int    `json:"score"`
}

// GameEndedPayload closes the session with final standings. Winners lists
// every participant tied at the top score; the first entry is the one
// recorded as the winner.
type GameEndedPayload struct {
	Scores  []ScoreEntry `json:"scores"`
	Winners []string     `json:"winners"`
}

// GameErrorPayload reports a session-level failure to the client.
type GameErrorPayload struct {
	Message string `json:"message"`
}
