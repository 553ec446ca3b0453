package game

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Paddione/network-quiz/internal/model"
	"github.com/Paddione/network-quiz/internal/ws"
	"github.com/rs/zerolog"
)

// fakeConn records every event sent to it.
type fakeConn struct {
	id string

	mu     sync.Mutex
	events []sentEvent
}

type sentEvent struct {
	event   string
	payload any
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) SendEvent(event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, sentEvent{event: event, payload: payload})
	return nil
}

func (c *fakeConn) count(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.events {
		if e.event == event {
			n++
		}
	}
	return n
}

func (c *fakeConn) last(event string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.events) - 1; i >= 0; i-- {
		if c.events[i].event == event {
			return c.events[i].payload, true
		}
	}
	return nil, false
}

// fakeRecorder counts persistence calls.
type fakeRecorder struct {
	mu            sync.Mutex
	answers       []model.AnswerRecord
	finalizeCalls int
	finalWinner   string
	finalScores   []model.PlayerScore
	endedCalls    int
	nextPlayerID  int64
}

func (r *fakeRecorder) CreateGame(ctx context.Context, quizSetID int64, multiplayer bool, gameCode string, playerCount int) (int64, error) {
	return 1, nil
}

func (r *fakeRecorder) AddPlayer(ctx context.Context, gameID int64, userID *int64, playerName string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextPlayerID++
	return r.nextPlayerID, nil
}

func (r *fakeRecorder) RecordAnswer(ctx context.Context, rec model.AnswerRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answers = append(r.answers, rec)
	return nil
}

func (r *fakeRecorder) MarkEnded(ctx context.Context, gameID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endedCalls++
	return nil
}

func (r *fakeRecorder) Finalize(ctx context.Context, gameID int64, scores []model.PlayerScore, winnerName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finalizeCalls++
	r.finalWinner = winnerName
	r.finalScores = scores
	return nil
}

func (r *fakeRecorder) finalized() (int, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finalizeCalls, r.finalWinner
}

func (r *fakeRecorder) answerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.answers)
}

// testSnapshot builds a quiz tree; questionsPerChapter gives each chapter's
// question count. Option index 1 is always the correct one.
func testSnapshot(questionsPerChapter ...int) *model.QuizSnapshot {
	snap := &model.QuizSnapshot{QuizSetID: 1, Title: "Test Quiz"}
	var nextQID int64 = 100
	for ci, n := range questionsPerChapter {
		ch := model.SnapshotChapter{ID: int64(ci + 1), Title: fmt.Sprintf("Chapter %d", ci+1)}
		for qi := 0; qi < n; qi++ {
			ch.Questions = append(ch.Questions, model.SnapshotQuestion{
				ID:      nextQID,
				Text:    fmt.Sprintf("Question %d", nextQID),
				Type:    model.QuestionTypeMultiple,
				Options: []string{"a", "b", "c"},
				Correct: 1,
			})
			nextQID++
		}
		snap.Chapters = append(snap.Chapters, ch)
	}
	return snap
}

func newTestSession(t *testing.T, snap *model.QuizSnapshot, rec Recorder, onEnd func(string), conns ...*fakeConn) *Session {
	t.Helper()
	parts := make([]*Participant, len(conns))
	for i, c := range conns {
		parts[i] = &Participant{Conn: c, Name: c.id, GamePlayerID: int64(i + 1)}
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	return NewSession("s1", "abc123defg", 1, len(conns) > 1, parts, snap, raw, 30, rec, onEnd, zerolog.Nop())
}

func intPtr(v int) *int { return &v }

// waitFor polls cond for up to a second; persistence runs on goroutines.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func answerOf(t *testing.T, c *fakeConn) ws.AnswerBroadcast {
	t.Helper()
	payload, ok := c.last(ws.EventAnswer)
	if !ok {
		t.Fatalf("no answer event received by %s", c.id)
	}
	ab, ok := payload.(ws.AnswerBroadcast)
	if !ok {
		t.Fatalf("unexpected answer payload type %T", payload)
	}
	return ab
}

func firstQuestionID(snap *model.QuizSnapshot) int64 {
	return snap.Chapters[0].Questions[0].ID
}

func TestStartBroadcastsAndActivates(t *testing.T) {
	snap := testSnapshot(2)
	a, b := newFakeConn("alice"), newFakeConn("bob")
	s := newTestSession(t, snap, &fakeRecorder{}, nil, a, b)

	s.Start(a)

	if s.state != StateActive {
		t.Fatalf("expected Active state, got %v", s.state)
	}
	if a.count(ws.EventGameStarted) != 1 || b.count(ws.EventGameStarted) != 1 {
		t.Fatalf("expected gameStarted broadcast to both players")
	}

	// A second start must be a no-op.
	s.Start(b)
	if a.count(ws.EventGameStarted) != 1 {
		t.Fatalf("duplicate start broadcast gameStarted again")
	}
}

func TestGameStartedCarriesZeroScoreboard(t *testing.T) {
	snap := testSnapshot(1)
	a, b := newFakeConn("alice"), newFakeConn("bob")
	s := newTestSession(t, snap, &fakeRecorder{}, nil, a, b)

	s.Start(a)

	payload, ok := a.last(ws.EventGameStarted)
	if !ok {
		t.Fatalf("no gameStarted broadcast")
	}
	gs := payload.(ws.GameStartedPayload)
	if len(gs.Scores) != 2 || gs.Scores["alice"] != 0 || gs.Scores["bob"] != 0 {
		t.Fatalf("scoreboard = %v, want both players at zero", gs.Scores)
	}
}

func TestStartRefusedForOutsider(t *testing.T) {
	snap := testSnapshot(1)
	a := newFakeConn("alice")
	s := newTestSession(t, snap, &fakeRecorder{}, nil, a)

	s.Start(newFakeConn("intruder"))
	if s.state != StateJoining {
		t.Fatalf("outsider started the session")
	}
}

func TestAnswerScoring(t *testing.T) {
	cases := []struct {
		name          string
		option        *int
		remaining     int
		correct       bool
		score         int
		wantRemaining int
	}{
		{"correct full time", intPtr(1), 30, true, 20, 30},
		{"correct mid time", intPtr(1), 15, true, 15, 15},
		{"correct no time", intPtr(1), 0, true, 10, 0},
		{"correct clamped high", intPtr(1), 99, true, 20, 30},
		{"correct clamped negative", intPtr(1), -5, true, 10, 0},
		{"wrong option", intPtr(0), 30, false, 0, 30},
		{"no option", nil, 30, false, 0, 30},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := testSnapshot(1)
			a := newFakeConn("alice")
			s := newTestSession(t, snap, &fakeRecorder{}, nil, a)
			s.Start(a)

			s.Answer(a, ws.AnswerPayload{
				QuestionID:       firstQuestionID(snap),
				Option:           tc.option,
				RemainingSeconds: tc.remaining,
			})

			ab := answerOf(t, a)
			if ab.Correct != tc.correct {
				t.Fatalf("correct = %v, want %v", ab.Correct, tc.correct)
			}
			if ab.Score != tc.score {
				t.Fatalf("score = %d, want %d", ab.Score, tc.score)
			}
			if ab.RemainingSeconds != tc.wantRemaining {
				t.Fatalf("remainingSeconds = %d, want %d", ab.RemainingSeconds, tc.wantRemaining)
			}
		})
	}
}

func TestAnswerBroadcastReachesAllIncludingSender(t *testing.T) {
	snap := testSnapshot(1)
	a, b := newFakeConn("alice"), newFakeConn("bob")
	s := newTestSession(t, snap, &fakeRecorder{}, nil, a, b)
	s.Start(a)

	s.Answer(a, ws.AnswerPayload{QuestionID: firstQuestionID(snap), Option: intPtr(1), RemainingSeconds: 20})

	if a.count(ws.EventAnswer) != 1 || b.count(ws.EventAnswer) != 1 {
		t.Fatalf("answer not mirrored to every participant")
	}
}

func TestDuplicateAnswerIgnored(t *testing.T) {
	snap := testSnapshot(1)
	a, b := newFakeConn("alice"), newFakeConn("bob")
	rec := &fakeRecorder{}
	s := newTestSession(t, snap, rec, nil, a, b)
	s.Start(a)

	qid := firstQuestionID(snap)
	s.Answer(a, ws.AnswerPayload{QuestionID: qid, Option: intPtr(1), RemainingSeconds: 30})
	s.Answer(a, ws.AnswerPayload{QuestionID: qid, Option: intPtr(0), RemainingSeconds: 30})

	if got := a.count(ws.EventAnswer); got != 1 {
		t.Fatalf("expected 1 answer broadcast, got %d", got)
	}
	if s.participants[0].Score != 20 {
		t.Fatalf("second answer changed the score: %d", s.participants[0].Score)
	}
}

func TestAnswerForStaleQuestionIgnored(t *testing.T) {
	snap := testSnapshot(2)
	a := newFakeConn("alice")
	s := newTestSession(t, snap, &fakeRecorder{}, nil, a)
	s.Start(a)

	s.Answer(a, ws.AnswerPayload{QuestionID: 9999, Option: intPtr(1), RemainingSeconds: 30})
	if a.count(ws.EventAnswer) != 0 {
		t.Fatalf("stale question id produced a broadcast")
	}
}

func TestAnswerBeforeStartIgnored(t *testing.T) {
	snap := testSnapshot(1)
	a := newFakeConn("alice")
	s := newTestSession(t, snap, &fakeRecorder{}, nil, a)

	s.Answer(a, ws.AnswerPayload{QuestionID: firstQuestionID(snap), Option: intPtr(1), RemainingSeconds: 30})
	if a.count(ws.EventAnswer) != 0 {
		t.Fatalf("answer accepted in Joining state")
	}
}

func TestAllAnsweredMovesToRevealing(t *testing.T) {
	snap := testSnapshot(2)
	a, b := newFakeConn("alice"), newFakeConn("bob")
	s := newTestSession(t, snap, &fakeRecorder{}, nil, a, b)
	s.Start(a)

	qid := firstQuestionID(snap)
	s.Answer(a, ws.AnswerPayload{QuestionID: qid, Option: intPtr(1), RemainingSeconds: 30})
	if s.state != StateActive {
		t.Fatalf("moved to Revealing before everyone answered")
	}
	s.Answer(b, ws.AnswerPayload{QuestionID: qid, Option: intPtr(0), RemainingSeconds: 30})
	if s.state != StateRevealing {
		t.Fatalf("expected Revealing after all answered, got %v", s.state)
	}
}

func TestDeadlineSynthesizesTimeouts(t *testing.T) {
	snap := testSnapshot(1)
	a, b := newFakeConn("alice"), newFakeConn("bob")
	rec := &fakeRecorder{}
	s := newTestSession(t, snap, rec, nil, a, b)
	s.Start(a)

	qid := firstQuestionID(snap)
	s.Answer(a, ws.AnswerPayload{QuestionID: qid, Option: intPtr(1), RemainingSeconds: 12})

	s.mu.Lock()
	gen := s.timerGen
	s.mu.Unlock()
	s.questionDeadline(gen)

	if s.state != StateRevealing {
		t.Fatalf("expected Revealing after deadline, got %v", s.state)
	}
	// alice answered, bob got a synthesized timeout.
	if got := b.count(ws.EventAnswer); got != 2 {
		t.Fatalf("expected 2 answer events at bob, got %d", got)
	}
	payload, _ := b.last(ws.EventAnswer)
	ab := payload.(ws.AnswerBroadcast)
	if !ab.TimedOut || ab.Correct || ab.Score != 0 || ab.Option != nil {
		t.Fatalf("unexpected timeout broadcast: %+v", ab)
	}
	waitFor(t, func() bool { return rec.answerCount() == 2 }, "both answers persisted")
}

func TestStaleDeadlineIsNoOp(t *testing.T) {
	snap := testSnapshot(2)
	a := newFakeConn("alice")
	s := newTestSession(t, snap, &fakeRecorder{}, nil, a)
	s.Start(a)

	s.mu.Lock()
	gen := s.timerGen
	s.mu.Unlock()

	qid := firstQuestionID(snap)
	s.Answer(a, ws.AnswerPayload{QuestionID: qid, Option: intPtr(1), RemainingSeconds: 30})
	s.NextQuestion(a)

	// The old question's timer fires after the state moved on.
	s.questionDeadline(gen)
	if got := a.count(ws.EventAnswer); got != 1 {
		t.Fatalf("stale deadline synthesized answers: %d events", got)
	}
	if s.state != StateActive {
		t.Fatalf("stale deadline changed state to %v", s.state)
	}
}

func TestNextQuestionAtChapterEndEntersBoundary(t *testing.T) {
	snap := testSnapshot(1, 1)
	a := newFakeConn("alice")
	s := newTestSession(t, snap, &fakeRecorder{}, nil, a)
	s.Start(a)

	s.Answer(a, ws.AnswerPayload{QuestionID: firstQuestionID(snap), Option: intPtr(1), RemainingSeconds: 30})
	s.NextQuestion(a)

	if s.state != StateChapterBoundary {
		t.Fatalf("expected ChapterBoundary, got %v", s.state)
	}
	if a.count(ws.EventNextQuestion) != 0 {
		t.Fatalf("boundary transition broadcast nextQuestion")
	}

	s.NextChapter(a)
	if s.state != StateActive || s.chapter != 1 {
		t.Fatalf("expected Active in chapter 1, got state %v chapter %d", s.state, s.chapter)
	}
	if a.count(ws.EventNextChapter) != 1 {
		t.Fatalf("nextChapter not broadcast")
	}
}

func TestNextChapterFromRevealingAtLastQuestion(t *testing.T) {
	snap := testSnapshot(1, 1)
	a := newFakeConn("alice")
	s := newTestSession(t, snap, &fakeRecorder{}, nil, a)
	s.Start(a)

	s.Answer(a, ws.AnswerPayload{QuestionID: firstQuestionID(snap), Option: intPtr(1), RemainingSeconds: 30})
	// Skip the boundary: nextChapter straight from Revealing.
	s.NextChapter(a)

	if s.state != StateActive || s.chapter != 1 {
		t.Fatalf("expected Active in chapter 1, got state %v chapter %d", s.state, s.chapter)
	}
}

func TestProceedInWrongStateIgnored(t *testing.T) {
	snap := testSnapshot(2)
	a := newFakeConn("alice")
	s := newTestSession(t, snap, &fakeRecorder{}, nil, a)
	s.Start(a)

	// Active, nobody answered: both proceeds must be no-ops.
	s.NextQuestion(a)
	s.NextChapter(a)
	if s.state != StateActive || s.question != 0 {
		t.Fatalf("proceed in Active state advanced the game")
	}
}

func TestFullGameFlowEndsWithWinner(t *testing.T) {
	snap := testSnapshot(1, 1)
	a, b := newFakeConn("alice"), newFakeConn("bob")
	rec := &fakeRecorder{}
	destroyed := make(chan string, 1)
	s := newTestSession(t, snap, rec, func(id string) { destroyed <- id }, a, b)
	s.Start(a)

	// Chapter 1: alice full points, bob wrong.
	q1 := snap.Chapters[0].Questions[0].ID
	s.Answer(a, ws.AnswerPayload{QuestionID: q1, Option: intPtr(1), RemainingSeconds: 30})
	s.Answer(b, ws.AnswerPayload{QuestionID: q1, Option: intPtr(0), RemainingSeconds: 30})
	s.NextChapter(b)

	// Chapter 2: alice wrong, bob correct at zero time.
	q2 := snap.Chapters[1].Questions[0].ID
	s.Answer(a, ws.AnswerPayload{QuestionID: q2, Option: intPtr(0), RemainingSeconds: 30})
	s.Answer(b, ws.AnswerPayload{QuestionID: q2, Option: intPtr(1), RemainingSeconds: 0})
	s.NextChapter(a)

	if s.state != StateEnded {
		t.Fatalf("expected Ended, got %v", s.state)
	}

	payload, ok := a.last(ws.EventGameEnded)
	if !ok {
		t.Fatalf("no gameEnded broadcast")
	}
	ge := payload.(ws.GameEndedPayload)
	if len(ge.Winners) != 1 || ge.Winners[0] != "alice" {
		t.Fatalf("winners = %v, want [alice]", ge.Winners)
	}
	if ge.Scores[0].Player != "alice" || ge.Scores[0].Score != 20 {
		t.Fatalf("top score = %+v, want alice/20", ge.Scores[0])
	}
	if ge.Scores[1].Player != "bob" || ge.Scores[1].Score != 10 {
		t.Fatalf("second score = %+v, want bob/10", ge.Scores[1])
	}

	waitFor(t, func() bool {
		calls, winner := rec.finalized()
		return calls == 1 && winner == "alice"
	}, "exactly one finalize with winner alice")

	select {
	case id := <-destroyed:
		if id != "s1" {
			t.Fatalf("destroyed wrong session %s", id)
		}
	default:
		t.Fatalf("session not destroyed after end")
	}

	// Ending again via proceed must do nothing.
	s.NextChapter(a)
	calls, _ := rec.finalized()
	if calls != 1 {
		t.Fatalf("finalize called %d times", calls)
	}
}

func TestTieWinnerIsEarliestJoiner(t *testing.T) {
	snap := testSnapshot(1)
	a, b := newFakeConn("alice"), newFakeConn("bob")
	rec := &fakeRecorder{}
	s := newTestSession(t, snap, rec, nil, a, b)
	s.Start(a)

	qid := firstQuestionID(snap)
	// Both full points: 20 each. bob answers first, alice still wins the
	// tie because standings sort is stable over join order.
	s.Answer(b, ws.AnswerPayload{QuestionID: qid, Option: intPtr(1), RemainingSeconds: 30})
	s.Answer(a, ws.AnswerPayload{QuestionID: qid, Option: intPtr(1), RemainingSeconds: 30})
	s.NextChapter(a)

	payload, _ := a.last(ws.EventGameEnded)
	ge := payload.(ws.GameEndedPayload)
	if len(ge.Winners) != 2 {
		t.Fatalf("expected both players listed as tied winners, got %v", ge.Winners)
	}
	if ge.Winners[0] != "alice" {
		t.Fatalf("tie resolved to %s, want alice", ge.Winners[0])
	}
	waitFor(t, func() bool {
		_, winner := rec.finalized()
		return winner == "alice"
	}, "persisted winner alice")
}

func TestDisconnectDestroysSession(t *testing.T) {
	snap := testSnapshot(2)
	a, b := newFakeConn("alice"), newFakeConn("bob")
	rec := &fakeRecorder{}
	destroyed := make(chan string, 1)
	s := newTestSession(t, snap, rec, func(id string) { destroyed <- id }, a, b)
	s.Start(a)

	s.HandleDisconnect(a)

	if s.state != StateEnded {
		t.Fatalf("expected Ended after disconnect, got %v", s.state)
	}
	if b.count(ws.EventPlayerLeft) != 1 {
		t.Fatalf("remaining player did not get playerLeft")
	}
	if a.count(ws.EventPlayerLeft) != 0 {
		t.Fatalf("leaver got their own playerLeft")
	}
	select {
	case <-destroyed:
	default:
		t.Fatalf("session not destroyed")
	}
	waitFor(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return rec.endedCalls == 1
	}, "game row marked ended")

	// A second disconnect is a no-op.
	s.HandleDisconnect(b)
	if b.count(ws.EventPlayerLeft) != 1 {
		t.Fatalf("disconnect after end broadcast again")
	}
}

func TestEmptyQuizRefusesToStart(t *testing.T) {
	snap := testSnapshot(0)
	a := newFakeConn("alice")
	s := newTestSession(t, snap, &fakeRecorder{}, nil, a)
	s.Start(a)

	if s.state != StateEnded {
		t.Fatalf("empty quiz left session in %v", s.state)
	}
	if a.count(ws.EventGameError) != 1 {
		t.Fatalf("no gameError for empty quiz")
	}
}
