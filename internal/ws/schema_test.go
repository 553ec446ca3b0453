package ws

import (
	"encoding/json"
	"testing"
)

func TestNewEnvelopeCarriesPayloadVerbatim(t *testing.T) {
	env, err := NewEnvelope(EventGameError, GameErrorPayload{Message: "no quiz sets available"})
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	if env.Event != EventGameError {
		t.Fatalf("event = %q, want %q", env.Event, EventGameError)
	}

	var p GameErrorPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if p.Message != "no quiz sets available" {
		t.Fatalf("message = %q", p.Message)
	}
}

func TestEnvelopeDispatchShape(t *testing.T) {
	// A raw frame as a browser client would send it: the event tag decides
	// which payload struct the dispatcher decodes into.
	raw := []byte(`{"event":"answer","payload":{"questionId":42,"option":1,"remainingSeconds":17}}`)

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.Event != EventAnswer {
		t.Fatalf("event = %q", env.Event)
	}

	var p AnswerPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if p.QuestionID != 42 || p.Option == nil || *p.Option != 1 || p.RemainingSeconds != 17 {
		t.Fatalf("payload = %+v", p)
	}
}

func TestOutboundPayloadsCarryScoreboardAndTiming(t *testing.T) {
	// Clients render the scoreboard from the join/start events and a peer's
	// submission time from the answer relay; the keys must be on the wire.
	cases := []struct {
		name    string
		payload any
		key     string
	}{
		{"playerJoined scores", PlayerJoinedPayload{Players: []string{"a"}, Scores: map[string]int{"a": 0}}, "scores"},
		{"gameStarted scores", GameStartedPayload{Players: []string{"a", "b"}, Scores: map[string]int{"a": 0, "b": 0}}, "scores"},
		{"answer remainingSeconds", AnswerBroadcast{Player: "a", RemainingSeconds: 17}, "remainingSeconds"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := json.Marshal(tc.payload)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var m map[string]json.RawMessage
			if err := json.Unmarshal(raw, &m); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if _, ok := m[tc.key]; !ok {
				t.Fatalf("payload %s lacks %q key: %s", tc.name, tc.key, raw)
			}
		})
	}
}

func TestAnswerPayloadNilOptionMeansTimeout(t *testing.T) {
	var p AnswerPayload
	if err := json.Unmarshal([]byte(`{"questionId":7,"option":null,"remainingSeconds":0}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Option != nil {
		t.Fatalf("option = %v, want nil", *p.Option)
	}
}
