package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Paddione/network-quiz/internal/model"
	"github.com/gin-gonic/gin"
)

func bindJSON(t *testing.T, body string, dst any) map[string]string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return Bind(c, dst)
}

func TestBlankTitleRejected(t *testing.T) {
	Setup()

	var req model.CreateQuizSetRequest
	fields := bindJSON(t, `{"title":"    "}`, &req)
	if fields == nil {
		t.Fatalf("whitespace-only title passed validation")
	}
	msg, ok := fields["title"]
	if !ok {
		t.Fatalf("expected a title error, got %v", fields)
	}
	if !strings.Contains(msg, "blank") {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestValidTitleAccepted(t *testing.T) {
	Setup()

	var req model.CreateQuizSetRequest
	if fields := bindJSON(t, `{"title":"Netzwerkgrundlagen"}`, &req); fields != nil {
		t.Fatalf("valid payload rejected: %v", fields)
	}
}

func TestMalformedJSONYieldsDetail(t *testing.T) {
	Setup()

	var req model.CreateQuizSetRequest
	fields := bindJSON(t, `{"title":`, &req)
	if fields == nil {
		t.Fatalf("malformed JSON passed binding")
	}
	if _, ok := fields["detail"]; !ok {
		t.Fatalf("expected a detail entry, got %v", fields)
	}
}
