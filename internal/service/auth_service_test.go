package service

import (
	"context"
	"testing"
	"time"

	"github.com/Paddione/network-quiz/internal/config"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestAuthService(t *testing.T) (*AuthService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := &config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: 4,
	}
	return NewAuthService(cfg, rdb), mr
}

func TestPasswordHashRoundTrip(t *testing.T) {
	svc, _ := newTestAuthService(t)

	hash, err := svc.HashPassword("hunter22")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := svc.CheckPassword(hash, "hunter22"); err != nil {
		t.Fatalf("correct password rejected: %v", err)
	}
	if err := svc.CheckPassword(hash, "wrong"); err != ErrInvalidCredentials {
		t.Fatalf("wrong password accepted, err = %v", err)
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	token, err := svc.GenerateToken(ctx, 42, "alice", false)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "alice" {
		t.Fatalf("claims = %+v", claims)
	}
	if claims.TokenType != TokenTypePlayer || claims.IsAdmin {
		t.Fatalf("player token carries admin marks: %+v", claims)
	}

	if err := svc.ValidateSession(ctx, 42, claims.ID); err != nil {
		t.Fatalf("fresh session invalid: %v", err)
	}
}

func TestAdminTokenType(t *testing.T) {
	svc, _ := newTestAuthService(t)

	token, err := svc.GenerateToken(context.Background(), 7, "root", true)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.TokenType != TokenTypeAdmin || !claims.IsAdmin {
		t.Fatalf("admin claims = %+v", claims)
	}
}

func TestNewLoginInvalidatesOldSession(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	first, err := svc.GenerateToken(ctx, 42, "alice", false)
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	firstClaims, _ := svc.ValidateToken(first)

	if _, err := svc.GenerateToken(ctx, 42, "alice", false); err != nil {
		t.Fatalf("second login: %v", err)
	}

	if err := svc.ValidateSession(ctx, 42, firstClaims.ID); err == nil {
		t.Fatalf("old session survived a new login")
	}
}

func TestResetSession(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	token, _ := svc.GenerateToken(ctx, 42, "alice", false)
	claims, _ := svc.ValidateToken(token)

	if err := svc.ResetSession(ctx, 42); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := svc.ValidateSession(ctx, 42, claims.ID); err != ErrNoActiveSession {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	svc, _ := newTestAuthService(t)

	token, _ := svc.GenerateToken(context.Background(), 42, "alice", false)
	if _, err := svc.ValidateToken(token + "x"); err == nil {
		t.Fatalf("tampered token accepted")
	}
	if _, err := svc.ValidateToken("not-a-jwt"); err == nil {
		t.Fatalf("garbage token accepted")
	}
}
