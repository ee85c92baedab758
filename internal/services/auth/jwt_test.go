// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Kalfadda/indiecraft/internal/models"
)

func testUser() *models.User {
	email := "alice@example.com"
	return &models.User{
		ID:       uuid.New(),
		Username: "alice",
		Email:    &email,
		Role:     models.RoleAdmin,
		IsActive: true,
	}
}

func TestNewJWTService_EmptySecret_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for empty secret")
		}
	}()
	NewJWTService(JWTConfig{})
}

func TestNewJWTService_Defaults(t *testing.T) {
	svc := NewJWTService(JWTConfig{Secret: "test-secret"})

	if svc.config.RefreshSecret != "test-secret" {
		t.Error("RefreshSecret should default to Secret")
	}
	if svc.config.Issuer != "indiecraft" {
		t.Errorf("Issuer = %q, want indiecraft", svc.config.Issuer)
	}
	if svc.config.AccessTokenTTL != 15*time.Minute {
		t.Errorf("AccessTokenTTL = %v", svc.config.AccessTokenTTL)
	}
	if svc.config.RefreshTokenTTL != 7*24*time.Hour {
		t.Errorf("RefreshTokenTTL = %v", svc.config.RefreshTokenTTL)
	}
	if svc.config.TokenIDGenerator == nil {
		t.Error("TokenIDGenerator should default to UUID")
	}
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))
	user := testUser()

	token, expiresAt, err := svc.GenerateAccessToken(user, "sess-1")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if !expiresAt.After(time.Now()) {
		t.Fatal("expiry should be in the future")
	}

	claims, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if claims.UserID != user.ID.String() {
		t.Errorf("UserID = %q, want %q", claims.UserID, user.ID)
	}
	if claims.Username != "alice" {
		t.Errorf("Username = %q", claims.Username)
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("Email = %q", claims.Email)
	}
	if claims.Role != models.RoleAdmin {
		t.Errorf("Role = %q", claims.Role)
	}
	if claims.SessionID != "sess-1" {
		t.Errorf("SessionID = %q", claims.SessionID)
	}
	if claims.Type != TokenTypeAccess {
		t.Errorf("Type = %q", claims.Type)
	}
}

func TestGenerateAccessToken_NilEmail(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))
	user := testUser()
	user.Email = nil

	token, _, err := svc.GenerateAccessToken(user, "")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	claims, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if claims.Email != "" {
		t.Errorf("Email = %q, want empty", claims.Email)
	}
}

func TestGenerateAndValidateRefreshToken(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))
	userID := uuid.New()

	token, _, err := svc.GenerateRefreshToken(userID, "session-1")
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}

	claims, err := svc.ValidateRefreshToken(token)
	if err != nil {
		t.Fatalf("ValidateRefreshToken: %v", err)
	}
	if claims.UserID != userID.String() {
		t.Errorf("UserID = %q", claims.UserID)
	}
	if claims.SessionID != "session-1" {
		t.Errorf("SessionID = %q", claims.SessionID)
	}
	if claims.Type != TokenTypeRefresh {
		t.Errorf("Type = %q", claims.Type)
	}
}

func TestGenerateTokenPair(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))

	pair, err := svc.GenerateTokenPair(testUser(), "session-1")
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
	if pair.TokenType != "Bearer" {
		t.Errorf("TokenType = %q", pair.TokenType)
	}
	if !pair.RefreshTokenExpiresAt.After(pair.AccessTokenExpiresAt) {
		t.Error("refresh token should outlive access token")
	}
}

func TestValidateAccessToken_WithRefreshToken_Fails(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))

	refresh, _, err := svc.GenerateRefreshToken(uuid.New(), "s1")
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}
	if _, err := svc.ValidateAccessToken(refresh); err == nil {
		t.Fatal("refresh token must not validate as access token")
	}
}

func TestValidateRefreshToken_WithAccessToken_Fails(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))

	access, _, err := svc.GenerateAccessToken(testUser(), "")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if _, err := svc.ValidateRefreshToken(access); err == nil {
		t.Fatal("access token must not validate as refresh token")
	}
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	svc1 := NewJWTService(DefaultJWTConfig("secret-one"))
	svc2 := NewJWTService(DefaultJWTConfig("secret-two"))

	token, _, err := svc1.GenerateAccessToken(testUser(), "")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if _, err := svc2.ValidateAccessToken(token); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestValidateAccessToken_Expired(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))
	// NewJWTService resets a zero TTL, not a negative one.
	svc.config.AccessTokenTTL = -time.Minute

	token, _, err := svc.GenerateAccessToken(testUser(), "")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if _, err := svc.ValidateAccessToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestValidateAccessToken_InvalidString(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		if _, err := svc.ValidateAccessToken(tok); err == nil {
			t.Errorf("token %q validated unexpectedly", tok)
		}
	}
}

func TestSeparateRefreshSecret(t *testing.T) {
	cfg := DefaultJWTConfig("access-secret")
	cfg.RefreshSecret = "refresh-secret"
	svc := NewJWTService(cfg)

	access, _, err := svc.GenerateAccessToken(testUser(), "")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	refresh, _, err := svc.GenerateRefreshToken(uuid.New(), "s1")
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}

	// Cross-validation must fail on signature, not just type.
	if _, err := svc.ValidateAccessToken(refresh); err == nil {
		t.Error("refresh token validated with access secret")
	}
	if _, err := svc.ValidateRefreshToken(access); err == nil {
		t.Error("access token validated with refresh secret")
	}
}

func TestTokensAreUnique(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))
	user := testUser()

	t1, _, err := svc.GenerateAccessToken(user, "")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	t2, _, err := svc.GenerateAccessToken(user, "")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if t1 == t2 {
		t.Fatal("two tokens for the same user should differ (unique JTI)")
	}
}

func TestCustomTokenIDGenerator(t *testing.T) {
	cfg := DefaultJWTConfig("test-secret")
	cfg.TokenIDGenerator = func() string { return "fixed-id" }
	svc := NewJWTService(cfg)

	token, _, err := svc.GenerateAccessToken(testUser(), "")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	claims, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if claims.ID != "fixed-id" {
		t.Errorf("JTI = %q, want fixed-id", claims.ID)
	}
}
