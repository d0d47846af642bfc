package service

import (
	"fmt"
	"time"

	"github.com/bigtree/storefront-inquiry-go/internal/domain"
	"github.com/bigtree/storefront-inquiry-go/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionService manages sessions and the signed form tokens bound to them.
// Session-to-account bindings live in a TTL cache; expiry logs the visitor
// out.
type SessionService struct {
	secret   []byte
	tokenTTL time.Duration
	bindings port.Cache[string] // session ID -> account ID
	logger   *zap.Logger
}

// NewSessionService creates a session service.
func NewSessionService(secret string, tokenTTL time.Duration, bindings port.Cache[string], logger *zap.Logger) *SessionService {
	return &SessionService{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		bindings: bindings,
		logger:   logger,
	}
}

// NewGuestSession mints a fresh anonymous session.
func (s *SessionService) NewGuestSession() domain.Session {
	return domain.Session{ID: uuid.NewString()}
}

// Resolve returns the session for an ID, with its account binding if one
// exists.
func (s *SessionService) Resolve(sessionID string) domain.Session {
	sess := domain.Session{ID: sessionID}
	if accountID, ok := s.bindings.Get(sessionID); ok {
		sess.AccountID = accountID
	}
	return sess
}

// Authenticate returns a new authenticated session for the account. The
// caller's prior session is discarded, never carried over — binding an
// account is a security-relevant transition that must not inherit state.
func (s *SessionService) Authenticate(accountID string) domain.Session {
	sess := domain.Session{ID: uuid.NewString(), AccountID: accountID}
	s.bindings.Set(sess.ID, accountID)
	s.logger.Info("session authenticated",
		zap.String("session_id", sess.ID),
		zap.String("account_id", accountID),
	)
	return sess
}

// formTokenClaims are the claims in a signed form token.
type formTokenClaims struct {
	SessionID string `json:"sid"`
	Type      string `json:"type"`
	jwt.RegisteredClaims
}

// IssueFormToken signs a short-lived token bound to the session. The
// storefront page embeds it and posts it back with the inquiry form.
func (s *SessionService) IssueFormToken(sessionID string) (string, error) {
	now := time.Now()
	claims := formTokenClaims{
		SessionID: sessionID,
		Type:      "form",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			Issuer:    "inquiry-api",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyFormToken checks a form token's signature, expiry and session
// binding. Any failure is an authorization error.
func (s *SessionService) VerifyFormToken(tokenString, sessionID string) error {
	if tokenString == "" {
		return &domain.ErrUnauthorized{Message: "Missing security token."}
	}

	token, err := jwt.ParseWithClaims(tokenString, &formTokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return &domain.ErrUnauthorized{Message: "Invalid or expired security token."}
	}

	claims, ok := token.Claims.(*formTokenClaims)
	if !ok || !token.Valid {
		return &domain.ErrUnauthorized{Message: "Invalid security token."}
	}
	if claims.Type != "form" || claims.SessionID != sessionID {
		return &domain.ErrUnauthorized{Message: "Security token does not match this session."}
	}
	return nil
}
