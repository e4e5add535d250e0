package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	// ErrTokenInvalid is returned for malformed or forged tokens.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned once the token's expiry has passed.
	ErrTokenExpired = errors.New("token expired")
)

// tokenVersion prefixes every issued token. The payload keeps the legacy
// {userId, timestamp, exp} shape; the version marks the addition of the
// HMAC signature, so unsigned legacy tokens are rejected as invalid.
const tokenVersion = "v2"

type tokenPayload struct {
	UserID    string `json:"userId"`
	Timestamp int64  `json:"timestamp"`
	Exp       int64  `json:"exp"`
}

// TokenService issues and verifies self-contained bearer tokens:
// base64url(JSON payload) signed with HMAC-SHA256. No server-side state;
// expiry is the only termination path.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue encodes {userID, issuedAt, expiresAt} into an opaque signed string.
func (s *TokenService) Issue(userID string) (string, error) {
	now := s.now()
	payload := tokenPayload{
		UserID:    userID,
		Timestamp: now.UnixMilli(),
		Exp:       now.Add(s.ttl).UnixMilli(),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	encoded := base64.RawURLEncoding.EncodeToString(data)
	return tokenVersion + "." + encoded + "." + s.sign(encoded), nil
}

// Verify checks structure, signature and expiry, in that order, and returns
// the user id the token was issued for.
func (s *TokenService) Verify(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] != tokenVersion {
		return "", ErrTokenInvalid
	}

	if !hmac.Equal([]byte(s.sign(parts[1])), []byte(parts[2])) {
		return "", ErrTokenInvalid
	}

	data, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", ErrTokenInvalid
	}

	var payload tokenPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", ErrTokenInvalid
	}
	if payload.UserID == "" {
		return "", ErrTokenInvalid
	}

	if s.now().UnixMilli() >= payload.Exp {
		return "", ErrTokenExpired
	}

	return payload.UserID, nil
}

func (s *TokenService) sign(encodedPayload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(encodedPayload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
