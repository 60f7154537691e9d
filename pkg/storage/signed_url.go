package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrTokenInvalid = errors.New("invalid viewer token")
	ErrTokenExpired = errors.New("viewer token expired")
)

// SignedURLSigner creates and validates short-lived viewer tokens that point at
// a stored blob on behalf of a version.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
}

// ViewerLink is the decoded content of a token.
type ViewerLink struct {
	VersionID string
	Key       string
	Inline    bool
	ExpiresAt time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SignedURLSigner{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// TTL returns the lifetime applied to generated tokens.
func (s *SignedURLSigner) TTL() time.Duration {
	return s.ttl
}

// Generate returns a token referencing the version and blob key.
func (s *SignedURLSigner) Generate(versionID, key string, inline bool) (string, time.Time, error) {
	if versionID == "" || key == "" {
		return "", time.Time{}, fmt.Errorf("versionID and key required")
	}
	if strings.Contains(versionID, ".") {
		return "", time.Time{}, fmt.Errorf("versionID must not contain '.'")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := time.Now().Add(s.ttl)
	disposition := "a"
	if inline {
		disposition = "i"
	}
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	encodedKey := base64.RawURLEncoding.EncodeToString([]byte(key))
	signature := s.sign(versionID, exp, encodedKey, disposition)
	token := strings.Join([]string{versionID, exp, encodedKey, disposition, signature}, ".")
	return token, expiresAt, nil
}

// Parse validates a token and returns the embedded link.
func (s *SignedURLSigner) Parse(token string) (*ViewerLink, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 5 {
		return nil, ErrTokenInvalid
	}
	versionID, exp, encodedKey, disposition, signature := parts[0], parts[1], parts[2], parts[3], parts[4]

	expected := s.sign(versionID, exp, encodedKey, disposition)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, ErrTokenInvalid
	}
	rawKey, err := base64.RawURLEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	expUnix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	expiresAt := time.Unix(expUnix, 0)
	if time.Now().After(expiresAt) {
		return nil, ErrTokenExpired
	}
	return &ViewerLink{
		VersionID: versionID,
		Key:       string(rawKey),
		Inline:    disposition == "i",
		ExpiresAt: expiresAt,
	}, nil
}

func (s *SignedURLSigner) sign(fields ...string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(mac.Sum(nil))
}
