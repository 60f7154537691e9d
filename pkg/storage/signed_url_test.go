package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("ver-1", "pdfs/pw-1/v1/paper.pdf", true)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	link, err := signer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "ver-1", link.VersionID)
	require.Equal(t, "pdfs/pw-1/v1/paper.pdf", link.Key)
	require.True(t, link.Inline)
	require.WithinDuration(t, expiresAt, link.ExpiresAt, time.Second)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", 10*time.Millisecond)
	token, _, err := signer.Generate("ver-1", "latex/pw-1/v1/latex.tex", false)
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)

	_, err = signer.Parse(token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("ver-1", "python/pw-1/v1/code.zip", false)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	parts[3] = "i"
	_, err = signer.Parse(strings.Join(parts, "."))
	require.ErrorIs(t, err, ErrTokenInvalid)

	other := NewSignedURLSigner("other", time.Hour)
	_, err = other.Parse(token)
	require.ErrorIs(t, err, ErrTokenInvalid)

	_, err = signer.Parse("garbage")
	require.ErrorIs(t, err, ErrTokenInvalid)
}
