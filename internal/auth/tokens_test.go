package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParsePair(t *testing.T) {
	m := NewManager("secret", time.Minute, time.Hour)

	pair, err := m.IssuePair(42)
	require.NoError(t, err)
	assert.NotEqual(t, pair.Access, pair.Refresh)

	claims, err := m.Parse(pair.Access, Access)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "42", claims.Subject)

	claims, err = m.Parse(pair.Refresh, Refresh)
	require.NoError(t, err)
	assert.Equal(t, Refresh, claims.TokenType)
}

func TestParseRejectsWrongType(t *testing.T) {
	m := NewManager("secret", time.Minute, time.Hour)
	pair, err := m.IssuePair(1)
	require.NoError(t, err)

	_, err = m.Parse(pair.Refresh, Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = m.Parse(pair.Access, Refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpired(t *testing.T) {
	past := NewManager("secret", time.Minute, time.Hour)
	past.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	token, err := past.IssueAccess(1)
	require.NoError(t, err)

	m := NewManager("secret", time.Minute, time.Hour)
	_, err = m.Parse(token, Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	other := NewManager("other-secret", time.Minute, time.Hour)
	token, err := other.IssueAccess(1)
	require.NoError(t, err)

	m := NewManager("secret", time.Minute, time.Hour)
	_, err = m.Parse(token, Access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Parse("not-a-token", Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
