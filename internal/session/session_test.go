package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticator_Check(t *testing.T) {
	a := NewAuthenticator("farmer@example.com", "s3cret", "Ramesh")

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"match", "farmer@example.com", "s3cret", nil},
		{"email is case insensitive", "  Farmer@Example.com ", "s3cret", nil},
		{"wrong password", "farmer@example.com", "secret", ErrInvalidCredentials},
		{"wrong email", "other@example.com", "s3cret", ErrInvalidCredentials},
		{"empty", "", "", ErrInvalidCredentials},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			name, err := a.Check(tc.email, tc.password)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Empty(t, name)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Ramesh", name)
		})
	}
}

func TestAuthenticator_NotConfigured(t *testing.T) {
	a := NewAuthenticator("", "", "Farmer")
	assert.False(t, a.Configured())

	_, err := a.Check("farmer@example.com", "anything")
	require.ErrorIs(t, err, ErrAuthNotConfigured)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestStore_SingleSlot(t *testing.T) {
	s := NewStore(NewAuthenticator("farmer@example.com", "s3cret", "Ramesh"))
	assert.True(t, s.Enabled())

	_, ok := s.Current()
	assert.False(t, ok)

	first, err := s.Login("farmer@example.com", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, first.Token)
	assert.True(t, s.Valid(first.Token))

	second, err := s.Login("farmer@example.com", "s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)
	assert.False(t, s.Valid(first.Token), "a new login replaces the marker")

	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, second, cur)

	s.Logout()
	_, ok = s.Current()
	assert.False(t, ok)
	assert.False(t, s.Valid(second.Token))
}

func TestStore_FailedLoginKeepsSession(t *testing.T) {
	s := NewStore(NewAuthenticator("farmer@example.com", "s3cret", "Ramesh"))
	sess, err := s.Login("farmer@example.com", "s3cret")
	require.NoError(t, err)

	_, err = s.Login("farmer@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.True(t, s.Valid(sess.Token))
}

func TestStore_ValidRejectsEmptyToken(t *testing.T) {
	s := NewStore(NewAuthenticator("a@b.c", "p", "n"))
	assert.False(t, s.Valid(""))
}
