package session_test

import (
	"testing"

	"github.com/jrsteele09/go-bookshelf-client/session"
	"github.com/stretchr/testify/require"
)

func TestConsistent(t *testing.T) {
	user := session.User{ID: 1, Email: "a@b.com", Role: session.RoleStudent}

	require.True(t, (&session.Session{Token: "t1", User: user}).Consistent())
	require.False(t, (&session.Session{Token: "t1"}).Consistent(), "token without user")
	require.False(t, (&session.Session{User: user}).Consistent(), "user without token")
	require.False(t, (&session.Session{}).Consistent())

	var nilSession *session.Session
	require.False(t, nilSession.Consistent())
}

func TestFullName(t *testing.T) {
	require.Equal(t, "John Doe", session.User{FirstName: "John", LastName: "Doe"}.FullName())
	require.Equal(t, "John", session.User{FirstName: "John"}.FullName())
	require.Equal(t, "", session.User{}.FullName())
}
