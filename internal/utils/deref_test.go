package utils_test

import (
	"testing"

	"github.com/jrsteele09/go-bookshelf-client/internal/utils"
	"github.com/jrsteele09/go-bookshelf-client/session"
	"github.com/stretchr/testify/require"
)

func TestDeref(t *testing.T) {
	s := "hello"
	require.Equal(t, "hello", utils.Deref(&s))
	require.Equal(t, "", utils.Deref[string](nil))

	var sess *session.Session
	require.Zero(t, utils.Deref(sess))
	require.Empty(t, utils.Deref(sess).Token)
}
