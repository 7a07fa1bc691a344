package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	token := EncodeCursor(Exercises, 41)
	id, err := DecodeCursor(Exercises, token)
	require.NoError(t, err)
	assert.Equal(t, int64(41), id)

	id, err = DecodeCursor(Exercises, "")
	require.NoError(t, err)
	assert.Zero(t, id)
}

func TestCursorRejectsForeignAndMalformedTokens(t *testing.T) {
	for _, token := range []string{
		EncodeCursor(Movements, 3),
		"!!!",
		"ZXhlcmNpc2VzfGFiYw", // exercises|abc
	} {
		_, err := DecodeCursor(Exercises, token)
		assert.ErrorIs(t, err, ErrInvalidCursor, token)
		assert.Equal(t, KindInvalidCursor, KindOf(err))
	}
}

func TestErrorKinds(t *testing.T) {
	err := fmt.Errorf("load: %w", NotFound(Movements, 7))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Contains(t, err.Error(), "movements")

	assert.ErrorIs(t, CheckKey(Movements, 0), ErrInvalidKey)
	assert.NoError(t, CheckKey(Movements, 1))

	cause := errors.New("connection refused")
	wrapped := Unavailable(cause)
	assert.ErrorIs(t, wrapped, ErrUnavailable)
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, KindNotFound, KindOf(Unavailable(NotFound(Users, 1))))
	assert.Equal(t, KindUnknown, KindOf(cause))
}
