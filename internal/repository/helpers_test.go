package repository

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleNotFound(t *testing.T) {
	type row struct{ ID string }

	t.Run("maps no rows to nil result", func(t *testing.T) {
		result, err := HandleNotFound(&row{ID: "x"}, sql.ErrNoRows)
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("passes through other errors", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := HandleNotFound(&row{}, boom)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("passes through success", func(t *testing.T) {
		r := &row{ID: "x"}
		result, err := HandleNotFound(r, nil)
		require.NoError(t, err)
		assert.Same(t, r, result)
	})
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("plain")))
	assert.False(t, IsUniqueViolation(nil))
}
