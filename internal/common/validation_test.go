package common

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDRule(t *testing.T) {
	assert.Nil(t, UUID("id", uuid.NewString()))
	assert.Nil(t, UUID("id", uuid.New()))
	assert.NotNil(t, UUID("id", "not-a-uuid"))
	assert.NotNil(t, UUID("id", uuid.Nil))
	assert.NotNil(t, UUID("id", 42))

	err := NewValidator().Field("item id", "nope", UUID).Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Contains(t, err.Error(), "item id")
}
