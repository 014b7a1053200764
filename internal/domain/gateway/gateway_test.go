package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefinition(t *testing.T) {
	settings := map[string]any{"api_key": "k"}
	d, err := NewDefinition(" gennet ", "gennet", settings)
	require.NoError(t, err)

	assert.Equal(t, "gennet", d.Name)
	assert.True(t, d.Enabled)
	assert.False(t, d.CreatedAt.IsZero())

	settings["api_key"] = "changed"
	assert.Equal(t, "k", d.Settings["api_key"])
}

func TestNewDefinition_Validation(t *testing.T) {
	_, err := NewDefinition("", "gennet", nil)
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = NewDefinition("Bad Name", "gennet", nil)
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = NewDefinition("gennet", "", nil)
	assert.ErrorIs(t, err, ErrEmptyDriver)
}
