package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings_WithLeavesReceiverUntouched(t *testing.T) {
	base := NewSettings(map[string]any{"theme": "dark"})

	next := base.With(map[string]any{"theme": "light", "alerts": true})

	v, _ := base.Get("theme")
	assert.Equal(t, "dark", v)
	assert.Equal(t, 1, base.Len())
	assert.Equal(t, []string{"alerts", "theme"}, next.Keys())
}

func TestSettings_NestedValuesAreCopied(t *testing.T) {
	nested := map[string]any{"email": true}
	s := NewSettings(map[string]any{"notifications": nested})

	nested["email"] = false
	m := s.Map()
	m["notifications"].(map[string]any)["email"] = false

	v, _ := s.Get("notifications")
	assert.Equal(t, map[string]any{"email": true}, v)
}

func TestSettings_JSON(t *testing.T) {
	var zero Settings
	body, err := json.Marshal(zero)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(body))

	var s Settings
	require.NoError(t, json.Unmarshal([]byte(`{"theme":"dark","limit":5}`), &s))
	v, ok := s.Get("limit")
	assert.True(t, ok)
	assert.Equal(t, float64(5), v)

	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &s))
}
