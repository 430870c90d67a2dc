package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	t.Parallel()
	out := sanitizeKVs([]interface{}{"user_id", "u-1", "auth_token", "abc", "dangling"})
	assert.Equal(t, []interface{}{"user_id", "u-1", "auth_token", "[REDACTED]", "dangling"}, out)
}

func TestNewModes(t *testing.T) {
	t.Parallel()
	for _, mode := range []string{"development", "production", "quiet", ""} {
		log, err := New(mode)
		assert.NoError(t, err, mode)
		log.Debug("probe", "mode", mode)
	}
	NewNop().With("k", "v").Info("discarded")
}
