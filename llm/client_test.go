package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Run("model required", func(t *testing.T) {
		_, err := NewClient(Config{})
		assert.Error(t, err)
	})

	t.Run("defaults applied", func(t *testing.T) {
		c, err := NewClient(Config{Model: "gpt-4o-mini", APIKey: "sk-test"})
		require.NoError(t, err)
		assert.Equal(t, 1024, c.maxTokens)
		assert.Equal(t, float32(0.7), c.temperature)
		assert.Nil(t, c.limiter, "no throttle unless configured")
	})

	t.Run("rate limiter wired when configured", func(t *testing.T) {
		c, err := NewClient(Config{Model: "deepseek-chat", Provider: "deepseek", APIKey: "sk", RequestsPerSecond: 3})
		require.NoError(t, err)
		assert.NotNil(t, c.limiter)
	})
}
