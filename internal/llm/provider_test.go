package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/knowledge-vault/internal/common"
)

func TestNewSelectsProvider(t *testing.T) {
	cfg := common.DefaultConfig().Classification

	c, err := New(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, c, "AI disabled")

	cfg.UseAI = true
	cfg.DeepSeek.APIKey = "sk-test"
	c, err = New(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "chat:deepseek-chat", c.Name())

	cfg.AIProvider = common.ProviderOllama
	c, err = New(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "ollama", c.Name())

	cfg.AIProvider = "mystery"
	_, err = New(cfg, nil)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}
