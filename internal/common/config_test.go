package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("KVAULT_CONFIG", "")
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "./data", cfg.Storage.DataDir)
	assert.Equal(t, int64(100*1024*1024), cfg.Storage.MaxFileSize)
	assert.True(t, cfg.Classification.AutoClassify)
	assert.False(t, cfg.Classification.UseAI)
	assert.Equal(t, ProviderDeepSeek, cfg.Classification.AIProvider)
	assert.Equal(t, "qwen2.5:7b", cfg.Classification.Ollama.Model)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	t.Setenv("KV_TEST_DIR", "/tmp/vault")
	t.Setenv("OLLAMA_MODEL", "llama3")
	p := writeConfig(t, `
storage:
  data_dir: ${KV_TEST_DIR}
  max_file_size: 2048
scrape:
  timeout: 5s
classification:
  ai_provider: ollama
  use_ai: true
  rules:
    - category: Recipes
      keywords: [flour, oven]
      file_types: [.cook]
      path_patterns: [kitchen]
`)
	cfg, err := LoadConfig(p)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/vault", cfg.Storage.DataDir)
	assert.Equal(t, int64(2048), cfg.Storage.MaxFileSize)
	assert.Equal(t, 5*time.Second, cfg.Scrape.Timeout)
	assert.Equal(t, "llama3", cfg.Classification.Ollama.Model)
	require.Len(t, cfg.Classification.Rules, 1)
	assert.Equal(t, []string{".cook"}, cfg.Classification.Rules[0].FileTypes)
	assert.Equal(t, filepath.Join("/tmp/vault", "files"), cfg.Storage.FilesDir())
}

func TestLoadConfigRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"uppercase file type": `
classification:
  rules:
    - category: Code
      file_types: [PY]
`,
		"missing category": `
classification:
  rules:
    - keywords: [a]
`,
		"unknown key": `
storage:
  data_directory: ./x
`,
		"unknown provider": `
classification:
  ai_provider: magic
`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			require.Error(t, err)
			var appErr *AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, CodeConfig, appErr.Code)
		})
	}
}

func TestDeepSeekRequiresKeyWhenAIEnabled(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("KNOWLEDGEVAULT_DEEPSEEK_API_KEY", "")
	_, err := LoadConfig(writeConfig(t, "classification:\n  use_ai: true\n"))
	require.Error(t, err)

	t.Setenv("DEEPSEEK_API_KEY", "sk-test")
	cfg, err := LoadConfig(writeConfig(t, "classification:\n  use_ai: true\n"))
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.Classification.DeepSeek.APIKey)
}

func TestEnsureDirectories(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.DataDir = filepath.Join(t.TempDir(), "vault")
	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, cfg.Storage.FilesDir())
	assert.DirExists(t, cfg.Storage.ThumbnailsDir())
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, codes.OK, StatusCode(nil))
	assert.Equal(t, codes.AlreadyExists, StatusCode(NewAppError(CodeDuplicateContent, "dup", ErrDuplicateContent)))
	assert.Equal(t, codes.Internal, StatusCode(StorageError("write", errors.New("disk full"))))
	assert.Equal(t, 2, ExitCode(WrapError(ErrInputTooLarge, "upload")))
}
