package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/knowledge-vault/constants"
	"github.com/joseph-ayodele/knowledge-vault/internal/common"
	"github.com/joseph-ayodele/knowledge-vault/internal/ingest"
	"github.com/joseph-ayodele/knowledge-vault/internal/repository"
)

func TestNewWiresSQLiteVault(t *testing.T) {
	cfg := common.DefaultConfig()
	cfg.Storage.DataDir = filepath.Join(t.TempDir(), "vault")

	a, err := New(context.Background(), cfg, nil, Options{})
	require.NoError(t, err)
	t.Cleanup(a.Close)

	require.NoError(t, a.HealthCheck(context.Background()))
	assert.DirExists(t, cfg.Storage.FilesDir())
	assert.DirExists(t, cfg.Storage.ThumbnailsDir())
	assert.FileExists(t, cfg.DatabaseDSN())
	assert.Equal(t, constants.AsStringSlice(), a.Engine.Categories())
	assert.False(t, a.Engine.AIEnabled())

	res, err := a.Import.ImportUpload(context.Background(), ingest.UploadRequest{
		Filename:     "agenda.txt",
		Content:      []byte("meeting agenda and deadline"),
		AutoClassify: true,
	})
	require.NoError(t, err)
	assert.Equal(t, constants.AffairsAndTasks, res.Classification.CategoryName)
	require.NotNil(t, res.Classification.CategoryID)

	data, err := a.Export.ExportItemsXLSX(context.Background(), repository.ListFilter{})
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestNewRejectsBadRules(t *testing.T) {
	cfg := common.DefaultConfig()
	cfg.Storage.DataDir = t.TempDir()
	cfg.Classification.Rules = []common.ClassificationRule{{Category: ""}}

	_, err := New(context.Background(), cfg, nil, Options{InMemory: true})
	assert.Error(t, err)
}
