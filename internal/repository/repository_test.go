package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/knowledge-vault/constants"
	"github.com/joseph-ayodele/knowledge-vault/internal/common"
	"github.com/joseph-ayodele/knowledge-vault/internal/entity"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Config{DSN: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func backends(t *testing.T) map[string]Repositories {
	return map[string]Repositories{
		"sqlite": NewRepositories(openTestDB(t), nil),
		"memory": NewMemory(),
	}
}

func strp(s string) *string { return &s }

func TestOpenSQLiteHealthCheck(t *testing.T) {
	db := openTestDB(t)
	assert.Equal(t, DialectSQLite, db.Dialect())
	require.NoError(t, db.HealthCheck(context.Background(), 0))
}

func TestRebind(t *testing.T) {
	pg := &DB{dialect: DialectPostgres}
	assert.Equal(t, "SELECT 1 FROM items WHERE a = $1 AND b = $2", pg.rebind("SELECT 1 FROM items WHERE a = ? AND b = ?"))
	lite := &DB{dialect: DialectSQLite}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}

func TestCategories(t *testing.T) {
	for name, repos := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			n, err := repos.Categories.EnsureDefaults(ctx, constants.DefaultCategories())
			require.NoError(t, err)
			assert.Equal(t, 4, n)

			n, err = repos.Categories.EnsureDefaults(ctx, constants.DefaultCategories())
			require.NoError(t, err)
			assert.Zero(t, n, "second call must be a no-op")

			cats, err := repos.Categories.List(ctx)
			require.NoError(t, err)
			require.Len(t, cats, 4)
			assert.Equal(t, constants.AsStringSlice(), []string{cats[0].Name, cats[1].Name, cats[2].Name, cats[3].Name})

			id, ok, err := repos.Categories.CategoryIDByName(ctx, constants.IdeasAndConcepts)
			require.NoError(t, err)
			require.True(t, ok)
			got, err := repos.Categories.Get(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, constants.IdeasAndConcepts, got.Name)

			_, ok, err = repos.Categories.CategoryIDByName(ctx, "Nope")
			require.NoError(t, err)
			assert.False(t, ok)

			_, err = repos.Categories.Get(ctx, uuid.New())
			assert.True(t, errors.Is(err, common.ErrNotFound))
		})
	}
}

func TestItemsLifecycle(t *testing.T) {
	for name, repos := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := repos.Categories.EnsureDefaults(ctx, constants.DefaultCategories())
			require.NoError(t, err)
			catID, _, err := repos.Categories.CategoryIDByName(ctx, constants.ProgramImplementation)
			require.NoError(t, err)

			item := &entity.Item{
				Title:         "main.go",
				ContentType:   constants.ContentTypeFile,
				FilePath:      strp("files/ab/abc.go"),
				FileHash:      strp("abc"),
				FileSize:      42,
				MimeType:      "text/x-go",
				ExtractedText: strp("package main"),
				CategoryID:    &catID,
				Confidence:    0.3,
				Stage:         constants.StageFinalized,
				Metadata:      map[string]any{"encoding": "utf-8"},
			}
			require.NoError(t, repos.Items.Create(ctx, item))
			require.NotEqual(t, uuid.Nil, item.ID)

			exists, err := repos.Items.ExistsByHash(ctx, "abc")
			require.NoError(t, err)
			assert.True(t, exists)
			exists, err = repos.Items.ExistsByHash(ctx, "def")
			require.NoError(t, err)
			assert.False(t, exists)

			got, err := repos.Items.Get(ctx, item.ID)
			require.NoError(t, err)
			assert.Equal(t, "main.go", got.Title)
			assert.Equal(t, int64(42), got.FileSize)
			require.NotNil(t, got.CategoryID)
			assert.Equal(t, catID, *got.CategoryID)
			assert.Equal(t, "utf-8", got.Metadata["encoding"])
			assert.Nil(t, got.SourceURL)

			require.NoError(t, repos.Items.UpdateClassification(ctx, item.ID, nil, 0))
			require.NoError(t, repos.Items.SetThumbnail(ctx, item.ID, "thumbnails/x.jpg"))
			got, err = repos.Items.Get(ctx, item.ID)
			require.NoError(t, err)
			assert.Nil(t, got.CategoryID)
			require.NotNil(t, got.ThumbnailPath)
			assert.Equal(t, "thumbnails/x.jpg", *got.ThumbnailPath)

			err = repos.Items.UpdateClassification(ctx, uuid.New(), nil, 0)
			assert.True(t, errors.Is(err, common.ErrNotFound))
		})
	}
}

func TestCreateRejectsDuplicates(t *testing.T) {
	for name, repos := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, repos.Items.Create(ctx, &entity.Item{Title: "a", ContentType: constants.ContentTypeFile, FileHash: strp("h1"), Stage: constants.StageFinalized}))
			err := repos.Items.Create(ctx, &entity.Item{Title: "b", ContentType: constants.ContentTypeFile, FileHash: strp("h1"), Stage: constants.StageFinalized})
			assert.True(t, errors.Is(err, common.ErrDuplicateContent))

			require.NoError(t, repos.Items.Create(ctx, &entity.Item{Title: "page", ContentType: constants.ContentTypeURL, SourceURL: strp("https://example.com/"), Stage: constants.StageFinalized}))
			exists, err := repos.Items.ExistsByURL(ctx, "https://example.com/")
			require.NoError(t, err)
			assert.True(t, exists)
			err = repos.Items.Create(ctx, &entity.Item{Title: "page", ContentType: constants.ContentTypeURL, SourceURL: strp("https://example.com/"), Stage: constants.StageFinalized})
			assert.True(t, errors.Is(err, common.ErrDuplicateContent))
		})
	}
}

func TestListFilters(t *testing.T) {
	for name, repos := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := repos.Categories.EnsureDefaults(ctx, constants.DefaultCategories())
			require.NoError(t, err)
			catID, _, err := repos.Categories.CategoryIDByName(ctx, constants.AffairsAndTasks)
			require.NoError(t, err)

			for i, title := range []string{"one", "two", "three"} {
				item := &entity.Item{Title: title, ContentType: constants.ContentTypeFile, FileHash: strp(title), Stage: constants.StageFinalized}
				if i == 1 {
					item.CategoryID = &catID
					item.ContentType = constants.ContentTypeURL
				}
				require.NoError(t, repos.Items.Create(ctx, item))
			}

			all, err := repos.Items.List(ctx, ListFilter{})
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, "one", all[0].Title)
			assert.Equal(t, "three", all[2].Title)

			byCat, err := repos.Items.List(ctx, ListFilter{CategoryID: &catID})
			require.NoError(t, err)
			require.Len(t, byCat, 1)
			assert.Equal(t, "two", byCat[0].Title)

			files, err := repos.Items.List(ctx, ListFilter{ContentType: constants.ContentTypeFile, Limit: 1})
			require.NoError(t, err)
			require.Len(t, files, 1)
			assert.Equal(t, "one", files[0].Title)
		})
	}
}
