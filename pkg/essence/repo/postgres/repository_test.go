package postgres_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-essence/pkg/essence"
	"github.com/tendant/simple-essence/pkg/essence/repo/postgres"
)

// setupRepository connects to ESSENCE_TEST_DATABASE_URL and applies the
// schema inside a throwaway Postgres schema.
func setupRepository(t *testing.T) essence.Repository {
	t.Helper()
	dsn := os.Getenv("ESSENCE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("ESSENCE_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dsn)
	require.NoError(t, err)

	schema := "essence_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	ident := pgx.Identifier{schema}.Sanitize()
	_, err = conn.Exec(ctx, fmt.Sprintf("CREATE SCHEMA %s", ident))
	require.NoError(t, err)
	_, err = conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", ident))
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = conn.Exec(context.Background(), fmt.Sprintf("DROP SCHEMA %s CASCADE", ident))
		_ = conn.Close(context.Background())
	})

	require.NoError(t, postgres.EnsureSchema(ctx, conn))
	return postgres.New(conn)
}

func TestPostgresRepository_RoundTrip(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	element := &essence.Element{Name: "article", Position: 1, Public: true}
	require.NoError(t, repo.CreateElement(ctx, element))

	essenceID := uuid.New()
	require.NoError(t, repo.CreateEssence(ctx, essenceID, &essence.TextEssence{Body: "Hello"}))

	headline := &essence.Content{
		ElementID:   element.ID,
		Name:        "headline",
		EssenceType: essence.TypeText,
		EssenceID:   uuid.NullUUID{UUID: essenceID, Valid: true},
		Position:    1,
		Settings:    essence.Settings{":css_class": "lead"},
	}
	dangling := &essence.Content{
		ElementID:   element.ID,
		Name:        "body",
		EssenceType: essence.TypeRichtext,
		EssenceID:   uuid.NullUUID{UUID: uuid.New(), Valid: true},
		Position:    2,
	}
	require.NoError(t, repo.CreateContent(ctx, headline))
	require.NoError(t, repo.CreateContent(ctx, dangling))

	loaded, err := repo.GetElement(ctx, element.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Contents, 2)
	assert.Equal(t, "Hello", loaded.Contents[0].Essence.Ingredient())
	assert.Equal(t, "lead", loaded.Contents[0].Settings["css_class"])
	assert.Nil(t, loaded.Contents[1].Essence)

	require.NoError(t, repo.UpdateContentSettings(ctx, headline.ID, essence.Settings{"linkable": true}))
	content, err := repo.GetContent(ctx, headline.ID)
	require.NoError(t, err)
	assert.Equal(t, true, content.Settings["linkable"])

	elements, err := repo.ListElements(ctx)
	require.NoError(t, err)
	require.Len(t, elements, 1)
	assert.Len(t, elements[0].Contents, 2)
}

func TestPostgresRepository_NotFound(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	_, err := repo.GetElement(ctx, uuid.New())
	assert.ErrorIs(t, err, essence.ErrElementNotFound)

	_, err = repo.GetContent(ctx, uuid.New())
	assert.ErrorIs(t, err, essence.ErrContentNotFound)

	_, err = repo.GetEssence(ctx, uuid.New())
	assert.ErrorIs(t, err, essence.ErrEssenceNotFound)

	err = repo.CreateContent(ctx, &essence.Content{ElementID: uuid.New(), Name: "orphan", EssenceType: essence.TypeText})
	assert.ErrorIs(t, err, essence.ErrElementNotFound)

	assert.ErrorIs(t, repo.UpdateContentSettings(ctx, uuid.New(), nil), essence.ErrContentNotFound)
	assert.ErrorIs(t, repo.DeleteElement(ctx, uuid.New()), essence.ErrElementNotFound)
}

func TestPostgresRepository_DeleteElementCascades(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	element := &essence.Element{Name: "teaser"}
	require.NoError(t, repo.CreateElement(ctx, element))
	content := &essence.Content{ElementID: element.ID, Name: "headline", EssenceType: essence.TypeText}
	require.NoError(t, repo.CreateContent(ctx, content))

	require.NoError(t, repo.DeleteElement(ctx, element.ID))
	_, err := repo.GetContent(ctx, content.ID)
	assert.ErrorIs(t, err, essence.ErrContentNotFound)
}

func TestPostgresRepository_DecodesWithStoredEssenceType(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	element := &essence.Element{Name: "settings"}
	require.NoError(t, repo.CreateElement(ctx, element))

	essenceID := uuid.New()
	require.NoError(t, repo.CreateEssence(ctx, essenceID, &essence.BooleanEssence{Value: true}))
	content := &essence.Content{
		ElementID:   element.ID,
		Name:        "visible",
		EssenceType: essence.TypeText,
		EssenceID:   uuid.NullUUID{UUID: essenceID, Valid: true},
	}
	require.NoError(t, repo.CreateContent(ctx, content))

	loaded, err := repo.GetContent(ctx, content.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Essence)
	assert.Equal(t, essence.TypeBoolean, loaded.Essence.EssenceType())
	assert.Equal(t, "true", loaded.Essence.Ingredient())
}
