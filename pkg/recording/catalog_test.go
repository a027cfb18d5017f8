package recording

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogInsertAndList(t *testing.T) {
	root := t.TempDir()

	catalog, err := OpenCatalog(root)
	require.NoError(t, err)
	defer catalog.Close()

	older := CatalogEntry{
		UUID:       "11111111-1111-1111-1111-111111111111",
		Name:       "study_a",
		Path:       root + "/study_a/000",
		StartedAt:  time.Unix(1700000000, 0),
		DurationS:  12.5,
		FrameCount: 375,
	}
	newer := CatalogEntry{
		UUID:       "22222222-2222-2222-2222-222222222222",
		Name:       "study_a",
		Path:       root + "/study_a/001",
		StartedAt:  time.Unix(1700000100, 0),
		DurationS:  3.0,
		FrameCount: 90,
	}
	require.NoError(t, catalog.Insert(older))
	require.NoError(t, catalog.Insert(newer))

	entries, err := catalog.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, newer.UUID, entries[0].UUID)
	assert.Equal(t, older.UUID, entries[1].UUID)
	assert.Equal(t, 375, entries[1].FrameCount)
}

func TestCatalogInsertReplacesByUUID(t *testing.T) {
	catalog, err := OpenCatalog(t.TempDir())
	require.NoError(t, err)
	defer catalog.Close()

	entry := CatalogEntry{
		UUID:      "33333333-3333-3333-3333-333333333333",
		Name:      "study_b",
		Path:      "/tmp/study_b/000",
		StartedAt: time.Unix(1700000000, 0),
	}
	require.NoError(t, catalog.Insert(entry))

	entry.DurationS = 99.0
	require.NoError(t, catalog.Insert(entry))

	entries, err := catalog.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 99.0, entries[0].DurationS)
}

func TestCatalogReopen(t *testing.T) {
	root := t.TempDir()

	catalog, err := OpenCatalog(root)
	require.NoError(t, err)
	require.NoError(t, catalog.Insert(CatalogEntry{
		UUID:      "44444444-4444-4444-4444-444444444444",
		Name:      "study_c",
		Path:      "/tmp/study_c/000",
		StartedAt: time.Unix(1700000000, 0),
	}))
	require.NoError(t, catalog.Close())

	reopened, err := OpenCatalog(root)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.List()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
