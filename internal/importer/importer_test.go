package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lychee-technology/gridstore/internal/pagestore"
	"github.com/lychee-technology/gridstore/internal/taskrunner"
)

func writeTempCSV(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func newTestImporter(t *testing.T) *Importer {
	t.Helper()
	shards, err := OpenShardStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { shards.Close() })

	cold, err := pagestore.OpenColdDB(pagestore.ColdDBOptions{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { cold.Close() })

	store := pagestore.NewStore(cold, nil)
	pool := taskrunner.New(2, 8)
	return New(shards, cold, store, pool, nil)
}

func TestImportPublishesColumnsFromSmallCSV(t *testing.T) {
	path := writeTempCSV(t, "id,name\n1,alice\n2,bob\n3,carol\n")
	imp := newTestImporter(t)

	info, err := os.Stat(path)
	require.NoError(t, err)

	cfg := Config{
		SourcePath:    path,
		SourceSize:    info.Size(),
		Delimiter:     ",",
		Newline:       "\n",
		HasHeader:     true,
		Columns:       []ColumnSelection{{Name: "id", Index: 0, ElementType: "int64"}, {Name: "name", Index: 1, ElementType: "string"}},
		WorkerCount:   2,
		WorkingMemory: 1 << 16,
	}

	pages, err := imp.Import(context.Background(), "root1", cfg)
	require.NoError(t, err)
	require.Contains(t, pages, "id")
	require.Contains(t, pages, "name")

	idPage := pages["id"]
	got, err := imp.Store.Read(context.Background(), idPage, 0, idPage.Length)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, got.Int64s)

	namePage := pages["name"]
	gotNames, err := imp.Store.Read(context.Background(), namePage, 0, namePage.Length)
	require.NoError(t, err)
	require.Len(t, gotNames.ByteSlices, 3)
	assert.Equal(t, "alice", string(gotNames.ByteSlices[0]))
	assert.Equal(t, "carol", string(gotNames.ByteSlices[2]))
}

func TestImportRespectsBracketConfig(t *testing.T) {
	path := writeTempCSV(t, "id,note\n1,(a,b)\n2,plain\n")
	imp := newTestImporter(t)

	info, err := os.Stat(path)
	require.NoError(t, err)

	cfg := Config{
		SourcePath:    path,
		SourceSize:    info.Size(),
		Delimiter:     ",",
		Newline:       "\n",
		Brackets:      "(){}[]",
		HasHeader:     true,
		Columns:       []ColumnSelection{{Name: "id", Index: 0, ElementType: "int64"}, {Name: "note", Index: 1, ElementType: "string"}},
		WorkerCount:   1,
		WorkingMemory: 1 << 16,
	}

	pages, err := imp.Import(context.Background(), "root-brackets", cfg)
	require.NoError(t, err)

	notePage := pages["note"]
	got, err := imp.Store.Read(context.Background(), notePage, 0, notePage.Length)
	require.NoError(t, err)
	require.Len(t, got.ByteSlices, 2)
	assert.Equal(t, "(a,b)", string(got.ByteSlices[0]))
	assert.Equal(t, "plain", string(got.ByteSlices[1]))
}

func TestImportIsIdempotentAgainstUnchangedSource(t *testing.T) {
	path := writeTempCSV(t, "id\n1\n2\n")
	imp := newTestImporter(t)
	info, err := os.Stat(path)
	require.NoError(t, err)

	cfg := Config{
		SourcePath:    path,
		SourceSize:    info.Size(),
		Delimiter:     ",",
		Newline:       "\n",
		HasHeader:     true,
		Columns:       []ColumnSelection{{Name: "id", Index: 0, ElementType: "int64"}},
		WorkerCount:   1,
		WorkingMemory: 1 << 16,
	}

	first, err := imp.Import(context.Background(), "root2", cfg)
	require.NoError(t, err)

	// a fresh pool is needed since the first Import already stopped its pool
	imp.Pool = taskrunner.New(1, 8)
	second, err := imp.Import(context.Background(), "root2", cfg)
	require.NoError(t, err)

	assert.Equal(t, first["id"].Fingerprint, second["id"].Fingerprint)
}
