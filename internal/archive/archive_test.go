package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestZip(t *testing.T, entries map[string]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.zip")
	f, err := os.Create(path)
	require.NoError(t, err)

	w := zip.NewWriter(f)
	for name, content := range entries {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	return path
}

func TestExtract(t *testing.T) {
	zipPath := createTestZip(t, map[string]string{
		"awards.csv":        "award_id_piid,amount\nA1,100\n",
		"nested/extra.csv":  "award_id_piid,amount\nA2,200\n",
		"nested/readme.txt": "not a csv",
	})

	dest := filepath.Join(t.TempDir(), "extract")
	require.NoError(t, Extract(zipPath, dest))

	data, err := os.ReadFile(filepath.Join(dest, "awards.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "A1,100")

	_, err = os.Stat(filepath.Join(dest, "nested", "extra.csv"))
	assert.NoError(t, err)
}

func TestExtract_NotAZip(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.zip")
	require.NoError(t, os.WriteFile(bad, []byte("plain text"), 0o644))

	err := Extract(bad, t.TempDir())
	assert.Error(t, err)
}

func TestFindCSVFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub", "deep"), 0o755))

	for _, name := range []string{"a.csv", "sub/b.CSV", "sub/deep/c.csv", "sub/skip.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	got, err := FindCSVFiles(dir)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestReset(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "work")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.csv"), []byte("x"), 0o644))

	require.NoError(t, Reset(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
