package region

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapAnonymousRegion(t *testing.T) {
	r, err := Map("", 4096)
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, 4096, r.Len())
	require.NotNil(t, r.Base())

	// anonymous regions persist nothing
	require.NoError(t, r.Persist(0, 4096))
}

func TestMapFileBackedRegionPreallocates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.log")

	r, err := Map(path, 8192)
	require.NoError(t, err)
	defer r.Close()

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.EqualValues(t, 8192, info.Size())
}

func TestMapRejectsNonPositiveLength(t *testing.T) {
	_, err := Map("", 0)
	require.Error(t, err)

	_, err = Map("", -1)
	require.Error(t, err)
}

func TestPersistOutOfBoundsRangeErrors(t *testing.T) {
	dir := t.TempDir()
	r, err := Map(filepath.Join(dir, "data.log"), 4096)
	require.NoError(t, err)
	defer r.Close()

	require.Error(t, r.Persist(0, 8192))
	require.Error(t, r.Persist(-1, 10))
}

func TestCleanupRemovesOnlyRegularFilesThenDir(t *testing.T) {
	dir := t.TempDir()
	logDir := filepath.Join(dir, ".libnvmmio-1234")
	require.NoError(t, os.Mkdir(logDir, 0777))

	require.NoError(t, os.WriteFile(filepath.Join(logDir, "entries.log"), []byte("x"), 0666))
	require.NoError(t, os.WriteFile(filepath.Join(logDir, "umas.log"), []byte("x"), 0666))

	nested := filepath.Join(logDir, "subdir")
	require.NoError(t, os.Mkdir(nested, 0777))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "untouched.log"), []byte("x"), 0666))

	err := Cleanup(logDir)
	require.Error(t, err, "rmdir must fail because the subdirectory was deliberately left behind")

	_, statErr := os.Stat(nested)
	require.NoError(t, statErr, "Cleanup must not recurse into subdirectories")

	_, statErr = os.Stat(filepath.Join(logDir, "entries.log"))
	require.True(t, os.IsNotExist(statErr), "regular files directly inside dir must be removed")
}
