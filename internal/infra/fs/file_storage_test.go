package fs

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "summary.json")
	in := map[string]float64{"East": 100, "West": 200}

	require.NoError(t, SaveJSON(path, in))

	var out map[string]float64
	require.NoError(t, LoadJSON(path, &out))
	assert.Equal(t, in, out)

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestWriteAtomic_FailureKeepsPreviousFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

	errWrite := errors.New("disk full")
	err := WriteAtomic(path, func(w io.Writer) error {
		w.Write([]byte("partial"))
		return errWrite
	})

	assert.ErrorIs(t, err, errWrite)
	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "old", string(data))
	_, statErr := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(statErr))
}

func TestSaveJSON_Unmarshalable(t *testing.T) {
	err := SaveJSON(filepath.Join(t.TempDir(), "bad.json"), map[string]interface{}{"f": func() {}})
	assert.Error(t, err)
}

func TestLoadJSON_Missing(t *testing.T) {
	var out map[string]int
	assert.Error(t, LoadJSON(filepath.Join(t.TempDir(), "nope.json"), &out))
}
