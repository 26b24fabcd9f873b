package shelfdetect

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadLabels(t *testing.T) {

	path := filepath.Join(t.TempDir(), "labels.txt")
	require.NoError(t, os.WriteFile(path, []byte("bottle\n  can \n\nbox\n"), 0o644))

	labels, err := LoadLabels(path)
	require.NoError(t, err)

	assert.Equal(t, Labels{"bottle", "can", "", "box"}, labels)
	assert.Equal(t, "can", labels.Name(1))
	assert.Equal(t, "2", labels.Name(2))
	assert.Equal(t, "7", labels.Name(7))
	assert.Equal(t, "-1", labels.Name(-1))

	_, err = LoadLabels(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
