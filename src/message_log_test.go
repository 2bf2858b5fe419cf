package nibblelink

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageLogAppendsOneRecordPerLine(t *testing.T) {
	var dir = t.TempDir()

	var ml, err = NewMessageLog("A", dir, "")
	require.NoError(t, err)
	defer ml.Close()

	ml.Record("hello")
	ml.Record("world")

	var data, readErr = os.ReadFile(filepath.Join(dir, "received_A.txt"))
	require.NoError(t, readErr)
	assert.Equal(t, "hello\nworld\n", string(data))
}

func TestMessageLogAppendsAcrossReopen(t *testing.T) {
	var dir = t.TempDir()

	var ml, err = NewMessageLog("B", dir, "")
	require.NoError(t, err)
	ml.Record("first")
	ml.Close()

	ml, err = NewMessageLog("B", dir, "")
	require.NoError(t, err)
	ml.Record("second")
	ml.Close()

	var data, readErr = os.ReadFile(filepath.Join(dir, "received_B.txt"))
	require.NoError(t, readErr)
	assert.Equal(t, "first\nsecond\n", string(data))
}

func TestMessageLogCSV(t *testing.T) {
	var recv_dir = t.TempDir()
	var csv_dir = t.TempDir()

	var ml, err = NewMessageLog("A", recv_dir, csv_dir)
	require.NoError(t, err)
	defer ml.Close()

	ml.Record("hi")
	ml.Record("there")

	var entries, globErr = filepath.Glob(filepath.Join(csv_dir, "*.log"))
	require.NoError(t, globErr)
	require.Len(t, entries, 1, "one daily file")

	var data, readErr = os.ReadFile(entries[0])
	require.NoError(t, readErr)

	var lines = strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3, "header plus two rows")
	assert.Equal(t, "id,node,utc,bytes,message", lines[0])
	assert.Contains(t, lines[1], ",A,")
	assert.True(t, strings.HasSuffix(lines[1], ",2,hi"))
	assert.True(t, strings.HasSuffix(lines[2], ",5,there"))
}

func TestMessageLogCSVDisabledWithoutDir(t *testing.T) {
	var recv_dir = t.TempDir()

	var ml, err = NewMessageLog("A", recv_dir, "")
	require.NoError(t, err)
	defer ml.Close()

	ml.Record("hi")

	var entries, globErr = filepath.Glob(filepath.Join(recv_dir, "*.log"))
	require.NoError(t, globErr)
	assert.Empty(t, entries)
}
