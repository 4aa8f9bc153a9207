package writer

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestJSONWriter_Write(t *testing.T) {
	w := NewJSONWriter[sample]()
	var buf bytes.Buffer

	err := w.Write(&buf, sample{Name: "pool-1", Count: 7})
	require.NoError(t, err)

	var got sample
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "pool-1", got.Name)
	assert.Equal(t, 7, got.Count)
}

func TestJSONWriter_WriteIndented(t *testing.T) {
	w := NewJSONWriter[sample](WithIndent[sample]())
	var buf bytes.Buffer

	require.NoError(t, w.Write(&buf, sample{Name: "x", Count: 1}))
	assert.True(t, strings.Contains(buf.String(), "\n  "), "expected indented output")
}

func TestJSONWriter_WriteToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "report.json")

	w := NewJSONWriter[sample](WithIndent[sample]())
	require.NoError(t, w.WriteToFile(path, sample{Name: "y", Count: 2}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got sample
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, sample{Name: "y", Count: 2}, got)
}
