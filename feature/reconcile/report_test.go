package reconcile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePlanArtifacts(t *testing.T) {
	out := t.TempDir()
	plan := &Plan{
		Actions: []Action{
			{
				Type:           ActionAssociateNewest,
				ProductID:      42,
				SourceBlob:     "thomann/42_20240105_093000.jpg",
				DestBlob:       "images/42_20240105_093000.jpg",
				RedundantBlobs: []string{"thomann/42_20240101_100000.jpg"},
			},
			{Type: ActionNoCandidate, ProductID: 3},
		},
		OrphanBlobs: []string{"thomann/stray.bin"},
	}

	now := time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)
	dir, err := WritePlanArtifacts(out, plan, now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "plan-20240601-103000"), dir)

	t.Run("ActionsJSONL", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(dir, "actions.jsonl"))
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		require.Len(t, lines, 2)

		var a Action
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &a))
		assert.Equal(t, ActionAssociateNewest, a.Type)
		assert.Equal(t, int64(42), a.ProductID)
	})

	t.Run("LineLists", func(t *testing.T) {
		redundant, err := ReadLines(filepath.Join(dir, "redundant.txt"))
		require.NoError(t, err)
		assert.Equal(t, []string{"thomann/42_20240101_100000.jpg"}, redundant)

		orphans, err := ReadLines(filepath.Join(dir, "orphans.txt"))
		require.NoError(t, err)
		assert.Equal(t, []string{"thomann/stray.bin"}, orphans)
	})

	t.Run("RerunsNeverOverwrite", func(t *testing.T) {
		later := now.Add(time.Second)
		dir2, err := WritePlanArtifacts(out, plan, later)
		require.NoError(t, err)
		assert.NotEqual(t, dir, dir2)
	})
}

func TestReadLinesSkipsCommentsAndBlanks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.txt")
	content := "thomann/a.jpg\n\n# keep this one out\nthomann/b.jpg\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	lines, err := ReadLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"thomann/a.jpg", "thomann/b.jpg"}, lines)
}
