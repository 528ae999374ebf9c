package reconcile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const planDirLayout = "20060102-150405"

// WritePlanArtifacts writes the three plan files under a fresh timestamped
// directory: actions.jsonl (one JSON action per line), redundant.txt and
// orphans.txt (one blob path per line). Repeated runs never overwrite prior
// evidence. Returns the directory created.
func WritePlanArtifacts(outDir string, plan *Plan, now time.Time) (string, error) {
	dir := filepath.Join(outDir, "plan-"+now.UTC().Format(planDirLayout))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create plan dir: %w", err)
	}

	if err := writeActions(filepath.Join(dir, "actions.jsonl"), plan.Actions); err != nil {
		return "", err
	}
	if err := writeLines(filepath.Join(dir, "redundant.txt"), plan.RedundantList()); err != nil {
		return "", err
	}
	if err := writeLines(filepath.Join(dir, "orphans.txt"), plan.OrphanBlobs); err != nil {
		return "", err
	}

	return dir, nil
}

func writeActions(path string, actions []Action) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, a := range actions {
		if err := enc.Encode(a); err != nil {
			return fmt.Errorf("failed to write action for product %d: %w", a.ProductID, err)
		}
	}
	return nil
}

func writeLines(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return w.Flush()
}

// ReadLines loads a redundant/orphan list back for the cleanup step. Blank
// lines and #-comments (operator annotations during review) are skipped.
func ReadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}
