package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tverlann/anki-deck-export/internal/domain/deck"
)

// WriteHierarchyLog writes the depth-indented deck listing under
// <root>/logs and returns the log file path. The artifact is purely
// observational; it is never read back.
func WriteHierarchyLog(root string, decks []deck.Deck, now time.Time) (string, error) {
	logDir := filepath.Join(root, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return "", err
	}

	logPath := filepath.Join(logDir, fmt.Sprintf("deck_hierarchy_%s.txt", now.Format("20060102_150405")))

	sorted := make([]deck.Deck, len(decks))
	copy(sorted, decks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var b strings.Builder
	b.WriteString("Deck Hierarchy Export\n")
	b.WriteString("Date: " + now.Format("2006-01-02 15:04:05") + "\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")
	for _, d := range sorted {
		indent := strings.Repeat("  ", deck.Depth(d.Name)-1)
		fmt.Fprintf(&b, "%s• %s (%s)\n", indent, deck.DisplayName(d.Name), d.Name)
	}

	if err := os.WriteFile(logPath, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write hierarchy log: %w", err)
	}
	return logPath, nil
}
