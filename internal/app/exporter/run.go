package exporter

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/tverlann/anki-deck-export/internal/domain/deck"
	"github.com/tverlann/anki-deck-export/internal/infra/collection"
	"github.com/tverlann/anki-deck-export/internal/infra/config"
)

// deckExportFunc is the leaf exporter invoked once per deck. decks is
// the full sorted enumeration, for child/parent lookups.
type deckExportFunc func(d deck.Deck, decks []deck.Deck) DeckResult

// exportAll is the run shape both orchestrators share: enumerate,
// order parents before children, export each deck in isolation, and
// aggregate. A failing deck is recorded and the run continues.
func exportAll(col collection.Collection, cfg config.Config, log *zap.SugaredLogger, root, verb string, leaf deckExportFunc) (Result, error) {
	decks, err := col.Decks()
	if err != nil {
		return Result{}, fmt.Errorf("enumerate decks: %w", err)
	}
	if len(decks) == 0 {
		return Result{}, nil
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return Result{}, fmt.Errorf("create export root: %w", err)
	}

	sorted := deck.SortForExport(decks)
	result := Result{Total: len(sorted)}

	if cfg.Logging.HierarchyLog {
		logFile, err := WriteHierarchyLog(root, sorted, time.Now())
		if err != nil {
			// The log is observational; losing it never fails the run.
			log.Warnw("hierarchy log not written", "error", err)
		} else {
			result.LogFile = logFile
		}
	}

	bar := newExportProgressBar(len(sorted), cfg.UI.Progress)
	defer bar.Close()

	for _, d := range sorted {
		bar.Advance(verb + " " + d.Name)
		dr := leaf(d, sorted)
		if !dr.OK {
			log.Warnw("deck export failed", "deck", d.Name, "error", dr.Err)
		}
		result.record(dr)
	}
	bar.Finish(verb + " done")

	return result, nil
}
