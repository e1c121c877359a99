package exporter

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/tverlann/anki-deck-export/internal/domain/deck"
	"github.com/tverlann/anki-deck-export/internal/infra/collection"
	"github.com/tverlann/anki-deck-export/internal/infra/config"
	"github.com/tverlann/anki-deck-export/internal/infra/exportfs"
)

// PackageExporter writes one host-format .apkg package per deck into the
// mirrored folder hierarchy.
type PackageExporter struct {
	col collection.Collection
	cfg config.Config
	log *zap.SugaredLogger
}

func NewPackageExporter(col collection.Collection, cfg config.Config, log *zap.SugaredLogger) *PackageExporter {
	return &PackageExporter{col: col, cfg: cfg, log: log}
}

// ExportAll packages every deck in the collection under root.
func (e *PackageExporter) ExportAll(root string) (Result, error) {
	return exportAll(e.col, e.cfg, e.log, root, "packaging", func(d deck.Deck, decks []deck.Deck) DeckResult {
		return e.exportDeck(root, d)
	})
}

func (e *PackageExporter) exportDeck(root string, d deck.Deck) DeckResult {
	deckPath, err := exportfs.DeckPath(root, d.Name, exportfs.Options{
		Sanitize:     e.cfg.FolderStructure.Sanitize,
		AllowedChars: e.cfg.FolderStructure.AllowedChars,
		MaxDepth:     e.cfg.FolderStructure.MaxDepth,
	})
	if err != nil {
		return DeckResult{Name: d.Name, Err: err.Error()}
	}

	fileName := exportfs.SanitizeFileName(deck.DisplayName(d.Name), e.cfg.FolderStructure.AllowedChars)
	destPath := exportfs.UniquePath(filepath.Join(deckPath, fileName+".apkg"))

	opts := collection.PackageOptions{
		WithScheduling:  e.cfg.APKG.IncludeScheduling,
		WithMedia:       e.cfg.APKG.IncludeMedia,
		WithTags:        e.cfg.APKG.IncludeTags,
		WithDescendants: e.cfg.APKG.IncludeChildren,
	}
	if err := e.col.ExportPackage(d.ID, opts, destPath); err != nil {
		return DeckResult{Name: d.Name, Err: err.Error()}
	}

	return DeckResult{Name: d.Name, OK: true, Path: destPath}
}
