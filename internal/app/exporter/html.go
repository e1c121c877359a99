package exporter

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/tverlann/anki-deck-export/internal/domain/deck"
	"github.com/tverlann/anki-deck-export/internal/infra/collection"
	"github.com/tverlann/anki-deck-export/internal/infra/config"
	"github.com/tverlann/anki-deck-export/internal/infra/exportfs"
)

// HTMLExporter mirrors the deck hierarchy as nested folders, one
// index.html and media/ subfolder per deck.
type HTMLExporter struct {
	col      collection.Collection
	cfg      config.Config
	log      *zap.SugaredLogger
	renderer *Renderer
}

func NewHTMLExporter(col collection.Collection, cfg config.Config, log *zap.SugaredLogger) *HTMLExporter {
	media := NewMediaRewriter(col.MediaDir(), cfg.Media, log)
	return &HTMLExporter{
		col:      col,
		cfg:      cfg,
		log:      log,
		renderer: NewRenderer(media, cfg.HTML, log),
	}
}

// ExportAll exports every deck in the collection under root.
func (e *HTMLExporter) ExportAll(root string) (Result, error) {
	return exportAll(e.col, e.cfg, e.log, root, "rendering", func(d deck.Deck, decks []deck.Deck) DeckResult {
		return e.exportDeck(root, d, decks)
	})
}

func (e *HTMLExporter) exportDeck(root string, d deck.Deck, decks []deck.Deck) DeckResult {
	deckPath, err := exportfs.DeckPath(root, d.Name, exportfs.Options{
		Sanitize:     e.cfg.FolderStructure.Sanitize,
		AllowedChars: e.cfg.FolderStructure.AllowedChars,
		MaxDepth:     e.cfg.FolderStructure.MaxDepth,
	})
	if err != nil {
		return DeckResult{Name: d.Name, Err: err.Error()}
	}

	mediaDir, err := exportfs.EnsureMediaDir(deckPath, e.cfg.Media.Folder)
	if err != nil {
		return DeckResult{Name: d.Name, Err: err.Error()}
	}

	cards, err := e.deckCards(d, decks)
	if err != nil {
		return DeckResult{Name: d.Name, Err: err.Error()}
	}

	cardsHTML, count := e.renderer.RenderCards(cards, mediaDir)
	indexHTML, err := e.renderer.RenderDeckIndex(d.Name, cardsHTML, count, decks, time.Now())
	if err != nil {
		return DeckResult{Name: d.Name, Err: err.Error()}
	}

	indexPath := filepath.Join(deckPath, "index.html")
	if err := os.WriteFile(indexPath, []byte(indexHTML), 0o644); err != nil {
		return DeckResult{Name: d.Name, Err: err.Error()}
	}

	return DeckResult{Name: d.Name, OK: true, Path: deckPath, CardCount: count}
}

// deckCards fetches the deck's own cards, plus (when configured) the
// cards of every descendant deck; the renderer's dedup suppresses
// repeats across the aggregate. Cards that fail to load are skipped,
// not fatal for the deck.
func (e *HTMLExporter) deckCards(d deck.Deck, decks []deck.Deck) ([]collection.Card, error) {
	deckIDs := []int64{d.ID}
	if e.cfg.HTML.IncludeChildCards {
		for _, name := range deck.Descendants(decks, d.Name) {
			if child, ok := e.col.DeckByName(name); ok {
				deckIDs = append(deckIDs, child.ID)
			}
		}
	}

	var cards []collection.Card
	for _, deckID := range deckIDs {
		ids, err := e.col.CardIDs(deckID)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			card, err := e.col.Card(id)
			if err != nil {
				e.log.Warnw("skipping unreadable card", "card", id, "deck", d.Name, "error", err)
				continue
			}
			cards = append(cards, card)
		}
	}
	return cards, nil
}
