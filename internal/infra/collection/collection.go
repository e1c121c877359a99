package collection

import (
	"github.com/tverlann/anki-deck-export/internal/domain/deck"
)

// Field is one named field of a note, in notetype order.
type Field struct {
	Name  string
	Value string
}

// Card is a card joined with its owning note. Fields carry the note's
// values resolved through the notetype's field names.
type Card struct {
	ID     int64
	NoteID int64
	DeckID int64
	Fields []Field
	Tags   []string
}

// PackageOptions controls what a deck package includes.
type PackageOptions struct {
	WithScheduling  bool
	WithMedia       bool
	WithTags        bool
	WithDescendants bool
}

// Collection is the read surface the exporters work against, plus the
// host-format package primitive.
type Collection interface {
	Decks() ([]deck.Deck, error)
	DeckByName(name string) (deck.Deck, bool)
	DeckByID(id int64) (deck.Deck, bool)
	CardIDs(deckID int64) ([]int64, error)
	Card(id int64) (Card, error)
	MediaDir() string
	ExportPackage(deckID int64, opts PackageOptions, destPath string) error
}
