package exporter

import (
	"errors"
	"fmt"

	"github.com/tverlann/anki-deck-export/internal/domain/deck"
	"github.com/tverlann/anki-deck-export/internal/infra/collection"
)

type packageCall struct {
	deckID int64
	opts   collection.PackageOptions
	dest   string
}

// fakeCollection is an in-memory Collection for orchestrator tests.
type fakeCollection struct {
	decks       []deck.Deck
	cardsByDeck map[int64][]collection.Card
	mediaDir    string

	decksErr   error
	cardIDsErr map[int64]error
	packageErr map[int64]error

	cardIDsCalls []int64
	packageCalls []packageCall
}

func (f *fakeCollection) Decks() ([]deck.Deck, error) {
	if f.decksErr != nil {
		return nil, f.decksErr
	}
	return f.decks, nil
}

func (f *fakeCollection) DeckByName(name string) (deck.Deck, bool) {
	for _, d := range f.decks {
		if d.Name == name {
			return d, true
		}
	}
	return deck.Deck{}, false
}

func (f *fakeCollection) DeckByID(id int64) (deck.Deck, bool) {
	for _, d := range f.decks {
		if d.ID == id {
			return d, true
		}
	}
	return deck.Deck{}, false
}

func (f *fakeCollection) CardIDs(deckID int64) ([]int64, error) {
	f.cardIDsCalls = append(f.cardIDsCalls, deckID)
	if err, ok := f.cardIDsErr[deckID]; ok {
		return nil, err
	}
	var ids []int64
	for _, c := range f.cardsByDeck[deckID] {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func (f *fakeCollection) Card(id int64) (collection.Card, error) {
	for _, cards := range f.cardsByDeck {
		for _, c := range cards {
			if c.ID == id {
				return c, nil
			}
		}
	}
	return collection.Card{}, fmt.Errorf("card %d not found", id)
}

func (f *fakeCollection) MediaDir() string {
	return f.mediaDir
}

func (f *fakeCollection) ExportPackage(deckID int64, opts collection.PackageOptions, destPath string) error {
	f.packageCalls = append(f.packageCalls, packageCall{deckID: deckID, opts: opts, dest: destPath})
	if err, ok := f.packageErr[deckID]; ok {
		return err
	}
	return nil
}

var errBroken = errors.New("broken deck")
