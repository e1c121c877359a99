package collection

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/tverlann/anki-deck-export/internal/domain/deck"
	_ "modernc.org/sqlite"
)

// fieldSep joins field values inside notes.flds.
const fieldSep = "\x1f"

type deckInfo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type modelField struct {
	Name string `json:"name"`
	Ord  int    `json:"ord"`
}

type modelInfo struct {
	ID   int64        `json:"id"`
	Name string       `json:"name"`
	Flds []modelField `json:"flds"`
}

// colRow is the single row of the col table. The JSON columns are kept
// raw so package export can re-emit them without losing unknown keys.
type colRow struct {
	crt    int64
	scm    int64
	ver    int64
	conf   string
	models string
	decks  string
	dconf  string
	tags   string
}

// SQLite reads an Anki collection.anki2 file. Decks and notetypes live
// as JSON columns in the col table and are decoded once at open time;
// cards and notes are queried on demand.
type SQLite struct {
	db       *sql.DB
	mediaDir string

	col       colRow
	decksByID map[int64]deckInfo
	modelByID map[int64]modelInfo
}

// Open opens the collection read-only-by-convention. The media directory
// defaults to the sibling "collection.media" folder; pass mediaDir to
// override.
func Open(path string, mediaDir string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open collection %s: %w", path, err)
	}

	if mediaDir == "" {
		base := filepath.Base(path)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		mediaDir = filepath.Join(filepath.Dir(path), name+".media")
	}

	c := &SQLite{db: db, mediaDir: mediaDir}
	if err := c.loadCol(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *SQLite) loadCol() error {
	query, args, err := sq.
		Select("crt", "scm", "ver", "conf", "models", "decks", "dconf", "tags").
		From("col").
		Limit(1).
		ToSql()
	if err != nil {
		return err
	}

	row := c.db.QueryRow(query, args...)
	if err := row.Scan(
		&c.col.crt, &c.col.scm, &c.col.ver, &c.col.conf,
		&c.col.models, &c.col.decks, &c.col.dconf, &c.col.tags,
	); err != nil {
		return fmt.Errorf("read col row: %w", err)
	}

	var decks map[string]deckInfo
	if err := json.Unmarshal([]byte(c.col.decks), &decks); err != nil {
		return fmt.Errorf("decode decks column: %w", err)
	}
	c.decksByID = make(map[int64]deckInfo, len(decks))
	for _, d := range decks {
		c.decksByID[d.ID] = d
	}

	var models map[string]modelInfo
	if err := json.Unmarshal([]byte(c.col.models), &models); err != nil {
		return fmt.Errorf("decode models column: %w", err)
	}
	c.modelByID = make(map[int64]modelInfo, len(models))
	for _, m := range models {
		c.modelByID[m.ID] = m
	}

	return nil
}

func (c *SQLite) Close() error {
	return c.db.Close()
}

func (c *SQLite) Decks() ([]deck.Deck, error) {
	out := make([]deck.Deck, 0, len(c.decksByID))
	for _, d := range c.decksByID {
		out = append(out, deck.Deck{Name: d.Name, ID: d.ID})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (c *SQLite) DeckByName(name string) (deck.Deck, bool) {
	for _, d := range c.decksByID {
		if d.Name == name {
			return deck.Deck{Name: d.Name, ID: d.ID}, true
		}
	}
	return deck.Deck{}, false
}

func (c *SQLite) DeckByID(id int64) (deck.Deck, bool) {
	d, ok := c.decksByID[id]
	if !ok {
		return deck.Deck{}, false
	}
	return deck.Deck{Name: d.Name, ID: d.ID}, true
}

func (c *SQLite) CardIDs(deckID int64) ([]int64, error) {
	query, args, err := sq.
		Select("id").
		From("cards").
		Where(sq.Eq{"did": deckID}).
		OrderBy("nid", "ord", "id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cards of deck %d: %w", deckID, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (c *SQLite) Card(id int64) (Card, error) {
	query, args, err := sq.
		Select("c.id", "c.did", "n.id", "n.mid", "n.flds", "n.tags").
		From("cards c").
		Join("notes n ON n.id = c.nid").
		Where(sq.Eq{"c.id": id}).
		ToSql()
	if err != nil {
		return Card{}, err
	}

	var (
		card   Card
		mid    int64
		flds   string
		rawTag string
	)
	row := c.db.QueryRow(query, args...)
	if err := row.Scan(&card.ID, &card.DeckID, &card.NoteID, &mid, &flds, &rawTag); err != nil {
		return Card{}, fmt.Errorf("fetch card %d: %w", id, err)
	}

	model, ok := c.modelByID[mid]
	if !ok {
		return Card{}, fmt.Errorf("card %d references unknown notetype %d", id, mid)
	}

	values := strings.Split(flds, fieldSep)
	fields := make([]modelField, len(model.Flds))
	copy(fields, model.Flds)
	sort.Slice(fields, func(i, j int) bool { return fields[i].Ord < fields[j].Ord })

	for i, f := range fields {
		value := ""
		if i < len(values) {
			value = values[i]
		}
		card.Fields = append(card.Fields, Field{Name: f.Name, Value: value})
	}

	card.Tags = strings.Fields(rawTag)
	return card, nil
}

func (c *SQLite) MediaDir() string {
	return c.mediaDir
}
