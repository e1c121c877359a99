package collection

import (
	"archive/zip"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/tverlann/anki-deck-export/internal/domain/deck"
)

var (
	imgRefPattern   = regexp.MustCompile(`<img src="([^"]+)"`)
	soundRefPattern = regexp.MustCompile(`\[sound:([^\]]+)\]`)
)

// packageSchema is the classic collection.anki2 layout that any Anki
// version can import.
const packageSchema = `
CREATE TABLE col (
	id integer primary key,
	crt integer not null,
	mod integer not null,
	scm integer not null,
	ver integer not null,
	dty integer not null,
	usn integer not null,
	ls integer not null,
	conf text not null,
	models text not null,
	decks text not null,
	dconf text not null,
	tags text not null
);
CREATE TABLE notes (
	id integer primary key,
	guid text not null,
	mid integer not null,
	mod integer not null,
	usn integer not null,
	tags text not null,
	flds text not null,
	sfld integer not null,
	csum integer not null,
	flags integer not null,
	data text not null
);
CREATE TABLE cards (
	id integer primary key,
	nid integer not null,
	did integer not null,
	ord integer not null,
	mod integer not null,
	usn integer not null,
	type integer not null,
	queue integer not null,
	due integer not null,
	ivl integer not null,
	factor integer not null,
	reps integer not null,
	lapses integer not null,
	left integer not null,
	odue integer not null,
	odid integer not null,
	flags integer not null,
	data text not null
);
CREATE TABLE revlog (
	id integer primary key,
	cid integer not null,
	usn integer not null,
	ease integer not null,
	ivl integer not null,
	lastIvl integer not null,
	factor integer not null,
	time integer not null,
	type integer not null
);
CREATE TABLE graves (
	usn integer not null,
	oid integer not null,
	type integer not null
);
CREATE INDEX ix_notes_usn ON notes (usn);
CREATE INDEX ix_cards_usn ON cards (usn);
CREATE INDEX ix_cards_nid ON cards (nid);
CREATE INDEX ix_cards_sched ON cards (did, queue, due);
`

type noteRow struct {
	id    int64
	guid  string
	mid   int64
	mod   int64
	usn   int64
	tags  string
	flds  string
	sfld  string
	csum  int64
	flags int64
	data  string
}

type cardRow struct {
	id, nid, did, ord, mod, usn          int64
	typ, queue, due, ivl, factor         int64
	reps, lapses, left, odue, odid, flag int64
	data                                 string
}

// ExportPackage serializes one deck (optionally with its descendants)
// into a .apkg file at destPath: a zip holding a fresh collection.anki2,
// a "media" manifest mapping numbered entries to file names, and the
// referenced media files themselves.
func (c *SQLite) ExportPackage(deckID int64, opts PackageOptions, destPath string) error {
	root, ok := c.DeckByID(deckID)
	if !ok {
		return fmt.Errorf("deck %d not found", deckID)
	}

	included := map[int64]bool{deckID: true}
	if opts.WithDescendants {
		decks, err := c.Decks()
		if err != nil {
			return err
		}
		for _, name := range deck.Descendants(decks, root.Name) {
			if d, ok := c.DeckByName(name); ok {
				included[d.ID] = true
			}
		}
	}

	notes, cards, err := c.collectDeckRows(included)
	if err != nil {
		return err
	}

	tmpDir, err := os.MkdirTemp("", "apkg-export-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, "collection.anki2")
	if err := c.writePackageDB(dbPath, included, notes, cards, opts); err != nil {
		return fmt.Errorf("build package collection: %w", err)
	}

	var mediaFiles []string
	if opts.WithMedia {
		mediaFiles = c.referencedMedia(notes)
	}

	return writePackageZip(destPath, dbPath, c.mediaDir, mediaFiles)
}

func (c *SQLite) collectDeckRows(deckIDs map[int64]bool) ([]noteRow, []cardRow, error) {
	ids := make([]int64, 0, len(deckIDs))
	for id := range deckIDs {
		ids = append(ids, id)
	}

	query, args, err := sq.
		Select("id", "nid", "did", "ord", "mod", "usn", "type", "queue", "due",
			"ivl", "factor", "reps", "lapses", "left", "odue", "odid", "flags", "data").
		From("cards").
		Where(sq.Eq{"did": ids}).
		OrderBy("nid", "ord").
		ToSql()
	if err != nil {
		return nil, nil, err
	}

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("collect cards: %w", err)
	}
	defer rows.Close()

	var cards []cardRow
	noteIDs := map[int64]bool{}
	for rows.Next() {
		var cr cardRow
		if err := rows.Scan(&cr.id, &cr.nid, &cr.did, &cr.ord, &cr.mod, &cr.usn,
			&cr.typ, &cr.queue, &cr.due, &cr.ivl, &cr.factor,
			&cr.reps, &cr.lapses, &cr.left, &cr.odue, &cr.odid, &cr.flag, &cr.data); err != nil {
			return nil, nil, err
		}
		cards = append(cards, cr)
		noteIDs[cr.nid] = true
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	if len(noteIDs) == 0 {
		return nil, cards, nil
	}

	nids := make([]int64, 0, len(noteIDs))
	for id := range noteIDs {
		nids = append(nids, id)
	}
	query, args, err = sq.
		Select("id", "guid", "mid", "mod", "usn", "tags", "flds", "sfld", "csum", "flags", "data").
		From("notes").
		Where(sq.Eq{"id": nids}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, nil, err
	}

	noteRows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("collect notes: %w", err)
	}
	defer noteRows.Close()

	var notes []noteRow
	for noteRows.Next() {
		var nr noteRow
		if err := noteRows.Scan(&nr.id, &nr.guid, &nr.mid, &nr.mod, &nr.usn,
			&nr.tags, &nr.flds, &nr.sfld, &nr.csum, &nr.flags, &nr.data); err != nil {
			return nil, nil, err
		}
		notes = append(notes, nr)
	}
	return notes, cards, noteRows.Err()
}

func (c *SQLite) writePackageDB(path string, deckIDs map[int64]bool, notes []noteRow, cards []cardRow, opts PackageOptions) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(packageSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	decksJSON, err := filterJSONByID(c.col.decks, deckIDs)
	if err != nil {
		return fmt.Errorf("filter decks: %w", err)
	}

	usedModels := map[int64]bool{}
	for _, n := range notes {
		usedModels[n.mid] = true
	}
	modelsJSON, err := filterJSONByID(c.col.models, usedModels)
	if err != nil {
		return fmt.Errorf("filter models: %w", err)
	}

	now := time.Now().UnixMilli()
	query, args, err := sq.
		Insert("col").
		Columns("id", "crt", "mod", "scm", "ver", "dty", "usn", "ls",
			"conf", "models", "decks", "dconf", "tags").
		Values(1, c.col.crt, now, c.col.scm, c.col.ver, 0, 0, 0,
			c.col.conf, modelsJSON, decksJSON, c.col.dconf, c.col.tags).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := db.Exec(query, args...); err != nil {
		return fmt.Errorf("insert col row: %w", err)
	}

	for _, n := range notes {
		tags := n.tags
		if !opts.WithTags {
			tags = ""
		}
		query, args, err := sq.
			Insert("notes").
			Columns("id", "guid", "mid", "mod", "usn", "tags", "flds", "sfld", "csum", "flags", "data").
			Values(n.id, n.guid, n.mid, n.mod, -1, tags, n.flds, n.sfld, n.csum, n.flags, n.data).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := db.Exec(query, args...); err != nil {
			return fmt.Errorf("insert note %d: %w", n.id, err)
		}
	}

	for i, cr := range cards {
		if !opts.WithScheduling {
			cr.typ, cr.queue = 0, 0
			cr.due = int64(i + 1)
			cr.ivl, cr.factor, cr.reps, cr.lapses, cr.left = 0, 0, 0, 0, 0
			cr.odue, cr.odid = 0, 0
		}
		query, args, err := sq.
			Insert("cards").
			Columns("id", "nid", "did", "ord", "mod", "usn", "type", "queue", "due",
				"ivl", "factor", "reps", "lapses", "left", "odue", "odid", "flags", "data").
			Values(cr.id, cr.nid, cr.did, cr.ord, cr.mod, -1, cr.typ, cr.queue, cr.due,
				cr.ivl, cr.factor, cr.reps, cr.lapses, cr.left, cr.odue, cr.odid, cr.flag, cr.data).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := db.Exec(query, args...); err != nil {
			return fmt.Errorf("insert card %d: %w", cr.id, err)
		}
	}

	return nil
}

// filterJSONByID keeps only the entries of a {"<id>": {...}} JSON object
// whose key is in keep, preserving each entry's raw content.
func filterJSONByID(rawObject string, keep map[int64]bool) (string, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal([]byte(rawObject), &all); err != nil {
		return "", err
	}
	filtered := make(map[string]json.RawMessage, len(keep))
	for key, raw := range all {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		if keep[id] {
			filtered[key] = raw
		}
	}
	out, err := json.Marshal(filtered)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// referencedMedia returns the media file names mentioned by the notes'
// fields, in first-reference order without duplicates.
func (c *SQLite) referencedMedia(notes []noteRow) []string {
	seen := map[string]bool{}
	var files []string
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		files = append(files, name)
	}

	for _, n := range notes {
		for _, field := range strings.Split(n.flds, fieldSep) {
			for _, m := range imgRefPattern.FindAllStringSubmatch(field, -1) {
				add(m[1])
			}
			for _, m := range soundRefPattern.FindAllStringSubmatch(field, -1) {
				add(m[1])
			}
		}
	}
	return files
}

func writePackageZip(destPath, dbPath, mediaDir string, mediaFiles []string) error {
	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	if err := addZipFile(zw, "collection.anki2", dbPath); err != nil {
		zw.Close()
		return err
	}

	// The manifest maps numbered zip entries back to media file names.
	// Files missing on disk are dropped from the package, not errors.
	manifest := map[string]string{}
	index := 0
	for _, name := range mediaFiles {
		src := filepath.Join(mediaDir, filepath.FromSlash(name))
		if _, err := os.Stat(src); err != nil {
			continue
		}
		entry := strconv.Itoa(index)
		if err := addZipFile(zw, entry, src); err != nil {
			zw.Close()
			return err
		}
		manifest[entry] = name
		index++
	}

	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		zw.Close()
		return err
	}
	w, err := zw.Create("media")
	if err != nil {
		zw.Close()
		return err
	}
	if _, err := w.Write(manifestJSON); err != nil {
		zw.Close()
		return err
	}

	return zw.Close()
}

func addZipFile(zw *zip.Writer, name, srcPath string) error {
	in, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer in.Close()

	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}
