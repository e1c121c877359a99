package exporter

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tverlann/anki-deck-export/internal/domain/deck"
	"github.com/tverlann/anki-deck-export/internal/infra/collection"
	"github.com/tverlann/anki-deck-export/internal/infra/config"
)

func newTestRenderer(t *testing.T, cfg config.HTML) *Renderer {
	t.Helper()
	media := newTestRewriter(t, t.TempDir(), 0)
	return NewRenderer(media, cfg, zap.NewNop().Sugar())
}

func basicCard(id int64, front, back string) collection.Card {
	return collection.Card{
		ID: id,
		Fields: []collection.Field{
			{Name: "Front", Value: front},
			{Name: "Back", Value: back},
		},
	}
}

func TestRenderCardSplitsFrontAndBack(t *testing.T) {
	r := newTestRenderer(t, config.HTML{SplitScreen: true, ShowFieldNames: true})

	html, ok, err := r.RenderCard(basicCard(1, "2+2?", "4"), t.TempDir())
	if err != nil {
		t.Fatalf("render card: %v", err)
	}
	if !ok {
		t.Fatal("card should render")
	}

	frontPart := html[:strings.Index(html, `class="back"`)]
	backPart := html[strings.Index(html, `class="back"`):]
	if !strings.Contains(frontPart, "2+2?") {
		t.Fatalf("front region missing question:\n%s", html)
	}
	if strings.Contains(frontPart, ">4<") {
		t.Fatalf("answer leaked into front region:\n%s", html)
	}
	if !strings.Contains(backPart, "4") {
		t.Fatalf("back region missing answer:\n%s", html)
	}
	if !strings.Contains(html, "<strong>Front</strong>") || !strings.Contains(html, "<strong>Back</strong>") {
		t.Fatalf("field labels missing:\n%s", html)
	}
}

func TestRenderCardConcatenatesExtraFieldsIntoBack(t *testing.T) {
	r := newTestRenderer(t, config.HTML{ShowFieldNames: true})

	card := collection.Card{
		ID: 1,
		Fields: []collection.Field{
			{Name: "Question", Value: "q"},
			{Name: "Answer", Value: "a"},
			{Name: "Notes", Value: "extra context"},
		},
	}
	html, ok, err := r.RenderCard(card, t.TempDir())
	if err != nil || !ok {
		t.Fatalf("render card: ok=%v err=%v", ok, err)
	}

	backPart := html[strings.Index(html, `class="back"`):]
	if !strings.Contains(backPart, "a") || !strings.Contains(backPart, "extra context") {
		t.Fatalf("back region should hold all non-first fields:\n%s", html)
	}
}

func TestRenderCardWithoutFieldNames(t *testing.T) {
	r := newTestRenderer(t, config.HTML{ShowFieldNames: false})

	html, ok, err := r.RenderCard(basicCard(1, "q", "a"), t.TempDir())
	if err != nil || !ok {
		t.Fatalf("render card: ok=%v err=%v", ok, err)
	}
	if strings.Contains(html, "<strong>") {
		t.Fatalf("field names should be hidden:\n%s", html)
	}
}

func TestRenderCardEmptyIsSkipped(t *testing.T) {
	r := newTestRenderer(t, config.HTML{ShowFieldNames: true})

	_, ok, err := r.RenderCard(basicCard(1, "  ", ""), t.TempDir())
	if err != nil {
		t.Fatalf("render card: %v", err)
	}
	if ok {
		t.Fatal("empty card must be skipped")
	}
}

func TestRenderCardsDeduplicates(t *testing.T) {
	r := newTestRenderer(t, config.HTML{ShowFieldNames: false})

	cards := []collection.Card{
		basicCard(1, "q", "a"),
		basicCard(2, "q", "a"),
		basicCard(3, "other", "x"),
	}
	html, count := r.RenderCards(cards, t.TempDir())

	if count != 2 {
		t.Fatalf("count = %d, want 2 after dedup", count)
	}
	if strings.Count(html, `class="card"`) != 2 {
		t.Fatalf("expected 2 card fragments:\n%s", html)
	}
}

func TestRenderCardsSkipsEmptyAndCountsAfterFiltering(t *testing.T) {
	r := newTestRenderer(t, config.HTML{})

	cards := []collection.Card{
		basicCard(1, "", ""),
		basicCard(2, "q", "a"),
	}
	_, count := r.RenderCards(cards, t.TempDir())
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
}

func TestRenderDeckIndexEmptyDeck(t *testing.T) {
	r := newTestRenderer(t, config.HTML{SplitScreen: true})

	html, err := r.RenderDeckIndex("Empty", "", 0, nil, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("render index: %v", err)
	}
	if !strings.Contains(html, "Total Cards: 0") {
		t.Fatalf("missing zero card count:\n%s", html)
	}
	if !strings.Contains(html, "No cards in this deck.") {
		t.Fatalf("missing empty placeholder:\n%s", html)
	}
	if !strings.Contains(html, "2026-03-01 12:00:00") {
		t.Fatalf("missing export date:\n%s", html)
	}
}

func TestRenderDeckIndexNavigationAndParent(t *testing.T) {
	r := newTestRenderer(t, config.HTML{SplitScreen: true})

	decks := []deck.Deck{
		{Name: "Math", ID: 1},
		{Name: "Math::Algebra", ID: 2},
		{Name: "Math::Calculus", ID: 3},
		{Name: "Math::Algebra::Linear", ID: 4},
	}

	html, err := r.RenderDeckIndex("Math", "", 0, decks, time.Now())
	if err != nil {
		t.Fatalf("render index: %v", err)
	}
	if !strings.Contains(html, `<a href="Algebra/index.html">Algebra</a>`) {
		t.Fatalf("missing Algebra nav link:\n%s", html)
	}
	if !strings.Contains(html, `<a href="Calculus/index.html">Calculus</a>`) {
		t.Fatalf("missing Calculus nav link:\n%s", html)
	}
	if strings.Contains(html, "Linear/index.html") {
		t.Fatalf("grandchild must not be in navigation:\n%s", html)
	}
	if strings.Contains(html, "parent-link") {
		t.Fatalf("root deck must not have a parent link:\n%s", html)
	}

	child, err := r.RenderDeckIndex("Math::Algebra", "", 0, decks, time.Now())
	if err != nil {
		t.Fatalf("render child index: %v", err)
	}
	if !strings.Contains(child, `<a href="../index.html">`) {
		t.Fatalf("missing parent link:\n%s", child)
	}
	if !strings.Contains(child, "Back to Math") {
		t.Fatalf("parent link must be labelled with the parent segment:\n%s", child)
	}
}

func TestDeckIndexPreservesStylesheetBraces(t *testing.T) {
	r := newTestRenderer(t, config.HTML{SplitScreen: true})

	html, err := r.RenderDeckIndex("Math", "", 0, nil, time.Now())
	if err != nil {
		t.Fatalf("render index: %v", err)
	}
	// Literal CSS braces must survive template substitution untouched.
	if !strings.Contains(html, "body {") || !strings.Contains(html, ".card {") {
		t.Fatalf("stylesheet mangled:\n%s", html)
	}
	if strings.Contains(html, "{{") {
		t.Fatalf("unsubstituted placeholder left in output:\n%s", html)
	}
}

func TestDeckIndexStackedLayoutWhenSplitScreenOff(t *testing.T) {
	r := newTestRenderer(t, config.HTML{SplitScreen: false})

	html, err := r.RenderDeckIndex("Math", "", 0, nil, time.Now())
	if err != nil {
		t.Fatalf("render index: %v", err)
	}
	if !strings.Contains(html, `class="container stacked"`) {
		t.Fatalf("expected stacked container:\n%s", html)
	}
}
