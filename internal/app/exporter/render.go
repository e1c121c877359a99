package exporter

import (
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tverlann/anki-deck-export/internal/domain/deck"
	"github.com/tverlann/anki-deck-export/internal/infra/collection"
	"github.com/tverlann/anki-deck-export/internal/infra/config"
)

// dedupSep joins raw field values into a card's dedup key. The host
// uses the same byte to join fields on disk, so it can never occur
// inside a single value.
const dedupSep = "\x1f"

// Renderer turns cards and decks into HTML documents. Placeholders use
// html/template's {{...}} syntax, which cannot collide with the literal
// braces of the embedded stylesheet.
type Renderer struct {
	media    *MediaRewriter
	cfg      config.HTML
	log      *zap.SugaredLogger
	deckTmpl *template.Template
	cardTmpl *template.Template
}

func NewRenderer(media *MediaRewriter, cfg config.HTML, log *zap.SugaredLogger) *Renderer {
	return &Renderer{
		media:    media,
		cfg:      cfg,
		log:      log,
		deckTmpl: template.Must(template.New("deck").Parse(deckTemplate)),
		cardTmpl: template.Must(template.New("card").Parse(cardTemplate)),
	}
}

type cardData struct {
	Front template.HTML
	Back  template.HTML
}

type deckPage struct {
	DeckName   string
	CardCount  int
	ExportDate string
	Cards      template.HTML
	Navigation template.HTML
	ParentLink template.HTML
	Stacked    bool
}

// RenderCard renders one card fragment. The first field becomes the
// front region, the remaining fields concatenate into the back, each
// passed through the media rewriter first. A card that is empty on both
// sides reports ok=false and produces nothing.
func (r *Renderer) RenderCard(card collection.Card, destMediaDir string) (string, bool, error) {
	if !hasRenderableContent(card.Fields) {
		return "", false, nil
	}

	var front, back strings.Builder
	for i, field := range card.Fields {
		value := r.media.Rewrite(field.Value, destMediaDir)

		var fieldHTML string
		if r.cfg.ShowFieldNames {
			fieldHTML = fmt.Sprintf(`<div class="field"><strong>%s</strong>%s</div>`,
				template.HTMLEscapeString(field.Name), value)
		} else {
			fieldHTML = fmt.Sprintf(`<div class="field">%s</div>`, value)
		}

		if i == 0 {
			front.WriteString(fieldHTML)
		} else {
			back.WriteString(fieldHTML)
		}
	}

	var b strings.Builder
	err := r.cardTmpl.Execute(&b, cardData{
		Front: template.HTML(front.String()),
		Back:  template.HTML(back.String()),
	})
	if err != nil {
		return "", false, fmt.Errorf("render card %d: %w", card.ID, err)
	}
	return b.String(), true, nil
}

func hasRenderableContent(fields []collection.Field) bool {
	for _, f := range fields {
		if strings.TrimSpace(f.Value) != "" {
			return true
		}
	}
	return false
}

// RenderCards renders a deck's card list in order, suppressing
// duplicates (same raw field values, first occurrence wins) and cards
// that render to nothing. The returned count is the number of fragments
// actually produced.
func (r *Renderer) RenderCards(cards []collection.Card, destMediaDir string) (string, int) {
	seen := map[string]bool{}
	var fragments []string

	for _, card := range cards {
		key := dedupKey(card)
		if seen[key] {
			continue
		}
		seen[key] = true

		fragment, ok, err := r.RenderCard(card, destMediaDir)
		if err != nil {
			r.log.Warnw("skipping card", "card", card.ID, "error", err)
			continue
		}
		if !ok {
			continue
		}
		fragments = append(fragments, fragment)
	}

	return strings.Join(fragments, "\n"), len(fragments)
}

func dedupKey(card collection.Card) string {
	values := make([]string, len(card.Fields))
	for i, f := range card.Fields {
		values[i] = f.Value
	}
	return strings.Join(values, dedupSep)
}

// RenderDeckIndex renders a deck's index.html document.
func (r *Renderer) RenderDeckIndex(deckName, cardsHTML string, cardCount int, decks []deck.Deck, now time.Time) (string, error) {
	if cardCount == 0 && cardsHTML == "" {
		cardsHTML = "<p>No cards in this deck.</p>"
	}

	var b strings.Builder
	err := r.deckTmpl.Execute(&b, deckPage{
		DeckName:   deckName,
		CardCount:  cardCount,
		ExportDate: now.Format("2006-01-02 15:04:05"),
		Cards:      template.HTML(cardsHTML),
		Navigation: r.navigationBlock(decks, deckName),
		ParentLink: parentLinkBlock(deckName),
		Stacked:    !r.cfg.SplitScreen,
	})
	if err != nil {
		return "", fmt.Errorf("render deck index for %s: %w", deckName, err)
	}
	return b.String(), nil
}

// navigationBlock lists the deck's direct children, sorted by display
// segment, each linking into its subfolder.
func (r *Renderer) navigationBlock(decks []deck.Deck, deckName string) template.HTML {
	children := deck.DirectChildren(decks, deckName)
	if len(children) == 0 {
		return ""
	}

	segments := make([]string, 0, len(children))
	for _, child := range children {
		segments = append(segments, deck.DisplayName(child))
	}
	sort.Strings(segments)

	var b strings.Builder
	b.WriteString(`<div class="navigation"><h3>Child Decks</h3><ul>`)
	for _, segment := range segments {
		escaped := template.HTMLEscapeString(segment)
		fmt.Fprintf(&b, `<li><a href="%s/index.html">%s</a></li>`, escaped, escaped)
	}
	b.WriteString(`</ul></div>`)
	return template.HTML(b.String())
}

func parentLinkBlock(deckName string) template.HTML {
	_, parentSegment := deck.ParentOf(deckName)
	if parentSegment == "" {
		return ""
	}
	return template.HTML(fmt.Sprintf(
		`<div class="parent-link"><a href="../index.html">&#8592; Back to %s</a></div>`,
		template.HTMLEscapeString(parentSegment),
	))
}

const cardTemplate = `<div class="card">
    <div class="front">
        {{.Front}}
    </div>
    <div class="back">
        {{.Back}}
    </div>
</div>`

const deckTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>{{.DeckName}} - Anki Deck Export</title>
    <style>
        body {
            font-family: Arial, sans-serif;
            line-height: 1.6;
            margin: 0;
            padding: 20px;
            background-color: #f5f5f5;
        }
        .container {
            max-width: 1200px;
            margin: 0 auto;
            background: white;
            padding: 20px;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
        }
        .navigation {
            background: white;
            padding: 15px;
            border-radius: 4px;
            margin-bottom: 20px;
            box-shadow: 0 1px 3px rgba(0,0,0,0.1);
        }
        .navigation ul {
            list-style: none;
            padding: 0;
            margin: 0;
            display: flex;
            flex-wrap: wrap;
            gap: 10px;
        }
        .navigation a {
            display: inline-block;
            padding: 8px 16px;
            background: #007bff;
            color: white;
            text-decoration: none;
            border-radius: 4px;
        }
        .navigation a:hover {
            background: #0056b3;
        }
        .parent-link {
            margin-bottom: 20px;
        }
        .parent-link a {
            color: #007bff;
            text-decoration: none;
        }
        .parent-link a:hover {
            text-decoration: underline;
        }
        .card {
            display: flex;
            margin-bottom: 20px;
            border: 1px solid #ddd;
            border-radius: 4px;
            overflow: hidden;
        }
        .stacked .card {
            display: block;
        }
        .front, .back {
            flex: 1;
            padding: 20px;
        }
        .front {
            background: #f8f9fa;
            border-right: 1px solid #ddd;
        }
        .stacked .front {
            border-right: none;
            border-bottom: 1px solid #ddd;
        }
        .back {
            background: white;
        }
        .field {
            margin-bottom: 10px;
        }
        .field strong {
            display: block;
            margin-bottom: 5px;
            color: #666;
        }
        img {
            max-width: 100%;
            height: auto;
        }
    </style>
</head>
<body>
    <div class="container{{if .Stacked}} stacked{{end}}">
        {{.ParentLink}}
        {{.Navigation}}
        <h1>{{.DeckName}}</h1>
        <p>Total Cards: {{.CardCount}}</p>
        <p>Export Date: {{.ExportDate}}</p>
        <div class="cards">
            {{.Cards}}
        </div>
    </div>
</body>
</html>`
