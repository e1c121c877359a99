package deck

import (
	"sort"
	"strings"
)

// Separator is the reserved delimiter between deck name segments.
const Separator = "::"

type Deck struct {
	Name string
	ID   int64
}

// Node is one entry in the deck hierarchy tree. Children are keyed by the
// full path prefix (e.g. "Math::Algebra"), not the bare segment, so two
// branches can never collide. ID is zero for levels that only exist
// because a descendant's name mentions them.
type Node struct {
	Name     string
	ID       int64
	Children map[string]*Node
}

func Split(name string) []string {
	return strings.Split(name, Separator)
}

// Depth is the number of segments in the deck name.
func Depth(name string) int {
	return strings.Count(name, Separator) + 1
}

// DisplayName is the last segment of the deck name.
func DisplayName(name string) string {
	parts := Split(name)
	return parts[len(parts)-1]
}

// BuildTree reconstructs the nested hierarchy from a flat deck list.
// Every prefix of every deck name gets a node; only the node matching a
// deck's full name carries that deck's ID.
func BuildTree(decks []Deck) map[string]*Node {
	tree := map[string]*Node{}

	for _, d := range decks {
		parts := Split(d.Name)
		current := tree
		for i, part := range parts {
			fullPath := strings.Join(parts[:i+1], Separator)
			node, ok := current[fullPath]
			if !ok {
				node = &Node{
					Name:     part,
					Children: map[string]*Node{},
				}
				current[fullPath] = node
			}
			if i == len(parts)-1 {
				node.ID = d.ID
			}
			current = node.Children
		}
	}

	return tree
}

// DirectChildren returns the names of decks exactly one level below
// parent, sorted. A deck "A::B::C" is not a direct child of "A" even
// though it shares the prefix.
func DirectChildren(decks []Deck, parent string) []string {
	parentDepth := Depth(parent)
	prefix := parent + Separator

	var children []string
	for _, d := range decks {
		if strings.HasPrefix(d.Name, prefix) && Depth(d.Name) == parentDepth+1 {
			children = append(children, d.Name)
		}
	}
	sort.Strings(children)
	return children
}

// Descendants returns every deck below parent, at any depth, sorted.
func Descendants(decks []Deck, parent string) []string {
	prefix := parent + Separator

	var out []string
	for _, d := range decks {
		if strings.HasPrefix(d.Name, prefix) {
			out = append(out, d.Name)
		}
	}
	sort.Strings(out)
	return out
}

// ParentOf returns the full parent name and its display segment, or
// ("", "") for a root-level deck.
func ParentOf(name string) (string, string) {
	parts := Split(name)
	if len(parts) < 2 {
		return "", ""
	}
	parentParts := parts[:len(parts)-1]
	return strings.Join(parentParts, Separator), parentParts[len(parentParts)-1]
}

// SortForExport orders decks so that every parent comes before its
// children: ascending segment count, name order within a level. The sort
// is stable, but the name tiebreak keeps the result deterministic for
// any input order.
func SortForExport(decks []Deck) []Deck {
	sorted := make([]Deck, len(decks))
	copy(sorted, decks)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := Depth(sorted[i].Name), Depth(sorted[j].Name)
		if di != dj {
			return di < dj
		}
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}
