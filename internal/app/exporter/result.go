package exporter

// DeckResult records the outcome of exporting one deck. Either Path
// (success) or Err (failure) is set.
type DeckResult struct {
	Name      string
	OK        bool
	Path      string
	CardCount int
	Err       string
}

// Result aggregates one export run. It is built by the single
// orchestrator goroutine and immutable once returned.
type Result struct {
	Success int
	Failed  int
	Total   int
	Decks   []DeckResult
	LogFile string
}

func (r *Result) record(dr DeckResult) {
	if dr.OK {
		r.Success++
	} else {
		r.Failed++
	}
	r.Decks = append(r.Decks, dr)
}
