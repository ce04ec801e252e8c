package types

import "context"

// Raw is one posting as extracted by an adapter, before the ingest pipeline
// assigns identity and stamps extraction time.
type Raw struct {
	SourceIDHint string // native id at the source, may be empty
	Title        string
	Company      string
	Location     string
	Description  *string
	Salary       *string
	URL          string
	DatePosted   *string // ISO-8601 date, normalized by the adapter
	WasOpened    bool    // a detail page was fetched for this record
}

// Adapter produces a finite stream of raw postings for one career site.
// Produce calls emit once per record and must stop and return emit's error
// as soon as it is non-nil (that is how cancellation and storage failures
// reach the adapter). The stream is one-pass: if Produce fails partway,
// records already emitted stay processed and the run is marked failed.
type Adapter interface {
	Name() string
	Produce(ctx context.Context, emit func(Raw) error) error
}
