package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/CDMonsalveA/JobSearchTools/internal/domain"
	"github.com/CDMonsalveA/JobSearchTools/internal/scrape/types"
	"github.com/CDMonsalveA/JobSearchTools/internal/scrape/util"
	"github.com/CDMonsalveA/JobSearchTools/internal/store"
)

// ErrStorage classifies errors from the dedup store. An adapter blowing up
// fails only its own run; a storage error means novelty cannot be determined
// at all and fails the whole cycle.
var ErrStorage = errors.New("storage unavailable")

// Outcome is the per-adapter report of one pipeline pass.
type Outcome struct {
	Source       string
	ItemsScraped int // every record observed, novel or not
	Skipped      int // malformed records dropped from the batch
	NewPostings  []domain.Posting
}

type Pipeline struct {
	DB *sql.DB
}

// Run pulls the adapter's stream once. Each record gets an identity and an
// extraction timestamp, then goes through the store's atomic check-and-insert;
// only genuinely-new records are accumulated. Insertion is idempotent, so a
// failed run that inserted some rows needs no rollback: a retry re-observes
// those rows as duplicates.
func (p *Pipeline) Run(ctx context.Context, a types.Adapter) (Outcome, error) {
	out := Outcome{Source: a.Name()}

	err := a.Produce(ctx, func(raw types.Raw) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		out.ItemsScraped++

		posting, ok := buildPosting(a.Name(), raw)
		if !ok {
			out.Skipped++
			log.Printf("[ingest] %s: record without identity skipped title=%q url=%q",
				a.Name(), raw.Title, raw.URL)
			return nil
		}

		added, err := store.InsertPostingIgnore(ctx, p.DB, posting)
		if errors.Is(err, store.ErrMissingSourceID) {
			out.Skipped++
			log.Printf("[ingest] %s: malformed record skipped: %v", a.Name(), err)
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}
		if added {
			out.NewPostings = append(out.NewPostings, posting)
		}
		return nil
	})
	if err != nil {
		return out, fmt.Errorf("adapter %s: %w", a.Name(), err)
	}
	return out, nil
}

// buildPosting assigns the namespaced identity key and stamps extraction
// time. Identity comes from the source's native id when it has one, else a
// content hash of the canonical URL. No id and no URL means the record
// cannot be deduplicated, ever: malformed.
func buildPosting(source string, raw types.Raw) (domain.Posting, bool) {
	hint := strings.TrimSpace(raw.SourceIDHint)
	u := strings.TrimSpace(raw.URL)

	var id string
	switch {
	case hint != "":
		id = source + "_" + hint
	case u != "":
		id = source + "_" + util.HashString("url:"+util.CanonicalURL(u))
	default:
		return domain.Posting{}, false
	}

	return domain.Posting{
		SourceID:      id,
		Title:         util.CleanText(raw.Title),
		Company:       util.CleanText(raw.Company),
		Location:      util.NormalizeLocation(raw.Location),
		Description:   raw.Description,
		Salary:        raw.Salary,
		URL:           u,
		DatePosted:    raw.DatePosted,
		DateExtracted: time.Now().UTC(),
		WasOpened:     raw.WasOpened,
	}, true
}
