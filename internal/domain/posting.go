package domain

import "time"

// Posting is one scraped job listing. SourceID is the sole identity key:
// two postings with the same SourceID are the same real-world listing no
// matter what the other fields say.
type Posting struct {
	SourceID      string    `json:"source_id"`
	Title         string    `json:"title"`
	Company       string    `json:"company"`
	Location      string    `json:"location"`
	Description   *string   `json:"description,omitempty"` // nil means the source never reported one
	Salary        *string   `json:"salary,omitempty"`
	URL           string    `json:"url"`
	DatePosted    *string   `json:"date_posted,omitempty"` // ISO-8601 date as normalized by the adapter
	DateExtracted time.Time `json:"date_extracted"`
	WasOpened     bool      `json:"was_opened"` // detail page was fetched to enrich the record
}
