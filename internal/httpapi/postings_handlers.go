package httpapi

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/CDMonsalveA/JobSearchTools/internal/store"
)

type PostingsHandler struct {
	DB *sql.DB
}

func (h PostingsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	postings, err := store.ListPostings(r.Context(), h.DB, store.ListPostingsOpts{
		Window: q.Get("window"),
		Limit:  limit,
	})
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	total, err := store.CountPostings(r.Context(), h.DB)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	writeJSON(w, map[string]any{
		"total":    total,
		"postings": postings,
	})
}
