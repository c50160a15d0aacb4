package httpapi

import (
	"net/http"
	"strconv"

	"sudosos.org/internal/report"
	"sudosos.org/internal/transaction"
)

// reportPageSize bounds each repository read while gathering the full
// transaction set a report aggregates over.
const reportPageSize = 500

// transactionReport aggregates the filtered transaction set into product,
// category and VAT groups. The report is built from live revision prices on
// every request and is never persisted.
func (a *API) transactionReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, _, err := parseFilter(q)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := f.Validate(); err != nil {
		handleDomainError(w, r, err)
		return
	}

	opts := report.DefaultOptions()
	if f.ExclusiveToID && f.ToID != nil {
		opts.ExclusiveTo = f.ToID
	}
	if raw := q.Get("includeInvoiced"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "includeInvoiced must be a boolean")
			return
		}
		opts.DropInvoiced = !v
	}

	var txs []transaction.Transaction
	page := transaction.Page{Take: reportPageSize}
	for {
		batch, count, err := a.deps.Repo.List(r.Context(), f, page)
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		txs = append(txs, batch...)
		page.Skip += len(batch)
		if len(batch) == 0 || page.Skip >= count {
			break
		}
	}

	rep, err := a.deps.Reports.Build(r.Context(), txs, opts)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
