package httpapi

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"sudosos.org/internal/audit"
	"sudosos.org/internal/transaction"
)

func (a *API) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req transaction.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := a.deps.Verifier.Verify(r.Context(), req, false)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !res.Ok() {
		writeError(w, r, http.StatusBadRequest, string(res.Reason()))
		return
	}
	res, err = a.deps.Verifier.VerifyBalance(r.Context(), req)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !res.Ok() {
		// Insufficient balance is a conflict, not a malformed request.
		code := http.StatusBadRequest
		if res.Reason() == transaction.ReasonInsufficientBalance {
			code = http.StatusConflict
		}
		writeError(w, r, code, string(res.Reason()))
		return
	}

	resp, err := a.deps.Transactions.Create(r.Context(), req)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "transaction.create", map[string]any{
		"transaction_id": resp.ID,
		"from":           resp.From,
		"total":          resp.TotalPriceInclVat.Amount,
	})
	w.Header().Set("Location", "/v1/transactions/"+strconv.Itoa(resp.ID))
	writeJSON(w, http.StatusCreated, resp)
}

func (a *API) getTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := a.deps.Transactions.Get(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) updateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var req transaction.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := a.deps.Verifier.Verify(r.Context(), req, true)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !res.Ok() {
		writeError(w, r, http.StatusBadRequest, string(res.Reason()))
		return
	}

	resp, err := a.deps.Transactions.Update(r.Context(), id, req)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "transaction.update", map[string]any{
		"transaction_id": resp.ID,
		"total":          resp.TotalPriceInclVat.Amount,
	})
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := a.deps.Transactions.Delete(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "transaction.delete", map[string]any{
		"transaction_id": resp.ID,
	})
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) listTransactions(w http.ResponseWriter, r *http.Request) {
	f, page, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := a.deps.Transactions.List(r.Context(), f, page)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// listUserTransactions lists transactions involving the user, as payer or
// as any sub-transaction recipient.
func (a *API) listUserTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	f, page, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	f.ToID = &id
	resp, err := a.deps.Transactions.List(r.Context(), f, page)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func pathID(r *http.Request) (int, error) {
	return parseID(chi.URLParam(r, "id"))
}

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

var errInvalidID = &badParamError{"id must be a positive integer"}

type badParamError struct{ msg string }

func (e *badParamError) Error() string { return e.msg }

func parseFilter(q url.Values) (transaction.Filter, transaction.Page, error) {
	var f transaction.Filter
	var page transaction.Page

	intParams := map[string]**int{
		"transactionId":       &f.TransactionID,
		"fromId":              &f.FromID,
		"createdById":         &f.CreatedByID,
		"toId":                &f.ToID,
		"pointOfSaleId":       &f.PointOfSaleID,
		"pointOfSaleRevision": &f.PointOfSaleRevision,
		"containerId":         &f.ContainerID,
		"containerRevision":   &f.ContainerRevision,
		"productId":           &f.ProductID,
		"productRevision":     &f.ProductRevision,
		"invoiceId":           &f.InvoiceID,
		"excludeById":         &f.ExcludeByID,
		"excludeFromId":       &f.ExcludeFromID,
	}
	for name, dst := range intParams {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return f, page, &badParamError{name + " must be an integer"}
		}
		*dst = &v
	}

	if raw := q.Get("exclusiveToId"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return f, page, &badParamError{"exclusiveToId must be a boolean"}
		}
		f.ExclusiveToID = v
	}
	for name, dst := range map[string]**time.Time{
		"fromDate": &f.FromDate,
		"tillDate": &f.TillDate,
	} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, page, &badParamError{name + " must be RFC3339"}
		}
		*dst = &v
	}

	for name, dst := range map[string]*int{
		"take": &page.Take,
		"skip": &page.Skip,
	} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return f, page, &badParamError{name + " must be a non-negative integer"}
		}
		*dst = v
	}
	return f, page, nil
}
