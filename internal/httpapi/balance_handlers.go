package httpapi

import (
	"net/http"
	"time"
)

// getBalance returns the user's derived balance. With ?at=<RFC3339> the
// balance is reconstructed as of that instant, bypassing the cache.
func (a *API) getBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if raw := r.URL.Query().Get("at"); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "at must be RFC3339")
			return
		}
		bal, err := a.deps.Balances.BalanceAsOf(r.Context(), id, at)
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"userId":  id,
			"amount":  bal,
			"asOf":    at.UTC().Format(time.RFC3339),
			"derived": true,
		})
		return
	}

	bal, err := a.deps.Balances.Balance(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"userId":  id,
		"amount":  bal,
		"derived": true,
	})
}
