package httpapi

import (
	"net/http"

	"sudosos.org/internal/audit"
	"sudosos.org/internal/money"
	"sudosos.org/internal/transfer"
)

func (a *API) createTransfer(w http.ResponseWriter, r *http.Request) {
	var req transfer.Transfer
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := a.deps.Transfers.Create(r.Context(), req)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "transfer.create", map[string]any{
		"transfer_id": saved.ID,
		"amount":      saved.Amount.Amount,
	})
	writeJSON(w, http.StatusCreated, saved)
}

func (a *API) createFine(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int         `json:"userId"`
		Amount money.Money `json:"amount"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID <= 0 {
		writeError(w, r, http.StatusBadRequest, "userId must be a positive integer")
		return
	}
	saved, err := a.deps.Transfers.Fine(r.Context(), req.UserID, req.Amount)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "fine.create", map[string]any{
		"fine_id": saved.ID,
		"user_id": saved.UserID,
		"amount":  saved.Amount.Amount,
	})
	writeJSON(w, http.StatusCreated, saved)
}

func (a *API) listTransfers(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	transfers, err := a.deps.Transfers.Transfers(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if transfers == nil {
		transfers = []transfer.Transfer{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": transfers})
}

func (a *API) listFines(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	fines, err := a.deps.Transfers.Fines(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if fines == nil {
		fines = []transfer.Fine{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": fines})
}
