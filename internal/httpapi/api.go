package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"sudosos.org/internal/balance"
	"sudosos.org/internal/obs"
	"sudosos.org/internal/report"
	"sudosos.org/internal/transaction"
	"sudosos.org/internal/transfer"
)

// ReadyProbe checks readiness (e.g. a database ping).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Deps wires the API to the domain services.
type Deps struct {
	Ready         ReadyProbe
	Version       string
	Verifier      *transaction.Verifier
	Transactions  *transaction.Service
	Repo          transaction.Repository
	Balances      *balance.Service
	Transfers     *transfer.Service
	Reports       *report.Builder
	JWTSecret     string
	RateBurst     int
	RatePerSecond int
}

// API is the HTTP layer.
type API struct {
	r    chi.Router
	deps Deps
}

func New(deps Deps) *API {
	if deps.RateBurst <= 0 {
		deps.RateBurst = 20
	}
	if deps.RatePerSecond <= 0 {
		deps.RatePerSecond = 10
	}
	a := &API{deps: deps}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logging)
	r.Use(SecurityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(func(next http.Handler) http.Handler {
		return RateLimit(next, deps.RateBurst, deps.RatePerSecond)
	})
	r.Use(func(next http.Handler) http.Handler {
		return MaxBodyBytes(next, 1<<20)
	})
	r.Use(a.withAuth)

	r.Get("/healthz", a.healthz)
	r.Get("/readyz", a.ready)
	r.Handle("/metrics", obs.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/info", a.info)

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", a.listTransactions)
			r.Post("/", a.createTransaction)
			r.Get("/{id}", a.getTransaction)
			r.Put("/{id}", a.updateTransaction)
			r.Delete("/{id}", a.deleteTransaction)
		})

		r.Route("/users/{id}", func(r chi.Router) {
			r.Get("/balance", a.getBalance)
			r.Get("/transactions", a.listUserTransactions)
			r.Get("/transfers", a.listTransfers)
			r.Get("/fines", a.listFines)
		})

		r.Post("/transfers", a.createTransfer)
		r.Post("/fines", a.createFine)

		r.Get("/reports/transactions", a.transactionReport)
	})

	a.r = r
	return a
}

// Handler returns the full handler, wrapped with metrics.
func (a *API) Handler() http.Handler {
	return obs.Instrument(a.r)
}

func (a *API) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "sudosos-api",
		"version": a.deps.Version,
	})
}

func (a *API) ready(w http.ResponseWriter, r *http.Request) {
	if err := a.deps.Ready.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "sudosos-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.deps.Version,
	})
}
