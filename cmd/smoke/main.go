// Command smoke runs the core purchase flow in process against the memory
// store: seed a catalog, buy, check the derived balance, deposit, recheck.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"sudosos.org/internal/balance"
	"sudosos.org/internal/catalog"
	"sudosos.org/internal/money"
	"sudosos.org/internal/report"
	"sudosos.org/internal/store/memory"
	"sudosos.org/internal/transaction"
	"sudosos.org/internal/transfer"
	"sudosos.org/internal/user"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store := memory.NewStore()
	seed(store)

	cache := balance.NewCache()
	balances := balance.NewService(cache, store)
	verifier := transaction.NewVerifier(store, store, balances)
	transactions := transaction.NewService(store, store, cache)
	transfers := transfer.NewService(store, cache)
	reports := report.NewBuilder(store)

	// Deposit first so the balance check passes.
	alice := 1
	bar := 2
	if _, err := transfers.Create(ctx, transfer.Transfer{
		To:          &alice,
		Amount:      money.New(1000),
		Description: "initial deposit",
	}); err != nil {
		fail("deposit", err)
	}

	req := transaction.Request{
		From:              alice,
		CreatedBy:         alice,
		PointOfSale:       &catalog.Ref{ID: 1, Revision: 1},
		TotalPriceInclVat: ptr(money.New(363)),
		SubTransactions: []transaction.SubRequest{{
			To:                bar,
			Container:         &catalog.Ref{ID: 1, Revision: 1},
			TotalPriceInclVat: ptr(money.New(363)),
			Rows: []transaction.RowRequest{{
				Product:           &catalog.Ref{ID: 1, Revision: 1},
				Amount:            3,
				TotalPriceInclVat: ptr(money.New(363)),
			}},
		}},
	}
	res, err := verifier.Verify(ctx, req, false)
	if err != nil {
		fail("verify", err)
	}
	if !res.Ok() {
		fail("verify", fmt.Errorf("rejected: %s", res.Reason()))
	}
	if res, err = verifier.VerifyBalance(ctx, req); err != nil {
		fail("verify balance", err)
	} else if !res.Ok() {
		fail("verify balance", fmt.Errorf("rejected: %s", res.Reason()))
	}

	resp, err := transactions.Create(ctx, req)
	if err != nil {
		fail("create transaction", err)
	}
	step("created transaction %d, total %d", resp.ID, resp.TotalPriceInclVat.Amount)

	bal, err := balances.Balance(ctx, alice)
	if err != nil {
		fail("balance", err)
	}
	if bal.Amount != 1000-363 {
		fail("balance", fmt.Errorf("got %d, want %d", bal.Amount, 1000-363))
	}
	step("balance after purchase: %d", bal.Amount)

	rep, err := reports.Build(ctx, mustList(ctx, store), report.DefaultOptions())
	if err != nil {
		fail("report", err)
	}
	if rep.TotalInclVat.Amount != 363 {
		fail("report", fmt.Errorf("incl total %d, want 363", rep.TotalInclVat.Amount))
	}
	step("report: %d products, incl %d, excl %d",
		len(rep.Products), rep.TotalInclVat.Amount, rep.TotalExclVat.Amount)

	fmt.Println("smoke: ok")
}

func seed(store *memory.Store) {
	vat := catalog.VatRate{ID: 1, Percentage: 21}
	cat := catalog.Category{ID: 1, Name: "beer"}
	store.PutProduct(catalog.ProductRevision{
		Ref:          catalog.Ref{ID: 1, Revision: 1},
		Name:         "Pale Ale",
		PriceInclVat: money.New(121),
		Vat:          vat,
		Category:     cat,
	})
	store.PutContainer(catalog.ContainerRevision{
		Ref:      catalog.Ref{ID: 1, Revision: 1},
		Name:     "taps",
		Products: []catalog.Ref{{ID: 1, Revision: 1}},
	})
	store.PutPointOfSale(catalog.PointOfSaleRevision{
		Ref:        catalog.Ref{ID: 1, Revision: 1},
		Name:       "bar",
		Containers: []catalog.Ref{{ID: 1, Revision: 1}},
	})
	store.PutUser(user.User{ID: 1, FirstName: "Alice", Active: true, Type: user.TypeMember, AcceptedToS: user.TosAccepted})
	store.PutUser(user.User{ID: 2, FirstName: "Bar", Active: true, Type: user.TypeOrgan, AcceptedToS: user.TosNotRequired})
}

func mustList(ctx context.Context, store *memory.Store) []transaction.Transaction {
	txs, _, err := store.List(ctx, transaction.Filter{}, transaction.Page{Take: 100})
	if err != nil {
		fail("list", err)
	}
	return txs
}

func ptr[T any](v T) *T { return &v }

func step(format string, args ...any) {
	fmt.Printf("smoke: "+format+"\n", args...)
}

func fail(stage string, err error) {
	fmt.Fprintf(os.Stderr, "smoke: %s: %v\n", stage, err)
	os.Exit(1)
}
