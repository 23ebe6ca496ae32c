package indexer_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"cpindex/internal/indexer"
	"cpindex/internal/testutil"
)

func TestDeletePlanLifecycle(t *testing.T) {
	f := testutil.NewTestService(t)
	ctx := context.Background()

	first := addDeath(t, f, "Maria Silva", "Livro 1")
	second := addDeath(t, f, "João Souza", "Livro 1")
	kept := addDeath(t, f, "Pedro Lima", "Livro 1")

	plan, err := f.Service.PlanDelete(ctx, "1-2, 50, abc")
	if err != nil {
		t.Fatalf("PlanDelete() error = %v", err)
	}
	if len(plan.Records) != 2 || plan.Records[0].ID != first || plan.Records[1].ID != second {
		t.Fatalf("plan records = %v, want %d and %d", plan.Records, first, second)
	}
	if len(plan.Warnings) != 1 {
		t.Errorf("plan warnings = %q, want one", plan.Warnings)
	}
	if plan.State() != indexer.PlanPending {
		t.Errorf("State() = %v, want pending", plan.State())
	}

	if _, err := f.Service.ExecuteDelete(ctx, testutil.Editor, plan); !errors.Is(err, indexer.ErrNotConfirmed) {
		t.Fatalf("ExecuteDelete(pending) error = %v, want ErrNotConfirmed", err)
	}
	if _, err := f.Service.GetRecord(ctx, first); err != nil {
		t.Fatalf("unconfirmed plan deleted record %d: %v", first, err)
	}

	if err := plan.Confirm(); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	n, err := f.Service.ExecuteDelete(ctx, testutil.Editor, plan)
	if err != nil {
		t.Fatalf("ExecuteDelete() error = %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d records, want 2", n)
	}
	if plan.State() != indexer.PlanDone {
		t.Errorf("State() = %v, want done", plan.State())
	}

	if _, err := f.Service.ExecuteDelete(ctx, testutil.Editor, plan); !errors.Is(err, indexer.ErrPlanExecuted) {
		t.Errorf("second ExecuteDelete() error = %v, want ErrPlanExecuted", err)
	}
	if err := plan.Confirm(); !errors.Is(err, indexer.ErrPlanExecuted) {
		t.Errorf("Confirm() after execution error = %v, want ErrPlanExecuted", err)
	}
	if _, err := f.Service.GetRecord(ctx, kept); err != nil {
		t.Errorf("record outside the plan is gone: %v", err)
	}
}

func TestPlanDeleteNoValidIDs(t *testing.T) {
	f := testutil.NewTestService(t)

	if _, err := f.Service.PlanDelete(context.Background(), "abc, 0"); !errors.Is(err, indexer.ErrNoValidIDs) {
		t.Errorf("PlanDelete() error = %v, want ErrNoValidIDs", err)
	}
}

func TestDeleteBook(t *testing.T) {
	f := testutil.NewTestService(t)
	ctx := context.Background()

	addDeath(t, f, "Maria Silva", "Livro 1")
	addDeath(t, f, "João Souza", "Livro 1")
	other := addDeath(t, f, "Pedro Lima", "Livro 2")

	if _, err := f.Service.PlanDeleteBook(ctx, testutil.Editor, "Livro 1"); !errors.Is(err, indexer.ErrForbidden) {
		t.Fatalf("PlanDeleteBook(editor) error = %v, want ErrForbidden", err)
	}

	plan, err := f.Service.PlanDeleteBook(ctx, testutil.Admin, "Livro 1")
	if err != nil {
		t.Fatalf("PlanDeleteBook() error = %v", err)
	}
	if len(plan.Records) != 2 {
		t.Fatalf("plan lists %d records, want 2", len(plan.Records))
	}
	if err := plan.Confirm(); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}

	if _, err := f.Service.ExecuteDelete(ctx, testutil.Editor, plan); !errors.Is(err, indexer.ErrForbidden) {
		t.Errorf("ExecuteDelete(editor) error = %v, want ErrForbidden", err)
	}
	n, err := f.Service.ExecuteDelete(ctx, testutil.Admin, plan)
	if err != nil {
		t.Fatalf("ExecuteDelete() error = %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d records, want 2", n)
	}

	books, err := f.Service.Books(ctx)
	if err != nil {
		t.Fatalf("Books() error = %v", err)
	}
	if len(books) != 1 || books[0] != "Livro 2" {
		t.Errorf("Books() = %q, want only Livro 2", books)
	}
	if _, err := f.Service.GetRecord(ctx, other); err != nil {
		t.Errorf("record of another book is gone: %v", err)
	}
}

func TestDeletePlanWideRange(t *testing.T) {
	f := testutil.NewTestService(t)
	ctx := context.Background()

	first := addDeath(t, f, "Maria Silva", "Livro 1")
	second := addDeath(t, f, "João Souza", "Livro 1")

	plan, err := f.Service.PlanDelete(ctx, "1-40000")
	if err != nil {
		t.Fatalf("PlanDelete() error = %v", err)
	}
	if len(plan.IDs) != 40000 {
		t.Errorf("plan ids = %d, want 40000", len(plan.IDs))
	}
	if len(plan.Records) != 2 || plan.Records[0].ID != first || plan.Records[1].ID != second {
		t.Fatalf("plan records = %v, want %d and %d", plan.Records, first, second)
	}

	if err := plan.Confirm(); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	n, err := f.Service.ExecuteDelete(ctx, testutil.Editor, plan)
	if err != nil {
		t.Fatalf("ExecuteDelete() error = %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d records, want 2", n)
	}
}

func TestExecuteDeleteConcurrently(t *testing.T) {
	f := testutil.NewTestService(t)
	ctx := context.Background()
	addDeath(t, f, "Maria Silva", "Livro 1")
	addDeath(t, f, "João Souza", "Livro 1")

	plan, err := f.Service.PlanDelete(ctx, "1-2")
	if err != nil {
		t.Fatalf("PlanDelete() error = %v", err)
	}
	if err := plan.Confirm(); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.Service.ExecuteDelete(ctx, testutil.Editor, plan)
		}()
	}
	wg.Wait()

	var ok, executed int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, indexer.ErrPlanExecuted):
			executed++
		default:
			t.Errorf("ExecuteDelete() error = %v", err)
		}
	}
	if ok != 1 || executed != workers-1 {
		t.Errorf("successful runs = %d, already executed = %d; want 1 and %d", ok, executed, workers-1)
	}
}
