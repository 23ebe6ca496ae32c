package indexer

import (
	"context"
	"fmt"
	"sync"

	"cpindex/internal/record"
)

// PlanState is the lifecycle of a DeletePlan.
type PlanState int

const (
	PlanPending PlanState = iota
	PlanConfirmed
	PlanDone
)

func (s PlanState) String() string {
	switch s {
	case PlanPending:
		return "pending"
	case PlanConfirmed:
		return "confirmed"
	case PlanDone:
		return "done"
	}
	return fmt.Sprintf("PlanState(%d)", int(s))
}

// DeletePlan enumerates the records a bulk delete will remove. It must be
// confirmed before ExecuteDelete runs it, and runs at most once even when
// executed from several goroutines.
type DeletePlan struct {
	// IDs are the requested ids for an id-spec plan.
	IDs []int64
	// Book is set for a delete-by-book plan.
	Book string
	// Records are the records that currently match.
	Records []*record.Record
	// Warnings lists the skipped tokens of the id specification.
	Warnings []string

	mu    sync.Mutex // held for the whole execution
	state PlanState
}

// State returns the current state of the plan.
func (p *DeletePlan) State() PlanState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Confirm moves a pending plan to confirmed. Confirming twice is allowed;
// confirming an executed plan is not.
func (p *DeletePlan) Confirm() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == PlanDone {
		return ErrPlanExecuted
	}
	p.state = PlanConfirmed
	return nil
}

// PlanDelete resolves an id specification into a pending plan.
func (s *Service) PlanDelete(ctx context.Context, spec string) (*DeletePlan, error) {
	ids, warnings, err := ParseIDSpec(spec)
	for _, w := range warnings {
		s.logger.Warn("id specification token skipped", "detail", w)
	}
	if err != nil {
		return nil, err
	}

	recs, err := s.database.FindRecords(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("finding records to delete: %w", err)
	}
	return &DeletePlan{IDs: ids, Records: recs, Warnings: warnings}, nil
}

// PlanDeleteBook lists every record of a book in a pending plan. Admin only.
func (s *Service) PlanDeleteBook(ctx context.Context, actor Actor, book string) (*DeletePlan, error) {
	if err := requireAdmin(actor, "deleting book"); err != nil {
		return nil, err
	}
	recs, err := s.database.FindRecordsByBooks(ctx, []string{book})
	if err != nil {
		return nil, fmt.Errorf("finding records of book %q: %w", book, err)
	}
	return &DeletePlan{Book: book, Records: recs}, nil
}

// ExecuteDelete runs a confirmed plan and returns how many records went.
func (s *Service) ExecuteDelete(ctx context.Context, actor Actor, plan *DeletePlan) (int64, error) {
	plan.mu.Lock()
	defer plan.mu.Unlock()

	switch plan.state {
	case PlanPending:
		return 0, ErrNotConfirmed
	case PlanDone:
		return 0, ErrPlanExecuted
	}

	var (
		n   int64
		err error
	)
	if plan.Book != "" {
		if err := requireAdmin(actor, "deleting book"); err != nil {
			return 0, err
		}
		n, err = s.database.DeleteBook(ctx, plan.Book)
	} else {
		n, err = s.database.DeleteRecords(ctx, plan.IDs)
	}
	if err != nil {
		return 0, fmt.Errorf("executing delete plan: %w", err)
	}
	plan.state = PlanDone
	s.invalidate()

	s.logger.Info("records deleted", "count", n, "book", plan.Book, "actor", actor.Email)
	return n, nil
}
