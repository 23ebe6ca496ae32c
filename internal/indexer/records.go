package indexer

import (
	"context"
	"fmt"

	"cpindex/internal/catalog"
	"cpindex/internal/form"
	"cpindex/internal/query"
	"cpindex/internal/record"
)

// AddRecord stores a new record of the given type. Every field must belong
// to the type; duplicates are resolved by the store.
func (s *Service) AddRecord(ctx context.Context, actor Actor, recordType string, fields []query.Field) (int64, error) {
	if err := checkFields(recordType, fields); err != nil {
		return 0, err
	}

	id, dropped, err := s.database.InsertRecord(ctx, recordType, fields, actor.Email, s.now())
	if err != nil {
		return 0, fmt.Errorf("adding %s record: %w", recordType, err)
	}
	s.invalidate()

	if len(dropped) > 0 {
		s.logger.Warn("duplicate columns dropped", "id", id, "columns", dropped)
	}
	s.logger.Info("record added", "id", id, "type", recordType, "actor", actor.Email)
	return id, nil
}

// SubmitForm stores the record held by a form.
func (s *Service) SubmitForm(ctx context.Context, actor Actor, f *form.Form) (int64, error) {
	fields, err := f.Submit()
	if err != nil {
		return 0, fmt.Errorf("submitting form: %w", err)
	}
	return s.AddRecord(ctx, actor, f.Type(), fields)
}

// GetRecord returns a record or a NotFoundError.
func (s *Service) GetRecord(ctx context.Context, id int64) (*record.Record, error) {
	rec, err := s.database.FindRecord(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding record %d: %w", id, err)
	}
	if rec == nil {
		return nil, &NotFoundError{ID: id}
	}
	return rec, nil
}

// EditForm loads a stored record into a new form.
func (s *Service) EditForm(ctx context.Context, id int64) (*form.Form, error) {
	rec, err := s.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	f := form.New(form.Presets{})
	if err := f.Edit(rec); err != nil {
		return nil, fmt.Errorf("loading record %d: %w", id, err)
	}
	return f, nil
}

// UpdateRecord rewrites fields of an existing record and stamps the editor.
// The record is fetched again first, so one deleted meanwhile yields a
// NotFoundError instead of a silent no-op.
func (s *Service) UpdateRecord(ctx context.Context, actor Actor, id int64, fields []query.Field) error {
	rec, err := s.GetRecord(ctx, id)
	if err != nil {
		return err
	}
	if err := checkFields(rec.Type, fields); err != nil {
		return err
	}

	found, dropped, err := s.database.UpdateRecord(ctx, id, fields, actor.Email, s.now())
	if err != nil {
		return fmt.Errorf("updating record %d: %w", id, err)
	}
	if !found {
		return &NotFoundError{ID: id}
	}
	s.invalidate()

	if len(dropped) > 0 {
		s.logger.Warn("reserved columns dropped from update", "id", id, "columns", dropped)
	}
	s.logger.Info("record updated", "id", id, "type", rec.Type, "actor", actor.Email)
	return nil
}

// SaveForm writes the values of an edit form back to record id.
func (s *Service) SaveForm(ctx context.Context, actor Actor, id int64, f *form.Form) error {
	fields, err := f.Submit()
	if err != nil {
		return fmt.Errorf("submitting form: %w", err)
	}
	return s.UpdateRecord(ctx, actor, id, fields)
}

// DeleteRecord deletes one record after checking it still exists.
func (s *Service) DeleteRecord(ctx context.Context, actor Actor, id int64) error {
	rec, err := s.GetRecord(ctx, id)
	if err != nil {
		return err
	}

	deleted, err := s.database.DeleteRecord(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting record %d: %w", id, err)
	}
	if !deleted {
		return &NotFoundError{ID: id}
	}
	s.invalidate()

	s.logger.Info("record deleted", "id", id, "type", rec.Type, "actor", actor.Email)
	return nil
}

// checkFields verifies the type exists and carries every field.
func checkFields(recordType string, fields []query.Field) error {
	if _, ok := catalog.Lookup(recordType); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownType, recordType)
	}
	for _, f := range fields {
		if !catalog.Applies(recordType, f.Column) {
			return fmt.Errorf("%w: %q for %s", ErrUnknownField, f.Column, recordType)
		}
	}
	return nil
}
