// Package store provides an in-memory TxStore implementation (for testing/dev).
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/forecast-engine/forecast"
)

// =============================================================================
// MEMORY STORE - In-memory implementation of forecast.TxStore
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	templates   map[forecast.TemplateID]forecast.RecurringTransactionTemplate
	expected    map[forecast.ExpectedID]forecast.ExpectedTransaction
	occurrences map[occurrenceKey]forecast.ExpectedID
}

// occurrenceKey enforces the one-row-per-(template, date) contract, the
// same role the unique index plays in the sqlite store.
type occurrenceKey struct {
	TemplateID forecast.TemplateID
	Date       string
}

func NewMemory() *Memory {
	return &Memory{
		templates:   make(map[forecast.TemplateID]forecast.RecurringTransactionTemplate),
		expected:    make(map[forecast.ExpectedID]forecast.ExpectedTransaction),
		occurrences: make(map[occurrenceKey]forecast.ExpectedID),
	}
}

// =============================================================================
// TEMPLATE STORE
// =============================================================================

func (m *Memory) SaveTemplate(_ context.Context, tpl forecast.RecurringTransactionTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[tpl.ID] = tpl
	return nil
}

func (m *Memory) FindTemplate(_ context.Context, id forecast.TemplateID) (*forecast.RecurringTransactionTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findTemplateLocked(id), nil
}

func (m *Memory) ListActiveTemplates(_ context.Context) ([]forecast.RecurringTransactionTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []forecast.RecurringTransactionTemplate
	for _, tpl := range m.templates {
		if tpl.IsActive {
			result = append(result, tpl)
		}
	}
	sortTemplates(result)
	return result, nil
}

func (m *Memory) ListTemplates(_ context.Context) ([]forecast.RecurringTransactionTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]forecast.RecurringTransactionTemplate, 0, len(m.templates))
	for _, tpl := range m.templates {
		result = append(result, tpl)
	}
	sortTemplates(result)
	return result, nil
}

func (m *Memory) UpdateCursor(_ context.Context, id forecast.TemplateID, next forecast.Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateCursorLocked(id, next)
}

func (m *Memory) findTemplateLocked(id forecast.TemplateID) *forecast.RecurringTransactionTemplate {
	tpl, ok := m.templates[id]
	if !ok {
		return nil
	}
	copied := tpl
	return &copied
}

func (m *Memory) updateCursorLocked(id forecast.TemplateID, next forecast.Date) error {
	tpl, ok := m.templates[id]
	if !ok {
		return fmt.Errorf("update cursor for template %s: %w", id, forecast.ErrTemplateNotFound)
	}
	tpl.NextExecutionDate = next
	m.templates[id] = tpl
	return nil
}

// =============================================================================
// EXPECTED TRANSACTION STORE
// =============================================================================

func (m *Memory) InsertExpected(_ context.Context, rows []forecast.ExpectedTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertExpectedLocked(rows)
}

func (m *Memory) insertExpectedLocked(rows []forecast.ExpectedTransaction) error {
	// Check all occurrence keys before writing anything (atomic batch).
	for _, row := range rows {
		key := occurrenceKey{TemplateID: row.TemplateID, Date: row.ExpectedDate.String()}
		if _, exists := m.occurrences[key]; exists {
			return fmt.Errorf("template %s at %s: %w", row.TemplateID, row.ExpectedDate, forecast.ErrDuplicateOccurrence)
		}
	}
	for _, row := range rows {
		m.expected[row.ID] = row
		m.occurrences[occurrenceKey{TemplateID: row.TemplateID, Date: row.ExpectedDate.String()}] = row.ID
	}
	return nil
}

func (m *Memory) FindExpected(_ context.Context, id forecast.ExpectedID) (*forecast.ExpectedTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findExpectedLocked(id), nil
}

func (m *Memory) findExpectedLocked(id forecast.ExpectedID) *forecast.ExpectedTransaction {
	row, ok := m.expected[id]
	if !ok {
		return nil
	}
	copied := row
	return &copied
}

func (m *Memory) UpdateExpected(_ context.Context, row forecast.ExpectedTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateExpectedLocked(row)
}

func (m *Memory) updateExpectedLocked(row forecast.ExpectedTransaction) error {
	if _, ok := m.expected[row.ID]; !ok {
		return fmt.Errorf("update expected transaction %s: %w", row.ID, forecast.ErrExpectedNotFound)
	}
	m.expected[row.ID] = row
	return nil
}

func (m *Memory) FindByTemplateAndDateRange(_ context.Context, id forecast.TemplateID, from, to forecast.Date) ([]forecast.ExpectedTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findByTemplateLocked(id, from, to), nil
}

func (m *Memory) findByTemplateLocked(id forecast.TemplateID, from, to forecast.Date) []forecast.ExpectedTransaction {
	var result []forecast.ExpectedTransaction
	for _, row := range m.expected {
		if row.TemplateID == id && from.BeforeOrEqual(row.ExpectedDate) && row.ExpectedDate.BeforeOrEqual(to) {
			result = append(result, row)
		}
	}
	sortExpected(result)
	return result
}

func (m *Memory) QueryByUserAndDateRange(_ context.Context, userID forecast.UserID, from, to forecast.Date) ([]forecast.ExpectedTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.queryByUserLocked(userID, from, to), nil
}

func (m *Memory) queryByUserLocked(userID forecast.UserID, from, to forecast.Date) []forecast.ExpectedTransaction {
	var result []forecast.ExpectedTransaction
	for _, row := range m.expected {
		if row.UserID == userID && from.BeforeOrEqual(row.ExpectedDate) && row.ExpectedDate.BeforeOrEqual(to) {
			result = append(result, row)
		}
	}
	sortExpected(result)
	return result
}

// =============================================================================
// TRANSACTIONS - Snapshot + rollback on error
// =============================================================================

// WithTx executes fn atomically. The memory store simulates transactions
// with a full snapshot restored on error; the mutex also serializes
// concurrent generation steps, matching the row-lock behavior callers get
// from a real database.
func (m *Memory) WithTx(_ context.Context, fn func(forecast.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshot()
	if err := fn(&txView{parent: m}); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	templates   map[forecast.TemplateID]forecast.RecurringTransactionTemplate
	expected    map[forecast.ExpectedID]forecast.ExpectedTransaction
	occurrences map[occurrenceKey]forecast.ExpectedID
}

func (m *Memory) snapshot() memorySnapshot {
	s := memorySnapshot{
		templates:   make(map[forecast.TemplateID]forecast.RecurringTransactionTemplate, len(m.templates)),
		expected:    make(map[forecast.ExpectedID]forecast.ExpectedTransaction, len(m.expected)),
		occurrences: make(map[occurrenceKey]forecast.ExpectedID, len(m.occurrences)),
	}
	for k, v := range m.templates {
		s.templates[k] = v
	}
	for k, v := range m.expected {
		s.expected[k] = v
	}
	for k, v := range m.occurrences {
		s.occurrences[k] = v
	}
	return s
}

func (m *Memory) restore(s memorySnapshot) {
	m.templates = s.templates
	m.expected = s.expected
	m.occurrences = s.occurrences
}

// txView exposes the parent's locked helpers to the WithTx callback.
// The parent's mutex is already held for the duration of the transaction.
type txView struct {
	parent *Memory
}

func (tv *txView) SaveTemplate(_ context.Context, tpl forecast.RecurringTransactionTemplate) error {
	tv.parent.templates[tpl.ID] = tpl
	return nil
}

func (tv *txView) FindTemplate(_ context.Context, id forecast.TemplateID) (*forecast.RecurringTransactionTemplate, error) {
	return tv.parent.findTemplateLocked(id), nil
}

func (tv *txView) ListActiveTemplates(_ context.Context) ([]forecast.RecurringTransactionTemplate, error) {
	var result []forecast.RecurringTransactionTemplate
	for _, tpl := range tv.parent.templates {
		if tpl.IsActive {
			result = append(result, tpl)
		}
	}
	sortTemplates(result)
	return result, nil
}

func (tv *txView) ListTemplates(_ context.Context) ([]forecast.RecurringTransactionTemplate, error) {
	result := make([]forecast.RecurringTransactionTemplate, 0, len(tv.parent.templates))
	for _, tpl := range tv.parent.templates {
		result = append(result, tpl)
	}
	sortTemplates(result)
	return result, nil
}

func (tv *txView) UpdateCursor(_ context.Context, id forecast.TemplateID, next forecast.Date) error {
	return tv.parent.updateCursorLocked(id, next)
}

func (tv *txView) InsertExpected(_ context.Context, rows []forecast.ExpectedTransaction) error {
	return tv.parent.insertExpectedLocked(rows)
}

func (tv *txView) FindExpected(_ context.Context, id forecast.ExpectedID) (*forecast.ExpectedTransaction, error) {
	return tv.parent.findExpectedLocked(id), nil
}

func (tv *txView) UpdateExpected(_ context.Context, row forecast.ExpectedTransaction) error {
	return tv.parent.updateExpectedLocked(row)
}

func (tv *txView) FindByTemplateAndDateRange(_ context.Context, id forecast.TemplateID, from, to forecast.Date) ([]forecast.ExpectedTransaction, error) {
	return tv.parent.findByTemplateLocked(id, from, to), nil
}

func (tv *txView) QueryByUserAndDateRange(_ context.Context, userID forecast.UserID, from, to forecast.Date) ([]forecast.ExpectedTransaction, error) {
	return tv.parent.queryByUserLocked(userID, from, to), nil
}

// =============================================================================
// HELPERS
// =============================================================================

func sortTemplates(templates []forecast.RecurringTransactionTemplate) {
	sort.Slice(templates, func(i, j int) bool {
		return templates[i].ID < templates[j].ID
	})
}

func sortExpected(rows []forecast.ExpectedTransaction) {
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].ExpectedDate.Equal(rows[j].ExpectedDate) {
			return rows[i].ExpectedDate.Before(rows[j].ExpectedDate)
		}
		return rows[i].ID < rows[j].ID
	})
}
