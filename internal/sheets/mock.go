package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/holdscan/internal/portfolio"
)

// MockExporter is a mock implementation of Exporter for testing.
type MockExporter struct {
	ExportFunc     func(ctx context.Context, a *portfolio.Allocation) (string, error)
	LastAllocation *portfolio.Allocation
	ExportCalls    []ExportCall
	mu             sync.Mutex
}

// ExportCall represents a single call to Export.
type ExportCall struct {
	Error      error
	Allocation *portfolio.Allocation
}

// NewMockExporter creates a new mock exporter.
func NewMockExporter() *MockExporter {
	return &MockExporter{}
}

// Export implements the Exporter interface.
func (m *MockExporter) Export(ctx context.Context, a *portfolio.Allocation) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastAllocation = a

	id := "mock-spreadsheet"
	var err error
	if m.ExportFunc != nil {
		id, err = m.ExportFunc(ctx, a)
	}

	m.ExportCalls = append(m.ExportCalls, ExportCall{Allocation: a, Error: err})
	return id, err
}

// Calls returns a copy of all export calls.
func (m *MockExporter) Calls() []ExportCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]ExportCall, len(m.ExportCalls))
	copy(calls, m.ExportCalls)
	return calls
}

// SetExportError configures the mock to fail every Export call.
func (m *MockExporter) SetExportError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ExportFunc = func(context.Context, *portfolio.Allocation) (string, error) {
		return "", err
	}
}
