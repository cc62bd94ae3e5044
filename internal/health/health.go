// Package health folds delivery outcomes into a supplier's integration
// health. Modeled as an explicit three-state machine so the tracking logic
// is testable without a database.
package health

import (
	"time"

	"github.com/tradeops/factory-message-service/internal/domain"
)

// State is the mutable health slice of a supplier record.
type State struct {
	Status     domain.SupplierStatus
	ErrorCount int
	LastError  *string
	LastTestAt *time.Time
}

// FromSupplier extracts the health slice of a supplier.
func FromSupplier(s *domain.Supplier) State {
	return State{
		Status:     s.Status,
		ErrorCount: s.ErrorCount,
		LastError:  s.LastError,
		LastTestAt: s.LastTestAt,
	}
}

// RecordSuccess transitions to active and clears the error trail. Only test
// messages refresh the last-successful-test timestamp.
func RecordSuccess(st State, isTest bool, now time.Time) State {
	st.Status = domain.SupplierActive
	st.ErrorCount = 0
	st.LastError = nil
	if isTest {
		st.LastTestAt = &now
	}
	return st
}

// RecordFailure transitions to failed and accumulates the rolling error
// counter. Counters are advisory; concurrent writes are last-write-wins.
func RecordFailure(st State, errMsg string) State {
	st.Status = domain.SupplierFailed
	st.ErrorCount++
	st.LastError = &errMsg
	return st
}
