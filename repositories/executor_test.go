package repositories

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

type fakeRows struct {
	remaining int
	err       error
	closed    bool
}

func (r *fakeRows) Next() bool {
	if r.remaining == 0 {
		return false
	}
	r.remaining--
	return true
}

func (r *fakeRows) Err() error   { return r.err }
func (r *fakeRows) Close() error { r.closed = true; return nil }

func TestDrainRows(t *testing.T) {
	ok := &fakeRows{remaining: 3}
	if err := drainRows(ok); err != nil {
		t.Fatalf("drainRows: %v", err)
	}
	if ok.remaining != 0 || !ok.closed {
		t.Fatalf("rows = %+v, want consumed and closed", ok)
	}

	lockErr := &pq.Error{Code: "40P01", Message: "deadlock detected"}
	failed := &fakeRows{remaining: 1, err: lockErr}
	err := drainRows(failed)
	if !errors.Is(err, lockErr) || !failed.closed {
		t.Fatalf("drainRows err = %v, closed = %v", err, failed.closed)
	}
	if !isRetryable(fmt.Errorf("failed to lock time slots: %w", err)) {
		t.Fatal("a deadlock while locking must be retried")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"serialization failure", &pq.Error{Code: "40001"}, true},
		{"deadlock", fmt.Errorf("wrapped: %w", &pq.Error{Code: "40P01"}), true},
		{"unique violation", &pq.Error{Code: "23505"}, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.err); got != tt.want {
				t.Fatalf("isRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
