package ratelimit

import (
	"testing"
	"time"
)

func TestQuotaState_Thresholds(t *testing.T) {
	tests := []struct {
		name          string
		limit         int
		remaining     int
		wantHealthy   bool
		wantLow       bool
		wantExhausted bool
	}{
		{"full quota", 10000, 10000, true, false, false},
		{"at healthy threshold", 10000, 2000, true, false, false},
		{"below healthy", 10000, 1999, false, false, false},
		{"at low threshold", 10000, 500, false, false, false},
		{"low", 10000, 499, false, true, false},
		{"exhausted", 10000, 0, false, true, true},
		{"unknown limit", 0, 0, true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &QuotaState{Limit: tt.limit, Remaining: tt.remaining}
			s.UpdateHealth()

			if s.IsHealthy != tt.wantHealthy {
				t.Errorf("IsHealthy = %v, want %v", s.IsHealthy, tt.wantHealthy)
			}
			if s.IsLow() != tt.wantLow {
				t.Errorf("IsLow() = %v, want %v", s.IsLow(), tt.wantLow)
			}
			if s.IsExhausted() != tt.wantExhausted {
				t.Errorf("IsExhausted() = %v, want %v", s.IsExhausted(), tt.wantExhausted)
			}
		})
	}
}

func TestQuotaState_IsStale(t *testing.T) {
	s := &QuotaState{LastUpdate: time.Now().Add(-2 * time.Minute)}

	if !s.IsStale(time.Minute) {
		t.Error("state updated 2m ago should be stale for maxAge 1m")
	}
	if s.IsStale(5 * time.Minute) {
		t.Error("state updated 2m ago should not be stale for maxAge 5m")
	}
}
