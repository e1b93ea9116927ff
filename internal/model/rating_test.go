package model

import "testing"

func TestNewReputationVerifiedBoundary(t *testing.T) {
	tests := []struct {
		avg   float64
		score int64
		want  bool
	}{
		{4.0, 5, true},
		{3.99, 5, false},
		{4.0, 4, false},
		{5.0, 100, true},
		{0, 0, false},
	}
	for _, tt := range tests {
		if got := NewReputation(tt.avg, 1, tt.score).IsVerified; got != tt.want {
			t.Errorf("NewReputation(%v, _, %d).IsVerified = %v, want %v", tt.avg, tt.score, got, tt.want)
		}
	}
}
