package session

import "testing"

func TestNewIsValid(t *testing.T) {
	id := New()
	if !Valid(id) {
		t.Errorf("Valid(%q) = false", id)
	}
	if other := New(); other == id {
		t.Error("two generated ids collide")
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"session_m9xk2a_1f4g8z3q", true},
		{"session_0_a", true},
		{"", false},
		{"sess_m9xk2a_1f4g8z", false},
		{"session_m9xk2a", false},
		{"session__abc", false},
		{"session_m9xk2a_", false},
		{"session_!!!_abc", false},
	}

	for _, tt := range tests {
		if got := Valid(tt.id); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
