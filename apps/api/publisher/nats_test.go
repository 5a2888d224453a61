package publisher

import "testing"

func TestSubjectToken(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"4b8f0c1e-2d7a-4f7b-9c1d-0e5a3b2c1d00", "4b8f0c1e-2d7a-4f7b-9c1d-0e5a3b2c1d00"},
		{"  padded  ", "padded"},
		{"a.b", "a_b"},
		{"a b", "a_b"},
		{"wild*card>", "wild_card_"},
		{"x/y", "x_y"},
		{"", "_"},
		{"   ", "_"},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := subjectToken(tc.in); got != tc.expected {
				t.Errorf("subjectToken(%q) = %q, expected %q", tc.in, got, tc.expected)
			}
		})
	}
}

func TestSubjects(t *testing.T) {
	if got := SelectionSubject("abc"); got != "dashboard.selection.abc" {
		t.Errorf("SelectionSubject = %q", got)
	}
	if got := JourneySubject("a.b"); got != "dashboard.journey.a_b" {
		t.Errorf("JourneySubject = %q", got)
	}
}
