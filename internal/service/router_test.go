package service

import "testing"

func TestNeedsDocumentSearch(t *testing.T) {
	cases := []struct {
		message string
		want    bool
	}{
		{"What's in my CV?", true},
		{"Tell me about your RESUME", true},
		{"what experience do you have with Go?", true},
		{"Describe the digital transformation initiatives", true},
		{"Which company did you work for?", true},
		{"What's the weather like?", false},
		{"Tell me a joke", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := NeedsDocumentSearch(tc.message); got != tc.want {
			t.Fatalf("NeedsDocumentSearch(%q) = %v, want %v", tc.message, got, tc.want)
		}
	}
}
