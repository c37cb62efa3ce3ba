package models

import "testing"

func TestParseCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect QuestionCategory
	}{
		{"exact match", "Technical", CategoryTechnical},
		{"case insensitive", "tEcHnIcAl", CategoryTechnical},
		{"surrounding whitespace", "  Motivational  ", CategoryMotivational},
		{"unknown falls back", "nonsense", DefaultCategory},
		{"empty falls back", "", DefaultCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ParseCategory(tt.input); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestValidateJobStatus(t *testing.T) {
	t.Parallel()

	if status, err := ValidateJobStatus("interviewing"); err != nil || status != StatusInterviewing {
		t.Fatalf("expected Interviewing, got %q (%v)", status, err)
	}

	if _, err := ValidateJobStatus("ghosted"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestClampedIndex(t *testing.T) {
	t.Parallel()

	session := &PracticeSession{
		Questions: []Question{{ID: "a"}, {ID: "b"}, {ID: "c"}},
	}

	tests := []struct {
		index  int
		expect int
	}{
		{-3, 0},
		{0, 0},
		{2, 2},
		{3, 2},
		{99, 2},
	}

	for _, tt := range tests {
		session.CurrentQuestionIndex = tt.index
		if got := session.ClampedIndex(); got != tt.expect {
			t.Fatalf("index %d: expected %d, got %d", tt.index, tt.expect, got)
		}
	}

	empty := &PracticeSession{CurrentQuestionIndex: 5}
	if got := empty.ClampedIndex(); got != 0 {
		t.Fatalf("empty session: expected 0, got %d", got)
	}
}

func TestGenerated(t *testing.T) {
	t.Parallel()

	if (&PracticeSession{}).Generated() {
		t.Fatal("empty session must not report generated")
	}
	if !(&PracticeSession{Questions: []Question{{ID: "a"}}}).Generated() {
		t.Fatal("session with questions must report generated")
	}
}
