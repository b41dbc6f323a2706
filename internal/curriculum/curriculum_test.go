package curriculum

import (
	"strings"
	"testing"
)

const repo = "https://github.com/taniyaapatel/Samadhan/tree/main"

func TestDefault(t *testing.T) {
	c, err := Default(repo)
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}
	if c.Len() != MaxDay {
		t.Fatalf("Len() = %d, want %d", c.Len(), MaxDay)
	}

	all := c.All()
	for i, e := range all {
		if e.Day != i+1 {
			t.Errorf("All()[%d].Day = %d, want %d", i, e.Day, i+1)
		}
	}

	first, ok := c.Lookup(1)
	if !ok {
		t.Fatal("Lookup(1) not found")
	}
	if first.Title != "JavaScript Basics" {
		t.Errorf("day 1 title = %q", first.Title)
	}
	if first.GitHubURL != repo+"/Day-01" {
		t.Errorf("day 1 url = %q", first.GitHubURL)
	}

	last, _ := c.Lookup(21)
	if last.Title != "Portfolio Website" {
		t.Errorf("day 21 title = %q", last.Title)
	}
}

func TestLookupMissing(t *testing.T) {
	c, err := Default("")
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}
	for _, day := range []int{0, -1, 22} {
		if _, ok := c.Lookup(day); ok {
			t.Errorf("Lookup(%d) found, want missing", day)
		}
	}
}

func TestAllReturnsCopy(t *testing.T) {
	c, _ := Default("")
	all := c.All()
	all[0].Title = "changed"

	if e, _ := c.Lookup(1); e.Title == "changed" {
		t.Error("mutating All() result leaked into the curriculum")
	}
	if c.All()[0].Title == "changed" {
		t.Error("All() shares its backing array")
	}
}

func TestReferenceURL(t *testing.T) {
	tests := []struct {
		base string
		day  int
		want string
	}{
		{repo, 4, repo + "/Day-04"},
		{repo + "/", 12, repo + "/Day-12"},
		{"", 3, ""},
	}
	for _, tt := range tests {
		if got := ReferenceURL(tt.base, tt.day); got != tt.want {
			t.Errorf("ReferenceURL(%q, %d) = %q, want %q", tt.base, tt.day, got, tt.want)
		}
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"empty", "days: []", "no days"},
		{"out of range", "days:\n  - day: 22\n    title: x", "out of range"},
		{"no title", "days:\n  - day: 2\n    title: \"\"", "no title"},
		{"duplicate", "days:\n  - day: 2\n    title: a\n  - day: 2\n    title: b", "defined twice"},
		{"malformed", "days: [", "parsing yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), "")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}
