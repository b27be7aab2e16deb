package store

import (
	"fmt"
	"testing"
	"time"
)

func TestNewSubmissionStampsFields(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 589_793_238, time.FixedZone("X", 5*3600))
	sub := NewSubmission(Input{Name: "Ann", Email: "ann@x.com", Message: "Hi", IPAddress: "unknown"}, now)

	if sub.ID == "" {
		t.Fatal("expected id to be assigned")
	}
	if want := "2025-03-14T04:26:53.589Z"; sub.Timestamp != want {
		t.Errorf("expected timestamp %q, got %q", want, sub.Timestamp)
	}
	if sub.Name != "Ann" || sub.Email != "ann@x.com" || sub.Message != "Hi" || sub.IPAddress != "unknown" {
		t.Errorf("input fields not copied: %+v", sub)
	}
}

func TestRetain(t *testing.T) {
	mk := func(n int) []Submission {
		subs := make([]Submission, n)
		for i := range subs {
			subs[i].Name = fmt.Sprint(i)
		}
		return subs
	}

	tests := []struct {
		name  string
		count int
		limit int
		first string
		want  int
	}{
		{name: "under limit", count: 3, limit: 5, first: "0", want: 3},
		{name: "at limit", count: 5, limit: 5, first: "0", want: 5},
		{name: "over limit", count: 8, limit: 5, first: "3", want: 5},
		{name: "no limit", count: 8, limit: 0, first: "0", want: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Retain(mk(tt.count), tt.limit)
			if len(got) != tt.want {
				t.Fatalf("expected %d entries, got %d", tt.want, len(got))
			}
			if got[0].Name != tt.first {
				t.Errorf("expected first entry %q, got %q", tt.first, got[0].Name)
			}
		})
	}
}

func TestNormalizeRetention(t *testing.T) {
	if got := NormalizeRetention(0); got != DefaultRetention {
		t.Errorf("expected %d, got %d", DefaultRetention, got)
	}
	if got := NormalizeRetention(-4); got != DefaultRetention {
		t.Errorf("expected %d, got %d", DefaultRetention, got)
	}
	if got := NormalizeRetention(7); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}
}
