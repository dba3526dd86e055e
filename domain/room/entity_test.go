package room

import (
	"testing"
	"time"
)

func TestRoom_Live(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := Room{
		CreatedAt: created,
		ExpiresAt: created.Add(30 * time.Minute),
	}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before expiry", created.Add(29 * time.Minute), true},
		{"at expiry", rec.ExpiresAt, false},
		{"after expiry", rec.ExpiresAt.Add(time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rec.Live(tt.now); got != tt.want {
				t.Errorf("Live(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestRoom_HasParticipant(t *testing.T) {
	rec := Room{
		Participants: []Participant{{Name: "Alice"}},
	}

	if !rec.HasParticipant("Alice") {
		t.Error("HasParticipant(Alice) = false")
	}
	if !rec.HasParticipant("aLiCe") {
		t.Error("HasParticipant(aLiCe) = false, want case-insensitive match")
	}
	if rec.HasParticipant("Bob") {
		t.Error("HasParticipant(Bob) = true")
	}
}

func TestRoom_RemoveParticipant(t *testing.T) {
	rec := Room{
		Participants: []Participant{{Name: "Alice"}, {Name: "Bob"}},
	}

	if !rec.RemoveParticipant("alice") {
		t.Error("RemoveParticipant(alice) = false, want case-insensitive removal")
	}
	if len(rec.Participants) != 1 || rec.Participants[0].Name != "Bob" {
		t.Errorf("Participants = %v, want only Bob", rec.Participants)
	}
	if rec.RemoveParticipant("Ghost") {
		t.Error("RemoveParticipant(Ghost) = true")
	}
}

func TestRoom_CloneIsolation(t *testing.T) {
	rec := &Room{
		ID:           "r1",
		Participants: []Participant{{Name: "Alice"}},
		Messages:     []Message{{Seq: 1, Body: "hi"}},
	}

	clone := rec.Clone()
	clone.Participants[0].Name = "Mallory"
	clone.Messages[0].Body = "changed"

	if rec.Participants[0].Name != "Alice" {
		t.Error("Clone() shares participant backing array")
	}
	if rec.Messages[0].Body != "hi" {
		t.Error("Clone() shares message backing array")
	}
}

func TestFormatTimeLeft(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"hours and minutes", 2*time.Hour + 5*time.Minute, "2h 5m"},
		{"minutes only", 45 * time.Minute, "45m"},
		{"under a minute", 30 * time.Second, "0m"},
		{"zero", 0, "Expired"},
		{"negative", -time.Minute, "Expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTimeLeft(tt.d); got != tt.want {
				t.Errorf("FormatTimeLeft(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}
