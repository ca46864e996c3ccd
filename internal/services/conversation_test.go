package services

import (
	"testing"
	"time"

	"github.com/ZaaliAi/thelifecoachingcafe-sub002/internal/models"
)

func TestDeriveConversationIDIsOrderIndependent(t *testing.T) {
	cases := []struct {
		a, b, want string
	}{
		{"u1", "u2", "u1_u2"},
		{"u2", "u1", "u1_u2"},
		{"coach-9", "coach-10", "coach-10_coach-9"},
		{"abc", "abc", "abc_abc"},
	}

	for _, tc := range cases {
		if got := DeriveConversationID(tc.a, tc.b); got != tc.want {
			t.Errorf("DeriveConversationID(%q, %q) = %q, want %q", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestResolveDisplayNamePrefersProfileName(t *testing.T) {
	name := "Jane Coach"
	if got := ResolveDisplayName(&name, "Stale Copy", "u7"); got != "Jane Coach" {
		t.Fatalf("expected profile name, got %q", got)
	}
}

func TestResolveDisplayNameFallsBackToDenormalizedCopy(t *testing.T) {
	empty := "   "
	if got := ResolveDisplayName(&empty, "Saved Name", "u7"); got != "Saved Name" {
		t.Fatalf("expected denormalized copy, got %q", got)
	}
	if got := ResolveDisplayName(nil, "Saved Name", "u7"); got != "Saved Name" {
		t.Fatalf("expected denormalized copy with no profile, got %q", got)
	}
}

func TestResolveDisplayNameRejectsPlaceholderAndRawID(t *testing.T) {
	if got := ResolveDisplayName(nil, "Unknown Recipient", "u7"); got != "Unknown User" {
		t.Fatalf("legacy placeholder should not surface, got %q", got)
	}
	if got := ResolveDisplayName(nil, "u7", "u7"); got != "Unknown User" {
		t.Fatalf("raw id should not surface, got %q", got)
	}
	if got := ResolveDisplayName(nil, "", "u7"); got != "Unknown User" {
		t.Fatalf("expected terminal fallback, got %q", got)
	}
}

func TestAssembleThreadsGroupsAndCountsUnread(t *testing.T) {
	base := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	messages := []models.Message{
		{ID: 1, ConversationID: "u1_u2", SenderID: "u2", RecipientID: "u1", SenderName: "Partner Two", Content: "hello", Read: false, CreatedAt: base},
		{ID: 2, ConversationID: "u1_u2", SenderID: "u1", RecipientID: "u2", RecipientName: "Partner Two", Content: "hi back", Read: true, CreatedAt: base.Add(time.Minute)},
		{ID: 3, ConversationID: "u1_u2", SenderID: "u2", RecipientID: "u1", SenderName: "Partner Two", Content: "free tomorrow?", Read: false, CreatedAt: base.Add(2 * time.Minute)},
		{ID: 4, ConversationID: "u1_u3", SenderID: "u3", RecipientID: "u1", SenderName: "Partner Three", Content: "welcome", Read: true, CreatedAt: base.Add(10 * time.Minute)},
	}

	summaries := AssembleThreads("u1", messages, map[string]models.ProfileIdentity{})

	if len(summaries) != 2 {
		t.Fatalf("expected 2 threads, got %d", len(summaries))
	}

	// Ordered by latest preview first.
	if summaries[0].ConversationID != "u1_u3" || summaries[1].ConversationID != "u1_u2" {
		t.Fatalf("unexpected thread order: %q then %q", summaries[0].ConversationID, summaries[1].ConversationID)
	}

	thread := summaries[1]
	if thread.PartnerID != "u2" {
		t.Fatalf("expected partner u2, got %q", thread.PartnerID)
	}
	if thread.UnreadCount != 2 {
		t.Fatalf("expected 2 unread, got %d", thread.UnreadCount)
	}
	if thread.LastMessage == nil || thread.LastMessage.ID != 3 {
		t.Fatalf("expected message 3 as preview, got %+v", thread.LastMessage)
	}
	if thread.PartnerName != "Partner Two" {
		t.Fatalf("expected denormalized partner name, got %q", thread.PartnerName)
	}
}

func TestAssembleThreadsPrefersLiveProfileIdentity(t *testing.T) {
	base := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	messages := []models.Message{
		{ID: 1, ConversationID: "u1_u2", SenderID: "u2", RecipientID: "u1", SenderName: "Old Copy", CreatedAt: base},
	}

	fullName := "Renamed Coach"
	avatar := "https://cdn.example/u2.png"
	identities := map[string]models.ProfileIdentity{
		"u2": {FullName: &fullName, AvatarURL: &avatar},
	}

	summaries := AssembleThreads("u1", messages, identities)
	if len(summaries) != 1 {
		t.Fatalf("expected 1 thread, got %d", len(summaries))
	}
	if summaries[0].PartnerName != "Renamed Coach" {
		t.Fatalf("expected live profile name, got %q", summaries[0].PartnerName)
	}
	if summaries[0].PartnerAvatarURL != avatar {
		t.Fatalf("expected avatar url, got %q", summaries[0].PartnerAvatarURL)
	}
}

func TestAssembleThreadsIsDeterministicOnTimestampTies(t *testing.T) {
	ts := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	messages := []models.Message{
		{ID: 9, ConversationID: "u1_u2", SenderID: "u2", RecipientID: "u1", CreatedAt: ts},
		{ID: 4, ConversationID: "u1_u2", SenderID: "u2", RecipientID: "u1", CreatedAt: ts},
		{ID: 7, ConversationID: "u1_u3", SenderID: "u3", RecipientID: "u1", CreatedAt: ts},
	}

	first := AssembleThreads("u1", messages, nil)
	for i := 0; i < 10; i++ {
		again := AssembleThreads("u1", messages, nil)
		if len(again) != len(first) {
			t.Fatalf("thread count changed between runs")
		}
		for j := range first {
			if again[j].ConversationID != first[j].ConversationID {
				t.Fatalf("order changed between runs: %q vs %q", again[j].ConversationID, first[j].ConversationID)
			}
			if again[j].LastMessage.ID != first[j].LastMessage.ID {
				t.Fatalf("preview changed between runs: %d vs %d", again[j].LastMessage.ID, first[j].LastMessage.ID)
			}
		}
	}

	// Within a tied timestamp the higher id is the later message.
	for _, summary := range first {
		if summary.ConversationID == "u1_u2" && summary.LastMessage.ID != 9 {
			t.Fatalf("expected id 9 as tie-broken preview, got %d", summary.LastMessage.ID)
		}
	}
}

func TestAssembleThreadsEmptyInput(t *testing.T) {
	summaries := AssembleThreads("u1", nil, nil)
	if len(summaries) != 0 {
		t.Fatalf("expected no threads, got %d", len(summaries))
	}
}
