package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestListing_DurationDays(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		end      time.Time
		expected int
	}{
		{"whole days", start.Add(30 * 24 * time.Hour), 30},
		{"partial day rounds up", start.Add(36 * time.Hour), 2},
		{"one hour", start.Add(time.Hour), 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l := Listing{StartDate: start, EndDate: tc.end}
			assert.Equal(t, tc.expected, l.DurationDays())
		})
	}
}

func TestListingPatch_Apply(t *testing.T) {
	original := Listing{
		ID:       "l1",
		Title:    "Studio near park",
		Price:    900,
		Location: "Berlin",
		Images:   []string{"https://img.example.com/1.jpg"},
	}

	title := "Bright studio near park"
	price := 950.0
	patched := ListingPatch{Title: &title, Price: &price}.Apply(original)

	assert.Equal(t, "Bright studio near park", patched.Title)
	assert.Equal(t, 950.0, patched.Price)
	assert.Equal(t, "Berlin", patched.Location)
	assert.Equal(t, original.Images, patched.Images)
	// Исходное объявление не меняется
	assert.Equal(t, "Studio near park", original.Title)
}

func TestRoleAndStatus(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("root").Valid())
	assert.True(t, Identity{UserID: "u1", Role: RoleAdmin}.IsAdmin())
	assert.False(t, Identity{UserID: "u1", Role: RoleUser}.IsAdmin())

	assert.False(t, TipPending.Terminal())
	assert.True(t, TipCompleted.Terminal())
	assert.True(t, TipFailed.Terminal())
}

func TestAccount_Public(t *testing.T) {
	account := &Account{ID: "u1", Username: "alice", Email: "alice@example.com", PasswordHash: "$2a$12$x", Role: RoleUser}

	assert.Equal(t, PublicUser{ID: "u1", Username: "alice", Email: "alice@example.com", Role: RoleUser}, account.Public())
}

func TestNewTipEvent(t *testing.T) {
	at := time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC)
	tip := &Tip{ID: "tip-1", ListingID: "l-1", FromUserID: "a", ToUserID: "b", Amount: 12.5, Status: TipCompleted, TransactionID: "tx"}

	event := NewTipEvent("evt-1", tip, at)
	assert.Equal(t, TipEventCompleted, event.Type)
	assert.Equal(t, "tip-1", event.TipID)
	assert.Equal(t, "tx", event.TransactionID)
	assert.Equal(t, at, event.OccurredAt)

	assert.Equal(t, TipEventCreated, EventTypeFor(TipPending))
	assert.Equal(t, TipEventFailed, EventTypeFor(TipFailed))
}
