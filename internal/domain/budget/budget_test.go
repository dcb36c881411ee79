package budget

import (
	"testing"
	"time"
)

func TestNewViewFormatsTimestamps(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	b := Budget{ID: "b-1", OwnerID: "u-1", Amount: 500, CreatedAt: &ts, UpdatedAt: &ts}

	v := NewView(b, 25)

	if v.BudgetID != "b-1" {
		t.Errorf("budget id = %q", v.BudgetID)
	}

	if v.CurrentSpent != 25 {
		t.Errorf("current spent = %v, want 25", v.CurrentSpent)
	}

	if v.CreatedAt != "2025-03-14T09:26:53Z" {
		t.Errorf("created at = %q", v.CreatedAt)
	}
}

func TestNewViewLegacyFallback(t *testing.T) {
	v := NewView(Budget{ID: "b-1", Amount: 100}, 0)

	if v.CreatedAt != "N/A" || v.UpdatedAt != "N/A" {
		t.Errorf("timestamps = %q / %q, want N/A", v.CreatedAt, v.UpdatedAt)
	}
}

func TestNewStampsBothTimestamps(t *testing.T) {
	b := New("u-1", 500)

	if b.CreatedAt == nil || b.UpdatedAt == nil {
		t.Fatal("new budget missing timestamps")
	}

	if !b.CreatedAt.Equal(*b.UpdatedAt) {
		t.Error("created_at and updated_at differ on a fresh budget")
	}

	if b.ID == "" || b.OwnerID != "u-1" || b.Amount != 500 {
		t.Errorf("unexpected budget: %+v", b)
	}
}
