package workers

import (
	"testing"
	"time"
)

func TestCalculateNextRecomputeTime(t *testing.T) {
	from := time.Date(2026, time.January, 2, 10, 0, 0, 0, time.UTC)

	next := calculateNextRecomputeTime("30 4 * * *", from)
	if next == nil {
		t.Fatal("expected a next time")
	}
	want := time.Date(2026, time.January, 3, 4, 30, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}

	// Same day when the slot is still ahead
	early := time.Date(2026, time.January, 2, 3, 0, 0, 0, time.UTC)
	next = calculateNextRecomputeTime("30 4 * * *", early)
	if next == nil || !next.Equal(time.Date(2026, time.January, 2, 4, 30, 0, 0, time.UTC)) {
		t.Errorf("expected same-day slot, got %v", next)
	}

	if calculateNextRecomputeTime("", from) != nil {
		t.Error("expected nil for empty schedule")
	}
	if calculateNextRecomputeTime("not a cron line", from) != nil {
		t.Error("expected nil for invalid schedule")
	}
}
