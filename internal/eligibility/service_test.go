package eligibility

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/absenced-dev/absenced/internal/models"
	"github.com/absenced-dev/absenced/internal/policy"
	"github.com/absenced-dev/absenced/internal/trips"
)

func newTestService(t *testing.T) (*Service, *trips.Service, *gorm.DB) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "eligibility_test.sqlite")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	tripSvc := trips.NewService(db, zerolog.Nop())
	svc := NewService(db, tripSvc, policy.Defaults(), "standard", zerolog.Nop())
	return svc, tripSvc, db
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedTrip(t *testing.T, tripSvc *trips.Service, userID string, start, end time.Time) {
	t.Helper()
	if _, err := tripSvc.Create(context.Background(), trips.CreateParams{
		UserID:    userID,
		StartDate: start,
		EndDate:   end,
	}); err != nil {
		t.Fatalf("failed to seed trip: %v", err)
	}
}

func TestSummarize(t *testing.T) {
	svc, tripSvc, _ := newTestService(t)
	ctx := context.Background()

	// 18 full absence days, 2023-06-02 through 2023-06-19
	seedTrip(t, tripSvc, "user-a", date(2023, time.June, 1), date(2023, time.June, 20))

	summary, err := svc.Summarize(ctx, "user-a", date(2024, time.January, 1), "")
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}

	if summary.PolicyName != "standard" {
		t.Errorf("expected default policy standard, got %q", summary.PolicyName)
	}
	if summary.TripCount != 1 {
		t.Errorf("expected 1 trip, got %d", summary.TripCount)
	}
	if summary.Check.Days12Months != 18 {
		t.Errorf("expected 18 days in 12 months, got %d", summary.Check.Days12Months)
	}
	if summary.Check.Days5Years != 18 {
		t.Errorf("expected 18 days in 5 years, got %d", summary.Check.Days5Years)
	}
	if !summary.Check.PresenceDate.Equal(date(2019, time.January, 2)) {
		t.Errorf("unexpected presence date %v", summary.Check.PresenceDate)
	}
	if !summary.Check.FullyEligible {
		t.Error("expected fully eligible")
	}
}

func TestSummarizeUnknownPolicy(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Summarize(context.Background(), "user-a", date(2024, time.January, 1), "nope")
	if err == nil || !strings.Contains(err.Error(), "unknown policy") {
		t.Fatalf("expected unknown policy error, got %v", err)
	}
}

func TestEarliest(t *testing.T) {
	svc, tripSvc, _ := newTestService(t)
	ctx := context.Background()

	t.Run("clean record applies today", func(t *testing.T) {
		result, err := svc.Earliest(ctx, "clean-user", date(2025, time.March, 1), "")
		if err != nil {
			t.Fatalf("Earliest returned error: %v", err)
		}
		if !result.Found {
			t.Fatal("expected a date to be found")
		}
		if !result.Check.CandidateDate.Equal(date(2025, time.March, 1)) {
			t.Errorf("expected today, got %v", result.Check.CandidateDate)
		}
	})

	t.Run("ongoing absence beyond horizon", func(t *testing.T) {
		seedTrip(t, tripSvc, "away-user", date(2020, time.January, 1), date(2040, time.January, 1))

		result, err := svc.Earliest(ctx, "away-user", date(2024, time.January, 1), "")
		if err != nil {
			t.Fatalf("Earliest returned error: %v", err)
		}
		if result.Found {
			t.Errorf("expected no date within horizon, got %v", result.Check.CandidateDate)
		}
		if result.SearchYears != 10 {
			t.Errorf("expected 10 year horizon, got %d", result.SearchYears)
		}
	})
}

func TestRecompute(t *testing.T) {
	svc, tripSvc, db := newTestService(t)
	ctx := context.Background()

	profile := models.UserProfile{ID: "user-a", Email: "user@example.com"}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	seedTrip(t, tripSvc, "user-a", date(2023, time.June, 1), date(2023, time.June, 20))

	snapshot, err := svc.Recompute(ctx, "user-a", "", date(2024, time.January, 1))
	if err != nil {
		t.Fatalf("Recompute returned error: %v", err)
	}

	if snapshot.PolicyName != "standard" {
		t.Errorf("expected policy standard, got %q", snapshot.PolicyName)
	}
	if snapshot.Days12Months != 18 {
		t.Errorf("expected 18 days in 12 months, got %d", snapshot.Days12Months)
	}
	if snapshot.EarliestDate == nil {
		t.Fatal("expected earliest date to be set")
	}
	if !snapshot.EarliestDate.Equal(date(2024, time.January, 1)) {
		t.Errorf("expected earliest date today, got %v", snapshot.EarliestDate)
	}
	if snapshot.PresenceDate == nil || !snapshot.PresenceDate.Equal(date(2019, time.January, 2)) {
		t.Errorf("unexpected presence date %v", snapshot.PresenceDate)
	}
	if !snapshot.PresentOnPresenceDate {
		t.Error("expected present on presence date")
	}

	var reloaded models.UserProfile
	if err := db.First(&reloaded, "id = ?", "user-a").Error; err != nil {
		t.Fatalf("failed to reload profile: %v", err)
	}
	if reloaded.LastRecomputeAt == nil {
		t.Error("expected last recompute time to be set on profile")
	}

	latest, err := svc.LatestSnapshot(ctx, "user-a")
	if err != nil {
		t.Fatalf("LatestSnapshot returned error: %v", err)
	}
	if latest.ID != snapshot.ID {
		t.Errorf("expected latest snapshot %s, got %s", snapshot.ID, latest.ID)
	}
}

func TestRecomputeNoEligibleDate(t *testing.T) {
	svc, tripSvc, _ := newTestService(t)
	ctx := context.Background()

	seedTrip(t, tripSvc, "away-user", date(2020, time.January, 1), date(2040, time.January, 1))

	snapshot, err := svc.Recompute(ctx, "away-user", "", date(2024, time.January, 1))
	if err != nil {
		t.Fatalf("Recompute returned error: %v", err)
	}
	if snapshot.EarliestDate != nil {
		t.Errorf("expected no earliest date, got %v", snapshot.EarliestDate)
	}
}

func TestLatestSnapshotNone(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.LatestSnapshot(context.Background(), "nobody")
	if !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}
}

func TestLatestSnapshotOrdering(t *testing.T) {
	svc, _, db := newTestService(t)

	older := models.EligibilitySnapshot{
		UserID:     "user-a",
		PolicyName: "standard",
		AsOf:       date(2024, time.January, 1),
		ComputedAt: date(2024, time.January, 1),
	}
	newer := models.EligibilitySnapshot{
		UserID:     "user-a",
		PolicyName: "standard",
		AsOf:       date(2024, time.February, 1),
		ComputedAt: date(2024, time.February, 1),
	}
	for _, s := range []*models.EligibilitySnapshot{&older, &newer} {
		if err := db.Create(s).Error; err != nil {
			t.Fatalf("failed to create snapshot: %v", err)
		}
	}

	latest, err := svc.LatestSnapshot(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("LatestSnapshot returned error: %v", err)
	}
	if latest.ID != newer.ID {
		t.Errorf("expected newest snapshot %s, got %s", newer.ID, latest.ID)
	}
}

func TestPruneSnapshots(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	mkSnapshot := func(userID string, computedAt time.Time) models.EligibilitySnapshot {
		s := models.EligibilitySnapshot{
			UserID:     userID,
			PolicyName: "standard",
			AsOf:       computedAt,
			ComputedAt: computedAt,
		}
		if err := db.Create(&s).Error; err != nil {
			t.Fatalf("failed to create snapshot: %v", err)
		}
		return s
	}

	// 4 snapshots for user-a, 3 for user-b
	var keptA, keptB []string
	for i := 0; i < 4; i++ {
		s := mkSnapshot("user-a", date(2024, time.January, 1+i))
		if i >= 2 {
			keptA = append(keptA, s.ID)
		}
	}
	for i := 0; i < 3; i++ {
		s := mkSnapshot("user-b", date(2024, time.March, 1+i))
		if i >= 1 {
			keptB = append(keptB, s.ID)
		}
	}

	deleted, err := svc.PruneSnapshots(ctx, 2)
	if err != nil {
		t.Fatalf("PruneSnapshots returned error: %v", err)
	}
	if deleted != 3 {
		t.Errorf("expected 3 snapshots deleted, got %d", deleted)
	}

	var remaining []models.EligibilitySnapshot
	if err := db.Order("user_id, computed_at").Find(&remaining).Error; err != nil {
		t.Fatalf("failed to load snapshots: %v", err)
	}
	if len(remaining) != 4 {
		t.Fatalf("expected 4 snapshots remaining, got %d", len(remaining))
	}
	want := map[string]bool{}
	for _, id := range append(keptA, keptB...) {
		want[id] = true
	}
	for _, s := range remaining {
		if !want[s.ID] {
			t.Errorf("unexpected surviving snapshot %s for %s computed %v", s.ID, s.UserID, s.ComputedAt)
		}
	}
}

func TestPruneSnapshotsInvalidRetention(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.PruneSnapshots(context.Background(), 0); err == nil {
		t.Fatal("expected error for zero retention")
	}
}
