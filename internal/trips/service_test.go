package trips

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/absenced-dev/absenced/internal/absence"
	"github.com/absenced-dev/absenced/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "trips_test.sqlite")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCreate(t *testing.T) {
	svc := NewService(newTestDB(t), zerolog.Nop())
	ctx := context.Background()

	trip, err := svc.Create(ctx, CreateParams{
		UserID:    "user-a",
		StartDate: time.Date(2024, time.March, 10, 18, 30, 0, 0, time.FixedZone("CET", 3600)),
		EndDate:   date(2024, time.March, 20),
		Note:      "  family visit  ",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if trip.ID == "" {
		t.Error("expected generated trip ID")
	}
	if !trip.StartDate.Equal(date(2024, time.March, 10)) {
		t.Errorf("start date not normalized, got %v", trip.StartDate)
	}
	if trip.Note != "family visit" {
		t.Errorf("note not trimmed, got %q", trip.Note)
	}
}

func TestCreateRejectsInvertedDates(t *testing.T) {
	svc := NewService(newTestDB(t), zerolog.Nop())

	_, err := svc.Create(context.Background(), CreateParams{
		UserID:    "user-a",
		StartDate: date(2024, time.March, 20),
		EndDate:   date(2024, time.March, 10),
	})
	if !errors.Is(err, absence.ErrEndBeforeStart) {
		t.Fatalf("expected ErrEndBeforeStart, got %v", err)
	}
}

func TestListOrdersByDeparture(t *testing.T) {
	svc := NewService(newTestDB(t), zerolog.Nop())
	ctx := context.Background()

	for _, start := range []time.Time{
		date(2023, time.January, 5),
		date(2024, time.June, 1),
		date(2022, time.November, 20),
	} {
		if _, err := svc.Create(ctx, CreateParams{
			UserID:    "user-a",
			StartDate: start,
			EndDate:   start.AddDate(0, 0, 7),
		}); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}

	trips, err := svc.List(ctx, "user-a")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(trips) != 3 {
		t.Fatalf("expected 3 trips, got %d", len(trips))
	}
	if !trips[0].StartDate.Equal(date(2024, time.June, 1)) {
		t.Errorf("expected most recent departure first, got %v", trips[0].StartDate)
	}
	if !trips[2].StartDate.Equal(date(2022, time.November, 20)) {
		t.Errorf("expected oldest departure last, got %v", trips[2].StartDate)
	}
}

func TestListScopedToUser(t *testing.T) {
	svc := NewService(newTestDB(t), zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateParams{
		UserID:    "user-a",
		StartDate: date(2024, time.March, 1),
		EndDate:   date(2024, time.March, 5),
	}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	trips, err := svc.List(ctx, "user-b")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(trips) != 0 {
		t.Errorf("expected no trips for other user, got %d", len(trips))
	}
}

func TestDelete(t *testing.T) {
	svc := NewService(newTestDB(t), zerolog.Nop())
	ctx := context.Background()

	trip, err := svc.Create(ctx, CreateParams{
		UserID:    "user-a",
		StartDate: date(2024, time.March, 1),
		EndDate:   date(2024, time.March, 5),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// Another user cannot delete it
	if err := svc.Delete(ctx, "user-b", trip.ID); !errors.Is(err, ErrTripNotFound) {
		t.Fatalf("expected ErrTripNotFound for other user, got %v", err)
	}

	if err := svc.Delete(ctx, "user-a", trip.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := svc.Delete(ctx, "user-a", trip.ID); !errors.Is(err, ErrTripNotFound) {
		t.Fatalf("expected ErrTripNotFound after delete, got %v", err)
	}

	trips, err := svc.List(ctx, "user-a")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(trips) != 0 {
		t.Errorf("expected no trips after delete, got %d", len(trips))
	}
}

func TestForCalculator(t *testing.T) {
	svc := NewService(newTestDB(t), zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateParams{
		UserID:    "user-a",
		StartDate: date(2024, time.March, 1),
		EndDate:   date(2024, time.March, 10),
		Note:      "ski trip",
	}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	trips, err := svc.ForCalculator(ctx, "user-a")
	if err != nil {
		t.Fatalf("ForCalculator returned error: %v", err)
	}
	if len(trips) != 1 {
		t.Fatalf("expected 1 trip, got %d", len(trips))
	}
	if got := trips[0].FullAbsenceDays(); got != 8 {
		t.Errorf("expected 8 full absence days, got %d", got)
	}
	if trips[0].Note != "ski trip" {
		t.Errorf("unexpected note %q", trips[0].Note)
	}
}
