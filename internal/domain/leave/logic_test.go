package leave

import (
	"errors"
	"testing"

	"ems/internal/domain/apperror"
	"ems/internal/domain/dates"
)

func TestCalculateDays(t *testing.T) {
	start := dates.Of(2025, 1, 10)

	days, err := CalculateDays(start, start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 1 {
		t.Fatalf("expected 1 day, got %v", days)
	}

	days, err = CalculateDays(start, dates.Of(2025, 1, 12))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 3 {
		t.Fatalf("expected 3 days, got %v", days)
	}
}

func TestCalculateDaysInvalid(t *testing.T) {
	_, err := CalculateDays(dates.Of(2025, 2, 10), dates.Of(2025, 2, 9))
	if !errors.Is(err, apperror.ErrInvalidArgument) {
		t.Fatalf("expected InvalidArgument for reversed range, got %v", err)
	}
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus(" approved ")
	if err != nil || status != StatusApproved {
		t.Fatalf("expected APPROVED, got %q (%v)", status, err)
	}
	if _, err := ParseStatus("ARCHIVED"); !errors.Is(err, apperror.ErrInvalidArgument) {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestValidateApplication(t *testing.T) {
	start, end := dates.Of(2025, 3, 1), dates.Of(2025, 3, 2)
	if err := validateApplication(Application{LeaveType: TypeVacation, StartDate: &start, EndDate: &end}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := validateApplication(Application{LeaveType: "SABBATICAL", StartDate: &start, EndDate: &end}); err == nil {
		t.Fatal("expected unknown leave type to fail")
	}
	if err := validateApplication(Application{LeaveType: TypeSick, StartDate: &end, EndDate: &start}); !errors.Is(err, apperror.ErrInvalidArgument) {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}
