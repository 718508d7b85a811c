package services

import (
	"testing"
	"time"
)

func TestIsWorkday_Weekend(t *testing.T) {
	svc := NewHolidayService()

	saturday := time.Date(2026, time.March, 7, 12, 0, 0, 0, time.UTC)
	if svc.IsWorkday(saturday, "US") {
		t.Error("Saturday should not be a workday")
	}
	if svc.IsWorkday(saturday, "XX") {
		t.Error("Saturday should not be a workday for unknown country codes either")
	}
}

func TestIsWorkday_PublicHoliday(t *testing.T) {
	svc := NewHolidayService()

	// July 4th 2025 falls on a Friday
	independenceDay := time.Date(2025, time.July, 4, 12, 0, 0, 0, time.UTC)
	if svc.IsWorkday(independenceDay, "US") {
		t.Error("Independence Day should not be a US workday")
	}
	// But Germany works that day
	if !svc.IsWorkday(independenceDay, "DE") {
		t.Error("July 4th is an ordinary workday in Germany")
	}
}

func TestIsWorkday_UnknownCountryFallsBackToWeekdays(t *testing.T) {
	svc := NewHolidayService()

	wednesday := time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)
	if !svc.IsWorkday(wednesday, "XX") {
		t.Error("unknown country codes should treat weekdays as workdays")
	}
}
