package services

import (
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/au"
	"github.com/rickar/cal/v2/ca"
	"github.com/rickar/cal/v2/de"
	"github.com/rickar/cal/v2/es"
	"github.com/rickar/cal/v2/fr"
	"github.com/rickar/cal/v2/gb"
	"github.com/rickar/cal/v2/ie"
	"github.com/rickar/cal/v2/it"
	"github.com/rickar/cal/v2/jp"
	"github.com/rickar/cal/v2/nl"
	"github.com/rickar/cal/v2/nz"
	"github.com/rickar/cal/v2/us"
)

// HolidayService answers whether a date is a working day in a band's
// country. The daily digest skips weekends and public holidays so members
// are not pinged on days off.
type HolidayService struct {
	calendars map[string]*cal.BusinessCalendar
}

func NewHolidayService() *HolidayService {
	s := &HolidayService{
		calendars: make(map[string]*cal.BusinessCalendar),
	}
	s.initCalendars()
	return s
}

func (s *HolidayService) initCalendars() {
	s.calendars["US"] = s.createCalendar("United States", us.Holidays...)
	s.calendars["GB"] = s.createCalendar("United Kingdom", gb.Holidays...)
	s.calendars["DE"] = s.createCalendar("Germany", de.Holidays...)
	s.calendars["FR"] = s.createCalendar("France", fr.Holidays...)
	s.calendars["JP"] = s.createCalendar("Japan", jp.Holidays...)
	s.calendars["AU"] = s.createCalendar("Australia", au.HolidaysNSW...)
	s.calendars["CA"] = s.createCalendar("Canada", ca.Holidays...)
	s.calendars["NZ"] = s.createCalendar("New Zealand", nz.Holidays...)
	s.calendars["IT"] = s.createCalendar("Italy", it.Holidays...)
	s.calendars["ES"] = s.createCalendar("Spain", es.Holidays...)
	s.calendars["NL"] = s.createCalendar("Netherlands", nl.Holidays...)
	s.calendars["IE"] = s.createCalendar("Ireland", ie.Holidays...)
}

func (s *HolidayService) createCalendar(name string, holidays ...*cal.Holiday) *cal.BusinessCalendar {
	c := cal.NewBusinessCalendar()
	c.Name = name
	c.AddHoliday(holidays...)
	return c
}

// IsWorkday reports whether t is a working day for the given ISO country
// code. Unknown codes fall back to weekday-only.
func (s *HolidayService) IsWorkday(t time.Time, countryCode string) bool {
	c, ok := s.calendars[countryCode]
	if !ok {
		return !cal.IsWeekend(t)
	}
	return c.IsWorkday(t)
}
