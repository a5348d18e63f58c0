// Package tariff classifies timestamps against a cheap/expensive electricity
// tariff calendar defined in local civil time: a weekday cheap window spanning
// midnight plus all-day-cheap weekend and holiday days.
package tariff

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SensorsIot/Energy-Management/core/model"
)

const holidayLayout = "2006-01-02"

// Clock is a civil wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM".
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return Clock{}, fmt.Errorf("invalid clock time %q, want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return Clock{}, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return Clock{}, fmt.Errorf("invalid minute in %q", s)
	}
	return Clock{Hour: h, Minute: m}, nil
}

func (c Clock) minutes() int { return c.Hour*60 + c.Minute }

// on places the clock time on the civil day containing t.
func (c Clock) on(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), c.Hour, c.Minute, 0, 0, t.Location())
}

// Options configure a Calendar. All times are interpreted in Location.
type Options struct {
	// CheapStart and CheapEnd bound the weekday cheap window, which must
	// span midnight (e.g. 21:00 to 06:00).
	CheapStart Clock
	CheapEnd   Clock
	// WeekendAllDayCheap marks Saturday and Sunday as all-day cheap.
	WeekendAllDayCheap bool
	// Holidays are all-day-cheap dates in "YYYY-MM-DD" form.
	Holidays []string
	Location *time.Location
	// SlotWidth is the forecast slot width timestamps are floored to.
	SlotWidth time.Duration
}

// Calendar answers tariff-period questions. It is immutable after creation
// and safe for concurrent use.
type Calendar struct {
	cheapStart   Clock
	cheapEnd     Clock
	weekendCheap bool
	holidays     map[string]struct{}
	loc          *time.Location
	slot         time.Duration
}

// NewCalendar validates the options and builds a Calendar.
func NewCalendar(opts Options) (*Calendar, error) {
	if opts.Location == nil {
		return nil, fmt.Errorf("calendar location is required")
	}
	if opts.SlotWidth <= 0 {
		return nil, fmt.Errorf("slot width must be positive, got %s", opts.SlotWidth)
	}
	// FloorToSlot aligns on minute-of-hour boundaries.
	if opts.SlotWidth%time.Minute != 0 || 60%int(opts.SlotWidth.Minutes()) != 0 {
		return nil, fmt.Errorf("slot width must be whole minutes dividing the hour, got %s", opts.SlotWidth)
	}
	if opts.CheapStart.minutes() <= opts.CheapEnd.minutes() {
		return nil, fmt.Errorf("cheap window must span midnight, got start %02d:%02d end %02d:%02d",
			opts.CheapStart.Hour, opts.CheapStart.Minute, opts.CheapEnd.Hour, opts.CheapEnd.Minute)
	}
	holidays := make(map[string]struct{}, len(opts.Holidays))
	for _, h := range opts.Holidays {
		d, err := time.ParseInLocation(holidayLayout, h, opts.Location)
		if err != nil {
			return nil, fmt.Errorf("invalid holiday date %q: %w", h, err)
		}
		holidays[d.Format(holidayLayout)] = struct{}{}
	}
	return &Calendar{
		cheapStart:   opts.CheapStart,
		cheapEnd:     opts.CheapEnd,
		weekendCheap: opts.WeekendAllDayCheap,
		holidays:     holidays,
		loc:          opts.Location,
		slot:         opts.SlotWidth,
	}, nil
}

// Location returns the calendar's reference timezone.
func (c *Calendar) Location() *time.Location { return c.loc }

// SlotWidth returns the configured forecast slot width.
func (c *Calendar) SlotWidth() time.Duration { return c.slot }

// FloorToSlot normalizes t down to the start of its slot in local time.
func (c *Calendar) FloorToSlot(t time.Time) time.Time {
	local := t.In(c.loc)
	slotMin := int(c.slot.Minutes())
	minute := (local.Minute() / slotMin) * slotMin
	return time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), minute, 0, 0, c.loc)
}

// IsHoliday reports whether t falls on a configured holiday date.
func (c *Calendar) IsHoliday(t time.Time) bool {
	_, ok := c.holidays[t.In(c.loc).Format(holidayLayout)]
	return ok
}

// IsCheapDay reports whether the whole civil day containing t is cheap.
func (c *Calendar) IsCheapDay(t time.Time) bool {
	local := t.In(c.loc)
	if c.weekendCheap {
		if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
			return true
		}
	}
	return c.IsHoliday(local)
}

// CheapAt classifies a single instant. Boundaries are half-open: the cheap
// window starts at CheapStart inclusive and ends at CheapEnd exclusive.
func (c *Calendar) CheapAt(t time.Time) bool {
	local := t.In(c.loc)
	if c.IsCheapDay(local) {
		return true
	}
	mins := local.Hour()*60 + local.Minute()
	return mins < c.cheapEnd.minutes() || mins >= c.cheapStart.minutes()
}

// nextNonCheapDay walks forward day by day from the day after the one
// containing t until a non-all-day-cheap day is found. Consecutive cheap days
// (a holiday adjacent to a weekend) are skipped as a block.
func (c *Calendar) nextNonCheapDay(t time.Time) time.Time {
	day := t.In(c.loc).AddDate(0, 0, 1)
	for c.IsCheapDay(day) {
		day = day.AddDate(0, 0, 1)
	}
	return day
}

// Periods computes the tariff structure around now: the current or upcoming
// cheap period and the end of the next expensive window. Pure function of now
// and the static configuration.
func (c *Calendar) Periods(now time.Time) model.TariffPeriod {
	local := c.FloorToSlot(now)

	if c.IsCheapDay(local) {
		next := c.nextNonCheapDay(local)
		return model.TariffPeriod{
			CheapStart: local,
			CheapEnd:   c.cheapEnd.on(next),
			Target:     c.cheapStart.on(next),
			IsCheapNow: true,
		}
	}

	mins := local.Hour()*60 + local.Minute()
	switch {
	case mins < c.cheapEnd.minutes():
		// Still inside the cheap period that started the previous evening.
		return model.TariffPeriod{
			CheapStart: c.cheapStart.on(local.AddDate(0, 0, -1)),
			CheapEnd:   c.cheapEnd.on(local),
			Target:     c.cheapStart.on(local),
			IsCheapNow: true,
		}
	case mins >= c.cheapStart.minutes():
		// Evening cheap period, running to the morning of the next
		// non-cheap day.
		next := c.nextNonCheapDay(local)
		return model.TariffPeriod{
			CheapStart: c.cheapStart.on(local),
			CheapEnd:   c.cheapEnd.on(next),
			Target:     c.cheapStart.on(next),
			IsCheapNow: true,
		}
	default:
		// Daytime expensive period; the next cheap window opens tonight.
		next := c.nextNonCheapDay(local)
		return model.TariffPeriod{
			CheapStart: c.cheapStart.on(local),
			CheapEnd:   c.cheapEnd.on(next),
			Target:     c.cheapStart.on(next),
			IsCheapNow: false,
		}
	}
}
