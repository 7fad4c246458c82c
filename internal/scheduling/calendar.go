package scheduling

import (
	"fmt"
	"time"
)

// CalendarPolicy describes how a provider's slots are generated. It is
// applied once when the provider is created.
type CalendarPolicy struct {
	Anchor       time.Time     // first calendar day, time of day is ignored
	Days         int           // number of consecutive calendar days
	OpenHour     int           // first slot starts at this hour
	CloseHour    int           // last slot ends at or before this hour
	SlotWidth    time.Duration // width of every slot
	SkipWeekends bool
}

// DefaultCalendarPolicy opens weekdays 09:00-17:00 in one-hour slots for 30
// days starting at anchor.
func DefaultCalendarPolicy(anchor time.Time) CalendarPolicy {
	return CalendarPolicy{
		Anchor:       anchor,
		Days:         30,
		OpenHour:     9,
		CloseHour:    17,
		SlotWidth:    time.Hour,
		SkipWeekends: true,
	}
}

func (p CalendarPolicy) Validate() error {
	if p.Anchor.IsZero() {
		return fmt.Errorf("calendar anchor is required")
	}
	if p.Days <= 0 {
		return fmt.Errorf("calendar days must be > 0, got %d", p.Days)
	}
	if p.OpenHour < 0 || p.CloseHour > 24 || p.OpenHour >= p.CloseHour {
		return fmt.Errorf("calendar hours must satisfy 0 <= open < close <= 24, got %d-%d", p.OpenHour, p.CloseHour)
	}
	if p.SlotWidth <= 0 {
		return fmt.Errorf("calendar slot width must be > 0")
	}
	if time.Duration(p.CloseHour-p.OpenHour)*time.Hour < p.SlotWidth {
		return fmt.Errorf("calendar slot width %s does not fit the business window", p.SlotWidth)
	}
	return nil
}

// Slots expands the policy into slot start times in chronological order.
func (p CalendarPolicy) Slots() []time.Time {
	year, month, day := p.Anchor.Date()
	loc := p.Anchor.Location()

	var out []time.Time
	for d := 0; d < p.Days; d++ {
		date := time.Date(year, month, day+d, 0, 0, 0, 0, loc)
		if p.SkipWeekends && (date.Weekday() == time.Saturday || date.Weekday() == time.Sunday) {
			continue
		}
		open := date.Add(time.Duration(p.OpenHour) * time.Hour)
		closeAt := date.Add(time.Duration(p.CloseHour) * time.Hour)
		for s := open; !s.Add(p.SlotWidth).After(closeAt); s = s.Add(p.SlotWidth) {
			out = append(out, s)
		}
	}
	return out
}

// SlotCalendar is a provider's timetable. It is not safe for concurrent use;
// the scheduler serialises access with the owning provider's lock.
type SlotCalendar struct {
	slots    []time.Time
	occupied []bool
	index    map[int64]int
	active   bool
}

// NewSlotCalendar builds an active calendar with every slot of policy free.
func NewSlotCalendar(policy CalendarPolicy) (*SlotCalendar, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	slots := policy.Slots()
	c := &SlotCalendar{
		slots:    slots,
		occupied: make([]bool, len(slots)),
		index:    make(map[int64]int, len(slots)),
		active:   true,
	}
	for i, s := range slots {
		c.index[slotKey(s)] = i
	}
	return c, nil
}

// slotKey identifies an instant independent of its location.
func slotKey(t time.Time) int64 {
	return t.UnixNano()
}

func (c *SlotCalendar) Active() bool { return c.active }

func (c *SlotCalendar) SetActive(active bool) { c.active = active }

// Contains reports whether t is a slot of the generated horizon.
func (c *SlotCalendar) Contains(t time.Time) bool {
	_, ok := c.index[slotKey(t)]
	return ok
}

func (c *SlotCalendar) IsFree(t time.Time) bool {
	if !c.active {
		return false
	}
	i, ok := c.index[slotKey(t)]
	return ok && !c.occupied[i]
}

// IsOccupied reports the raw occupancy flag, regardless of provider activity.
func (c *SlotCalendar) IsOccupied(t time.Time) bool {
	i, ok := c.index[slotKey(t)]
	return ok && c.occupied[i]
}

func (c *SlotCalendar) Claim(t time.Time) error {
	if !c.IsFree(t) {
		return newError(ErrSlotUnavailable, "claim slot", "slot", t.Format(time.RFC3339), c.unavailableReason(t))
	}
	c.occupied[c.index[slotKey(t)]] = true
	return nil
}

func (c *SlotCalendar) unavailableReason(t time.Time) string {
	switch {
	case !c.active:
		return "provider is inactive"
	case !c.Contains(t):
		return "outside the provider calendar"
	default:
		return "already occupied"
	}
}

func (c *SlotCalendar) occupy(t time.Time) {
	if i, ok := c.index[slotKey(t)]; ok {
		c.occupied[i] = true
	}
}

// Release frees t. Unknown or already free slots are left untouched.
func (c *SlotCalendar) Release(t time.Time) {
	if i, ok := c.index[slotKey(t)]; ok {
		c.occupied[i] = false
	}
}

// ListFree returns the free slots in chronological order, or nothing when the
// provider is inactive.
func (c *SlotCalendar) ListFree() []time.Time {
	if !c.active {
		return nil
	}
	out := make([]time.Time, 0, len(c.slots))
	for i, s := range c.slots {
		if !c.occupied[i] {
			out = append(out, s)
		}
	}
	return out
}

func (c *SlotCalendar) OccupiedCount() int {
	n := 0
	for _, o := range c.occupied {
		if o {
			n++
		}
	}
	return n
}

func (c *SlotCalendar) Len() int { return len(c.slots) }
