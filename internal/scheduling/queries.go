package scheduling

import (
	"cmp"
	"slices"
	"strings"
)

func (s *Scheduler) providerEntries() []*providerEntry {
	s.mu.RLock()
	out := make([]*providerEntry, 0, len(s.providers))
	for _, p := range s.providers {
		out = append(out, p)
	}
	s.mu.RUnlock()
	slices.SortFunc(out, func(a, b *providerEntry) int { return cmp.Compare(a.id, b.id) })
	return out
}

// snapshotBookings copies bookings under their patients' ledger locks.
func (s *Scheduler) snapshotBookings() []Booking {
	s.mu.RLock()
	type pair struct {
		b   *booking
		pat *patientEntry
	}
	all := make([]pair, 0, len(s.order))
	for _, b := range s.order {
		all = append(all, pair{b, s.patients[b.patientID]})
	}
	s.mu.RUnlock()

	out := make([]Booking, 0, len(all))
	for _, p := range all {
		p.pat.ledger.mu.Lock()
		out = append(out, p.b.snapshot())
		p.pat.ledger.mu.Unlock()
	}
	return out
}

// Providers returns every provider ordered by id.
func (s *Scheduler) Providers() []Provider {
	entries := s.providerEntries()
	out := make([]Provider, 0, len(entries))
	for _, p := range entries {
		out = append(out, s.providerSnapshot(p))
	}
	return out
}

// Patients returns every patient ordered by id.
func (s *Scheduler) Patients() []Patient {
	s.mu.RLock()
	entries := make([]*patientEntry, 0, len(s.patients))
	for _, p := range s.patients {
		entries = append(entries, p)
	}
	s.mu.RUnlock()
	slices.SortFunc(entries, func(a, b *patientEntry) int { return cmp.Compare(a.id, b.id) })

	out := make([]Patient, 0, len(entries))
	for _, p := range entries {
		out = append(out, s.patientSnapshot(p))
	}
	return out
}

// Bookings returns every booking in creation order.
func (s *Scheduler) Bookings() []Booking {
	return s.snapshotBookings()
}

// SearchProviders filters providers by expertise (case-insensitive exact
// match) and name (case-insensitive substring). Empty filters match all.
func (s *Scheduler) SearchProviders(expertise, name string) []Provider {
	expertise = strings.TrimSpace(expertise)
	name = strings.ToLower(strings.TrimSpace(name))

	var out []Provider
	for _, p := range s.Providers() {
		if name != "" && !strings.Contains(strings.ToLower(p.Name), name) {
			continue
		}
		if expertise != "" && !slices.ContainsFunc(p.Expertise, func(e string) bool {
			return strings.EqualFold(e, expertise)
		}) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// BookingsByProvider groups bookings by their current provider. Providers are
// ordered by id and bookings by slot time, then id.
func (s *Scheduler) BookingsByProvider() []ProviderBookings {
	grouped := make(map[string][]Booking)
	for _, b := range s.snapshotBookings() {
		grouped[b.Treatment.ProviderID] = append(grouped[b.Treatment.ProviderID], b)
	}

	providers := s.Providers()
	out := make([]ProviderBookings, 0, len(providers))
	for _, p := range providers {
		list := grouped[p.ID]
		slices.SortFunc(list, func(a, b Booking) int {
			if c := a.Treatment.Time.Compare(b.Treatment.Time); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
		out = append(out, ProviderBookings{Provider: p, Bookings: list})
	}
	return out
}

// AttendedRanking orders every provider by Attended bookings, descending,
// ties broken by provider id ascending.
func (s *Scheduler) AttendedRanking() []ProviderAttendance {
	counts := make(map[string]int)
	for _, b := range s.snapshotBookings() {
		if b.Status == StatusAttended {
			counts[b.Treatment.ProviderID]++
		}
	}

	providers := s.Providers()
	out := make([]ProviderAttendance, 0, len(providers))
	for _, p := range providers {
		out = append(out, ProviderAttendance{Provider: p, Attended: counts[p.ID]})
	}
	slices.SortStableFunc(out, func(a, b ProviderAttendance) int {
		if c := cmp.Compare(b.Attended, a.Attended); c != 0 {
			return c
		}
		return cmp.Compare(a.Provider.ID, b.Provider.ID)
	})
	return out
}

func (s *Scheduler) AttendedCount(providerID string) (int, error) {
	if _, err := s.provider("count attended", providerID); err != nil {
		return 0, err
	}
	n := 0
	for _, b := range s.snapshotBookings() {
		if b.Status == StatusAttended && b.Treatment.ProviderID == providerID {
			n++
		}
	}
	return n, nil
}
