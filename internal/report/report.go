// Package report renders plain-text summaries of the booking book.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/hackgods/clinic-scheduling/internal/scheduling"
)

// Source is the read side of the scheduler the report needs.
type Source interface {
	BookingsByProvider() []scheduling.ProviderBookings
	AttendedRanking() []scheduling.ProviderAttendance
}

// Write renders the bookings-by-provider table followed by the attended
// ranking.
func Write(w io.Writer, src Source) error {
	if _, err := fmt.Fprintln(w, "Bookings by provider"); err != nil {
		return err
	}
	WriteBookings(w, src.BookingsByProvider())

	if _, err := fmt.Fprintln(w, "\nProviders by attended bookings"); err != nil {
		return err
	}
	WriteRanking(w, src.AttendedRanking())
	return nil
}

func WriteBookings(w io.Writer, groups []scheduling.ProviderBookings) {
	t := newTable(w, "Provider", "Booking", "Patient", "Treatment", "Time", "Status")
	for _, g := range groups {
		if len(g.Bookings) == 0 {
			t.Append([]string{providerLabel(g.Provider), "-", "-", "-", "-", "-"})
			continue
		}
		for _, b := range g.Bookings {
			t.Append([]string{
				providerLabel(g.Provider),
				b.ID,
				b.PatientID,
				b.Treatment.Name,
				b.Treatment.Time.UTC().Format(time.RFC3339),
				string(b.Status),
			})
		}
	}
	t.Render()
}

func WriteRanking(w io.Writer, ranking []scheduling.ProviderAttendance) {
	t := newTable(w, "Rank", "Provider", "Expertise", "Attended")
	for i, r := range ranking {
		t.Append([]string{
			strconv.Itoa(i + 1),
			providerLabel(r.Provider),
			joinExpertise(r.Provider.Expertise),
			strconv.Itoa(r.Attended),
		})
	}
	t.Render()
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	t.SetAutoWrapText(false)
	t.SetAutoMergeCells(true)
	return t
}

func providerLabel(p scheduling.Provider) string {
	label := p.ID + " " + p.Name
	if !p.Active {
		label += " (inactive)"
	}
	return label
}

func joinExpertise(e []string) string {
	if len(e) == 0 {
		return "-"
	}
	out := e[0]
	for _, s := range e[1:] {
		out += ", " + s
	}
	return out
}
