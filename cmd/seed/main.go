package main

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/api"
	"github.com/hackgods/clinic-scheduling/internal/apiclient"
	"github.com/hackgods/clinic-scheduling/internal/logging"
)

var expertise = []string{
	"Physiotherapy",
	"Massage",
	"Acupuncture",
	"Chiropractic",
	"Osteopathy",
	"Rehabilitation",
	"Sports Therapy",
	"Reflexology",
}

func main() {
	log := logging.New("clinic-seed", getEnv("APP_ENV", "dev"), getEnv("LOG_LEVEL", "info"))
	log.Info().Msg("seed starting")

	baseURL := getEnv("SEED_API_BASE_URL", "http://localhost:8080")
	providers := getInt("SEED_PROVIDERS", 10)
	patients := getInt("SEED_PATIENTS", 200)
	bookings := getInt("SEED_BOOKINGS", 100)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	faker := gofakeit.New(uint64(time.Now().UnixNano()))
	client := apiclient.New(baseURL, nil)

	providerIDs, err := seedProviders(ctx, log, client, faker, providers)
	if err != nil {
		log.Fatal().Err(err).Msg("seed providers")
	}
	patientIDs, err := seedPatients(ctx, log, client, faker, patients)
	if err != nil {
		log.Fatal().Err(err).Msg("seed patients")
	}
	if err := seedBookings(ctx, log, client, faker, providerIDs, patientIDs, bookings); err != nil {
		log.Fatal().Err(err).Msg("seed bookings")
	}

	log.Info().Msg("seed complete")
}

func seedProviders(ctx context.Context, log zerolog.Logger, c *apiclient.Client, f *gofakeit.Faker, count int) ([]string, error) {
	log.Info().Int("count", count).Msg("seeding providers")

	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		skills := pickExpertise(f)
		p, err := c.CreateProvider(ctx, api.CreateProviderRequest{
			Name:      "Dr " + f.Name(),
			Address:   f.Street() + ", " + f.City(),
			Phone:     f.Phone(),
			Expertise: skills,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, p.ID)
	}

	log.Info().Msg("providers seeded")
	return out, nil
}

func seedPatients(ctx context.Context, log zerolog.Logger, c *apiclient.Client, f *gofakeit.Faker, count int) ([]string, error) {
	log.Info().Int("count", count).Msg("seeding patients")

	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		p, err := c.CreatePatient(ctx, api.CreatePatientRequest{
			Name:    f.Name(),
			Address: f.Street() + ", " + f.City(),
			Phone:   f.Phone(),
		})
		if err != nil {
			return nil, err
		}
		out = append(out, p.ID)

		if (i+1)%100 == 0 {
			log.Info().Int("seeded", i+1).Int("total", count).Msg("patients progress")
		}
	}

	log.Info().Msg("patients seeded")
	return out, nil
}

// seedBookings books random free slots; conflicts are skipped, not retried.
func seedBookings(ctx context.Context, log zerolog.Logger, c *apiclient.Client, f *gofakeit.Faker, providers, patients []string, count int) error {
	if len(providers) == 0 || len(patients) == 0 {
		return nil
	}
	log.Info().Int("count", count).Msg("seeding bookings")

	created, skipped := 0, 0
	for i := 0; i < count; i++ {
		providerID := providers[f.Number(0, len(providers)-1)]
		slots, err := c.FreeSlots(ctx, providerID)
		if err != nil {
			return err
		}
		if len(slots) == 0 {
			skipped++
			continue
		}
		slot := slots[f.Number(0, len(slots)-1)]
		patientID := patients[f.Number(0, len(patients)-1)]

		_, err = c.CreateBooking(ctx, patientID, providerID, expertise[f.Number(0, len(expertise)-1)], slot)
		var apiErr *apiclient.Error
		if errors.As(err, &apiErr) && apiErr.Status < 500 {
			skipped++
			continue
		}
		if err != nil {
			return err
		}
		created++
	}

	log.Info().Int("created", created).Int("skipped", skipped).Msg("bookings seeded")
	return nil
}

func pickExpertise(f *gofakeit.Faker) []string {
	n := f.Number(1, 3)
	seen := make(map[string]bool, n)
	out := make([]string, 0, n)
	for len(out) < n {
		e := expertise[f.Number(0, len(expertise)-1)]
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
