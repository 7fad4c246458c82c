package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/api"
	"github.com/hackgods/clinic-scheduling/internal/apiclient"
	"github.com/hackgods/clinic-scheduling/internal/logging"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	BookingRatio float64
	ModifyRatio  float64
	CancelRatio  float64
	AttendRatio  float64
	ReadRatio    float64
	SlotLimit    int
}

// DataPool holds the ids the workers draw from.
type DataPool struct {
	Patients  []string
	Providers []string
	Slots     []time.Time

	mu       sync.RWMutex
	bookings []string
}

func (dp *DataPool) AddBooking(id string) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.bookings = append(dp.bookings, id)
}

func (dp *DataPool) RandomBooking(rng *rand.Rand) (string, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.bookings) == 0 {
		return "", false
	}
	return dp.bookings[rng.Intn(len(dp.bookings))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, err error) {
	atomic.AddInt64(&om.Total, 1)
	var apiErr *apiclient.Error
	switch {
	case err == nil:
		atomic.AddInt64(&om.Success, 1)
	case errors.As(err, &apiErr) && apiErr.Status < 500:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[min2(len(latencies)*50/100, len(latencies)-1)]
	p95 = latencies[min2(len(latencies)*95/100, len(latencies)-1)]
	return avg, min, max, p50, p95
}

type Metrics struct {
	Create OperationMetrics
	Modify OperationMetrics
	Cancel OperationMetrics
	Attend OperationMetrics
	Read   OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *apiclient.Client
	log     zerolog.Logger
	metrics Metrics
}

func main() {
	log := logging.New("clinic-simulate", getEnv("APP_ENV", "dev"), getEnv("LOG_LEVEL", "info"))
	log.Info().Msg("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	log.Info().
		Dur("duration", cfg.Duration).
		Int("workers", cfg.Workers).
		Float64("create", cfg.BookingRatio).
		Float64("modify", cfg.ModifyRatio).
		Float64("cancel", cfg.CancelRatio).
		Float64("attend", cfg.AttendRatio).
		Float64("read", cfg.ReadRatio).
		Msg("config loaded")

	client := apiclient.New(cfg.APIBaseURL, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dataPool, err := loadDataPool(ctx, client, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("load data pool")
	}
	log.Info().
		Int("patients", len(dataPool.Patients)).
		Int("providers", len(dataPool.Providers)).
		Int("slots", len(dataPool.Slots)).
		Msg("data pool loaded")

	sim := &Simulator{config: cfg, pool: dataPool, client: client, log: log}
	sim.Run()
	sim.PrintReport()

	if err := sim.Verify(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("invariant check failed")
	}
	log.Info().Msg("invariants hold: no double-booked slot, no patient overlap")
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		BookingRatio: getFloat("SIM_BOOKING_RATIO", 0.4),
		ModifyRatio:  getFloat("SIM_MODIFY_RATIO", 0.15),
		CancelRatio:  getFloat("SIM_CANCEL_RATIO", 0.1),
		AttendRatio:  getFloat("SIM_ATTEND_RATIO", 0.1),
		ReadRatio:    getFloat("SIM_READ_RATIO", 0.25),
		SlotLimit:    getInt("SIM_SLOT_LIMIT", 40),
	}

	total := cfg.BookingRatio + cfg.ModifyRatio + cfg.CancelRatio + cfg.AttendRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.ModifyRatio /= total
		cfg.CancelRatio /= total
		cfg.AttendRatio /= total
		cfg.ReadRatio /= total
	}
	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.SlotLimit <= 0 {
		return fmt.Errorf("SIM_SLOT_LIMIT must be > 0")
	}
	return nil
}

// loadDataPool reads the seeded patients and providers and keeps a small set
// of slot instants so workers collide on purpose.
func loadDataPool(ctx context.Context, c *apiclient.Client, cfg SimConfig) (*DataPool, error) {
	dp := &DataPool{}

	patients, err := c.Patients(ctx)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	for _, p := range patients {
		if p.Active {
			dp.Patients = append(dp.Patients, p.ID)
		}
	}

	providers, err := c.Providers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load providers: %w", err)
	}
	for _, p := range providers {
		if p.Active {
			dp.Providers = append(dp.Providers, p.ID)
		}
	}

	if len(dp.Patients) == 0 {
		return nil, fmt.Errorf("no patients loaded, run cmd/seed first")
	}
	if len(dp.Providers) == 0 {
		return nil, fmt.Errorf("no providers loaded, run cmd/seed first")
	}

	slots, err := c.FreeSlots(ctx, dp.Providers[0])
	if err != nil {
		return nil, fmt.Errorf("load slots: %w", err)
	}
	if len(slots) > cfg.SlotLimit {
		slots = slots[:cfg.SlotLimit]
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("no free slots loaded")
	}
	dp.Slots = slots
	return dp, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	s.log.Info().Dur("duration", s.config.Duration).Int("workers", s.config.Workers).Msg("starting simulation")

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.log.Info().Msg("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))
	c := s.config

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		r := rng.Float64()
		switch {
		case r < c.BookingRatio:
			s.doCreate(ctx, rng)
		case r < c.BookingRatio+c.ModifyRatio:
			s.doModify(ctx, rng)
		case r < c.BookingRatio+c.ModifyRatio+c.CancelRatio:
			s.doCancel(ctx, rng)
		case r < c.BookingRatio+c.ModifyRatio+c.CancelRatio+c.AttendRatio:
			s.doAttend(ctx, rng)
		default:
			s.doRead(ctx, rng)
		}
	}
}

func (s *Simulator) randomProvider(rng *rand.Rand) string {
	return s.pool.Providers[rng.Intn(len(s.pool.Providers))]
}

func (s *Simulator) randomSlot(rng *rand.Rand) time.Time {
	return s.pool.Slots[rng.Intn(len(s.pool.Slots))]
}

func (s *Simulator) doCreate(ctx context.Context, rng *rand.Rand) {
	patientID := s.pool.Patients[rng.Intn(len(s.pool.Patients))]

	start := time.Now()
	b, err := s.client.CreateBooking(ctx, patientID, s.randomProvider(rng), "Simulated treatment", s.randomSlot(rng))
	if ctx.Err() != nil {
		return
	}
	s.metrics.Create.Record(time.Since(start), err)
	if err == nil {
		s.pool.AddBooking(b.ID)
	}
}

func (s *Simulator) doModify(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.RandomBooking(rng)
	if !ok {
		return
	}
	start := time.Now()
	_, err := s.client.ModifyBooking(ctx, id, s.randomProvider(rng), "Rescheduled treatment", s.randomSlot(rng))
	if ctx.Err() != nil {
		return
	}
	s.metrics.Modify.Record(time.Since(start), err)
}

func (s *Simulator) doCancel(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.RandomBooking(rng)
	if !ok {
		return
	}
	start := time.Now()
	_, err := s.client.CancelBooking(ctx, id)
	if ctx.Err() != nil {
		return
	}
	s.metrics.Cancel.Record(time.Since(start), err)
}

func (s *Simulator) doAttend(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.RandomBooking(rng)
	if !ok {
		return
	}
	start := time.Now()
	_, err := s.client.AttendBooking(ctx, id)
	if ctx.Err() != nil {
		return
	}
	s.metrics.Attend.Record(time.Since(start), err)
}

func (s *Simulator) doRead(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.RandomBooking(rng)
	if !ok {
		return
	}
	start := time.Now()
	_, err := s.client.Booking(ctx, id)
	if ctx.Err() != nil {
		return
	}
	s.metrics.Read.Record(time.Since(start), err)
}

// Verify re-reads every booking and checks that no provider slot is held
// twice and no patient holds two Booked bookings at one instant.
func (s *Simulator) Verify(ctx context.Context) error {
	all, err := s.client.Bookings(ctx)
	if err != nil {
		return fmt.Errorf("list bookings: %w", err)
	}
	return checkInvariants(all)
}

func checkInvariants(all []api.BookingResponse) error {
	slotHeld := make(map[string]string)
	patientAt := make(map[string]string)
	for _, b := range all {
		if b.Status == "cancelled" {
			continue
		}
		key := b.ProviderID + "@" + b.Time.UTC().Format(time.RFC3339)
		if other, ok := slotHeld[key]; ok {
			return fmt.Errorf("slot %s held by %s and %s", key, other, b.ID)
		}
		slotHeld[key] = b.ID

		if b.Status != "booked" {
			continue
		}
		pkey := b.PatientID + "@" + b.Time.UTC().Format(time.RFC3339)
		if other, ok := patientAt[pkey]; ok {
			return fmt.Errorf("patient overlap %s between %s and %s", pkey, other, b.ID)
		}
		patientAt[pkey] = b.ID
	}
	return nil
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Create booking", &s.metrics.Create)
	printOperationReport("Modify booking", &s.metrics.Modify)
	printOperationReport("Cancel booking", &s.metrics.Cancel)
	printOperationReport("Attend booking", &s.metrics.Attend)
	printOperationReport("Read booking", &s.metrics.Read)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)
	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Rejected: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

func min2(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
