package scheduling

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hackgods/clinic-scheduling/internal/events"
	"github.com/hackgods/clinic-scheduling/internal/ids"
	"github.com/hackgods/clinic-scheduling/internal/logging"
	"github.com/hackgods/clinic-scheduling/internal/metrics"
)

const tracerName = "clinic.internal.scheduling"

// Clock supplies the current instant for past/future checks.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

var SystemClock Clock = ClockFunc(time.Now)

type Options struct {
	Policy  CalendarPolicy
	IDs     ids.Generator
	Clock   Clock
	Sink    events.Sink
	Metrics *metrics.SchedulerMetrics
	Logger  zerolog.Logger

	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
}

type providerEntry struct {
	id        string
	name      string
	address   string
	phone     string
	expertise []string
	calendar  *SlotCalendar // guarded by the provider lock
}

type patientEntry struct {
	id      string
	name    string
	address string
	phone   string
	ledger  *PatientLedger
}

// Scheduler is the only writer of bookings. Lock order is: provider locks in
// ascending id order, then the patient's ledger mutex. s.mu only guards the
// tables and is never held while taking another lock.
type Scheduler struct {
	policy  CalendarPolicy
	ids     ids.Generator
	clock   Clock
	sink    events.Sink
	metrics *metrics.SchedulerMetrics
	log     zerolog.Logger
	tracer  trace.Tracer
	locks   *KeyedMutex

	mu        sync.RWMutex
	providers map[string]*providerEntry
	patients  map[string]*patientEntry
	bookings  map[string]*booking
	order     []*booking
}

func New(opts Options) (*Scheduler, error) {
	if err := opts.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("calendar policy: %w", err)
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.IDs == nil {
		opts.IDs = ids.NewSequence(opts.Clock.Now)
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}
	return &Scheduler{
		policy:    opts.Policy,
		ids:       opts.IDs,
		clock:     opts.Clock,
		sink:      opts.Sink,
		metrics:   opts.Metrics,
		log:       opts.Logger,
		tracer:    opts.TracerProvider.Tracer(tracerName),
		locks:     NewKeyedMutex(),
		providers: make(map[string]*providerEntry),
		patients:  make(map[string]*patientEntry),
		bookings:  make(map[string]*booking),
	}, nil
}

// observe opens a span for op and returns the func that closes it and
// records the outcome.
func (s *Scheduler) observe(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "scheduling."+op)
	span.SetAttributes(attrs...)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, Code(err))
		}
		span.End()
		s.metrics.ObserveOperation(op, Code(err), time.Since(start).Seconds())
	}
}

func (s *Scheduler) emit(ctx context.Context, ev events.Event) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Publish(ctx, ev); err != nil {
		log := logging.FromContext(ctx, s.log)
		log.Warn().Err(err).Str("event_type", ev.Type).Msg("failed to publish event")
	}
}

func bookingEvent(typ string, b Booking, at time.Time) events.Event {
	return events.Event{
		Type:          typ,
		BookingID:     b.ID,
		PatientID:     b.PatientID,
		ProviderID:    b.Treatment.ProviderID,
		TreatmentName: b.Treatment.Name,
		SlotTime:      b.Treatment.Time,
		Status:        string(b.Status),
		OccurredAt:    at,
	}
}

// Lookups

func (s *Scheduler) provider(op, id string) (*providerEntry, error) {
	s.mu.RLock()
	p, ok := s.providers[id]
	s.mu.RUnlock()
	if !ok {
		return nil, newError(ErrNotFound, op, "provider", id, "")
	}
	return p, nil
}

func (s *Scheduler) patient(op, id string) (*patientEntry, error) {
	s.mu.RLock()
	p, ok := s.patients[id]
	s.mu.RUnlock()
	if !ok {
		return nil, newError(ErrNotFound, op, "patient", id, "")
	}
	return p, nil
}

func (s *Scheduler) booking(op, id string) (*booking, *patientEntry, error) {
	s.mu.RLock()
	b, ok := s.bookings[id]
	var pat *patientEntry
	if ok {
		pat = s.patients[b.patientID]
	}
	s.mu.RUnlock()
	if !ok {
		return nil, nil, newError(ErrNotFound, op, "booking", id, "")
	}
	return b, pat, nil
}

// lockBooking locks the provider currently holding b's slot, the optional
// extra provider and then the patient's ledger. The current provider is read
// before the provider locks are taken, so it is re-checked afterwards and the
// sequence retried if a concurrent modify moved the booking.
func (s *Scheduler) lockBooking(b *booking, pat *patientEntry, extra *providerEntry) (*providerEntry, func(), error) {
	for {
		pat.ledger.mu.Lock()
		pid := b.treatment.providerID
		pat.ledger.mu.Unlock()

		cur, err := s.provider("lock booking", pid)
		if err != nil {
			return nil, nil, err
		}
		keys := []string{cur.id}
		if extra != nil {
			keys = append(keys, extra.id)
		}
		unlockProviders := s.locks.Lock(keys...)
		pat.ledger.mu.Lock()
		if b.treatment.providerID == pid {
			return cur, func() {
				pat.ledger.mu.Unlock()
				unlockProviders()
			}, nil
		}
		pat.ledger.mu.Unlock()
		unlockProviders()
	}
}

// Providers

func (s *Scheduler) AddProvider(ctx context.Context, in ProviderInput) (_ Provider, err error) {
	ctx, done := s.observe(ctx, "add_provider")
	defer func() { done(err) }()

	if strings.TrimSpace(in.Name) == "" {
		return Provider{}, newError(ErrInvalidInput, "add provider", "", "", "name is required")
	}
	cal, err := NewSlotCalendar(s.policy)
	if err != nil {
		return Provider{}, fmt.Errorf("build calendar: %w", err)
	}

	p := &providerEntry{
		id:        s.ids.NewID(ids.KindProvider),
		name:      strings.TrimSpace(in.Name),
		address:   in.Address,
		phone:     in.Phone,
		expertise: append([]string(nil), in.Expertise...),
		calendar:  cal,
	}
	s.mu.Lock()
	s.providers[p.id] = p
	s.mu.Unlock()

	log := logging.FromContext(ctx, s.log)
	log.Info().Str("provider_id", p.id).Int("slots", cal.Len()).Msg("provider added")
	return s.providerSnapshot(p), nil
}

func (s *Scheduler) providerSnapshot(p *providerEntry) Provider {
	unlock := s.locks.Lock(p.id)
	defer unlock()
	return Provider{
		ID:            p.id,
		Name:          p.name,
		Address:       p.address,
		Phone:         p.phone,
		Expertise:     append([]string(nil), p.expertise...),
		Active:        p.calendar.Active(),
		TotalSlots:    p.calendar.Len(),
		OccupiedSlots: p.calendar.OccupiedCount(),
	}
}

func (s *Scheduler) Provider(id string) (Provider, error) {
	p, err := s.provider("get provider", id)
	if err != nil {
		return Provider{}, err
	}
	return s.providerSnapshot(p), nil
}

func (s *Scheduler) DeactivateProvider(ctx context.Context, id string) (Provider, error) {
	return s.setProviderActive(ctx, id, false)
}

func (s *Scheduler) ActivateProvider(ctx context.Context, id string) (Provider, error) {
	return s.setProviderActive(ctx, id, true)
}

func (s *Scheduler) setProviderActive(ctx context.Context, id string, active bool) (_ Provider, err error) {
	op, typ := "deactivate_provider", events.ProviderDeactivated
	if active {
		op, typ = "activate_provider", events.ProviderActivated
	}
	ctx, done := s.observe(ctx, op, attribute.String("clinic.provider_id", id))
	defer func() { done(err) }()

	p, err := s.provider(strings.ReplaceAll(op, "_", " "), id)
	if err != nil {
		return Provider{}, err
	}
	unlock := s.locks.Lock(p.id)
	p.calendar.SetActive(active)
	unlock()

	s.emit(ctx, events.Event{Type: typ, ProviderID: p.id, OccurredAt: s.clock.Now()})
	return s.providerSnapshot(p), nil
}

// FreeSlots lists the provider's free slots in chronological order.
func (s *Scheduler) FreeSlots(providerID string) ([]time.Time, error) {
	p, err := s.provider("list free slots", providerID)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(p.id)
	defer unlock()
	return p.calendar.ListFree(), nil
}

// Patients

func (s *Scheduler) AddPatient(ctx context.Context, in PatientInput) (_ Patient, err error) {
	ctx, done := s.observe(ctx, "add_patient")
	defer func() { done(err) }()

	if strings.TrimSpace(in.Name) == "" {
		return Patient{}, newError(ErrInvalidInput, "add patient", "", "", "name is required")
	}
	id := s.ids.NewID(ids.KindPatient)
	p := &patientEntry{
		id:      id,
		name:    strings.TrimSpace(in.Name),
		address: in.Address,
		phone:   in.Phone,
		ledger:  NewPatientLedger(id),
	}
	s.mu.Lock()
	s.patients[p.id] = p
	s.mu.Unlock()

	log := logging.FromContext(ctx, s.log)
	log.Info().Str("patient_id", p.id).Msg("patient added")
	return s.patientSnapshot(p), nil
}

func (s *Scheduler) patientSnapshot(p *patientEntry) Patient {
	p.ledger.mu.Lock()
	defer p.ledger.mu.Unlock()
	return Patient{
		ID:         p.id,
		Name:       p.name,
		Address:    p.address,
		Phone:      p.phone,
		Active:     p.ledger.active,
		BookingIDs: p.ledger.bookingIDs(),
	}
}

func (s *Scheduler) Patient(id string) (Patient, error) {
	p, err := s.patient("get patient", id)
	if err != nil {
		return Patient{}, err
	}
	return s.patientSnapshot(p), nil
}

func (s *Scheduler) PatientBookings(id string) ([]Booking, error) {
	p, err := s.patient("list patient bookings", id)
	if err != nil {
		return nil, err
	}
	return p.ledger.Bookings(), nil
}

func (s *Scheduler) DeactivatePatient(ctx context.Context, id string) (_ Patient, err error) {
	ctx, done := s.observe(ctx, "deactivate_patient", attribute.String("clinic.patient_id", id))
	defer func() { done(err) }()

	p, err := s.patient("deactivate patient", id)
	if err != nil {
		return Patient{}, err
	}
	if err := p.ledger.Deactivate(); err != nil {
		return Patient{}, err
	}
	s.emit(ctx, events.Event{Type: events.PatientDeactivated, PatientID: p.id, OccurredAt: s.clock.Now()})
	return s.patientSnapshot(p), nil
}

func (s *Scheduler) ReactivatePatient(ctx context.Context, id string) (_ Patient, err error) {
	ctx, done := s.observe(ctx, "reactivate_patient", attribute.String("clinic.patient_id", id))
	defer func() { done(err) }()

	p, err := s.patient("reactivate patient", id)
	if err != nil {
		return Patient{}, err
	}
	p.ledger.Reactivate()
	s.emit(ctx, events.Event{Type: events.PatientReactivated, PatientID: p.id, OccurredAt: s.clock.Now()})
	return s.patientSnapshot(p), nil
}

// Bookings

// CreateBooking claims the slot and registers the booking with the patient's
// ledger. A ledger rejection releases the slot before the error is returned.
func (s *Scheduler) CreateBooking(ctx context.Context, req CreateBookingRequest) (_ Booking, err error) {
	ctx, done := s.observe(ctx, "create_booking",
		attribute.String("clinic.patient_id", req.PatientID),
		attribute.String("clinic.provider_id", req.ProviderID),
	)
	defer func() { done(err) }()

	const op = "create booking"
	pat, err := s.patient(op, req.PatientID)
	if err != nil {
		return Booking{}, err
	}
	prov, err := s.provider(op, req.ProviderID)
	if err != nil {
		return Booking{}, err
	}
	now := s.clock.Now()
	t, err := NewTreatment(req.TreatmentName, prov.id, req.Time, now)
	if err != nil {
		return Booking{}, err
	}

	var snap Booking
	err = s.locks.With(func() error {
		if !prov.calendar.Active() {
			return newError(ErrInactiveProvider, op, "provider", prov.id, "")
		}
		if err := t.book(prov.calendar); err != nil {
			return err
		}
		b := newBooking(s.ids.NewID(ids.KindBooking), pat.id, t, now)
		if err := pat.ledger.Register(b); err != nil {
			t.unbook(prov.calendar)
			return err
		}
		// b is not in s.bookings yet, so nothing else can mutate it.
		snap = b.snapshot()

		s.mu.Lock()
		s.bookings[b.id] = b
		s.order = append(s.order, b)
		s.mu.Unlock()
		return nil
	}, prov.id)
	if err != nil {
		return Booking{}, err
	}

	s.metrics.SlotClaimed()
	s.emit(ctx, bookingEvent(events.BookingCreated, snap, now))
	log := logging.FromContext(ctx, s.log)
	log.Info().
		Str("booking_id", snap.ID).
		Str("patient_id", snap.PatientID).
		Str("provider_id", snap.Treatment.ProviderID).
		Time("slot", snap.Treatment.Time).
		Msg("booking created")
	return snap, nil
}

func (s *Scheduler) CancelBooking(ctx context.Context, id string) (_ Booking, err error) {
	ctx, done := s.observe(ctx, "cancel_booking", attribute.String("clinic.booking_id", id))
	defer func() { done(err) }()

	b, pat, err := s.booking("cancel booking", id)
	if err != nil {
		return Booking{}, err
	}
	now := s.clock.Now()
	prov, unlock, err := s.lockBooking(b, pat, nil)
	if err != nil {
		return Booking{}, err
	}
	err = b.cancel(prov.calendar, now)
	snap := b.snapshot()
	unlock()
	if err != nil {
		return Booking{}, err
	}

	s.metrics.SlotReleased()
	s.emit(ctx, bookingEvent(events.BookingCancelled, snap, now))
	log := logging.FromContext(ctx, s.log)
	log.Info().Str("booking_id", snap.ID).Msg("booking cancelled")
	return snap, nil
}

func (s *Scheduler) AttendBooking(ctx context.Context, id string) (_ Booking, err error) {
	ctx, done := s.observe(ctx, "attend_booking", attribute.String("clinic.booking_id", id))
	defer func() { done(err) }()

	b, pat, err := s.booking("attend booking", id)
	if err != nil {
		return Booking{}, err
	}
	now := s.clock.Now()
	_, unlock, err := s.lockBooking(b, pat, nil)
	if err != nil {
		return Booking{}, err
	}
	err = b.attend(now)
	snap := b.snapshot()
	unlock()
	if err != nil {
		return Booking{}, err
	}

	s.emit(ctx, bookingEvent(events.BookingAttended, snap, now))
	log := logging.FromContext(ctx, s.log)
	log.Info().Str("booking_id", snap.ID).Msg("booking attended")
	return snap, nil
}

// ModifyBooking moves a Booked booking to a new treatment, possibly with a
// different provider. Both provider locks are held for the swap.
func (s *Scheduler) ModifyBooking(ctx context.Context, id string, req ModifyBookingRequest) (_ Booking, err error) {
	ctx, done := s.observe(ctx, "modify_booking",
		attribute.String("clinic.booking_id", id),
		attribute.String("clinic.provider_id", req.ProviderID),
	)
	defer func() { done(err) }()

	const op = "modify booking"
	b, pat, err := s.booking(op, id)
	if err != nil {
		return Booking{}, err
	}
	target, err := s.provider(op, req.ProviderID)
	if err != nil {
		return Booking{}, err
	}
	now := s.clock.Now()
	next, err := NewTreatment(req.TreatmentName, target.id, req.Time, now)
	if err != nil {
		return Booking{}, err
	}

	cur, unlock, err := s.lockBooking(b, pat, target)
	if err != nil {
		return Booking{}, err
	}
	err = func() error {
		if err := b.require(op, StatusBooked); err != nil {
			return err
		}
		if !target.calendar.Active() {
			return newError(ErrInactiveProvider, op, "provider", target.id, "")
		}
		if pat.ledger.bookedAt(next.at, b.id) {
			return newError(ErrOverlapConflict, op, "patient", pat.id, next.at.Format(time.RFC3339))
		}
		return b.change(next, cur.calendar, target.calendar, now)
	}()
	snap := b.snapshot()
	unlock()
	if err != nil {
		return Booking{}, err
	}

	s.emit(ctx, bookingEvent(events.BookingModified, snap, now))
	log := logging.FromContext(ctx, s.log)
	log.Info().
		Str("booking_id", snap.ID).
		Str("provider_id", snap.Treatment.ProviderID).
		Time("slot", snap.Treatment.Time).
		Msg("booking modified")
	return snap, nil
}

func (s *Scheduler) Booking(id string) (Booking, error) {
	b, pat, err := s.booking("get booking", id)
	if err != nil {
		return Booking{}, err
	}
	pat.ledger.mu.Lock()
	defer pat.ledger.mu.Unlock()
	return b.snapshot(), nil
}
