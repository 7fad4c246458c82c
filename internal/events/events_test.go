package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent() Event {
	return Event{
		Type:          BookingCreated,
		BookingID:     "BOOK_20250602_000001",
		PatientID:     "PAT_20250602_000001",
		ProviderID:    "PRV_20250602_000001",
		TreatmentName: "Massage",
		SlotTime:      time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
		Status:        "booked",
		OccurredAt:    time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestPgJournalPublish(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ev := sampleEvent()
	mock.ExpectExec("INSERT INTO event_logs").
		WithArgs(ev.Type, ev.BookingID, pgxmock.AnyArg(), ev.OccurredAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	j := NewPgJournal(mock)
	require.NoError(t, j.Publish(context.Background(), ev))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgJournalPublishWithoutBooking(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ev := Event{Type: PatientDeactivated, PatientID: "PAT_1", OccurredAt: time.Now()}
	mock.ExpectExec("INSERT INTO event_logs").
		WithArgs(ev.Type, nil, pgxmock.AnyArg(), ev.OccurredAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, NewPgJournal(mock).Publish(context.Background(), ev))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgJournalPublishError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO event_logs").
		WillReturnError(errors.New("connection reset"))

	err = NewPgJournal(mock).Publish(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert event log")
}

func TestRedisPublisherPublish(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	sub := client.Subscribe(ctx, "test:events")
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	pub := NewRedisPublisher(client, "test:events")
	require.NoError(t, pub.Publish(ctx, sampleEvent()))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var got Event
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, BookingCreated, got.Type)
	assert.Equal(t, "BOOK_20250602_000001", got.BookingID)
	assert.True(t, got.SlotTime.Equal(sampleEvent().SlotTime))
}

func TestRedisPublisherDefaultChannel(t *testing.T) {
	pub := NewRedisPublisher(nil, "")
	assert.Equal(t, DefaultChannel, pub.channel)
}

type failingSink struct{ err error }

func (f failingSink) Publish(context.Context, Event) error { return f.err }

type recordingSink struct{ got []Event }

func (r *recordingSink) Publish(_ context.Context, ev Event) error {
	r.got = append(r.got, ev)
	return nil
}

func TestFanoutContinuesPastFailures(t *testing.T) {
	boom := errors.New("boom")
	rec := &recordingSink{}

	err := Fanout{failingSink{boom}, rec}.Publish(context.Background(), sampleEvent())

	assert.ErrorIs(t, err, boom)
	assert.Len(t, rec.got, 1)
}

func TestLogSinkWritesFields(t *testing.T) {
	var buf bytes.Buffer
	sink := LogSink{Logger: zerolog.New(&buf)}

	require.NoError(t, sink.Publish(context.Background(), sampleEvent()))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, BookingCreated, line["event_type"])
	assert.Equal(t, "BOOK_20250602_000001", line["booking_id"])
	assert.Equal(t, "event", line["message"])
}
