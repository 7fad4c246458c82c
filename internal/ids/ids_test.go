package ids

import (
	"regexp"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
}

func TestSequenceFormat(t *testing.T) {
	seq := NewSequence(fixedNow)

	assert.Equal(t, "PAT_20250602_000001", seq.NewID(KindPatient))
	assert.Equal(t, "PAT_20250602_000002", seq.NewID(KindPatient))
	assert.Equal(t, "PRV_20250602_000001", seq.NewID(KindProvider))
	assert.Equal(t, "BOOK_20250602_000001", seq.NewID(KindBooking))
}

func TestSequenceSortsInIssueOrder(t *testing.T) {
	seq := NewSequence(fixedNow)

	issued := make([]string, 0, 10001)
	for i := 0; i < 10001; i++ {
		issued = append(issued, seq.NewID(KindBooking))
	}

	assert.True(t, sort.StringsAreSorted(issued))
	assert.Equal(t, "BOOK_20250602_009999", issued[9998])
	assert.Equal(t, "BOOK_20250602_010000", issued[9999])
}

func TestSequenceConcurrentUnique(t *testing.T) {
	seq := NewSequence(fixedNow)

	const workers, perWorker = 8, 250
	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, workers*perWorker)
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := seq.NewID(KindBooking)
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}

func TestUUIDGenerator(t *testing.T) {
	re := regexp.MustCompile(`^PRV_[0-9a-f-]{36}$`)
	var g UUID

	a, b := g.NewID(KindProvider), g.NewID(KindProvider)
	assert.Regexp(t, re, a)
	assert.NotEqual(t, a, b)
}

func TestNew(t *testing.T) {
	g, err := New("", fixedNow)
	require.NoError(t, err)
	assert.IsType(t, &Sequence{}, g)

	g, err = New("uuid", nil)
	require.NoError(t, err)
	assert.IsType(t, UUID{}, g)

	_, err = New("snowflake", nil)
	assert.Error(t, err)
}
