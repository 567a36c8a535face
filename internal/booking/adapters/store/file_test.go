package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BRAITOU555/reservationvtc6/internal/booking/adapters/store"
	"github.com/BRAITOU555/reservationvtc6/internal/booking/domain"
)

func newStore(t *testing.T) (*store.FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db.json")
	return store.NewFileStore(path, nil), path
}

func TestLoadMissingFileDefaults(t *testing.T) {
	s, _ := newStore(t)

	doc, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc.Reservations)
	assert.Empty(t, doc.Drivers)
	assert.Empty(t, doc.Admins)
	assert.NotNil(t, doc.Reservations)
}

func TestLoadMalformedFileDefaults(t *testing.T) {
	s, path := newStore(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	doc, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc.Reservations)
}

func TestMutatePersistsAndRoundTrips(t *testing.T) {
	s, path := newStore(t)
	ctx := context.Background()

	res := domain.Reservation{
		ID:              "r1",
		PickupLocation:  "A",
		DropoffLocation: "B",
		PickupTime:      time.Now().UTC().Truncate(time.Second),
		ReservationType: domain.TypeImmediate,
		DiscountedFare:  12.34,
	}
	err := s.Mutate(ctx, func(doc *domain.Document) error {
		doc.Reservations = append(doc.Reservations, res)
		return nil
	})
	require.NoError(t, err)
	require.FileExists(t, path)

	// a second store over the same file sees the same records
	reopened := store.NewFileStore(path, nil)
	doc, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Reservations, 1)
	assert.Equal(t, res.ID, doc.Reservations[0].ID)
	assert.Equal(t, 12.34, doc.Reservations[0].DiscountedFare)
	assert.True(t, res.PickupTime.Equal(doc.Reservations[0].PickupTime))
}

func TestMutateErrorLeavesFileUntouched(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Mutate(ctx, func(doc *domain.Document) error {
		doc.Drivers = append(doc.Drivers, domain.Driver{ID: "d1"})
		return nil
	}))

	boom := errors.New("boom")
	err := s.Mutate(ctx, func(doc *domain.Document) error {
		doc.Drivers = nil
		return boom
	})
	require.ErrorIs(t, err, boom)

	doc, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Drivers, 1)
	assert.Equal(t, "d1", doc.Drivers[0].ID)
}

func TestMutateSerializesConcurrentAppends(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	const n = 20
	done := make(chan error, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			done <- s.Mutate(ctx, func(doc *domain.Document) error {
				doc.Reservations = append(doc.Reservations, domain.Reservation{ID: string(rune('a' + i))})
				return nil
			})
		}(i)
	}
	for i := 0; i < n; i++ {
		require.NoError(t, <-done)
	}

	doc, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, doc.Reservations, n, "no appends may be lost")
}
