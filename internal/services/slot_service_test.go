package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddSlotsIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	therapist := f.actor(f.therapist)

	first, err := f.slots.AddSlots(ctx, therapist, slotDate, []string{"10:00", "09:00", "10:00"})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "09:00", first[0].Time)
	assert.Equal(t, "10:00", first[1].Time)

	again, err := f.slots.AddSlots(ctx, therapist, slotDate, []string{"09:00", "11:30"})
	require.NoError(t, err)
	require.Len(t, again, 3)
	assert.Equal(t, first[0].ID, again[0].ID)
	assert.Equal(t, 1, f.store.dateCount())
}

func TestAddSlotsValidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.slots.AddSlots(ctx, f.actor(f.therapist), "02/01/2030", []string{"10:00"})
	requireKind(t, err, KindValidation)
	_, err = f.slots.AddSlots(ctx, f.actor(f.therapist), slotDate, []string{"25:00"})
	requireKind(t, err, KindValidation)
	_, err = f.slots.AddSlots(ctx, f.actor(f.therapist), slotDate, nil)
	requireKind(t, err, KindValidation)
	_, err = f.slots.AddSlots(ctx, f.actor(f.client), slotDate, []string{"10:00"})
	requireKind(t, err, KindForbidden)
}

func TestRemoveSlotCleansUpEmptyDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	morning := f.openSlot(t, slotDate, "09:00")
	evening := f.openSlot(t, slotDate, "18:00")

	require.NoError(t, f.slots.RemoveSlot(ctx, f.actor(f.therapist), morning))
	assert.Equal(t, 1, f.store.dateCount())

	require.NoError(t, f.slots.RemoveSlot(ctx, f.actor(f.therapist), evening))
	assert.Equal(t, 0, f.store.dateCount())

	err := f.slots.RemoveSlot(ctx, f.actor(f.therapist), evening)
	requireKind(t, err, KindNotFound)
}

func TestRemoveBookedSlotConflicts(t *testing.T) {
	f := newFixture(t)
	slotID := f.openSlot(t, slotDate, slotTime)
	f.book(t, f.client, slotID)

	err := f.slots.RemoveSlot(context.Background(), f.actor(f.therapist), slotID)
	requireKind(t, err, KindConflict)
	_, exists := f.store.slotBooked(slotID)
	assert.True(t, exists)
}

func TestRemoveSlotOfAnotherTherapist(t *testing.T) {
	f := newFixture(t)
	slotID := f.openSlot(t, slotDate, slotTime)
	other := f.store.addUser(models.RoleTherapist, true)

	err := f.slots.RemoveSlot(context.Background(), f.actor(other), slotID)
	requireKind(t, err, KindForbidden)
}

func TestConcurrentReserveHasOneWinner(t *testing.T) {
	f := newFixture(t)
	slotID := f.openSlot(t, slotDate, slotTime)

	const racers = 8
	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.slots.ReserveSlot(context.Background(), slotID, slotDate, f.therapist)
		}(i)
	}
	wg.Wait()

	var won int
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		assert.True(t, errors.Is(err, ErrAlreadyBooked), "unexpected error %v", err)
	}
	assert.Equal(t, 1, won)
}

func TestListAvailableOrdersAndRestarts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	therapist := f.actor(f.therapist)

	_, err := f.slots.AddSlots(ctx, therapist, "2030-01-03", []string{"08:00"})
	require.NoError(t, err)
	_, err = f.slots.AddSlots(ctx, therapist, slotDate, []string{"15:00", "09:30"})
	require.NoError(t, err)
	_, err = f.slots.AddSlots(ctx, therapist, "2029-12-30", []string{"10:00"})
	require.NoError(t, err)
	taken := f.openSlot(t, slotDate, "12:00")
	f.book(t, f.client, taken)

	seq := f.slots.ListAvailable(ctx, f.therapist, slotDate)
	collect := func() []string {
		var out []string
		for slot, err := range seq {
			require.NoError(t, err)
			out = append(out, slot.Date+" "+slot.Time)
		}
		return out
	}

	want := []string{"2030-01-02 09:30", "2030-01-02 15:00", "2030-01-03 08:00"}
	assert.Equal(t, want, collect())
	assert.Equal(t, want, collect())

	for slot, err := range seq {
		require.NoError(t, err)
		assert.Equal(t, "09:30", slot.Time)
		break
	}
}

func TestListAvailablePagesPastOnePage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for day := 1; day <= 3; day++ {
		date := []string{"2030-02-01", "2030-02-02", "2030-02-03"}[day-1]
		times := make([]string, 0, 48)
		for h := 0; h < 24; h++ {
			times = append(times, twoDigits(h)+":00", twoDigits(h)+":30")
		}
		_, err := f.slots.AddSlots(ctx, f.actor(f.therapist), date, times)
		require.NoError(t, err)
	}

	var count int
	var last string
	for slot, err := range f.slots.ListAvailable(ctx, f.therapist, "2030-02-01") {
		require.NoError(t, err)
		key := slot.Date + " " + slot.Time
		assert.Greater(t, key, last)
		last = key
		count++
	}
	assert.Equal(t, 144, count)
}

func TestListAvailableRejectsBadDate(t *testing.T) {
	f := newFixture(t)
	var yielded int
	for _, err := range f.slots.ListAvailable(context.Background(), f.therapist, "tomorrow") {
		requireKind(t, err, KindValidation)
		yielded++
	}
	assert.Equal(t, 1, yielded)
}

func twoDigits(n int) string {
	return string([]byte{byte('0' + n/10), byte('0' + n%10)})
}
