package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greenschool/app/models"
)

func TestSweepFlagsLapsedSnapshots(t *testing.T) {
	f := newFixture()
	snap := persistSnapshot(t, f) // due 2025-02-01

	today := date("2025-02-02")
	flagged, err := f.scanner.Sweep(today)
	require.NoError(t, err)
	assert.Equal(t, 1, flagged)

	after, err := f.store.Snapshots().Get(testSchool, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FeeOverdue, after.Status)
	require.NotNil(t, after.LastOverdueNotified)
	assert.True(t, after.LastOverdueNotified.Equal(today))
	assert.Equal(t, 1, f.eventCount(models.EventFeeOverdue))
}

func TestSweepIsIdempotentSameDay(t *testing.T) {
	f := newFixture()
	persistSnapshot(t, f)

	today := date("2025-02-02")
	flagged, err := f.scanner.Sweep(today)
	require.NoError(t, err)
	assert.Equal(t, 1, flagged)

	// Second run the same day: the snapshot is already overdue, so it
	// is not a candidate and no second reminder fires.
	flagged, err = f.scanner.Sweep(today)
	require.NoError(t, err)
	assert.Equal(t, 0, flagged)
	assert.Equal(t, 1, f.eventCount(models.EventFeeOverdue))
}

func TestSweepSkipsFutureAndSettled(t *testing.T) {
	f := newFixture()
	snap := persistSnapshot(t, f)

	// Not yet due.
	flagged, err := f.scanner.Sweep(date("2025-01-15"))
	require.NoError(t, err)
	assert.Equal(t, 0, flagged)

	// Due on the due date itself is not overdue.
	flagged, err = f.scanner.Sweep(date("2025-02-01"))
	require.NoError(t, err)
	assert.Equal(t, 0, flagged)

	// Settled fees are never flagged.
	_, err = f.ledger.Record(testSchool, snap.ID, snap.BalanceDue, models.MethodCash, date("2025-01-20"), nil)
	require.NoError(t, err)
	flagged, err = f.scanner.Sweep(date("2025-03-01"))
	require.NoError(t, err)
	assert.Equal(t, 0, flagged)
}

func TestSweepSkipsWaived(t *testing.T) {
	f := newFixture()
	snap := persistSnapshot(t, f)

	_, err := f.ledger.Waive(testSchool, snap.ID, "hardship")
	require.NoError(t, err)

	flagged, err := f.scanner.Sweep(date("2025-03-01"))
	require.NoError(t, err)
	assert.Equal(t, 0, flagged)
	assert.Equal(t, 0, f.eventCount(models.EventFeeOverdue))
}

func TestSweepPartialBecomesOverdue(t *testing.T) {
	f := newFixture()
	snap := persistSnapshot(t, f)

	_, err := f.ledger.Record(testSchool, snap.ID, 3000, models.MethodCash, date("2025-01-20"), nil)
	require.NoError(t, err)

	flagged, err := f.scanner.Sweep(date("2025-02-02"))
	require.NoError(t, err)
	assert.Equal(t, 1, flagged)

	// A later payment re-derives the status from the ledger and clears
	// the overdue flag once the balance settles.
	after, _ := f.store.Snapshots().Get(testSchool, snap.ID)
	_, err = f.ledger.Record(testSchool, snap.ID, after.BalanceDue, models.MethodCash, date("2025-02-10"), nil)
	require.NoError(t, err)

	settled, _ := f.store.Snapshots().Get(testSchool, snap.ID)
	assert.Equal(t, models.FeePaid, settled.Status)
}

func TestSweepNormalizesTimeOfDay(t *testing.T) {
	f := newFixture()
	persistSnapshot(t, f)

	evening := date("2025-02-02").Add(19*time.Hour + 30*time.Minute)
	flagged, err := f.scanner.Sweep(evening)
	require.NoError(t, err)
	assert.Equal(t, 1, flagged)
}
