package services

import (
	"log"
	"time"

	"greenschool/app/models"
)

// OverdueScanner sweeps fee snapshots past their due date with an open
// balance and flips them to overdue. The sweep is idempotent: a snapshot
// already overdue is not a candidate, and the reminder event fires at
// most once per calendar day via last_overdue_notified. A payment that
// lands mid-sweep bumps the snapshot version, the flip's CAS fails, and
// the row is simply re-checked on the next run.
type OverdueScanner struct {
	Snapshots SnapshotStore
	Events    EventSink
}

// Sweep flags every lapsed snapshot across all schools and returns how
// many were transitioned.
func (s *OverdueScanner) Sweep(today time.Time) (int, error) {
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	candidates, err := s.Snapshots.ListOverdueCandidates(today)
	if err != nil {
		return 0, err
	}

	flagged := 0
	for _, snap := range candidates {
		// Re-check under the version guard; the candidate list may be
		// stale by the time we get here.
		if snap.BalanceDue <= 0 || snap.Status == models.FeeOverdue || snap.Status == models.FeeWaived {
			continue
		}

		alreadyNotified := snap.LastOverdueNotified != nil && !snap.LastOverdueNotified.Before(today)

		snap.Status = models.FeeOverdue
		notifyDate := today
		snap.LastOverdueNotified = &notifyDate

		ok, err := s.Snapshots.UpdateCAS(snap)
		if err != nil {
			return flagged, err
		}
		if !ok {
			// A concurrent payment won; leave the row for the next run.
			continue
		}
		flagged++

		if !alreadyNotified && s.Events != nil {
			s.Events.Emit(snap.SchoolID, models.EventFeeOverdue, map[string]interface{}{
				"snapshot_id": snap.ID,
				"student_id":  snap.StudentID,
				"balance_due": snap.BalanceDue,
				"due_date":    snap.DueDate.Format("2006-01-02"),
			})
		}
	}

	if flagged > 0 {
		log.Printf("overdue sweep: flagged %d snapshots", flagged)
	}
	return flagged, nil
}
