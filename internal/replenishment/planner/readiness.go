package planner

import "time"

type CalculationMode string

const (
	ModeSnapshot CalculationMode = "snapshot"
	ModeFallback CalculationMode = "fallback"
)

type Readiness struct {
	SnapshotDaysAvailable int
	RequiredDays          int
	DaysUntilFullAccuracy int
	FullAccuracyDate      time.Time
	Mode                  CalculationMode
}

// ReadinessWindow returns the snapshot dates [from, to) that count towards
// readiness: the windowDays calendar days ending with asOf.
func ReadinessWindow(asOf time.Time, windowDays int) (from, to time.Time) {
	to = DateOf(asOf).AddDate(0, 0, 1)
	from = to.AddDate(0, 0, -windowDays)
	return from, to
}

// EvaluateReadiness decides the calculation mode from the number of
// distinct snapshot dates in the readiness window. Disabling snapshots
// forces fallback mode whatever the coverage.
func EvaluateReadiness(snapshotDays int, asOf time.Time, windowDays int, snapshotsEnabled bool) Readiness {
	until := windowDays - snapshotDays
	if until < 0 {
		until = 0
	}

	mode := ModeFallback
	if snapshotsEnabled && snapshotDays >= windowDays {
		mode = ModeSnapshot
	}

	return Readiness{
		SnapshotDaysAvailable: snapshotDays,
		RequiredDays:          windowDays,
		DaysUntilFullAccuracy: until,
		FullAccuracyDate:      DateOf(asOf).AddDate(0, 0, until),
		Mode:                  mode,
	}
}
