package fraud

import (
	"math"
	"testing"
	"time"

	"github.com/gyeh/claimstats/internal/config"
)

func monthSeries(paids ...float64) []MonthlyPoint {
	series := make([]MonthlyPoint, len(paids))
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, p := range paids {
		series[i] = MonthlyPoint{Month: start.AddDate(0, i, 0), Paid: p}
	}
	return series
}

func TestDetectSpikesFlatThenSpike(t *testing.T) {
	th := config.DefaultThresholds().Velocity

	// Twelve flat months then a 50x month. The flat baseline has zero
	// deviation, so the floor of 1 takes over and the ratio is exactly 50.
	series := monthSeries(1000, 1000, 1000, 1000, 1000, 1000, 1000, 1000, 1000, 1000, 1000, 1000, 50000)
	events := detectSpikes("1234567893", series, th)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	ev := events[0]
	if !ev.Month.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("spike month = %v", ev.Month)
	}
	if got, want := ev.SpikeRatio, 50.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("spike ratio = %g, want %g", got, want)
	}
	if ev.RollingStd != 0 {
		t.Errorf("rolling std = %g, want 0", ev.RollingStd)
	}
}

func TestDetectSpikesSpikeDoesNotContaminateBaseline(t *testing.T) {
	th := config.DefaultThresholds().Velocity

	// The month after a spike is judged against a window that includes the
	// spike, which inflates the baseline. A return to normal must not flag.
	series := monthSeries(1000, 1000, 1000, 50000, 1000)
	events := detectSpikes("1234567893", series, th)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1 (only the spike itself)", len(events))
	}
	if events[0].Paid != 50000 {
		t.Errorf("flagged paid = %g, want 50000", events[0].Paid)
	}
}

func TestDetectSpikesNeedsWindowObservations(t *testing.T) {
	th := config.DefaultThresholds().Velocity

	// First month has no prior window; second has only one observation.
	// Neither may flag no matter how large the amount.
	series := monthSeries(1000000, 1000000, 1000, 1000)
	events := detectSpikes("1234567893", series, th)
	if len(events) != 0 {
		t.Fatalf("events = %d, want 0", len(events))
	}
}

func TestDetectSpikesWindowIsTrailing(t *testing.T) {
	th := config.DefaultThresholds().Velocity

	// Steady doubling stays under both thresholds: each month is ~3.4x the
	// trailing mean with a z around 3.7.
	series := monthSeries(100, 200, 400, 800, 1600, 3200)
	events := detectSpikes("1234567893", series, th)
	if len(events) != 0 {
		t.Fatalf("events = %d, want 0 for steady growth", len(events))
	}
}
