package analyze

import (
	"context"
	"fmt"
	"time"
)

// RunReport summarizes one analysis run.
type RunReport struct {
	Ran     []int
	Failed  []int
	Elapsed time.Duration
}

// Run executes the selected sections in order against the runtime. A nil or
// empty allow-list means every section; skipFraud drops the fraud group. A
// section that errors or panics is recorded as failed and the run continues;
// its downstream consumers see whatever state it left (a failed detector's
// signal set stays nil).
func Run(ctx context.Context, rt *Runtime, allow []int, skipFraud bool) (*RunReport, error) {
	allowSet := make(map[int]bool, len(allow))
	for _, n := range allow {
		allowSet[n] = true
	}

	report := &RunReport{}
	start := time.Now()

	for _, sec := range Registry() {
		if len(allowSet) > 0 && !allowSet[sec.Number] {
			continue
		}
		if skipFraud && sec.Number >= FraudSectionStart {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("analysis interrupted before section %d: %w", sec.Number, err)
		}

		secStart := time.Now()
		err := runSection(ctx, rt, sec)
		elapsed := time.Since(secStart)
		if err != nil {
			report.Failed = append(report.Failed, sec.Number)
			rt.Log.Error().
				Int("section", sec.Number).
				Str("name", sec.Name).
				Dur("elapsed", elapsed).
				Err(err).
				Msg("section failed")
			continue
		}
		report.Ran = append(report.Ran, sec.Number)
		rt.Log.Info().
			Int("section", sec.Number).
			Str("name", sec.Name).
			Dur("elapsed", elapsed).
			Msg(sec.Title)
	}

	report.Elapsed = time.Since(start)
	rt.Log.Info().
		Int("sections_ran", len(report.Ran)).
		Int("sections_failed", len(report.Failed)).
		Dur("elapsed", report.Elapsed).
		Msg("analysis complete")
	return report, nil
}

// runSection isolates one section, converting a panic into an error so a
// single bad section cannot take the run down.
func runSection(ctx context.Context, rt *Runtime, sec Section) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("section %d (%s) panicked: %v", sec.Number, sec.Name, r)
		}
	}()
	return sec.Run(ctx, rt)
}
