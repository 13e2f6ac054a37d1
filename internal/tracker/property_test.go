package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Whatever the run/pause pattern on one step, the minutes sent to the
// gateway plus the carried remainder account for every running second.
func TestNoDoubleCounting(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("flushed minutes equal floor(running seconds / 60)", prop.ForAll(
		func(runs []int, idles []int) bool {
			f := newFixture()
			ctx := context.Background()

			total := 0
			for i, run := range runs {
				if err := f.tracker.Start(ctx, "s1"); err != nil {
					return false
				}
				f.clk.Advance(time.Duration(run) * time.Second)
				total += run
				if err := f.tracker.Pause(ctx); err != nil {
					return false
				}
				if i < len(idles) {
					f.clk.Advance(time.Duration(idles[i]) * time.Second)
				}
			}

			return f.gw.MinutesFor("s1") == total/60 &&
				f.tracker.Session().PausedAccumulatedSeconds == total%60 &&
				f.minutes("s1") == total/60
		},
		gen.SliceOf(gen.IntRange(0, 600)),
		gen.SliceOf(gen.IntRange(0, 3600)),
	))

	properties.Property("never records zero minutes", prop.ForAll(
		func(runs []int) bool {
			f := newFixture()
			ctx := context.Background()
			for _, run := range runs {
				_ = f.tracker.Start(ctx, "s1")
				f.clk.Advance(time.Duration(run) * time.Second)
				_ = f.tracker.Pause(ctx)
			}
			_ = f.tracker.FlushAndStop(ctx)
			for _, c := range f.gw.Elapsed() {
				if c.Minutes < 1 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 200)),
	))

	properties.TestingRun(t)
}
