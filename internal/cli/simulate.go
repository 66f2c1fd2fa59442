package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/zonealloc/pkg/errors"
	"github.com/matzehuels/zonealloc/pkg/observability"
	"github.com/matzehuels/zonealloc/pkg/render"
	"github.com/matzehuels/zonealloc/pkg/zone"
)

const (
	defaultSteps    = 1000
	defaultSeed     = 42
	defaultInterval = 100 * time.Millisecond
)

// simulateOpts holds the command-line flags for the simulate command.
type simulateOpts struct {
	width        float64
	height       float64
	steps        int
	strategy     string
	seed         uint64
	releaseEvery int           // release the oldest occupant every N steps (0 = never)
	interval     time.Duration // simulated time between placements
	resize       string        // WxH@step, applied once mid-run
	tier         string
	format       string
	output       string
}

// resizeAt is a parsed --resize flag.
type resizeAt struct {
	width, height float64
	step          int
}

// simulateResult summarises a simulation run.
type simulateResult struct {
	snapshot render.Snapshot
	kinds    map[string]int
	events   map[observability.EventKind]int
	placed   int
	released int
}

// simulateCommand runs placements against a manual clock.
func (c *CLI) simulateCommand() *cobra.Command {
	opts := simulateOpts{
		width:    defaultWidth,
		height:   defaultHeight,
		steps:    defaultSteps,
		seed:     defaultSeed,
		interval: defaultInterval,
		format:   formatTable,
	}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a deterministic placement simulation",
		Long: `Simulate places occupants one step at a time on a manual clock, so timers
(rebalance revert, monitor, resize debounce) fire exactly as they would in real
time. The same seed always produces the same run.`,
		Example: `  zonealloc simulate --steps 5000 --strategy organic
  zonealloc simulate --release-every 3 --resize 1080x1920@500 -f svg -o run.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(opts.format); err != nil {
				return err
			}
			if opts.steps < 0 {
				return errors.New(errors.ErrCodeInvalidInput, "steps must not be negative")
			}
			return c.runSimulate(cmd, opts)
		},
	}

	cmd.Flags().Float64Var(&opts.width, "width", opts.width, "surface width")
	cmd.Flags().Float64Var(&opts.height, "height", opts.height, "surface height")
	cmd.Flags().IntVarP(&opts.steps, "steps", "n", opts.steps, "number of placements")
	cmd.Flags().StringVarP(&opts.strategy, "strategy", "s", "", "selection strategy (default: the tier's strategy)")
	cmd.Flags().Uint64Var(&opts.seed, "seed", opts.seed, "random seed")
	cmd.Flags().IntVar(&opts.releaseEvery, "release-every", 0, "release the oldest occupant every N steps")
	cmd.Flags().DurationVar(&opts.interval, "interval", opts.interval, "simulated time between placements")
	cmd.Flags().StringVar(&opts.resize, "resize", "", "resize the surface mid-run, e.g. 1080x1920@500")
	cmd.Flags().StringVar(&opts.tier, "tier", "", "device tier: low, medium, high or auto (overrides config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: table, json, svg")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (json and svg only; default stdout)")

	return cmd
}

func (c *CLI) runSimulate(cmd *cobra.Command, opts simulateOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	var strategy []zone.Strategy
	if opts.strategy != "" {
		s, err := zone.ParseStrategy(opts.strategy)
		if err != nil {
			return err
		}
		strategy = append(strategy, s)
	}
	resize, err := parseResize(opts.resize)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}
	tel, err := setupTelemetry(ctx, cfg.Telemetry, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := tel.close(ctx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	rec := &observability.Recorder{}
	clock := zone.NewManualClock(time.Now())
	s, err := cfg.newSession(zone.NewViewport(opts.width, opts.height), opts.tier, logger,
		observability.Fanout{rec, tel.hooks},
		zone.WithClock(clock),
		zone.WithRand(zone.NewRand(opts.seed)))
	if err != nil {
		return err
	}
	defer s.alloc.Destroy()

	prog := newProgress(logger)
	res := simulate(s, clock, opts, strategy, resize)
	res.events = rec.Counts()
	prog.done("Simulated placements",
		"placed", res.placed,
		"released", res.released,
		"balance", fmt.Sprintf("%.3f", res.snapshot.Distribution.BalanceScore))

	used := s.policy.Strategy()
	if len(strategy) > 0 {
		used = strategy[0]
	}
	o := snapshotOpts{
		tier:     s.policy.Tier(),
		strategy: used,
		seed:     opts.seed,
		title:    fmt.Sprintf("Simulation: %d steps, %s", opts.steps, used),
	}
	w := cmd.OutOrStdout()
	if err := writeSnapshot(w, res.snapshot, opts.format, opts.output, o); err != nil {
		return err
	}
	if opts.format == formatTable {
		fmt.Fprintln(w, countTable("Kind", res.kinds))
		events := make(map[string]int, len(res.events))
		for k, n := range res.events {
			events[string(k)] = n
		}
		fmt.Fprintln(w, countTable("Event", events))
		if res.snapshot.Distribution.BalanceScore < cfg.Allocator.RebalanceThreshold {
			printWarning(w, "balance %.3f is below the rebalance threshold %.2f",
				res.snapshot.Distribution.BalanceScore, cfg.Allocator.RebalanceThreshold)
		}
	}
	return nil
}

// simulate drives the session for opts.steps placements. clock must be the
// manual clock the session was built with.
func simulate(s *session, clock *zone.ManualClock, opts simulateOpts, strategy []zone.Strategy, resize *resizeAt) simulateResult {
	res := simulateResult{kinds: make(map[string]int)}
	var active []string
	var points []zone.Point

	for step := 0; step < opts.steps; step++ {
		if resize != nil && step == resize.step {
			s.compat.Publish(resize.width, resize.height)
			// Let the debounce settle so the new layout takes effect.
			clock.Advance(s.alloc.Config().ResizeDebounce)
			points = points[:0]
		}

		r, p, ok := s.alloc.Place(strategy...)
		if !ok {
			break
		}
		res.placed++
		res.kinds[string(r.Kind)]++
		active = append(active, r.ID)
		points = append(points, p)

		if opts.releaseEvery > 0 && (step+1)%opts.releaseEvery == 0 && len(active) > 0 {
			if s.alloc.Release(active[0]) {
				res.released++
			}
			active = active[1:]
		}
		clock.Advance(opts.interval)
	}

	res.snapshot = render.SnapshotOf(s.alloc)
	res.snapshot.Points = points
	return res
}

// parseResize parses "WxH@step". An empty string means no resize.
func parseResize(s string) (*resizeAt, error) {
	if s == "" {
		return nil, nil
	}
	size, stepStr, ok := strings.Cut(s, "@")
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid resize %q (want WxH@step)", s)
	}
	wStr, hStr, ok := strings.Cut(strings.ToLower(size), "x")
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid resize %q (want WxH@step)", s)
	}
	w, errW := strconv.ParseFloat(wStr, 64)
	h, errH := strconv.ParseFloat(hStr, 64)
	step, errS := strconv.Atoi(stepStr)
	if errW != nil || errH != nil || errS != nil || w <= 0 || h <= 0 || step < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid resize %q (want WxH@step)", s)
	}
	return &resizeAt{width: w, height: h, step: step}, nil
}
