package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/msalah0e/relmap/internal/config"
	"github.com/msalah0e/relmap/internal/filter"
	"github.com/msalah0e/relmap/internal/journal"
	"github.com/msalah0e/relmap/internal/layout"
	"github.com/msalah0e/relmap/internal/model"
	"github.com/msalah0e/relmap/internal/pipeline"
	"github.com/msalah0e/relmap/internal/render"
	"github.com/msalah0e/relmap/internal/source"
	"github.com/msalah0e/relmap/internal/ui"
)

// layoutRequest is one `relmap layout` invocation.
type layoutRequest struct {
	Path    string
	Filter  filter.Options
	Format  string
	Wait    time.Duration
	Animate bool
	FPS     int
	Frames  io.Writer // animated frames; nil means stderr
}

func layoutCmd() *cobra.Command {
	var (
		req layoutRequest
		out string
	)

	cmd := &cobra.Command{
		Use:   "layout <records-file>",
		Short: "Lay out a relationship graph and write it as SVG, DOT, JSON or a table",
		Long: `Lay out the entities of a JSON, YAML or TOML records file.

The file may appear after the command starts; use --wait to bound how long
relmap waits for it. Options apply in order: relation type, center, search.
A search that matches nothing keeps the previous view.`,
		Example: `  relmap layout companies.json --center Acme -o acme.svg
  relmap layout companies.yaml --search foo --format table
  relmap layout companies.toml --relation supplier --animate --fps 30`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: recordFileCompletion,
		Run: func(cmd *cobra.Command, args []string) {
			req.Path = args[0]
			req.Frames = cmd.ErrOrStderr()

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					fail("Failed to create %s: %v", out, err)
				}
				defer f.Close()
				w = f
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			frame, err := runLayout(ctx, cfg, logger, openJournal(), w, req)
			if err != nil {
				fail("%v", err)
			}
			if out != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s %s %s\n", ui.StatusIcon(true), out,
					ui.Subtle.Sprintf("(%d nodes, %d links, %d ticks)", len(frame.Nodes), len(frame.Links), frame.Tick))
			}
		},
	}

	cmd.Flags().StringVar(&req.Filter.CenterName, "center", "", "Center entity; links form a star around it")
	cmd.Flags().StringVarP(&req.Filter.SearchTerm, "search", "s", "", "Focus on the entity with this name (case-insensitive)")
	cmd.Flags().StringVarP(&req.Filter.RelationType, "relation", "r", "", "Keep only links of this relation type")
	cmd.Flags().StringVarP(&req.Format, "format", "f", "svg", "Output format: svg, dot, json or table")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write output to a file instead of stdout")
	cmd.Flags().DurationVar(&req.Wait, "wait", 0, "How long to wait for the records file to appear (0 waits until interrupted)")
	cmd.Flags().BoolVar(&req.Animate, "animate", false, "Stream every frame as JSON lines to stderr while the layout runs")
	cmd.Flags().IntVar(&req.FPS, "fps", 60, "Frames per second with --animate")

	_ = cmd.RegisterFlagCompletionFunc("center", entityCompletion)
	_ = cmd.RegisterFlagCompletionFunc("search", entityCompletion)
	_ = cmd.RegisterFlagCompletionFunc("relation", relationCompletion)
	_ = cmd.RegisterFlagCompletionFunc("format", formatCompletion)

	return cmd
}

// runLayout waits for the records file, applies the filter options through a
// pipeline, runs the simulation to rest and writes the final frame to w.
func runLayout(ctx context.Context, c *config.Config, logger *log.Logger, j *journal.Journal, w io.Writer, req layoutRequest) (layout.Frame, error) {
	if !slices.Contains(formats, req.Format) {
		return layout.Frame{}, fmt.Errorf("unknown format %q (want %s)", req.Format, strings.Join(formats, ", "))
	}
	if req.Wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Wait)
		defer cancel()
	}

	file := source.NewFile(req.Path, logger)

	if req.Frames == nil {
		req.Frames = os.Stderr
	}
	manual := &layout.ManualScheduler{}
	var (
		sched  layout.FrameScheduler = manual
		ticker *layout.TickerScheduler
		stream = &render.JSONLines{W: req.Frames}
		sinks  = []layout.Sink{render.LogSink{Logger: logger}}
	)
	if req.Animate {
		ticker = layout.NewTickerScheduler(req.FPS)
		sched = ticker
		sinks = append(sinks, stream)
	}

	p := pipeline.New(file, pipeline.Options{
		Layout:    c.LayoutConfig(),
		Surface:   c.SurfaceSize(),
		Scheduler: sched,
		Sinks:     sinks,
		Logger:    logger,
		Journal:   j,
		Notifier:  ui.Notifier{W: os.Stderr},
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return file.Watch(gctx) })
	startErr := p.Start(gctx)
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return layout.Frame{}, fmt.Errorf("timed out waiting for %s: %w", req.Path, err)
		}
		return layout.Frame{}, err
	}
	if startErr != nil {
		return layout.Frame{}, startErr
	}

	if err := applyFilter(p, req.Filter); err != nil {
		return layout.Frame{}, err
	}

	if req.Animate {
		if err := ticker.Loop(ctx, true); err != nil {
			p.Stop()
			return layout.Frame{}, err
		}
		if stream.Err != nil {
			logger.Warn("frame stream interrupted", "err", stream.Err)
		}
	} else {
		sim := p.Simulation()
		for sim.Ticks() < sim.Config().MaxTicks && manual.Step() {
		}
	}

	frame := p.Simulation().Frame()
	p.Stop()
	return frame, writeFrame(w, req.Format, frame, c)
}

// applyFilter sets the options one at a time. A search miss has already
// been reported by the pipeline's notifier and keeps the previous view.
func applyFilter(p *pipeline.Pipeline, opts filter.Options) error {
	if opts.RelationType != "" {
		if err := p.SetRelationFilter(opts.RelationType); err != nil {
			return err
		}
	}
	if opts.CenterName != "" {
		if err := p.SetCenterEntity(opts.CenterName); err != nil {
			return err
		}
	}
	if opts.SearchTerm != "" {
		if err := p.SetSearchTerm(opts.SearchTerm); err != nil && !errors.Is(err, model.ErrNodeNotFound) {
			return err
		}
	}
	return nil
}

var formats = []string{"svg", "dot", "json", "table"}

// writeFrame renders frame in the requested format.
func writeFrame(w io.Writer, format string, frame layout.Frame, c *config.Config) error {
	switch format {
	case "svg":
		return render.WriteSVG(w, frame, render.SVGOptions{Width: c.Surface.Width, Height: c.Surface.Height})
	case "dot":
		return render.WriteDOT(w, frame)
	case "json":
		return render.WriteJSON(w, frame)
	case "table":
		if len(frame.Nodes) == 0 {
			fmt.Fprintln(w, "  Empty graph.")
			return nil
		}
		ui.Table(w, []string{"Name", "X", "Y", "Links", "Flags"}, render.Rows(frame))
		fmt.Fprintf(w, "\n  %d nodes, %d links, settled after %d ticks\n", len(frame.Nodes), len(frame.Links), frame.Tick)
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
