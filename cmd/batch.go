package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/msalah0e/relmap/internal/config"
	"github.com/msalah0e/relmap/internal/filter"
	"github.com/msalah0e/relmap/internal/journal"
	"github.com/msalah0e/relmap/internal/layout"
	"github.com/msalah0e/relmap/internal/model"
	"github.com/msalah0e/relmap/internal/parallel"
	"github.com/msalah0e/relmap/internal/pipeline"
	"github.com/msalah0e/relmap/internal/source"
	"github.com/msalah0e/relmap/internal/ui"
)

// batchRequest is one `relmap batch` invocation.
type batchRequest struct {
	Centers      []string
	RelationType string
	Format       string
	OutDir       string
	Concurrency  int
}

func batchCmd() *cobra.Command {
	var req batchRequest

	cmd := &cobra.Command{
		Use:   "batch <records-file>",
		Short: "Lay out one centered graph per entity in parallel",
		Long: `Lay out a star graph around each center entity and write one file per
center. Without --center every entity is used as a center.`,
		Example:           `  relmap batch companies.json --center Acme --center Foo -o maps/`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: recordFileCompletion,
		Run: func(cmd *cobra.Command, args []string) {
			entities, err := source.Load(args[0])
			if err != nil {
				fail("Failed to read records: %v", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			ui.Banner(cmd.ErrOrStderr(), "batch layout")
			results, err := runBatch(ctx, cfg, logger, openJournal(), cmd.ErrOrStderr(), entities, req)
			if err != nil {
				fail("%v", err)
			}
			failed := parallel.Failed(results)
			fmt.Fprintf(cmd.ErrOrStderr(), "\n  %d/%d layouts written to %s\n", len(results)-len(failed), len(results), req.OutDir)
			if len(failed) > 0 {
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringSliceVar(&req.Centers, "center", nil, "Center entity (repeatable; default: all entities)")
	cmd.Flags().StringVarP(&req.RelationType, "relation", "r", "", "Keep only links of this relation type")
	cmd.Flags().StringVarP(&req.Format, "format", "f", "svg", "Output format: svg, dot or json")
	cmd.Flags().StringVarP(&req.OutDir, "out", "o", ".", "Output directory")
	cmd.Flags().IntVarP(&req.Concurrency, "concurrency", "j", 0, "Parallel layouts (default from config)")

	_ = cmd.RegisterFlagCompletionFunc("center", entityCompletion)
	_ = cmd.RegisterFlagCompletionFunc("relation", relationCompletion)
	_ = cmd.RegisterFlagCompletionFunc("format", formatCompletion)

	return cmd
}

// runBatch lays out one pipeline per center. Pipelines share the entity
// snapshot read-only; each builds its own nodes.
func runBatch(ctx context.Context, c *config.Config, logger *log.Logger, j *journal.Journal, progress io.Writer, entities []model.Entity, req batchRequest) ([]parallel.Result, error) {
	if req.Format == "table" || !slices.Contains(formats, req.Format) {
		return nil, fmt.Errorf("unknown batch format %q (want svg, dot or json)", req.Format)
	}
	if err := os.MkdirAll(req.OutDir, 0o755); err != nil {
		return nil, err
	}

	centers := req.Centers
	if len(centers) == 0 {
		for _, e := range entities {
			if !slices.Contains(centers, e.Name) {
				centers = append(centers, e.Name)
			}
		}
	}

	concurrency := req.Concurrency
	if concurrency <= 0 {
		concurrency = c.Parallel.Concurrency
	}

	names := fileNames(centers)
	tasks := make([]parallel.Task, 0, len(centers))
	for i, center := range centers {
		path := filepath.Join(req.OutDir, names[i]+"."+req.Format)
		tasks = append(tasks, parallel.Task{
			Name: center,
			Fn: func(ctx context.Context) (string, error) {
				return path, layoutCenter(ctx, c, logger.With("center", center), j, entities, path, filter.Options{
					CenterName:   center,
					RelationType: req.RelationType,
				}, req.Format)
			},
		})
	}

	return parallel.Run(ctx, progress, tasks, concurrency), nil
}

func layoutCenter(ctx context.Context, c *config.Config, logger *log.Logger, j *journal.Journal, entities []model.Entity, path string, opts filter.Options, format string) error {
	sched := &layout.ManualScheduler{}
	p := pipeline.New(source.NewStatic(entities), pipeline.Options{
		Layout:    c.LayoutConfig(),
		Surface:   c.SurfaceSize(),
		Scheduler: sched,
		Logger:    logger,
		Journal:   j,
		Filter:    opts,
	})
	if err := p.Start(ctx); err != nil {
		return err
	}
	if len(p.Graph().Nodes) == 0 {
		return fmt.Errorf("%w: %q", model.ErrCenterNotFound, opts.CenterName)
	}

	sim := p.Simulation()
	for sim.Ticks() < sim.Config().MaxTicks && sched.Step() {
		if err := ctx.Err(); err != nil {
			p.Stop()
			return err
		}
	}
	frame := sim.Frame()
	p.Stop()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeFrame(f, format, frame, c); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// fileName turns an entity name into a safe file name.
func fileName(name string) string {
	s := strings.Trim(unsafeName.ReplaceAllString(strings.ToLower(name), "-"), "-.")
	if s == "" {
		return "entity"
	}
	return s
}

// fileNames maps centers to distinct file names. A name already taken by an
// earlier center gets the center's position as a suffix.
func fileNames(centers []string) []string {
	out := make([]string, len(centers))
	taken := make(map[string]bool, len(centers))
	for i, center := range centers {
		name := fileName(center)
		for n := i + 1; taken[name]; n++ {
			name = fmt.Sprintf("%s-%d", fileName(center), n)
		}
		taken[name] = true
		out[i] = name
	}
	return out
}
