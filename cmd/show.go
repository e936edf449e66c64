package cmd

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msalah0e/relmap/internal/model"
	"github.com/msalah0e/relmap/internal/source"
	"github.com/msalah0e/relmap/internal/ui"
)

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "show <records-file>",
		Short:             "List entities, their relations and graph statistics",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: recordFileCompletion,
		Run: func(cmd *cobra.Command, args []string) {
			entities, err := source.Load(args[0])
			if err != nil {
				fail("Failed to read records: %v", err)
			}
			if err := printShow(cmd.OutOrStdout(), entities); err != nil {
				fail("%v", err)
			}
		},
	}
}

func printShow(w io.Writer, entities []model.Entity) error {
	ui.Banner(w, "records")
	if len(entities) == 0 {
		fmt.Fprintln(w, "  No entities.")
		return nil
	}

	g, err := model.NewBuilder(logger).Build(entities, "")
	if err != nil {
		return err
	}
	if err := g.Validate(); err != nil {
		return fmt.Errorf("invalid graph: %w", err)
	}

	names := make(map[int]string, len(entities))
	for _, e := range entities {
		if _, dup := names[e.ID]; !dup {
			names[e.ID] = e.Name
		}
	}

	var rows [][]string
	for _, e := range entities {
		var rels []string
		for _, r := range e.Relations {
			target, ok := names[r.TargetID]
			if !ok {
				target = "#" + strconv.Itoa(r.TargetID) + "?"
			}
			rels = append(rels, r.Type+"→"+target)
		}
		sort.Strings(rels)
		rows = append(rows, []string{strconv.Itoa(e.ID), e.Name, truncate(strings.Join(rels, ", "), 60)})
	}
	ui.Table(w, []string{"ID", "Name", "Relations"}, rows)

	stats := g.Stats()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s  %d\n", ui.Brand.Sprintf("%-16s", "Entities"), stats.Nodes)
	fmt.Fprintf(w, "  %s  %d\n", ui.Brand.Sprintf("%-16s", "Links"), stats.Links)
	fmt.Fprintf(w, "  %s  %d %s\n", ui.Brand.Sprintf("%-16s", "Relation types"), stats.RelationTypes,
		ui.Subtle.Sprint(strings.Join(g.RelationTypes(), ", ")))
	return nil
}

func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}
