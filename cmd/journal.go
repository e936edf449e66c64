package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/msalah0e/relmap/internal/journal"
	"github.com/msalah0e/relmap/internal/ui"
)

func journalCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:     "journal",
		Aliases: []string{"log"},
		Short:   "Show recent rebuilds, search misses and missing centers",
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			ui.Banner(w, "journal")

			entries, err := journal.Open(journal.DefaultPath()).Read(count)
			if err != nil || len(entries) == 0 {
				fmt.Fprintln(w, "  No events recorded yet.")
				fmt.Fprintln(w, "  Events are recorded by `relmap layout` and `relmap batch`")
				return
			}
			printEntries(w, entries)
			fmt.Fprintf(w, "\n  Showing %d most recent entries\n", len(entries))
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 20, "Number of entries to show (0 for all)")

	cmd.AddCommand(
		journalSearchCmd(),
		journalClearCmd(),
		journalExportCmd(),
	)

	return cmd
}

func journalSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search journal entries",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			results, err := journal.Open(journal.DefaultPath()).Search(args[0], 50)
			if err != nil || len(results) == 0 {
				fmt.Fprintf(w, "  No entries matching %q\n", args[0])
				return
			}

			ui.Banner(w, "search results")
			printEntries(w, results)
			fmt.Fprintf(w, "\n  %d results\n", len(results))
		},
	}
}

func journalClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the journal",
		Run: func(cmd *cobra.Command, args []string) {
			if err := journal.Open(journal.DefaultPath()).Clear(); err != nil {
				fail("Failed to clear: %v", err)
			}
			ui.Good.Fprintf(cmd.OutOrStdout(), "  %s Journal cleared\n", ui.StatusIcon(true))
		},
	}
}

func journalExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export the journal as JSON",
		Run: func(cmd *cobra.Command, args []string) {
			entries, err := journal.Open(journal.DefaultPath()).Read(0)
			if err != nil {
				fail("%v", err)
			}
			if entries == nil {
				entries = []journal.Entry{}
			}
			data, _ := json.MarshalIndent(entries, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
		},
	}
}

func printEntries(w io.Writer, entries []journal.Entry) {
	var rows [][]string
	for _, e := range entries {
		size := "-"
		if e.Event == journal.EventRebuild {
			size = strconv.Itoa(e.Nodes) + "/" + strconv.Itoa(e.Links)
		}
		rows = append(rows, []string{
			e.Timestamp.Format("Jan 02 15:04"),
			e.Event,
			dash(e.Center),
			dash(e.Search),
			dash(e.RelationType),
			size,
		})
	}
	ui.Table(w, []string{"Time", "Event", "Center", "Search", "Relation", "Nodes/Links"}, rows)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return truncate(s, 24)
}
