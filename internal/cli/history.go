package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spritepack/pkg/history"
)

// historyCommand creates the history command.
func (c *CLI) historyCommand() *cobra.Command {
	var (
		limit    int
		mongoURI string
	)

	cmd := &cobra.Command{
		Use:   "history [sheet]",
		Short: "List previous builds",
		Long: `List previous builds, newest first.

Each entry shows when a sheet was written, its layout fingerprint and the
files it produced. Consecutive entries with the same fingerprint and source
digest describe identical sheets.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sheet := ""
			if len(args) == 1 {
				sheet = args[0]
			}
			return c.runHistory(cmd.Context(), newPrinter(cmd.OutOrStdout()), sheet, limit, mongoURI)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of entries (0 for all)")
	cmd.Flags().StringVar(&mongoURI, "mongo-uri", os.Getenv(envMongoURI), "read history from MongoDB (env "+envMongoURI+")")

	return cmd
}

func (c *CLI) runHistory(ctx context.Context, p *printer, sheet string, limit int, mongoURI string) error {
	store, err := newHistoryStore(ctx, mongoURI)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	records, err := store.List(ctx, sheet, limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		p.note("No builds recorded")
		p.hint("Build sheets with", appName+" generate")
		return nil
	}
	printRecords(p, records)
	return nil
}

func printRecords(p *printer, records []*history.Record) {
	for i, r := range records {
		next := nextOf(records, i)
		p.record(r, next == nil || !r.SameContent(next))
	}
}

// nextOf returns the previous build of the same sheet, which follows index i
// in a newest-first list.
func nextOf(records []*history.Record, i int) *history.Record {
	for _, r := range records[i+1:] {
		if r.Sheet == records[i].Sheet {
			return r
		}
	}
	return nil
}

func shortFingerprint(fp string) string {
	if len(fp) > 20 {
		return fp[:20]
	}
	return fp
}
