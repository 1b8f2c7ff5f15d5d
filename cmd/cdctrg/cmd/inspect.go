package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cdctrg/datarecording"
	"github.com/sarchlab/cdctrg/tracing"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <recording>",
	Short: "Read back a recording written by simulate --record.",
	Long: "`inspect run` lists the tables of run.sqlite3 with their sizes. " +
		"`inspect run --table board_states --where \"Board = ?\" --arg " +
		"CDCFrontEnd_0` prints the matching entries as JSON lines.",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		table, _ := cmd.Flags().GetString("table")
		where, _ := cmd.Flags().GetString("where")
		whereArgs, _ := cmd.Flags().GetStringArray("arg")
		orderBy, _ := cmd.Flags().GetString("order-by")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		r, err := datarecording.Open(recordingFile(args[0]))
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		defer r.Close()

		tracing.MapTables(r)

		ctx := context.Background()
		w := cmd.OutOrStdout()

		if table == "" {
			err = listTables(ctx, w, r)
		} else {
			params := datarecording.QueryParams{
				Where:   where,
				OrderBy: orderBy,
				Limit:   limit,
				Offset:  offset,
			}
			for _, a := range whereArgs {
				params.Args = append(params.Args, a)
			}

			err = dumpTable(ctx, w, r, table, params)
		}

		if err != nil {
			log.Fatalf("Error: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().String("table", "", "Print the entries of this table")
	inspectCmd.Flags().String("where", "", "Condition, with ? placeholders")
	inspectCmd.Flags().StringArray("arg", nil, "Value of a ? placeholder")
	inspectCmd.Flags().String("order-by", "", "Ordering, e.g. \"Tick DESC\"")
	inspectCmd.Flags().Int("limit", 0, "Maximum number of entries")
	inspectCmd.Flags().Int("offset", 0, "Number of entries to skip")
}

// recordingFile accepts the path given to simulate --record as well as the
// file it produced.
func recordingFile(path string) string {
	if strings.HasSuffix(path, ".sqlite3") {
		return path
	}

	return path + ".sqlite3"
}

func listTables(
	ctx context.Context,
	w io.Writer,
	r datarecording.DataReader,
) error {
	stored, err := r.StoredTables(ctx)
	if err != nil {
		return err
	}

	mapped := make(map[string]bool)
	for _, t := range r.ListTables() {
		mapped[t] = true
	}

	for _, t := range stored {
		if !mapped[t] {
			fmt.Fprintf(w, "%-14s -\n", t)
			continue
		}

		_, total, err := r.Query(ctx, t, datarecording.QueryParams{Limit: 1})
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "%-14s %d\n", t, total)
	}

	return nil
}

func dumpTable(
	ctx context.Context,
	w io.Writer,
	r datarecording.DataReader,
	table string,
	params datarecording.QueryParams,
) error {
	entries, total, err := r.Query(ctx, table, params)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "%d of %d\n", len(entries), total)

	return nil
}
