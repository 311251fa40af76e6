package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"callcheck/internal/sigcheck"
	"callcheck/internal/store"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded check runs",
		Args:  cobra.NoArgs,
		RunE:  runHistoryList,
	}
	cmd.PersistentFlags().String("db", defaultHistoryDB, "history database path")
	cmd.Flags().Int("limit", 20, "number of runs to show (0 = all)")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Print the findings and call report of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShow,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryRemove,
	})
	return cmd
}

// historyStore opens the database named by --db, falling back to [history].db
// of the callcheck.toml found from the working directory.
func historyStore(cmd *cobra.Command) (*store.Store, error) {
	db, err := cmd.Flags().GetString("db")
	if err != nil {
		return nil, fmt.Errorf("failed to get db flag: %w", err)
	}
	cfg, err := resolveConfig(cmd, ".")
	if err != nil {
		return nil, err
	}
	return openHistory(cfg.historyDB(db, cmd.Flags().Changed("db")))
}

func parseRunID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid run id %q", arg)
	}
	return id, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("failed to get limit flag: %w", err)
	}
	st, err := historyStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(limit)
	if err != nil {
		return err
	}
	return writeRuns(cmd.OutOrStdout(), runs)
}

func writeRuns(out io.Writer, runs []store.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(out, "no recorded runs")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tCALLS\tFINDINGS\tSTATUS\tPATH")
	for _, r := range runs {
		status := "ok"
		switch {
		case !r.Parsed:
			status = "unparsed"
		case r.HasErrors:
			status = "errors"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\t%s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.CallSites, r.Findings, status, r.Path)
	}
	return tw.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	id, err := parseRunID(args[0])
	if err != nil {
		return err
	}
	st, err := historyStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	detail, err := st.LoadRun(id)
	if errors.Is(err, store.ErrRunNotFound) {
		return fmt.Errorf("run #%d not found", id)
	}
	if err != nil {
		return err
	}
	return writeRunDetail(cmd.OutOrStdout(), detail)
}

// writeRunDetail prints a stored run the way check prints it in text format.
func writeRunDetail(out io.Writer, detail *store.RunDetail) error {
	for _, d := range detail.Diagnostics {
		if _, err := fmt.Fprintln(out, d.Message); err != nil {
			return err
		}
	}
	if !detail.Parsed {
		return nil
	}
	if len(detail.Diagnostics) > 0 {
		if _, err := fmt.Fprintln(out); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(out, sigcheck.ReportHeader); err != nil {
		return err
	}
	for _, f := range detail.Functions {
		if _, err := fmt.Fprintln(out, f.String()); err != nil {
			return err
		}
	}
	return nil
}

func runHistoryRemove(cmd *cobra.Command, args []string) error {
	id, err := parseRunID(args[0])
	if err != nil {
		return err
	}
	st, err := historyStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.DeleteRun(id); err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			return fmt.Errorf("run #%d not found", id)
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted run #%d\n", id)
	return nil
}
