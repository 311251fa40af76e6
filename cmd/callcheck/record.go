package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"callcheck/internal/diag"
	"callcheck/internal/driver"
	"callcheck/internal/store"
)

const defaultHistoryDB = ".callcheck/history.db"

// openHistory opens (and migrates) the history database, creating its directory.
func openHistory(path string) (*store.Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("history: %w", err)
		}
	}
	return store.Open(path)
}

func recordResults(cmd *cobra.Command, dbPath string, results []*driver.Result, quiet bool) error {
	st, err := openHistory(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	startedAt := time.Now()
	for _, res := range results {
		if res == nil {
			continue
		}
		id, err := st.RecordRun(runDetail(res, startedAt))
		if err != nil {
			return err
		}
		if !quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "recorded run #%d (%s)\n", id, res.Path)
		}
	}
	return nil
}

// runDetail converts a check result into its stored form. Timing
// observations are not stored.
func runDetail(res *driver.Result, startedAt time.Time) *store.RunDetail {
	detail := &store.RunDetail{
		Run: store.Run{
			Path:      res.Path,
			StartedAt: startedAt,
			Parsed:    res.Parsed,
			CallSites: res.Stats.CallSites,
			Findings:  res.Stats.Findings,
			HasErrors: res.HasErrors(),
		},
	}
	if res.File != nil {
		detail.Hash = hex.EncodeToString(res.File.Hash[:])
	}
	for i := range res.Functions {
		sig := &res.Functions[i]
		detail.Functions = append(detail.Functions, store.Function{
			Name:   sig.Name,
			Params: sig.Labels(),
			Calls:  sig.Calls,
		})
	}
	if res.Bag != nil {
		for _, d := range res.Bag.Items() {
			if d.Code == diag.ObsTimings {
				continue
			}
			detail.Diagnostics = append(detail.Diagnostics, store.Diagnostic{
				Severity: strings.ToLower(d.Severity.String()),
				Code:     d.Code.ID(),
				Line:     uint32(d.Primary.Line),
				Message:  d.Message,
			})
		}
	}
	return detail
}
