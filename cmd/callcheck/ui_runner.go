package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"callcheck/internal/driver"
	"callcheck/internal/pipeline"
	"callcheck/internal/ui"
)

type dirOutcome struct {
	result *driver.DirResult
	err    error
}

// runCheckDirWithUI runs CheckDir in the background and shows its progress
// events until the last file is done.
func runCheckDirWithUI(ctx context.Context, dir string, files []string, opts driver.Options) (*driver.DirResult, error) {
	events := make(chan pipeline.Event, 256)
	outcomeCh := make(chan dirOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = pipeline.ChannelSink{Ch: events}
		res, err := driver.CheckDir(ctx, dir, optsCopy)
		outcomeCh <- dirOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel("checking "+dir, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
