package commands

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"git.home.luguber.info/inful/assetbuilder/internal/build"
	ferrors "git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Only []string `help:"Restrict to these tasks (styles,scripts,manifest)" sep:","`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	tasks, err := parseTasks(b.Only)
	if err != nil {
		return err
	}
	cfg, err := root.loadConfig(true)
	if err != nil {
		return err
	}
	mode, err := root.resolveMode(cfg)
	if err != nil {
		return err
	}

	// Provide friendly user-facing messages on stdout for CLI integration tests.
	fmt.Println("Starting asset build")
	slog.Info("Starting asset build", "mode", mode.String(), "build_root", cfg.BuildRoot)

	stylePipeline, compiler := newStylePipeline(cfg, mode)
	defer closeCompiler(compiler)

	svc := build.NewService(stylePipeline, newScriptPipeline(g, mode)).WithRecorder(g.Recorder)
	result, err := svc.Run(g.Ctx, build.Request{Config: cfg, Tasks: tasks})
	if err != nil {
		return err
	}
	for _, tr := range result.Tasks {
		slog.Info("Task finished", "task", string(tr.Task), "status", string(tr.Status), "duration", tr.Duration)
	}
	fmt.Printf("Build %s in %s (%d manifest entries)\n", result.Status, result.Duration.Round(time.Millisecond), result.ManifestEntries)
	return nil
}

func parseTasks(names []string) ([]build.Task, error) {
	tasks := make([]build.Task, 0, len(names))
	for _, name := range names {
		t := build.Task(name)
		if !slices.Contains(build.AllTasks, t) {
			return nil, ferrors.ValidationError("unknown task").
				WithContext("task", name).
				Build()
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}
