// Command diwire resolves a module's dependency-injection graphs ahead of
// time and reports the result: binding order, deferred (Provider/Lazy)
// types, and per-component accessor metadata. Grounded in a two-pass CLI
// flow (scan providers → build graph → discover commands →
// validate), generalized from "generate a main.go with two-phase DI" to
// "resolve every //diwire:component graph and print its plan" — code
// generation itself is out of scope here; diwire reports what WOULD be
// wired, for a caller-supplied Emitter to act on.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/diwire/core/goframe"
	"github.com/diwire/core/oracle"
	"github.com/diwire/core/resolve"
)

func main() {
	verbose := flag.Bool("verbose", false, "enable verbose logging")
	dryRun := flag.Bool("dry-run", false, "resolve and print the plan without any side effects")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
 level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(logger, *dryRun); err != nil {
 logger.Error("diwire: resolution failed", slog.String("err", err.Error()))
 os.Exit(1)
	}
}

func run(logger *slog.Logger, dryRun bool) error {
	moduleRoot, err := findModuleRoot()
	if err != nil {
 return fmt.Errorf("diwire: %w", err)
	}

	logger.Debug("diwire: module root", slog.String("root", moduleRoot))

	mod, err := goframe.Load(moduleRoot, goframe.DefaultWrapperConfig())
	if err != nil {
 return fmt.Errorf("diwire: load: %w", err)
	}

	logger.Debug("diwire: loaded module", slog.String("module", mod.Config.ModulePath))

	reporter := goframe.NewSlogReporter(logger)
	tracker := oracle.NoopTracker{}

	specs := mod.GraphSpecs(tracker, reporter)
	if len(specs) == 0 {
 logger.Warn("diwire: no //diwire:component interfaces discovered")
 return nil
	}

	plans, err := resolve.ResolveAll(context.Background(), specs)
	if err != nil {
 return fmt.Errorf("diwire: resolve: %w", err)
	}

	for _, plan := range plans {
 printPlan(plan, dryRun)
	}
	return nil
}

func printPlan(plan *resolve.ResolvedGraphPlan, dryRun bool) {
	fmt.Printf("graph %s:\n", plan.Node.Name)
	fmt.Printf(" bindings (%d, topo order):\n", len(plan.BindingsInTopoOrder))
	for _, b := range plan.BindingsInTopoOrder {
 fmt.Printf(" %s\n", b.TypeKey().String())
	}
	if len(plan.DeferredTypes) > 0 {
 fmt.Printf(" deferred (Provider/Lazy) types:\n")
 for _, k := range plan.DeferredTypes {
 fmt.Printf(" %s\n", k.String())
 }
	}
	if len(plan.Proto.AccessorCallableNames) > 0 {
 fmt.Printf(" accessors: %v\n", plan.Proto.AccessorCallableNames)
	}
	if dryRun {
 fmt.Printf(" (dry run: nothing emitted)\n")
	}
}

// findModuleRoot walks up from cwd to find the directory containing go.mod.
func findModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
 return "", fmt.Errorf("getwd: %w", err)
	}

	for {
 if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
 return dir, nil
 }
 parent := filepath.Dir(dir)
 if parent == dir {
 break
 }
 dir = parent
	}
	return "", fmt.Errorf("go.mod not found in any parent directory")
}
