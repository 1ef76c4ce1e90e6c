package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/microcad/ucad/internal/config"
)

// runWatch re-runs the eval pipeline on a file every time it (or the
// directory holding it, for editors that write-then-rename) changes,
// debounced so a single save doesn't trigger several runs.
//
// Grounded on gavlooth-codeloom's internal/daemon/watcher.go: an
// fsnotify.Watcher feeding a small debounce loop over a pending-files
// map, simplified here to the single file spec.md §6.3's `watch`
// subcommand names rather than a recursive directory tree.
func runWatch(fs *flag.FlagSet, cfg *config.Config, args []string) error {
	debounceMs := fs.Int("debounce", 150, "debounce window in milliseconds")
	if err := finishFlags(fs, cfg, args); err != nil {
		return err
	}
	path, err := requireFile(fs)
	if err != nil {
		return err
	}
	path, err = filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}

	runOnce := func() {
		fmt.Printf("-- %s\n", time.Now().Format(time.RFC3339))
		p, err := newPipeline(path, cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		if err := p.resolve(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		result, models, err := p.eval()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		p.report()
		if !result.IsNone() {
			fmt.Println(result.String())
		}
		fmt.Printf("%d root model(s)\n", len(models))
	}

	runOnce()

	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}
	pending := false

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !pending {
				pending = true
				debounce.Reset(time.Duration(*debounceMs) * time.Millisecond)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watch: %s\n", err)
		case <-debounce.C:
			pending = false
			runOnce()
		}
	}
}
