package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dshills/livetune"
	"github.com/dshills/livetune/format"
)

var watchCommand = &cobra.Command{
	Use:          "watch <file>",
	Short:        "Watch a parameter file and show changes as they happen",
	Args:         cobra.ExactArgs(1),
	RunE:         watchMain,
	SilenceUsage: true,
}

var watchConfiguration struct {
	formatName string
	// interval is the poll cadence driving the update pipeline.
	interval time.Duration
	// plain forces line output even on a terminal.
	plain bool
}

func init() {
	flags := watchCommand.Flags()
	flags.StringVarP(&watchConfiguration.formatName, "format", "f", "auto", "File format (auto, keyvalue, plain, json, yaml, toml, lua)")
	flags.DurationVarP(&watchConfiguration.interval, "interval", "i", 100*time.Millisecond, "Poll interval")
	flags.BoolVar(&watchConfiguration.plain, "plain", false, "Line output instead of the full-screen view")
}

func watchMain(command *cobra.Command, arguments []string) error {
	f, err := parseFormatName(watchConfiguration.formatName)
	if err != nil {
		return err
	}

	var opts []livetune.Option
	if f != format.Auto {
		opts = append(opts, livetune.WithFormat(f))
	}
	params, err := livetune.New(arguments[0], opts...)
	if err != nil {
		return err
	}
	defer params.Close()

	if !watchConfiguration.plain && term.IsTerminal(int(os.Stdout.Fd())) {
		return runWatchScreen(params, watchConfiguration.interval)
	}
	return runWatchLines(params, watchConfiguration.interval)
}

// runWatchLines streams changes as colorized lines, one per change, with
// the initial file contents reported as additions.
func runWatchLines(params *livetune.Params, interval time.Duration) error {
	var (
		added   = color.New(color.FgGreen)
		updated = color.New(color.FgYellow)
		removed = color.New(color.FgRed)
		failed  = color.New(color.FgRed, color.Bold)
	)

	params.Subscribe("*", func(c livetune.Change) {
		stamp := time.Now().Format("15:04:05.000")
		switch c.Type {
		case livetune.ChangeSet:
			if c.Old == "" {
				added.Printf("%s  %s = %s\n", stamp, c.Key, c.New)
			} else {
				updated.Printf("%s  %s = %s (was %s)\n", stamp, c.Key, c.New, c.Old)
			}
		case livetune.ChangeRemove:
			removed.Printf("%s  %s removed (was %s)\n", stamp, c.Key, c.Old)
		case livetune.ChangeReload:
			fmt.Printf("%s  reloaded from %s\n", stamp, c.New)
		}
	})

	// Persistent failures repeat on every poll; report only transitions.
	var lastFailure string
	params.OnError(func(info livetune.ErrorInfo) {
		if info.Message == lastFailure {
			return
		}
		lastFailure = info.Message
		failed.Printf("%s  %s\n", time.Now().Format("15:04:05.000"), info)
	})
	params.OnUpdate(func() { lastFailure = "" })

	fmt.Printf("watching %s (%s)\n", params.File(), params.FileFormat())
	params.StartWatching()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			params.Poll()
		case <-signals:
			return nil
		}
	}
}
