package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/delaneyj/kosignal/cmd/kobench/templates"
	"github.com/delaneyj/kosignal/ko"
	"github.com/delaneyj/kosignal/tasks"
	"github.com/urfave/cli/v3"
)

const (
	iterationsKey = "iterations"
	deferredKey   = "deferred"
	reportKey     = "report"
)

func main() {
	cmd := &cli.Command{
		Name:  "kobench",
		Usage: "Benchmark the ko reactive core",
		Flags: benchFlags(),
		Commands: []*cli.Command{
			{
				Name:   "propagate",
				Usage:  "Push writes through w chains of h computeds",
				Flags:  benchFlags(),
				Action: runSections(propagate),
			},
			{
				Name:   "graph",
				Usage:  "Run layered dynamic graphs synchronously and deferred, comparing leaf fingerprints",
				Flags:  benchFlags(),
				Action: runSections(graph),
			},
		},
		Action: runSections(propagate, graph),
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func benchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.UintFlag{
			Name:  iterationsKey,
			Usage: "Writes per benchmark, 0 keeps each benchmark's default",
		},
		&cli.BoolFlag{
			Name:  deferredKey,
			Usage: "Use deferred updates for the propagate benchmark",
		},
		&cli.StringFlag{
			Name:  reportKey,
			Usage: "Write a markdown report to this path",
		},
	}
}

type benchFunc func(ctx context.Context, cmd *cli.Command) (*templates.Section, error)

func runSections(benches ...benchFunc) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		start := time.Now()
		log.Printf("kobench started")
		defer func() {
			log.Printf("kobench finished in %v", time.Since(start))
		}()

		results := &templates.Results{
			Title:     "kosignal benchmarks",
			Generated: start.Format(time.RFC3339),
			Deferred:  cmd.Bool(deferredKey),
		}
		for _, bench := range benches {
			section, err := bench(ctx, cmd)
			if err != nil {
				return err
			}
			results.Sections = append(results.Sections, section)
		}

		path := cmd.String(reportKey)
		if path == "" {
			return nil
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		defer f.Close()
		templates.WriteBenchReport(f, results)
		log.Printf("report written to %s", path)
		return nil
	}
}

// newRuntime builds an isolated runtime on a manual host; deferred runs call
// Drain after every write.
func newRuntime(deferred bool) (*ko.Runtime, *tasks.ManualHost) {
	host := tasks.NewManualHost()
	opts := []ko.Option{
		ko.WithHost(host),
		ko.WithErrorHandler(func(err error) {
			log.Panic(err)
		}),
	}
	if deferred {
		opts = append(opts, ko.WithDeferUpdates())
	}
	return ko.New(opts...), host
}

func iterations(cmd *cli.Command, fallback int) int {
	if n := int(cmd.Uint(iterationsKey)); n > 0 {
		return n
	}
	return fallback
}
