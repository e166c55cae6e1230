package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/delaneyj/kosignal/cmd/kobench/templates"
	"github.com/delaneyj/kosignal/ko"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

var (
	ww = []int{1, 10, 100}
	hh = []int{1, 10, 100}
)

func addOne(src ko.Source[int]) func() int {
	return func() int {
		return src.Value() + 1
	}
}

func propagate(ctx context.Context, cmd *cli.Command) (*templates.Section, error) {
	deferred := cmd.Bool(deferredKey)
	iters := iterations(cmd, 100)

	title := "Propagate"
	if deferred {
		title += " (deferred)"
	}
	header := []string{"benchmark", "avg", "min", "p75", "p99", "max"}

	tbl := table.NewWriter()
	tbl.SetTitle(title)
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	section := &templates.Section{Name: title, Header: header}
	for _, w := range ww {
		for _, h := range hh {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			rt, host := newRuntime(deferred)
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			src := ko.NewObservable(rt, 1)
			for i := 0; i < w; i++ {
				var last ko.Source[int] = src
				for j := 0; j < h; j++ {
					last = ko.NewComputed(rt, addOne(last))
				}
				last.(*ko.Computed[int]).Subscribe(func(int) {})
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				src.Set(src.Peek() + 1)
				if deferred {
					host.Drain()
				}
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			name := fmt.Sprintf("propagate: %d * %d", w, h)
			tbl.AppendRow(table.Row{
				name,
				calc.Time.Avg,
				calc.Time.Min,
				calc.Time.P75,
				calc.Time.P99,
				calc.Time.Max,
			})
			section.Rows = append(section.Rows, []string{
				name,
				calc.Time.Avg.String(),
				calc.Time.Min.String(),
				calc.Time.P75.String(),
				calc.Time.P99.String(),
				calc.Time.Max.String(),
			})
		}
	}

	tbl.Render()
	return section, nil
}
