package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/delaneyj/kosignal/cmd/kobench/templates"
	"github.com/delaneyj/kosignal/ko"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

type graphConfig struct {
	name           string  // unique
	width          int     // nodes per layer
	totalLayers    int     // layers including the sources
	staticFraction float64 // fraction of nodes that always read every source
	nSources       int     // sources read by each node
	readFraction   float64 // fraction of leaves read after each write
	iterations     int
}

// Synchronous propagation re-evaluates a node once per changed input, so
// evaluations grow with nSources^(totalLayers-1). Keep that product small.
var graphConfigs = []graphConfig{
	{
		name:           "simple component",
		width:          10,
		totalLayers:    5,
		staticFraction: 1,
		nSources:       2,
		readFraction:   0.2,
		iterations:     60000,
	},
	{
		name:           "dynamic component",
		width:          10,
		totalLayers:    4,
		staticFraction: 0.75,
		nSources:       3,
		readFraction:   0.2,
		iterations:     15000,
	},
	{
		name:           "large web app",
		width:          1000,
		totalLayers:    4,
		staticFraction: 0.95,
		nSources:       3,
		readFraction:   1,
		iterations:     2000,
	},
	{
		name:           "wide dense",
		width:          1000,
		totalLayers:    3,
		staticFraction: 1,
		nSources:       8,
		readFraction:   1,
		iterations:     1000,
	},
	{
		name:           "deep",
		width:          5,
		totalLayers:    200,
		staticFraction: 1,
		nSources:       1,
		readFraction:   1,
		iterations:     1000,
	},
	{
		name:           "very dynamic",
		width:          100,
		totalLayers:    6,
		staticFraction: 0.5,
		nSources:       3,
		readFraction:   1,
		iterations:     500,
	},
}

func (cfg graphConfig) title() string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("%dx%d %d sources", cfg.width, cfg.totalLayers, cfg.nSources))
	if cfg.staticFraction < 1 {
		sb.WriteString(" dynamic")
	}
	if cfg.readFraction < 1 {
		sb.WriteString(fmt.Sprintf(" read %0.2f%%", 100*cfg.readFraction))
	}
	return sb.String()
}

type graphResult struct {
	sum         int
	evaluations int64
	duration    time.Duration
	fingerprint uint64
}

func graph(ctx context.Context, cmd *cli.Command) (*templates.Section, error) {
	header := []string{
		"mode", "size", "nSources", "read%", "static%",
		"nTimes", "test", "time", "updateRate", "evaluations", "fingerprint", "title",
	}
	tbl := tablewriter.NewWriter(os.Stdout)
	tbl.SetHeader(header)

	section := &templates.Section{Name: "Layered graphs", Header: header}
	for _, cfg := range graphConfigs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cfg.iterations = iterations(cmd, cfg.iterations)
		log.Printf("Running '%s' config", cfg.name)

		syncRes := runGraph(cfg, false)
		deferredRes := runGraph(cfg, true)
		if syncRes.fingerprint != deferredRes.fingerprint || syncRes.sum != deferredRes.sum {
			return nil, fmt.Errorf("%s: deferred leaves %016x (sum %d) differ from sync %016x (sum %d)",
				cfg.name, deferredRes.fingerprint, deferredRes.sum, syncRes.fingerprint, syncRes.sum)
		}

		for _, r := range []struct {
			mode string
			res  graphResult
		}{{"sync", syncRes}, {"deferred", deferredRes}} {
			updateRate := float64(r.res.evaluations) / (float64(r.res.duration) / float64(time.Millisecond))
			row := []string{
				r.mode,
				fmt.Sprintf("%dx%d", cfg.width, cfg.totalLayers),
				fmt.Sprint(cfg.nSources),
				fmt.Sprint(cfg.readFraction),
				fmt.Sprint(cfg.staticFraction),
				humanize.Comma(int64(cfg.iterations)),
				cfg.name,
				fmt.Sprint(r.res.duration),
				humanize.Comma(int64(updateRate)),
				humanize.Comma(r.res.evaluations),
				fmt.Sprintf("%016x", r.res.fingerprint),
				cfg.title(),
			}
			tbl.Append(row)
			section.Rows = append(section.Rows, row)
		}
	}
	tbl.Render()
	return section, nil
}

type layeredGraph struct {
	sources []*ko.Observable[int]
	layers  [][]*ko.Computed[int]
}

// runGraph builds a fresh graph and writes one source per iteration, reading
// the chosen leaves after every write.
func runGraph(cfg graphConfig, deferred bool) graphResult {
	rt, host := newRuntime(deferred)
	var counter int64
	g := makeGraph(rt, cfg, &counter)

	random := rand.New(rand.NewSource(0))
	leaves := g.layers[len(g.layers)-1]
	skipCount := int(math.Round(float64(len(leaves)) * (1 - cfg.readFraction)))
	readLeaves := removeElems(leaves, skipCount, random)
	for _, leaf := range readLeaves {
		leaf.Subscribe(func(int) {})
	}
	settle := func() {
		if deferred {
			host.Drain()
		}
	}

	counter = 0
	start := time.Now()
	for i := 0; i < cfg.iterations; i++ {
		sourceDex := i % len(g.sources)
		g.sources[sourceDex].Set(i + sourceDex)
		settle()

		for _, leaf := range readLeaves {
			leaf.Value()
		}
	}
	duration := time.Since(start)

	return graphResult{
		sum:         sumLeaves(readLeaves),
		evaluations: counter,
		duration:    duration,
		fingerprint: fingerprint(readLeaves),
	}
}

func sumLeaves(leaves []*ko.Computed[int]) int {
	sum := 0
	for _, leaf := range leaves {
		sum += leaf.Peek()
	}
	return sum
}

func fingerprint(leaves []*ko.Computed[int]) uint64 {
	d := xxhash.New()
	buf := make([]byte, 8)
	for _, leaf := range leaves {
		binary.LittleEndian.PutUint64(buf, uint64(leaf.Peek()))
		d.Write(buf)
	}
	return d.Sum64()
}

func makeGraph(rt *ko.Runtime, cfg graphConfig, counter *int64) *layeredGraph {
	sources := make([]*ko.Observable[int], cfg.width)
	prev := make([]ko.Source[int], cfg.width)
	for i := range sources {
		sources[i] = ko.NewObservable(rt, i)
		prev[i] = sources[i]
	}

	g := &layeredGraph{sources: sources}
	random := rand.New(rand.NewSource(0))
	for l := 0; l < cfg.totalLayers-1; l++ {
		row := makeRow(rt, prev, cfg, counter, random)
		g.layers = append(g.layers, row)
		for i, c := range row {
			prev[i] = c
		}
	}
	return g
}

func makeRow(rt *ko.Runtime, sources []ko.Source[int], cfg graphConfig, counter *int64, random *rand.Rand) []*ko.Computed[int] {
	row := make([]*ko.Computed[int], len(sources))
	for myDex := range sources {
		mySources := make([]ko.Source[int], 0, cfg.nSources)
		for sourceDex := 0; sourceDex < cfg.nSources; sourceDex++ {
			mySources = append(mySources, sources[(myDex+sourceDex)%len(sources)])
		}

		if random.Float64() < cfg.staticFraction {
			row[myDex] = ko.NewComputed(rt, func() int {
				*counter++
				sum := 0
				for _, source := range mySources {
					sum += source.Value()
				}
				return sum
			})
			continue
		}

		first := mySources[0]
		tail := mySources[1:]
		row[myDex] = ko.NewComputed(rt, func() int {
			*counter++
			sum := first.Value()
			shouldDrop := sum&0x1 > 0
			dropDex := sum % len(tail)
			for i := 0; i < len(tail); i++ {
				if shouldDrop && i == dropDex {
					continue
				}
				sum += tail[i].Value()
			}
			return sum
		})
	}
	return row
}

func removeElems[T any](src []T, rmCount int, random *rand.Rand) []T {
	out := make([]T, len(src))
	copy(out, src)
	for i := 0; i < rmCount; i++ {
		rmDex := random.Intn(len(out))
		out[rmDex] = out[len(out)-1]
		out = out[:len(out)-1]
	}
	return out
}
