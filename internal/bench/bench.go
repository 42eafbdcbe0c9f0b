// Package bench times the RIS decoder over in-memory inputs.
//
// Each input is read and decompressed once, then decoded Iterations times
// after Warmup untimed runs. Timings cover decoding only. Samples are
// summarised with benchmath and can be written in the Go benchmark format
// for benchstat.
package bench

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/perf/benchfmt"
	"golang.org/x/perf/benchmath"

	"github.com/FocuswithJustin/ris/core/ris"
	"github.com/FocuswithJustin/ris/internal/pool"
	"github.com/FocuswithJustin/ris/internal/source"
)

// Confidence is the confidence level of the reported interval.
const Confidence = 0.95

// Mode selects the entry point being timed.
type Mode string

const (
	// ModeParse times collecting every record from Decoder.Next into a
	// slice, counting recoverable errors on the way.
	ModeParse Mode = "parse"
	// ModeStream times ranging over ris.ParseStreaming without keeping records.
	ModeStream Mode = "stream"
)

// Config controls a benchmark run.
type Config struct {
	Iterations int
	Warmup     int
	Mode       Mode
	Options    ris.Options
	// Parallel bounds how many inputs are loaded concurrently (0 = CPU count).
	// Timed runs are always sequential.
	Parallel int
}

// DefaultConfig returns 10 iterations after 1 warmup run in parse mode.
func DefaultConfig() Config {
	return Config{
		Iterations: 10,
		Warmup:     1,
		Mode:       ModeParse,
		Options:    ris.DefaultOptions(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be at least 1, got %d", c.Iterations)
	}
	if c.Warmup < 0 {
		return fmt.Errorf("warmup must not be negative, got %d", c.Warmup)
	}
	if c.Mode != ModeParse && c.Mode != ModeStream {
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	return c.Options.Validate()
}

// Result holds the timings of one input. Median, Lo and Hi come from a
// distribution-free benchmath summary at the Confidence level.
type Result struct {
	Name        string             `json:"name"`
	Mode        Mode               `json:"mode"`
	Bytes       int64              `json:"bytes"`
	Records     int                `json:"records"`
	Errors      int                `json:"errors"`
	Iterations  int                `json:"iterations"`
	Samples     []time.Duration    `json:"samples_ns"`
	Min         time.Duration      `json:"min_ns"`
	Max         time.Duration      `json:"max_ns"`
	Median      time.Duration      `json:"median_ns"`
	Lo          time.Duration      `json:"lo_ns"`
	Hi          time.Duration      `json:"hi_ns"`
	Confidence  float64            `json:"confidence"`
	Range       string             `json:"range"`
	Warnings    []string           `json:"warnings,omitempty"`
	Fingerprint source.Fingerprint `json:"fingerprint"`
}

// RecordsPerSecond is the record throughput at the median time.
func (r Result) RecordsPerSecond() float64 {
	if r.Median <= 0 {
		return 0
	}
	return float64(r.Records) / r.Median.Seconds()
}

// MBPerSecond is the byte throughput at the median time, in MB (10^6 bytes).
func (r Result) MBPerSecond() float64 {
	if r.Median <= 0 {
		return 0
	}
	return float64(r.Bytes) / 1e6 / r.Median.Seconds()
}

// Run times decoding data. Cancelling ctx stops the run between iterations.
func Run(ctx context.Context, name string, data []byte, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	res := Result{Name: name, Mode: cfg.Mode, Bytes: int64(len(data))}
	for range cfg.Warmup {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if _, _, err := once(data, cfg); err != nil {
			return res, fmt.Errorf("%s: %w", name, err)
		}
	}

	samples := make([]time.Duration, 0, cfg.Iterations)
	for range cfg.Iterations {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		start := time.Now()
		records, errs, err := once(data, cfg)
		samples = append(samples, time.Since(start))
		if err != nil {
			return res, fmt.Errorf("%s: %w", name, err)
		}
		res.Records, res.Errors = records, errs
	}

	res.Iterations = len(samples)
	summarize(&res, samples)
	return res, nil
}

// once decodes data one time and returns the record and recoverable error
// counts.
func once(data []byte, cfg Config) (records, errs int, err error) {
	r := bytes.NewReader(data)
	if cfg.Mode == ModeParse {
		d := ris.NewDecoder(r, cfg.Options)
		recs := make([]*ris.Record, 0, 64)
		for {
			rec, err := d.Next()
			if err == io.EOF {
				return len(recs), d.Stats().Errors, nil
			}
			if err != nil {
				if ris.IsRecoverable(err) {
					continue
				}
				return 0, 0, err
			}
			recs = append(recs, rec)
		}
	}
	for rec, err := range ris.ParseStreaming(r, cfg.Options) {
		switch {
		case rec != nil:
			records++
		case ris.IsRecoverable(err):
			errs++
		default:
			return 0, 0, err
		}
	}
	return records, errs, nil
}

func summarize(res *Result, samples []time.Duration) {
	res.Samples = samples
	values := make([]float64, len(samples))
	for i, d := range samples {
		values[i] = float64(d)
	}
	res.Min = slices.Min(samples)
	res.Max = slices.Max(samples)

	sample := benchmath.NewSample(values, &benchmath.DefaultThresholds)
	sum := benchmath.AssumeNothing.Summary(sample, Confidence)
	res.Median = time.Duration(sum.Center)
	res.Lo = time.Duration(sum.Lo)
	res.Hi = time.Duration(sum.Hi)
	res.Confidence = sum.Confidence
	res.Range = sum.PctRangeString()
	for _, w := range sum.Warnings {
		res.Warnings = append(res.Warnings, w.Error())
	}
}

// RunFiles loads each path through the source package and times it.
// Inputs are loaded in parallel; timings run one file at a time so that
// they do not compete for CPU.
func RunFiles(ctx context.Context, paths []string, cfg Config) ([]Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	type loaded struct {
		data []byte
		fp   source.Fingerprint
		err  error
	}
	inputs := pool.Map(cfg.Parallel, paths, func(path string) loaded {
		data, fp, err := source.ReadFile(path)
		return loaded{data, fp, err}
	})

	results := make([]Result, 0, len(paths))
	for i, in := range inputs {
		if in.err != nil {
			return results, in.err
		}
		res, err := Run(ctx, paths[i], in.data, cfg)
		if err != nil {
			return results, err
		}
		res.Fingerprint = in.fp
		results = append(results, res)
	}
	return results, nil
}

// WriteTable prints results as an aligned table.
func WriteTable(w io.Writer, results []Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "input\tmode\trecords\terrors\tbytes\tmin\tmedian\t±\tmax\trecords/s\tMB/s\t")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t%s\t%s\t%s\t%.0f\t%.2f\t\n",
			r.Name, r.Mode, r.Records, r.Errors, r.Bytes,
			round(r.Min), round(r.Median), r.Range, round(r.Max),
			r.RecordsPerSecond(), r.MBPerSecond())
	}
	return tw.Flush()
}

// WriteBenchfmt writes every timed sample in the Go benchmark format, one
// line per run, so that the output can be compared with benchstat.
func WriteBenchfmt(w io.Writer, results []Result) error {
	bw := benchfmt.NewWriter(w)
	for _, r := range results {
		name := benchfmt.Name(fmt.Sprintf("Decode/input=%s/mode=%s", benchName(r.Name), r.Mode))
		for _, d := range r.Samples {
			secs := max(d, time.Nanosecond).Seconds()
			res := &benchfmt.Result{
				Config: []benchfmt.Config{
					{Key: "goos", Value: []byte(runtime.GOOS), File: true},
					{Key: "goarch", Value: []byte(runtime.GOARCH), File: true},
					{Key: "pkg", Value: []byte("github.com/FocuswithJustin/ris/core/ris"), File: true},
				},
				Name:  name,
				Iters: 1,
				Values: []benchfmt.Value{
					{Value: float64(d.Nanoseconds()), Unit: "ns/op"},
					{Value: float64(r.Bytes) / 1e6 / secs, Unit: "MB/s"},
					{Value: float64(r.Records), Unit: "records/op"},
				},
			}
			if err := bw.Write(res); err != nil {
				return fmt.Errorf("failed to write benchmark result: %w", err)
			}
		}
	}
	return nil
}

// benchName makes an input name usable as a sub-benchmark key value.
func benchName(path string) string {
	name := filepath.Base(path)
	if path == source.Stdin {
		name = "stdin"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '/', '=':
			return '_'
		}
		return r
	}, name)
}

func round(d time.Duration) time.Duration {
	switch {
	case d >= time.Second:
		return d.Round(time.Millisecond)
	case d >= time.Millisecond:
		return d.Round(time.Microsecond)
	default:
		return d
	}
}
