// Command ris is the CLI tool for RIS bibliographic exports.
// It decodes exports to JSON, normalises them and benchmarks the decoder.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"

	rerrors "github.com/FocuswithJustin/ris/core/errors"
	"github.com/FocuswithJustin/ris/core/ris"
	"github.com/FocuswithJustin/ris/internal/bench"
	"github.com/FocuswithJustin/ris/internal/logging"
	"github.com/FocuswithJustin/ris/internal/pool"
	"github.com/FocuswithJustin/ris/internal/source"
	"github.com/FocuswithJustin/ris/internal/validation"
)

const version = "0.1.0"

// stdout receives command output. Logs go to stderr.
var stdout io.Writer = os.Stdout

// Globals holds flags shared by every command.
type Globals struct {
	Config     kong.ConfigFlag `help:"Load settings from a JSON file"`
	LogLevel   string          `name:"log-level" help:"Log level (debug, info, warn, error)" default:"info" enum:"debug,info,warn,error" env:"RIS_LOG_LEVEL"`
	LogFormat  string          `name:"log-format" help:"Log format (text, json)" default:"text" enum:"text,json" env:"RIS_LOG_FORMAT"`
	Mode       string          `help:"Decoding mode (lenient, strict)" default:"lenient" enum:"lenient,strict" env:"RIS_MODE"`
	Duplicates string          `help:"Which value a repeated single-valued tag keeps (last, first)" default:"last" enum:"last,first" env:"RIS_DUPLICATES"`
	Join       string          `help:"Separator for continuation lines (newline, space)" default:"newline" enum:"newline,space" env:"RIS_JOIN"`
	MaxLine    int             `name:"max-line-bytes" help:"Maximum physical line length in bytes (0 = 64 MiB)" default:"0" env:"RIS_MAX_LINE_BYTES"`
	Workers    int             `short:"j" help:"Files decoded in parallel (0 = CPU count)" default:"0"`
}

// CLI defines the command-line interface for ris.
var CLI struct {
	Globals

	Parse   ParseCmd   `cmd:"" help:"Decode RIS files to JSON"`
	Stream  StreamCmd  `cmd:"" help:"Decode a RIS file to JSON lines, including recoverable errors"`
	Fmt     FmtCmd     `cmd:"" help:"Rewrite a RIS file in normalised form"`
	Bench   BenchCmd   `cmd:"" help:"Time the decoder over RIS files"`
	Fields  FieldsCmd  `cmd:"" help:"List the tags of the default schema"`
	Types   TypesCmd   `cmd:"" help:"List the known reference types"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// options builds decoder options from the global flags.
func (g *Globals) options() (ris.Options, error) {
	opts := ris.DefaultOptions()

	mode, err := ris.ParseMode(g.Mode)
	if err != nil {
		return opts, err
	}
	dup, err := ris.ParseDuplicatePolicy(g.Duplicates)
	if err != nil {
		return opts, err
	}
	opts.Mode = mode
	opts.Duplicates = dup

	switch g.Join {
	case "space":
		opts.Join = " "
	case "newline", "":
		opts.Join = "\n"
	default:
		return opts, fmt.Errorf("unknown join %q", g.Join)
	}
	opts.MaxLineBytes = g.MaxLine
	return opts, opts.Validate()
}

// context configures logging and returns a context carrying a fresh run ID.
func (g *Globals) context() (context.Context, error) {
	level, err := logging.ParseLevel(g.LogLevel)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(g.LogFormat)
	if err != nil {
		return nil, err
	}
	logging.InitLogger(level, format)
	return logging.WithRunID(context.Background(), logging.NewRunID()), nil
}

// ParseCmd decodes files to JSON arrays of records.
type ParseCmd struct {
	Files  []string `arg:"" help:"RIS files, optionally gzip or xz compressed (- for stdin)"`
	OutDir string   `name:"out-dir" short:"o" help:"Write one JSON file per input into this directory" type:"path"`
	Indent bool     `help:"Indent JSON output"`
}

type parsed struct {
	path     string
	records  []*ris.Record
	stats    ris.Stats
	fp       source.Fingerprint
	duration time.Duration
	err      error
}

func (c *ParseCmd) Run(g *Globals) error {
	opts, err := g.options()
	if err != nil {
		return err
	}
	ctx, err := g.context()
	if err != nil {
		return err
	}

	var names []string
	if c.OutDir != "" {
		if names, err = outputNames(c.Files, ".json"); err != nil {
			return err
		}
		if err := os.MkdirAll(c.OutDir, 0o755); err != nil {
			return rerrors.Wrapf(err, "failed to create output directory %s", c.OutDir)
		}
	}

	results := pool.Map(g.Workers, c.Files, func(path string) parsed {
		return parseFile(ctx, path, opts)
	})

	failed := 0
	for i, res := range results {
		if res.err != nil {
			logging.FileFailed(ctx, res.path, res.err)
			failed++
			continue
		}
		logging.FileParsed(ctx, res.path, len(res.records), res.stats.Discarded, res.duration,
			"errors", res.stats.Errors, "bytes", res.fp.Bytes, "blake3", res.fp.BLAKE3)

		var name string
		if names != nil {
			name = names[i]
		}
		if err := c.write(res, name); err != nil {
			logging.FileFailed(ctx, res.path, err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(c.Files))
	}
	return nil
}

// write prints res to stdout, or to name inside OutDir when name is set.
func (c *ParseCmd) write(res parsed, name string) error {
	records := res.records
	if records == nil {
		records = []*ris.Record{}
	}

	if name == "" {
		return writeJSON(stdout, records, c.Indent)
	}
	return writeFile(filepath.Join(c.OutDir, name), func(w io.Writer) error {
		return writeJSON(w, records, c.Indent)
	})
}

// outputNames derives one output file name per input. Inputs that share a
// base name get a numeric suffix in input order.
func outputNames(files []string, ext string) ([]string, error) {
	names := make([]string, len(files))
	used := make(map[string]bool, len(files))
	for i, path := range files {
		name, err := validation.OutputName(path, ext)
		if err != nil {
			return nil, rerrors.Wrapf(err, "invalid output name for %s", path)
		}
		base := strings.TrimSuffix(name, ext)
		for n := 2; used[strings.ToLower(name)]; n++ {
			name = fmt.Sprintf("%s-%d%s", base, n, ext)
		}
		// case-insensitive file systems
		used[strings.ToLower(name)] = true
		names[i] = name
	}
	return names, nil
}

// writeFile writes path through a temporary file in the same directory and
// renames it into place once fn and Close succeed. On failure nothing is
// left behind.
func writeFile(path string, fn func(io.Writer) error) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return rerrors.NewIO("create", path, err)
	}
	defer func() {
		if err != nil {
			os.Remove(f.Name())
		}
	}()

	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		return rerrors.NewIO("chmod", path, err)
	}
	if err := f.Close(); err != nil {
		return rerrors.NewIO("close", path, err)
	}
	if err := os.Rename(f.Name(), path); err != nil {
		return rerrors.NewIO("rename", path, err)
	}
	return nil
}

// parseFile decodes one input, logging every recoverable error.
func parseFile(ctx context.Context, path string, opts ris.Options) parsed {
	res := parsed{path: path}
	start := time.Now()

	src, err := source.Open(path)
	if err != nil {
		res.err = err
		return res
	}
	defer src.Close()
	logging.DebugContext(ctx, "source_opened", "path", path, "type", src.Type)

	d := ris.NewDecoder(src, opts)
	for {
		rec, err := d.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if ris.IsRecoverable(err) {
				logging.RecordSkipped(ctx, path, err)
				continue
			}
			res.err = rerrors.NewParse("RIS", path, err)
			return res
		}
		res.records = append(res.records, rec)
	}

	res.stats = d.Stats()
	res.fp = src.Fingerprint()
	res.duration = time.Since(start)
	return res
}

// StreamCmd decodes a file to one JSON object per line.
type StreamCmd struct {
	File string `arg:"" optional:"" default:"-" help:"RIS file (- for stdin)"`
}

// streamLine is one line of stream output: a record or an error.
type streamLine struct {
	Record *ris.Record `json:"record,omitempty"`
	Error  *errorLine  `json:"error,omitempty"`
}

type errorLine struct {
	Kind        string `json:"kind"`
	Message     string `json:"message"`
	Line        int    `json:"line,omitempty"`
	Offset      int64  `json:"offset"`
	Record      int    `json:"record"`
	Tag         string `json:"tag,omitempty"`
	Recoverable bool   `json:"recoverable"`
}

func newErrorLine(err error) *errorLine {
	out := &errorLine{Kind: "io", Message: err.Error(), Record: -1}
	var pe *ris.ParseError
	if rerrors.As(err, &pe) {
		out.Kind = kindName(pe.Kind)
		out.Line = pe.Line
		out.Offset = pe.Offset
		out.Record = pe.Record
		out.Tag = pe.Tag
		out.Recoverable = pe.Recoverable
	}
	return out
}

var kindNames = map[error]string{
	ris.ErrDecode:               "decode",
	ris.ErrLineTooLong:          "line_too_long",
	ris.ErrOrphanContinuation:   "orphan_continuation",
	ris.ErrMissingReferenceType: "missing_reference_type",
	ris.ErrTruncatedRecord:      "truncated_record",
	ris.ErrUnterminatedRecord:   "unterminated_record",
	ris.ErrStrayField:           "stray_field",
}

func kindName(kind error) string {
	if name, ok := kindNames[kind]; ok {
		return name
	}
	return "unknown"
}

func (c *StreamCmd) Run(g *Globals) error {
	opts, err := g.options()
	if err != nil {
		return err
	}
	ctx, err := g.context()
	if err != nil {
		return err
	}

	src, err := source.Open(c.File)
	if err != nil {
		logging.FileFailed(ctx, c.File, err)
		return err
	}
	defer src.Close()

	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)

	start := time.Now()
	d := ris.NewDecoder(src, opts)
	for rec, err := range d.All() {
		line := streamLine{Record: rec}
		if err != nil {
			line.Error = newErrorLine(err)
		}
		if werr := enc.Encode(line); werr != nil {
			return rerrors.Wrap(werr, "failed to write output")
		}
		switch {
		case err == nil:
		case ris.IsRecoverable(err):
			logging.RecordSkipped(ctx, c.File, err)
		default:
			logging.FileFailed(ctx, c.File, err)
			return err
		}
	}

	stats := d.Stats()
	logging.FileParsed(ctx, c.File, stats.Records, stats.Discarded, time.Since(start),
		"errors", stats.Errors, "blake3", src.Fingerprint().BLAKE3)
	return nil
}

// FmtCmd rewrites a file in normalised form: canonical tag spacing, known
// fields in schema order and one blank line between records.
type FmtCmd struct {
	File   string `arg:"" optional:"" default:"-" help:"RIS file (- for stdin)"`
	Output string `short:"o" help:"Write to this file instead of stdout" type:"path"`
}

func (c *FmtCmd) Run(g *Globals) error {
	opts, err := g.options()
	if err != nil {
		return err
	}
	ctx, err := g.context()
	if err != nil {
		return err
	}

	src, err := source.Open(c.File)
	if err != nil {
		logging.FileFailed(ctx, c.File, err)
		return err
	}
	defer src.Close()

	if c.Output == "" {
		return c.format(ctx, src, stdout, opts)
	}
	return writeFile(c.Output, func(w io.Writer) error {
		return c.format(ctx, src, w, opts)
	})
}

func (c *FmtCmd) format(ctx context.Context, r io.Reader, w io.Writer, opts ris.Options) error {
	start := time.Now()
	enc := ris.NewEncoder(w, opts.Schema)
	d := ris.NewDecoder(r, opts)
	for {
		rec, err := d.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if ris.IsRecoverable(err) {
				logging.RecordSkipped(ctx, c.File, err)
				continue
			}
			logging.FileFailed(ctx, c.File, err)
			return rerrors.NewParse("RIS", c.File, err)
		}
		if err := enc.Encode(rec); err != nil {
			return rerrors.Wrapf(err, "record %d", rec.Index)
		}
	}

	stats := d.Stats()
	logging.FileParsed(ctx, c.File, stats.Records, stats.Discarded, time.Since(start))
	return nil
}

// BenchCmd times the decoder over one or more files.
type BenchCmd struct {
	Files      []string `arg:"" help:"RIS files to time"`
	Iterations int      `short:"n" help:"Timed runs per file" default:"10"`
	Warmup     int      `help:"Untimed runs before timing" default:"1"`
	Entry      string   `help:"Entry point to time (parse, stream)" default:"parse" enum:"parse,stream"`
	Format     string   `help:"Output format (table, json, bench for benchstat)" default:"table" enum:"table,json,bench"`
}

func (c *BenchCmd) Run(g *Globals) error {
	opts, err := g.options()
	if err != nil {
		return err
	}
	ctx, err := g.context()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	cfg := bench.Config{
		Iterations: c.Iterations,
		Warmup:     c.Warmup,
		Mode:       bench.Mode(c.Entry),
		Options:    opts,
		Parallel:   g.Workers,
	}
	logging.InfoContext(ctx, "bench_started", "files", len(c.Files), "iterations", cfg.Iterations, "mode", cfg.Mode)

	results, err := bench.RunFiles(ctx, c.Files, cfg)
	if err != nil {
		return err
	}

	switch c.Format {
	case "json":
		return writeJSON(stdout, results, true)
	case "bench":
		return bench.WriteBenchfmt(stdout, results)
	default:
		return bench.WriteTable(stdout, results)
	}
}

// FieldsCmd prints the default schema.
type FieldsCmd struct{}

func (c *FieldsCmd) Run() error {
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TAG\tNAME\tKIND\tMULTIPLICITY\tDESCRIPTION")
	for _, f := range ris.DefaultSchema().Fields() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", f.Tag, f.Name, f.Kind, f.Multiplicity, f.Description)
	}
	return tw.Flush()
}

// TypesCmd prints the reference type table.
type TypesCmd struct{}

func (c *TypesCmd) Run() error {
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tDESCRIPTION")
	for _, t := range ris.ReferenceTypes() {
		fmt.Fprintf(tw, "%s\t%s\n", t.Code, t.Description)
	}
	return tw.Flush()
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Fprintf(stdout, "ris version %s\n", version)
	return nil
}

func writeJSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return rerrors.Wrap(err, "failed to write JSON")
	}
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("ris"),
		kong.Description("RIS bibliographic export decoder"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Configuration(kong.JSON, "/etc/ris/config.json", "~/.config/ris/config.json"),
	)
	err := ctx.Run(&CLI.Globals)
	ctx.FatalIfErrorf(err)
}
