// Command coursectl runs the course wizard steps from the command line.
//
// Usage:
//
//	coursectl schedule  -in calendario.txt
//	coursectl participants -in partecipanti.tsv
//	coursectl extract   -file bando.pdf -file allievi.xlsx -out corso.json
//	coursectl export    -course corso.json -format ics -out corso.ics
//	coursectl export    -course corso.json -format docx -template modello.docx
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/brunobiangulo/coursewizard"
	"github.com/brunobiangulo/coursewizard/extract"
)

// stringSlice implements flag.Value for multi-value string flags.
type stringSlice []string

func (s *stringSlice) String() string { return strings.Join(*s, ", ") }
func (s *stringSlice) Set(val string) error {
	*s = append(*s, val)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "coursectl:", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: coursectl <schedule|course-table|participants|extract|export> [flags]")
}

// run dispatches a subcommand. It is separated from main for testing.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		usage(stderr)
		return errors.New("missing command")
	}
	cmd, args := args[0], args[1:]

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		files      stringSlice
		configPath = fs.String("config", "", "Path to config file (YAML or JSON)")
		in         = fs.String("in", "-", "Input text file, - for stdin")
		out        = fs.String("out", "", "Output file; defaults to stdout, or the artifact name for export")
		coursePath = fs.String("course", "", "Course JSON produced by extract")
		format     = fs.String("format", coursewizard.FormatICS, "Export format: ics, xlsx, pdf, docx, links")
		template   = fs.String("template", "", "DOCX template for the docx format")
		noMock     = fs.Bool("no-mock", false, "Disable the built-in sample text fallback")
		verbose    = fs.Bool("v", false, "Log progress to stderr")
	)
	fs.Var(&files, "file", "Document to extract (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg := coursewizard.DefaultConfig()
	if *configPath != "" {
		loaded, err := coursewizard.LoadConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	opts := []coursewizard.Option{coursewizard.WithLogger(logger)}
	if *noMock {
		opts = append(opts, coursewizard.WithMockFallback(false))
	}
	engine, err := coursewizard.New(cfg, opts...)
	if err != nil {
		return err
	}

	switch cmd {
	case "schedule":
		text, err := readInput(*in, stdin)
		if err != nil {
			return err
		}
		return writeJSON(*out, stdout, engine.ParseSchedule(text))

	case "course-table":
		text, err := readInput(*in, stdin)
		if err != nil {
			return err
		}
		table, err := engine.ParseCourseTable(text)
		if err != nil {
			return err
		}
		return writeJSON(*out, stdout, coursewizard.CourseFromTable(table))

	case "participants":
		text, err := readInput(*in, stdin)
		if err != nil {
			return err
		}
		return writeJSON(*out, stdout, engine.ParseParticipants(text))

	case "extract":
		if len(files) == 0 {
			return errors.New("extract: at least one -file is required")
		}
		docs := make([]extract.Document, 0, len(files))
		for _, path := range files {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			docs = append(docs, extract.Document{Name: filepath.Base(path), Data: data})
		}
		res, err := engine.Extract(ctx, docs...)
		if err != nil {
			return err
		}
		for _, w := range res.Warnings {
			logger.Warn("extract", "warning", w)
		}
		return writeJSON(*out, stdout, coursewizard.CourseFromExtraction(res))

	case "export":
		if *coursePath == "" {
			return errors.New("export: -course is required")
		}
		raw, err := os.ReadFile(*coursePath)
		if err != nil {
			return err
		}
		var data coursewizard.CourseData
		if err := json.Unmarshal(raw, &data); err != nil {
			return fmt.Errorf("export: decoding %s: %w", *coursePath, err)
		}
		var eopts []coursewizard.ExportOption
		if *template != "" {
			tpl, err := os.ReadFile(*template)
			if err != nil {
				return err
			}
			eopts = append(eopts, coursewizard.WithTemplate(tpl))
		}
		art, err := engine.Export(ctx, data, *format, eopts...)
		if err != nil {
			return err
		}
		for _, name := range art.Unresolved {
			logger.Warn("export: unresolved template variable", "name", name)
		}
		if strings.EqualFold(*format, coursewizard.FormatLinks) {
			return writeJSON(*out, stdout, art.Links)
		}
		dest := *out
		if dest == "" {
			dest = art.Name
		}
		if err := writeOutput(dest, stdout, art.Data); err != nil {
			return err
		}
		logger.Info("export written", "path", dest, "bytes", len(art.Data))
		return nil

	default:
		usage(stderr)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func readInput(path string, stdin io.Reader) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	return string(b), err
}

func writeJSON(path string, stdout io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeOutput(path, stdout, append(b, '\n'))
}

func writeOutput(path string, stdout io.Writer, b []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(b)
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
