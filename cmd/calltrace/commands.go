package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/funvibe/calltrace/internal/backend"
	"github.com/funvibe/calltrace/internal/collector"
	"github.com/funvibe/calltrace/internal/compiler"
	"github.com/funvibe/calltrace/internal/config"
	"github.com/funvibe/calltrace/internal/ctxlog"
	"github.com/funvibe/calltrace/internal/diagnostics"
	"github.com/funvibe/calltrace/internal/graph"
	"github.com/funvibe/calltrace/internal/parser"
	"github.com/funvibe/calltrace/internal/pipeline"
	"github.com/funvibe/calltrace/internal/sink"
	"github.com/funvibe/calltrace/internal/source"
	"github.com/funvibe/calltrace/internal/tracestore"
	"github.com/funvibe/calltrace/internal/tracing"
)

// traceFlags collects repeated -trace flags.
type traceFlags []string

func (t *traceFlags) String() string { return strings.Join(*t, ",") }
func (t *traceFlags) Set(v string) error {
	*t = append(*t, v)
	return nil
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

func (a *app) parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return &exitError{code: 0}
		}
		return &exitError{code: 2}
	}
	return nil
}

func (a *app) fileArg(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		fmt.Fprintf(a.errOut, "calltrace %s: expected exactly one file\n", fs.Name())
		fs.Usage()
		return "", &exitError{code: 2}
	}
	return fs.Arg(0), nil
}

func (a *app) runCmd(ctx context.Context, args []string) error {
	fs := a.flags("run")
	cfgPath := fs.String("config", "", "path to calltrace.yaml (default: searched from the file's directory)")
	unitID := fs.Int("unit", -1, "unit id reported in trace events")
	debug := fs.Bool("debug", false, "record statement positions for runtime errors")
	var traces traceFlags
	fs.Var(&traces, "trace", "trace sink: text[:PATH], sqlite:PATH or grpc:ADDR (repeatable)")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	path, err := a.fileArg(fs)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(*cfgPath, filepath.Dir(path))
	if err != nil {
		return err
	}
	if *unitID >= 0 {
		cfg.Trace.UnitID = *unitID
	}
	if *debug {
		cfg.Compiler.Debug = true
	}
	// -trace replaces the configured sinks.
	if len(traces) > 0 {
		cfg.Trace.Sinks = cfg.Trace.Sinks[:0]
		for _, spec := range traces {
			sc, err := config.ParseSink(spec)
			if err != nil {
				return err
			}
			cfg.Trace.Sinks = append(cfg.Trace.Sinks, sc)
		}
	}

	logger := ctxlog.New(cfg.Log.Level, cfg.Log.Format, a.errOut)
	ctx = ctxlog.WithLogger(ctx, logger)

	unit, err := readUnit(path)
	if err != nil {
		return err
	}

	out, err := openSinks(ctx, cfg.Trace.Sinks, a.errOut)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			logger.Error("closing trace sinks", "err", err)
		}
	}()

	session := sink.NewSession()
	logger.Debug("trace session started", "session", session, "unit", cfg.Trace.UnitID, "file", unit.Name())
	reg := tracing.Default()
	if err := reg.Register(sink.Observer(ctx, session, out, map[int]*source.Unit{cfg.Trace.UnitID: unit})); err != nil {
		return err
	}

	pctx := pipeline.NewPipelineContext(ctx, unit, cfg.Trace.UnitID)
	final := pipeline.New(
		&parser.ParserProcessor{},
		&tracing.TransformProcessor{
			Options: compiler.Options{DebugMode: cfg.Compiler.Debug},
			Tracing: []tracing.Option{tracing.WithRegistry(reg), tracing.AllowUnrecorded(cfg.Trace.AllowUnrecorded)},
		},
		backend.NewExecutionProcessor(backend.NewGraphBackend(a.out)),
	).Run(pctx)
	return a.report(final)
}

func (a *app) dumpCmd(ctx context.Context, args []string) error {
	fs := a.flags("dump")
	traced := fs.Bool("trace", false, "dump the instrumented graph")
	unitID := fs.Int("unit", 0, "unit id of instrumented call sites")
	debug := fs.Bool("debug", false, "include statement positions")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	path, err := a.fileArg(fs)
	if err != nil {
		return err
	}
	unit, err := readUnit(path)
	if err != nil {
		return err
	}

	opts := compiler.Options{DebugMode: *debug}
	var gen pipeline.Processor = &compiler.CompileProcessor{Options: opts}
	if *traced {
		gen = &tracing.TransformProcessor{Options: opts}
	}
	final := pipeline.New(&parser.ParserProcessor{}, gen).Run(pipeline.NewPipelineContext(ctx, unit, *unitID))
	if err := a.report(final); err != nil {
		return err
	}
	return graph.Dump(a.out, final.Graph)
}

func (a *app) compileCmd(ctx context.Context, args []string) error {
	fs := a.flags("compile")
	output := fs.String("o", "", "output file (default: the source path with "+config.CompiledFileExt+")")
	debug := fs.Bool("debug", false, "include statement positions")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	path, err := a.fileArg(fs)
	if err != nil {
		return err
	}
	unit, err := readUnit(path)
	if err != nil {
		return err
	}

	final := pipeline.New(
		&parser.ParserProcessor{},
		&compiler.CompileProcessor{Options: compiler.Options{DebugMode: *debug}},
	).Run(pipeline.NewPipelineContext(ctx, unit, 0))
	if err := a.report(final); err != nil {
		return err
	}

	data, err := graph.Marshal(final.Graph)
	if err != nil {
		return fmt.Errorf("encoding graph: %w", err)
	}
	outPath := *output
	if outPath == "" {
		outPath = strings.TrimSuffix(path, filepath.Ext(path)) + config.CompiledFileExt
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("writing graph: %w", err)
	}
	fmt.Fprintf(a.out, "Compiled %s -> %s (%d bytes)\n", path, outPath, len(data))
	return nil
}

func (a *app) execCmd(ctx context.Context, args []string) error {
	fs := a.flags("exec")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	path, err := a.fileArg(fs)
	if err != nil {
		return err
	}
	if filepath.Ext(path) == config.SourceFileExt {
		return fmt.Errorf("%s is a source file; use 'calltrace run' or compile it first", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	root, err := graph.Unmarshal(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	// The source is gone, so errors carry no snippet.
	pctx := pipeline.NewPipelineContext(ctx, nil, 0)
	pctx.Graph = root
	final := backend.NewExecutionProcessor(backend.NewGraphBackend(a.out)).Process(pctx)
	return a.report(final)
}

func (a *app) serveCmd(ctx context.Context, args []string) error {
	fs := a.flags("serve")
	addr := fs.String("addr", config.DefaultCollectorAddr, "listen address")
	db := fs.String("db", "trace.db", "sqlite database receiving events")
	level := fs.String("log-level", "info", "log level")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	logger := ctxlog.New(*level, "text", a.errOut)
	ctx = ctxlog.WithLogger(ctx, logger)

	store, err := tracestore.Open(ctx, *db)
	if err != nil {
		return err
	}
	defer store.Close()

	lis, err := net.Listen("tcp", *addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", *addr, err)
	}
	logger.Info("collector listening", "addr", lis.Addr().String(), "db", *db)
	return collector.Serve(ctx, lis, collector.NewServer(store, logger))
}

func (a *app) queryCmd(ctx context.Context, args []string) error {
	fs := a.flags("query")
	db := fs.String("db", "trace.db", "sqlite trace database")
	session := fs.String("session", "", "only events of this session")
	unitID := fs.Int("unit", -1, "only events of this unit")
	limit := fs.Int("limit", 0, "maximum number of events")
	sessions := fs.Bool("sessions", false, "list sessions instead of events")
	if err := a.parse(fs, args); err != nil {
		return err
	}

	store, err := tracestore.Open(ctx, *db)
	if err != nil {
		return err
	}
	defer store.Close()

	if *sessions {
		counts, err := store.Sessions(ctx)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(counts))
		for id := range counts {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(a.out, "%s\t%d\n", id, counts[id])
		}
		return nil
	}

	f := tracestore.Filter{Session: *session, Limit: *limit}
	if *unitID >= 0 {
		f.Unit = unitID
	}
	events, err := store.Query(ctx, f)
	if err != nil {
		return err
	}
	text := sink.NewText(a.out)
	for _, ev := range events {
		if err := text.Write(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

// report renders the diagnostics of a failed pipeline.
func (a *app) report(ctx *pipeline.PipelineContext) error {
	if !ctx.Failed() {
		return nil
	}
	color := false
	if f, ok := a.errOut.(*os.File); ok {
		color = diagnostics.ColorEnabled(f)
	}
	if err := diagnostics.Render(a.errOut, ctx.Unit, ctx.Errors, color); err != nil {
		return err
	}
	return &exitError{code: 1}
}

func readUnit(path string) (*source.Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return source.NewUnit(path, string(data), "")
}

// loadConfig reads path, or the nearest calltrace.yaml above dir when path
// is empty.
func loadConfig(path, dir string) (*config.Config, error) {
	if path == "" {
		found, err := config.FindConfig(dir)
		if err != nil {
			return nil, err
		}
		if found == "" {
			return config.Default(), nil
		}
		path = found
	}
	return config.LoadConfig(path)
}
