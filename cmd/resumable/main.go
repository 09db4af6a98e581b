package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/js"
	"github.com/wippyai/resumable/runtime"
	"github.com/wippyai/resumable/transpile"
)

type options struct {
	output  string
	only    string
	remove  string
	resume  string
	dump    bool
	run     bool
	verbose bool
}

func main() {
	var opts options
	flag.StringVar(&opts.output, "o", "", "Write the transpiled program to a file instead of stdout")
	flag.StringVar(&opts.only, "only", "", "Only transpile these functions (comma-separated, prefix* allowed)")
	flag.StringVar(&opts.remove, "remove", "", "Never transpile these functions (comma-separated, prefix* allowed)")
	flag.StringVar(&opts.resume, "resume", "", "Values fed to successive suspensions with -run (comma-separated)")
	flag.BoolVar(&opts.dump, "dump", false, "Dump the transpiled syntax tree")
	flag.BoolVar(&opts.run, "run", false, "Run the transpiled program")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose debug logging")
	interactive := flag.Bool("i", false, "Interactive stepper: run and resume with typed values")
	repl := flag.Bool("repl", false, "Read JavaScript interactively and show the transpiled output")
	flag.Parse()

	logger := newLogger(opts.verbose)
	defer func() { _ = logger.Sync() }()
	transpile.SetLogger(logger)

	if *repl {
		if err := runRepl(opts, logger); err != nil {
			fail(err)
		}
		return
	}

	if flag.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "Usage: resumable [flags] [file.js]")
		fmt.Fprintln(os.Stderr, "       resumable -run [-resume v1,v2] file.js")
		fmt.Fprintln(os.Stderr, "       resumable -i file.js  (interactive mode)")
		fmt.Fprintln(os.Stderr, "       resumable -repl")
		os.Exit(1)
	}

	filename := flag.Arg(0)
	source, err := readSource(filename)
	if err != nil {
		fail(err)
	}

	if *interactive {
		if err := runInteractive(filename, source, opts, logger); err != nil {
			fail(err)
		}
		return
	}

	if err := run(source, opts, logger); err != nil {
		fail(err)
	}
}

func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#90EE90"))
)

// styled renders s with style only when stderr is a terminal.
func styled(style lipgloss.Style, s string) string {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return s
	}
	return style.Render(s)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, styled(errorStyle, "Error: "+err.Error()))
	os.Exit(1)
}

func readSource(filename string) (string, error) {
	if filename == "" || filename == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return string(data), nil
}

func (o options) config(logger *zap.Logger) transpile.Config {
	return transpile.Config{
		OnlyList:   transpile.ParseFunctionPatterns(splitList(o.only)),
		RemoveList: transpile.ParseFunctionPatterns(splitList(o.remove)),
		Logger:     logger,
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func transform(source string, opts options, logger *zap.Logger) (*ast.Program, error) {
	prog, err := js.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	out, err := transpile.Transform(prog, opts.config(logger))
	if err != nil {
		return nil, fmt.Errorf("transpile: %w", err)
	}
	return out, nil
}

func run(source string, opts options, logger *zap.Logger) error {
	prog, err := transform(source, opts, logger)
	if err != nil {
		return err
	}

	if opts.dump {
		spew.Fdump(os.Stderr, prog)
	}

	if !opts.run {
		code := js.Generate(prog) + "\n"
		if opts.output == "" {
			_, err := io.WriteString(os.Stdout, code)
			return err
		}
		if err := os.WriteFile(opts.output, []byte(code), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		return nil
	}

	rt, err := newRuntime(os.Stdout, logger)
	if err != nil {
		return err
	}
	return execute(context.Background(), rt, prog, splitList(opts.resume))
}

// newRuntime creates a runtime with the print and suspend host functions.
func newRuntime(stdout io.Writer, logger *zap.Logger) (*runtime.Runtime, error) {
	rt := runtime.New(runtime.Config{Logger: logger})
	err := rt.RegisterFunc("print", runtime.HostFunc(func(_ context.Context, args []runtime.Value) (any, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = runtime.ToString(a)
		}
		_, err := fmt.Fprintln(stdout, strings.Join(parts, " "))
		return nil, err
	}))
	if err != nil {
		return nil, err
	}
	err = rt.RegisterFunc("suspend", func(reason string) (runtime.Value, error) {
		return nil, runtime.Suspend(reason)
	})
	if err != nil {
		return nil, err
	}
	return rt, nil
}

// execute runs prog and answers each suspension with the next value.
func execute(ctx context.Context, rt *runtime.Runtime, prog *ast.Program, values []string) error {
	out, err := rt.Run(ctx, prog)
	for err == nil && out.Suspended() {
		if len(values) == 0 {
			fmt.Fprintln(os.Stderr, styled(noticeStyle, describeSuspension(out)))
			return nil
		}
		fmt.Fprintln(os.Stderr, styled(noticeStyle, fmt.Sprintf("%s, resuming with %s", describeSuspension(out), values[0])))
		out, err = rt.Resume(ctx, out.Signal, parseValue(values[0]))
		values = values[1:]
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, styled(successStyle, "completed: "+runtime.Inspect(out.Value)))
	return nil
}

func describeSuspension(out runtime.Outcome) string {
	reason := out.Signal.Reason
	if reason == "" {
		reason = "pause"
	}
	return fmt.Sprintf("suspended (%s) with %d frame(s)", reason, out.Signal.Depth())
}

// parseValue reads a literal typed by the user: a number, true, false,
// null, undefined or a quoted string. Anything else is taken as a string.
func parseValue(s string) any {
	s = strings.TrimSpace(s)
	switch s {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return runtime.Null
	case "undefined":
		return runtime.Undefined
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
