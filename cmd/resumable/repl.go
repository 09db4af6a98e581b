package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/wippyai/resumable/errors"
	"github.com/wippyai/resumable/js"
	"github.com/wippyai/resumable/runtime"
)

const (
	historyFile = ".resumable_history"
	promptMain  = "js> "
	promptCont  = "... "
)

// runRepl reads programs line by line and prints their transpiled form.
// :run toggles running each program after transpiling it.
func runRepl(opts options, logger *zap.Logger) error {
	fmt.Println("resumable REPL. :run toggles execution, :quit exits.")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	rt, err := newRuntime(os.Stdout, logger)
	if err != nil {
		return err
	}
	running := opts.run

	for {
		code, ok := readProgram(ln)
		if !ok {
			fmt.Println()
			return nil
		}
		trimmed := strings.TrimSpace(code)
		switch trimmed {
		case "":
			continue
		case ":quit":
			return nil
		case ":run":
			running = !running
			fmt.Printf("run: %v\n", running)
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		prog, err := transform(code, opts, logger)
		if err != nil {
			fmt.Fprintln(os.Stderr, styled(errorStyle, err.Error()))
			continue
		}
		fmt.Println(js.Generate(prog))

		if running {
			out, err := rt.Run(context.Background(), prog)
			switch {
			case err != nil:
				fmt.Fprintln(os.Stderr, styled(errorStyle, err.Error()))
			case out.Suspended():
				fmt.Println(styled(noticeStyle, describeSuspension(out)))
			default:
				fmt.Println(styled(successStyle, runtime.Inspect(out.Value)))
			}
		}
	}
}

// readProgram keeps reading lines while the source ends before it is
// complete.
func readProgram(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if stderrors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		if _, err := js.Parse(src); err != nil && incomplete(err) {
			continue
		}
		return src, true
	}
}

func incomplete(err error) bool {
	var e *errors.Error
	return stderrors.As(err, &e) && e.Phase == errors.PhaseParse && strings.Contains(e.Detail, "end of input")
}
