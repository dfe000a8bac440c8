// Command xpl0 compiles one PL/0 program from standard input and runs
// it. It takes no flags and reads no environment variables (spec.md
// §6): the only inputs are the source bytes on stdin, and the only
// outputs are the execution trace on stdout and, on failure, an error
// message on stderr (followed by a line/column line for compile errors).
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/mukaiizawa/XPL0/compiler"
	"github.com/mukaiizawa/XPL0/config"
	"github.com/mukaiizawa/XPL0/internal/xplio"
	"github.com/mukaiizawa/XPL0/vm"
)

func main() {
	os.Exit(run(os.Stdin, os.Stdout, os.Stderr))
}

func run(stdin io.Reader, stdout, stderr io.Writer) int {
	out := xplio.NewErrWriter(stdout)
	errOut := xplio.NewErrWriter(stderr)

	src, err := io.ReadAll(stdin)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s.\n", err)
		return 1
	}

	if debugBuild {
		listSource(out, src)
	}

	res, err := compiler.Compile(bytes.NewReader(src))
	if err != nil {
		reportError(errOut, err)
		return 1
	}

	if debugBuild {
		dumpCompileArtifacts(out, res)
	}

	limits := config.DefaultLimits()
	opts := []vm.Option{vm.Output(out), vm.StackSize(limits.StackSize)}
	if debugBuild {
		opts = append(opts, vmTraceOption(out))
	}
	i, err := vm.New(res.Instructions, opts...)
	if err != nil {
		reportError(errOut, err)
		return 1
	}
	if err := i.Run(); err != nil {
		reportError(errOut, err)
		return 1
	}
	return 0
}

// reportError writes the error taxonomy spec.md §6/§7 specifies:
// "error: <message>." followed by "line L, column C" for a compile
// error carrying a position, or "error: <message>." alone otherwise.
func reportError(w io.Writer, err error) {
	switch e := err.(type) {
	case *compiler.Error:
		fmt.Fprintf(w, "error: %s.\n", e.Msg)
		fmt.Fprintf(w, "line %d, column %d\n", e.Pos.Line, e.Pos.Column)
	default:
		fmt.Fprintf(w, "error: %s.\n", err)
	}
}
