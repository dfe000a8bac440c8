//go:build debug

package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mukaiizawa/XPL0/code"
	"github.com/mukaiizawa/XPL0/compiler"
	"github.com/mukaiizawa/XPL0/vm"
)

const debugBuild = true

// listSource prints the source with 1-based line numbers, the way a
// debug build of the reference lists the program before compiling it.
// spec.md §6 puts this on the normal output stream, alongside the
// execution trace, not on stderr.
func listSource(w io.Writer, src []byte) {
	scanner := bufio.NewScanner(strings.NewReader(string(src)))
	for n := 1; scanner.Scan(); n++ {
		fmt.Fprintf(w, "%4d  %s\n", n, scanner.Text())
	}
}

// dumpCompileArtifacts prints the post-compile symbol-table dump and
// instruction listing spec.md §6 describes for debug builds, to the
// same normal output stream as the execution trace.
func dumpCompileArtifacts(w io.Writer, res *compiler.Result) {
	fmt.Fprintln(w, "-- symbols --")
	res.Symbols.WriteDump(w)
	fmt.Fprintln(w, "-- code --")
	b := code.NewBuffer()
	for _, ins := range res.Instructions {
		b.Gen(ins.Op, ins.L, ins.A)
	}
	b.WriteListing(w)
}

func vmTraceOption(w io.Writer) vm.Option {
	return vm.VMTrace(w)
}
