//go:build !debug

package main

import (
	"io"

	"github.com/mukaiizawa/XPL0/compiler"
	"github.com/mukaiizawa/XPL0/vm"
)

// debugBuild mirrors original_source/xpl0.c's `#ifndef NDEBUG` guard: a
// normal build never lists source, dumps the symbol table, lists code,
// or traces individual instructions (spec.md §6).
const debugBuild = false

func listSource(io.Writer, []byte) {}

func dumpCompileArtifacts(io.Writer, *compiler.Result) {}

func vmTraceOption(io.Writer) vm.Option {
	return func(*vm.Instance) error { return nil }
}
