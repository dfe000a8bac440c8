package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRunSuccess(t *testing.T) {
	const src = `
const a = 5, b = 7;
var r;
begin r := a + b * 2 end.
`
	var stdout, stderr bytes.Buffer
	code := run(strings.NewReader(src), &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr.String())
	}
	if stdout.String() != "assign 19\n" {
		t.Errorf("stdout = %q, want \"assign 19\\n\"", stdout.String())
	}
}

func TestRunCompileErrorReportsPosition(t *testing.T) {
	const src = `begin z := 1 end.`
	var stdout, stderr bytes.Buffer
	code := run(strings.NewReader(src), &stdout, &stderr)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	out := stderr.String()
	if !strings.Contains(out, "undeclared") {
		t.Errorf("stderr = %q, want it to mention \"undeclared\"", out)
	}
	if !strings.Contains(out, "line") || !strings.Contains(out, "column") {
		t.Errorf("stderr = %q, want a line/column location", out)
	}
}
