package config_test

import (
	"strings"
	"testing"

	"github.com/mukaiizawa/XPL0/config"
)

func TestDefaultLimits(t *testing.T) {
	l := config.DefaultLimits()
	if l.MaxIdentifier != 10 || l.MaxLevel != 3 || l.MaxSymbols != 100 || l.MaxCode != 2000 {
		t.Errorf("unexpected defaults: %+v", l)
	}
}

func TestLoadOverridesOneField(t *testing.T) {
	l, err := config.Load(strings.NewReader(`stack_size = 8192`))
	if err != nil {
		t.Fatal(err)
	}
	if l.StackSize != 8192 {
		t.Errorf("StackSize = %d, want 8192", l.StackSize)
	}
	if l.MaxLevel != 3 {
		t.Errorf("MaxLevel should keep its default, got %d", l.MaxLevel)
	}
}

func TestLoadRejectsInvalidStackSize(t *testing.T) {
	_, err := config.Load(strings.NewReader(`stack_size = 1`))
	if err == nil {
		t.Fatal("expected validation error for too-small stack_size")
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	_, err := config.Load(strings.NewReader(`not valid toml ::::`))
	if err == nil {
		t.Fatal("expected decode error")
	}
}
