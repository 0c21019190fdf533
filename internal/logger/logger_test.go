package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestToZapLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" INFO ":  zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"Error":   zapcore.ErrorLevel,
		"verbose": defaultZapLevel,
		"":        defaultZapLevel,
	}
	for in, want := range cases {
		if got := toZapLevel(in); got != want {
			t.Fatalf("toZapLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestGet_IsSingleton(t *testing.T) {
	a := Get(WarnLevel)
	b := Get(DebugLevel)
	if a != b {
		t.Fatal("Get must return the same instance")
	}
	if a.Desugar().Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("first call fixes the level; debug must stay disabled")
	}
	if c := a.Component("pruner"); c == nil || c.SugaredLogger == a.SugaredLogger {
		t.Fatal("Component must return a distinct child logger")
	}
}

func TestNop_DiscardsAndIsIndependent(t *testing.T) {
	n := Nop()
	if n.Desugar().Core().Enabled(zapcore.ErrorLevel) {
		t.Fatal("nop logger must not enable any level")
	}
	n.Infow("dropped", "k", "v")
	if n == Get(InfoLevel) {
		t.Fatal("Nop must not return the global logger")
	}
}
