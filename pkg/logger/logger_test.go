package logger

import (
	"context"
	"testing"
)

func TestInitAndLevels(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	l := Get()
	if l == nil {
		t.Fatal("expected a logger instance")
	}

	// Named loggers should be distinct instances.
	named := l.Named("engine")
	if named == nil {
		t.Fatal("expected a named logger")
	}

	ctx := context.Background()
	named.Info(ctx, "info line", String("k", "v"), Int("n", 1))
	named.Warn(ctx, "warn line", Float64("f", 2.5), Bool("b", true))
	named.Debug(ctx, "debug line")
	named.Error(ctx, "error line", Error(nil))
}

func TestSetLevelString(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	valid := []string{"debug", "info", "warn", "warning", "error", "", "DEBUG", " info "}
	for _, lvl := range valid {
		if err := SetLevelString(lvl); err != nil {
			t.Errorf("expected level %q to parse, got %v", lvl, err)
		}
	}

	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected an error for unknown level")
	}
}
