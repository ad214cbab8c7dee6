package logger

import "testing"

func TestInitFallsBackToInfoOnBadLevel(t *testing.T) {
	t.Cleanup(func() { globalLogger = nil })

	if err := Init("not-a-level", "development"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l := Get()
	if l == nil || l.SugaredLogger == nil {
		t.Fatal("expected global logger")
	}
	if l.Desugar().Core().Enabled(-1) {
		t.Fatal("debug should be disabled at info level")
	}
}

func TestGetWithoutInit(t *testing.T) {
	globalLogger = nil
	t.Cleanup(func() { globalLogger = nil })

	if Get() == nil {
		t.Fatal("expected fallback logger")
	}
	if Get().With("component", "test") == nil {
		t.Fatal("expected child logger")
	}
}
