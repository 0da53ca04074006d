package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrinterColors(t *testing.T) {
	// Color functions should return non-empty strings
	if Green("test") == "" {
		t.Error("Green should return non-empty string")
	}
	if Yellow("test") == "" {
		t.Error("Yellow should return non-empty string")
	}
	if Red("test") == "" {
		t.Error("Red should return non-empty string")
	}
	if Cyan("test") == "" {
		t.Error("Cyan should return non-empty string")
	}
}

func TestPrinterWritesToOut(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf}

	p.Step("Starting local registry")
	p.Success("Registry ready")
	p.Printf("value=%d\n", 1)

	out := buf.String()
	for _, want := range []string{"Starting local registry", "Registry ready", "value=1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestPrinterQuietMode(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Quiet: true, Out: &buf}

	p.Section("test")
	p.Step("test")
	p.Info("test")
	p.Warn("test")
	if buf.Len() != 0 {
		t.Fatalf("quiet printer wrote %q", buf.String())
	}

	p.Error("push failed")
	if !strings.Contains(buf.String(), "push failed") {
		t.Fatalf("errors must be printed in quiet mode, got %q", buf.String())
	}
}

func TestPrinterSpinnerQuietMode(t *testing.T) {
	p := &Printer{Quiet: true}
	stop := p.SpinnerStart("working")
	stop(true, "done")
}

func TestPrinterSpinnerWithoutTerminal(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)
	if p.Interactive {
		t.Fatal("a buffer is not a terminal")
	}

	stop := p.SpinnerStart("Waiting for registry")
	stop(false, "Registry did not become ready")

	out := buf.String()
	if !strings.Contains(out, "Waiting for registry") || !strings.Contains(out, "Registry did not become ready") {
		t.Fatalf("unexpected output %q", out)
	}
}
