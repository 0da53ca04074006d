package cli

// This file implements the human-facing progress output. Progress goes to
// stderr so the passthrough output of docker and ssh keeps stdout to itself.

import (
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"golang.org/x/term"
)

// Printer writes progress lines for a run.
type Printer struct {
	// Quiet suppresses everything except errors.
	Quiet bool
	// Out defaults to os.Stderr.
	Out io.Writer
	// Interactive enables the spinner. Set by NewPrinter when Out is a terminal.
	Interactive bool
}

// NewPrinter returns a Printer on w, enabling the spinner when w is a terminal.
func NewPrinter(w io.Writer, quiet bool) *Printer {
	p := &Printer{Quiet: quiet, Out: w}
	if f, ok := w.(*os.File); ok {
		p.Interactive = term.IsTerminal(int(f.Fd()))
	}
	return p
}

// DefaultPrinter is used by the package-level helpers.
var DefaultPrinter = NewPrinter(os.Stderr, false)

func (p *Printer) out() io.Writer {
	if p.Out == nil {
		return os.Stderr
	}
	return p.Out
}

// Printf writes formatted text without a prefix.
func (p *Printer) Printf(format string, args ...any) {
	if p.Quiet {
		return
	}
	fmt.Fprintf(p.out(), format, args...)
}

// Section prints a bold heading.
func (p *Printer) Section(title string) {
	if p.Quiet {
		return
	}
	fmt.Fprintln(p.out(), pterm.Bold.Sprint(title))
}

// Step prints a numbered-looking progress line.
func (p *Printer) Step(msg string) {
	if p.Quiet {
		return
	}
	fmt.Fprintf(p.out(), "%s %s\n", Cyan("==>"), msg)
}

func (p *Printer) Info(msg string) {
	if p.Quiet {
		return
	}
	pterm.Info.WithWriter(p.out()).Println(msg)
}

func (p *Printer) Success(msg string) {
	if p.Quiet {
		return
	}
	pterm.Success.WithWriter(p.out()).Println(msg)
}

func (p *Printer) Warn(msg string) {
	if p.Quiet {
		return
	}
	pterm.Warning.WithWriter(p.out()).Println(msg)
}

// Error is printed even in quiet mode.
func (p *Printer) Error(msg string) {
	pterm.Error.WithWriter(p.out()).Println(msg)
}

// SpinnerStart shows msg until the returned stop function is called with the
// outcome. Without a terminal it prints plain lines instead.
func (p *Printer) SpinnerStart(msg string) func(ok bool, result string) {
	if p.Quiet {
		return func(bool, string) {}
	}
	if !p.Interactive {
		p.Step(msg)
		return func(ok bool, result string) {
			if ok {
				p.Success(result)
			} else {
				p.Warn(result)
			}
		}
	}
	spinner, err := pterm.DefaultSpinner.WithWriter(p.out()).WithRemoveWhenDone(false).Start(msg)
	if err != nil {
		p.Step(msg)
		return func(bool, string) {}
	}
	return func(ok bool, result string) {
		if ok {
			spinner.Success(result)
		} else {
			spinner.Fail(result)
		}
	}
}

func Step(msg string)    { DefaultPrinter.Step(msg) }
func Info(msg string)    { DefaultPrinter.Info(msg) }
func Success(msg string) { DefaultPrinter.Success(msg) }
func Warn(msg string)    { DefaultPrinter.Warn(msg) }
func Error(msg string)   { DefaultPrinter.Error(msg) }

func Green(s string) string  { return pterm.Green(s) }
func Yellow(s string) string { return pterm.Yellow(s) }
func Red(s string) string    { return pterm.Red(s) }
func Cyan(s string) string   { return pterm.Cyan(s) }
