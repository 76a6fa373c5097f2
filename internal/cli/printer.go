package cli

import (
	"github.com/pterm/pterm"
)

// Printer writes user-facing output. Quiet suppresses decorative
// output; warnings and errors stay visible.
type Printer struct {
	Quiet bool
}

// DefaultPrinter backs the package-level helpers.
var DefaultPrinter = &Printer{}

// Header prints a prominent banner.
func (p *Printer) Header(text string) {
	if p.Quiet {
		return
	}
	pterm.DefaultHeader.Println(text)
}

// Section prints a section heading.
func (p *Printer) Section(text string) {
	if p.Quiet {
		return
	}
	pterm.DefaultSection.Println(text)
}

// Step prints a single step within a longer operation.
func (p *Printer) Step(text string) {
	if p.Quiet {
		return
	}
	pterm.Println(pterm.Cyan("▸ ") + text)
}

// Info prints an informational line.
func (p *Printer) Info(text string) {
	if p.Quiet {
		return
	}
	pterm.Info.Println(text)
}

// Success prints a success line.
func (p *Printer) Success(text string) {
	if p.Quiet {
		return
	}
	pterm.Success.Println(text)
}

// Warn prints a warning line.
func (p *Printer) Warn(text string) {
	pterm.Warning.Println(text)
}

// Error prints an error line.
func (p *Printer) Error(text string) {
	pterm.Error.Println(text)
}

// Println prints its arguments followed by a newline.
func (p *Printer) Println(args ...any) {
	if p.Quiet {
		return
	}
	pterm.Println(args...)
}

// Printf prints a formatted string.
func (p *Printer) Printf(format string, args ...any) {
	if p.Quiet {
		return
	}
	pterm.Printf(format, args...)
}

// SpinnerStart begins a spinner and returns a stop function that
// finalizes it with a success or failure message.
func (p *Printer) SpinnerStart(text string) func(success bool, result string) {
	if p.Quiet {
		return func(bool, string) {}
	}
	spinner, err := pterm.DefaultSpinner.Start(text)
	if err != nil {
		return func(bool, string) {}
	}
	return func(success bool, result string) {
		if success {
			spinner.Success(result)
			return
		}
		spinner.Fail(result)
	}
}

// Package-level helpers writing through DefaultPrinter.

func Header(text string)  { DefaultPrinter.Header(text) }
func Section(text string) { DefaultPrinter.Section(text) }
func Info(text string)    { DefaultPrinter.Info(text) }
func Success(text string) { DefaultPrinter.Success(text) }
func Warn(text string)    { DefaultPrinter.Warn(text) }
func Error(text string)   { DefaultPrinter.Error(text) }

// Table renders rows with the first row as header.
func Table(data [][]string) {
	if len(data) == 0 {
		return
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData(data)).Render()
}

// TableBoxed renders rows with the first row as header inside a box.
func TableBoxed(data [][]string) {
	if len(data) == 0 {
		return
	}
	_ = pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(pterm.TableData(data)).Render()
}

// Color helpers for inline emphasis.

func Green(text string) string  { return pterm.Green(text) }
func Yellow(text string) string { return pterm.Yellow(text) }
func Red(text string) string    { return pterm.Red(text) }
func Cyan(text string) string   { return pterm.Cyan(text) }
