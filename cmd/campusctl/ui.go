package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	labelColor   = color.New(color.Faint)
)

func section(title string) {
	_, _ = headerColor.Fprintf(os.Stderr, "\n%s\n", title)
}

func success(format string, args ...any) {
	_, _ = successColor.Fprintf(os.Stderr, "✓ "+format+"\n", args...)
}

func warn(format string, args ...any) {
	_, _ = warnColor.Fprintf(os.Stderr, "! "+format+"\n", args...)
}

func field(w io.Writer, label string, value any) {
	_, _ = fmt.Fprintf(w, "  %s %v\n", labelColor.Sprintf("%-10s", label+":"), value)
}

func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("sentences"),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}
