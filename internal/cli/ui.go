package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/spritepack/pkg/history"
	"github.com/matzehuels/spritepack/pkg/pipeline"
)

// Command results go to the command's output through a printer. Diagnostics
// go to the logger.

var (
	colorAccent = lipgloss.Color("36")
	colorOK     = lipgloss.Color("35")
	colorWarn   = lipgloss.Color("220")
	colorFail   = lipgloss.Color("167")
	colorLink   = lipgloss.Color("75")
	colorLabel  = lipgloss.Color("245")
	colorMuted  = lipgloss.Color("240")
)

var (
	styleHeading = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	styleSheet   = lipgloss.NewStyle().Foreground(colorAccent)
	styleLink    = lipgloss.NewStyle().Foreground(colorLink).Underline(true)
	styleMuted   = lipgloss.NewStyle().Foreground(colorMuted)
	styleOK      = lipgloss.NewStyle().Foreground(colorOK)
	styleWarn    = lipgloss.NewStyle().Foreground(colorWarn)
	styleFail    = lipgloss.NewStyle().Foreground(colorFail)
	styleLabel   = lipgloss.NewStyle().Foreground(colorLabel).Width(labelWidth)
	styleSpinner = lipgloss.NewStyle().Foreground(colorAccent)
)

// labelWidth aligns the values of printer.entry.
const labelWidth = 20

const (
	markOK   = "✓"
	markFail = "✗"
	markSkip = "!"
	markNote = "›"
	markFile = "→"
	sep      = " · "
)

type printer struct {
	w io.Writer
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w}
}

func (p *printer) println(s string) {
	fmt.Fprintln(p.w, s)
}

// note prints a status line.
func (p *printer) note(format string, args ...any) {
	p.println(styleMuted.Render(markNote) + " " + fmt.Sprintf(format, args...))
}

// detail prints an indented secondary line.
func (p *printer) detail(format string, args ...any) {
	p.println("  " + styleMuted.Render(fmt.Sprintf(format, args...)))
}

func (p *printer) ok(format string, args ...any) {
	p.println(styleOK.Render(markOK) + " " + fmt.Sprintf(format, args...))
}

// built reports a sheet that was built, with its size and cache status.
func (p *printer) built(res *pipeline.Result) {
	p.ok("%s", styleSheet.Render(res.Sheet.Name))

	source := "composed"
	sourceStyle := styleMuted
	if res.CacheInfo.ImageHit {
		source = "cached"
		sourceStyle = styleOK
	}
	facts := []string{
		fmt.Sprintf("%d images", res.Stats.ImageCount),
		fmt.Sprintf("%dx%d px", res.Metadata.Canvas.Width, res.Metadata.Canvas.Height),
		res.Placement.Strategy,
	}
	p.println("  " + styleMuted.Render(strings.Join(facts, sep)) + styleMuted.Render(sep) + sourceStyle.Render(source))
	p.detail("fingerprint %s", res.Metadata.ShortFingerprint())
}

// failed reports a sheet that could not be built.
func (p *printer) failed(name, msg string) {
	p.println(styleFail.Render(markFail) + " " + styleSheet.Render(name) + ": " + msg)
}

// skipped reports a sheet abandoned because the batch was canceled.
func (p *printer) skipped(name string) {
	p.println(styleWarn.Render(markSkip) + " " + styleWarn.Render(name+" skipped"))
}

// output prints a written file.
func (p *printer) output(path string) {
	p.println("  " + styleMuted.Render(markFile) + " " + path)
}

// record prints one history entry. changed is false when the entry matches
// the previous build of the same sheet.
func (p *printer) record(r *history.Record, changed bool) {
	status := styleMuted.Render("unchanged")
	if changed {
		status = styleOK.Render("changed")
	}
	p.println(strings.Join([]string{
		styleMuted.Render(r.CreatedAt.Local().Format("2006-01-02 15:04:05")),
		styleSheet.Render(r.Sheet),
		shortFingerprint(r.Fingerprint),
		status,
	}, "  "))
	p.detail("%d images%s%dx%d%s%s", r.Images, sep, r.CanvasWidth, r.CanvasHeight, sep, r.Strategy)
}

// heading starts a titled block of entries.
func (p *printer) heading(title string) {
	p.println(styleHeading.Render(title))
}

// entry prints a label aligned to labelWidth followed by its value.
func (p *printer) entry(label, value string) {
	p.println("  " + styleLabel.Render(label) + " " + value)
}

// hint suggests a command to run next.
func (p *printer) hint(what, command string) {
	p.println(styleMuted.Render(what+":") + " " + styleLink.Render(command))
}

func (p *printer) blank() {
	p.println("")
}
