package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/doeshing/matrixsh/internal/domain"
	"github.com/doeshing/matrixsh/internal/ports"
)

const msgNoHistoryRecorded = "No history recorded yet."

type palette struct {
	prompt  *color.Color
	title   *color.Color
	command *color.Color
	low     *color.Color
	medium  *color.Color
	high    *color.Color
	ok      *color.Color
	warn    *color.Color
	err     *color.Color
	dim     *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		prompt:  color.New(color.FgGreen, color.Bold),
		title:   color.New(color.FgCyan, color.Bold),
		command: color.New(color.Bold),
		low:     color.New(color.FgGreen),
		medium:  color.New(color.FgYellow),
		high:    color.New(color.FgRed, color.Bold),
		ok:      color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		err:     color.New(color.FgRed),
		dim:     color.New(color.FgHiBlack),
	}
	for _, c := range []*color.Color{p.prompt, p.title, p.command, p.low, p.medium, p.high, p.ok, p.warn, p.err, p.dim} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Presenter renders turns on a terminal. Colour and the spinner are only
// used when stdout is a TTY.
type Presenter struct {
	out    io.Writer
	errOut io.Writer
	colors palette
	tty    bool
	goos   string
	now    func() time.Time
	stream *streamWriter
}

// NewPresenter builds a presenter. wantColor is the ui.color setting.
func NewPresenter(out, errOut io.Writer, wantColor bool) *Presenter {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	tty := isTerminal(out)
	return &Presenter{
		out:    out,
		errOut: errOut,
		colors: newPalette(wantColor && tty),
		tty:    tty,
		goos:   runtime.GOOS,
		now:    time.Now,
		stream: newStreamWriter(out),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Banner prints the startup line.
func (p *Presenter) Banner(mode domain.ShellMode, gatewayStatus string) {
	fmt.Fprintf(p.out, "%s  os=%s  shell=%s  gateway=%s\n",
		p.colors.title.Sprint("MatrixShell"), p.goos, mode, p.status(gatewayStatus))
	fmt.Fprintln(p.out, p.colors.dim.Sprint("Type commands as usual, ask questions in plain language, /help for built-ins."))
}

func (p *Presenter) status(s string) string {
	switch s {
	case "online":
		return p.colors.ok.Sprint(s)
	case "offline":
		return p.colors.err.Sprint(s)
	default:
		return p.colors.warn.Sprint(s)
	}
}

// Prompt returns "cwd$ " or "cwd> " on Windows.
func (p *Presenter) Prompt(_ domain.ShellMode, cwd string) string {
	marker := "$ "
	if p.goos == "windows" {
		marker = "> "
	}
	return p.colors.prompt.Sprint(cwd) + marker
}

// Output copies the captured streams of result.
func (p *Presenter) Output(result domain.ExecResult) {
	writeBlock(p.out, result.Stdout)
	writeBlock(p.errOut, result.Stderr)
}

func writeBlock(w io.Writer, text string) {
	if text == "" {
		return
	}
	fmt.Fprint(w, text)
	if !strings.HasSuffix(text, "\n") {
		fmt.Fprintln(w)
	}
}

// Suggestion prints the panel the user confirms against.
func (p *Presenter) Suggestion(s domain.Suggestion, advisory domain.Verdict) {
	p.stream.Done()
	fmt.Fprintln(p.out)
	if s.Explanation != "" {
		fmt.Fprintf(p.out, "%s %s\n", p.colors.title.Sprint("Explanation:"), s.Explanation)
	}
	fmt.Fprintf(p.out, "%s %s\n", p.colors.title.Sprint("Command:"), p.colors.command.Sprint(s.Command))
	fmt.Fprintf(p.out, "%s %s\n", p.colors.title.Sprint("Risk:"), p.risk(s.Risk))
	if advisory.Blocked {
		fmt.Fprintf(p.out, "%s %s; it will be refused.\n", p.colors.high.Sprint("Denylist:"), advisory.Reason)
	}
}

func (p *Presenter) risk(r domain.Risk) string {
	label := strings.ToUpper(string(r))
	switch r {
	case domain.RiskLow:
		return p.colors.low.Sprint(label)
	case domain.RiskMedium:
		return p.colors.medium.Sprint(label)
	default:
		return p.colors.high.Sprint(label)
	}
}

// Refused reports a denylist veto.
func (p *Presenter) Refused(reason string) {
	fmt.Fprintf(p.out, "%s %s. Nothing was executed.\n", p.colors.high.Sprint("Refused:"), reason)
}

// Cancelled acknowledges a declined suggestion.
func (p *Presenter) Cancelled() {
	fmt.Fprintln(p.out, p.colors.dim.Sprint("Cancelled."))
}

// Done prints the exit status of a confirmed suggestion.
func (p *Presenter) Done(result domain.ExecResult) {
	elapsed := result.Duration.Round(time.Millisecond)
	if result.Success() {
		fmt.Fprintf(p.out, "%s (%s)\n", p.colors.ok.Sprint("✓ done"), elapsed)
		return
	}
	fmt.Fprintf(p.out, "%s (%s)\n", p.colors.err.Sprintf("✗ exit %d", result.ExitCode), elapsed)
}

func (p *Presenter) Info(msg string) {
	p.stream.Done()
	fmt.Fprintln(p.out, msg)
}

func (p *Presenter) Warn(msg string) {
	p.stream.Done()
	fmt.Fprintln(p.errOut, p.colors.warn.Sprint(msg))
}

func (p *Presenter) Error(msg string, err error) {
	p.stream.Done()
	if err != nil {
		fmt.Fprintf(p.errOut, "%s %s\n", p.colors.err.Sprint(msg), p.colors.dim.Sprint(err.Error()))
		return
	}
	fmt.Fprintln(p.errOut, p.colors.err.Sprint(msg))
}

// History lists items with relative timestamps, oldest first.
func (p *Presenter) History(items []domain.HistoryItem) {
	if len(items) == 0 {
		fmt.Fprintln(p.out, msgNoHistoryRecorded)
		return
	}
	for _, item := range items {
		fmt.Fprintf(p.out, "%s %s %s\n",
			p.colors.dim.Sprintf("%-16s", humanize.RelTime(item.Timestamp, p.now(), "ago", "from now")),
			p.kind(item.Kind),
			firstLine(item.Text))
	}
}

// SearchResults lists index hits with their directory.
func (p *Presenter) SearchResults(items []domain.HistoryItem) {
	if len(items) == 0 {
		fmt.Fprintln(p.out, "No matches.")
		return
	}
	for _, item := range items {
		fmt.Fprintf(p.out, "%s %s %s\n  %s\n",
			p.colors.dim.Sprintf("%-16s", humanize.RelTime(item.Timestamp, p.now(), "ago", "from now")),
			p.kind(item.Kind),
			firstLine(item.Text),
			p.colors.dim.Sprint(item.Cwd))
	}
}

func (p *Presenter) kind(k domain.HistoryKind) string {
	label := fmt.Sprintf("%-9s", k)
	switch k {
	case domain.KindUser:
		return p.colors.prompt.Sprint(label)
	case domain.KindAssistant:
		return p.colors.title.Sprint(label)
	default:
		return p.colors.dim.Sprint(label)
	}
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i] + " ..."
	}
	return text
}

// Chunk prints a streamed /chat fragment.
func (p *Presenter) Chunk(text string) {
	p.stream.WriteChunk(text)
}

// Busy starts a spinner on stderr when attached to a terminal.
func (p *Presenter) Busy(label string) func() {
	if !p.tty {
		return func() {}
	}
	spinner := NewSpinner(p.errOut, label)
	spinner.Start()
	return spinner.Stop
}

var _ ports.Presenter = (*Presenter)(nil)
