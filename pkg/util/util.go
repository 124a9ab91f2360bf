package util

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/xplshn/gclex/pkg/config"
	"github.com/xplshn/gclex/pkg/lexer"
	"github.com/xplshn/gclex/pkg/token"
)

const (
	cRed    = "\033[31m"
	cYellow = "\033[33m"
	cGreen  = "\033[32m"
	cNone   = "\033[0m"
)

// SourceFile is a named input buffer that diagnostics point into.
type SourceFile struct {
	Name    string
	Content []byte
}

// Reporter prints diagnostics as "file:line:col: error: msg" followed by
// the offending source line and an underline. It never exits the process;
// callers check Errors() when they are done. Safe for concurrent use.
type Reporter struct {
	mu         sync.Mutex
	w          io.Writer
	cfg        *config.Config
	color      bool
	errors     int
	warnings   int
	suppressed int
}

func NewReporter(w io.Writer, cfg *config.Config) *Reporter {
	return &Reporter{w: w, cfg: cfg, color: cfg.IsFeatureEnabled(config.FeatColor) && isTerminal(w)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (r *Reporter) Errors() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errors
}

func (r *Reporter) Warnings() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.warnings
}

// Suppressed counts errors dropped after the MaxErrors limit was reached.
func (r *Reporter) Suppressed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.suppressed
}

func (r *Reporter) paint(c, s string) string {
	if !r.color {
		return s
	}
	return c + s + cNone
}

// Error reports a diagnostic anchored at span in file.
func (r *Reporter) Error(file SourceFile, span token.Span, format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors++
	if r.cfg.MaxErrors > 0 && r.errors > r.cfg.MaxErrors {
		r.suppressed++
		return
	}
	r.emit(file, span, r.paint(cRed, "error:"), fmt.Sprintf(format, args...))
}

// Warn reports a diagnostic if wt is enabled, tagging it with the flag name.
func (r *Reporter) Warn(wt config.Warning, file SourceFile, span token.Span, format string, args ...any) {
	if !r.cfg.IsWarningEnabled(wt) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings++
	msg := fmt.Sprintf(format, args...) + fmt.Sprintf(" [-W%s]", r.cfg.Warnings[wt].Name)
	r.emit(file, span, r.paint(cYellow, "warning:"), msg)
}

// Fatalf reports an error that is not tied to a source location.
func (r *Reporter) Fatalf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors++
	fmt.Fprintf(r.w, "gclex: %s %s\n", r.paint(cRed, "error:"), fmt.Sprintf(format, args...))
}

func (r *Reporter) emit(file SourceFile, span token.Span, label, msg string) {
	loc := lexer.Locate(file.Content, span.Start)
	fmt.Fprintf(r.w, "%s:%s: %s %s\n", file.Name, loc, label, msg)
	r.printErrorLine(file.Content, span)
}

// printErrorLine prints the source line holding span.Start and underlines
// the part of the span that lies on that line.
func (r *Reporter) printErrorLine(content []byte, span token.Span) {
	if span.Start > len(content) {
		return
	}
	lineStart, lineEnd := lexer.LineBounds(content, span.Start)
	line := strings.ReplaceAll(string(content[lineStart:lineEnd]), "\t", " ")
	fmt.Fprintf(r.w, "  %s\n", line)

	width := min(span.End, lineEnd) - span.Start
	caret := "^"
	if width > 1 {
		caret += strings.Repeat("~", width-1)
	}
	fmt.Fprintf(r.w, "  %s%s\n", strings.Repeat(" ", span.Start-lineStart), r.paint(cGreen, caret))
}
