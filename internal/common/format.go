package common

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultWidth is the separator width of the CLI reports
const DefaultWidth = 80

// Report writes the box-drawn CLI reports of the wallet and onboarding tools.
type Report struct {
	w     io.Writer
	width int
}

// NewReport returns a report on stdout at DefaultWidth
func NewReport() *Report {
	return NewReportTo(os.Stdout, DefaultWidth)
}

func NewReportTo(w io.Writer, width int) *Report {
	if width <= 0 {
		width = DefaultWidth
	}
	return &Report{w: w, width: width}
}

func (r *Report) Separator(char string) {
	fmt.Fprintln(r.w, strings.Repeat(char, r.width))
}

// Header prints the title framed by "=" lines, preceded by a blank line
func (r *Report) Header(title string) {
	fmt.Fprintln(r.w)
	r.Separator("=")
	fmt.Fprintln(r.w, title)
	r.Separator("=")
}

func (r *Report) Footer(message string) {
	fmt.Fprintln(r.w)
	r.Separator("=")
	fmt.Fprintln(r.w, message)
	r.Separator("=")
	fmt.Fprintln(r.w)
}

// Field prints an aligned "label: value" line
func (r *Report) Field(label, value string) {
	fmt.Fprintf(r.w, "%-8s %s\n", label+":", value)
}

// Section opens a box for one agent
func (r *Report) Section(title string, fields ...[2]string) {
	fmt.Fprintf(r.w, "\n┌─ %s\n", title)
	for _, f := range fields {
		fmt.Fprintf(r.w, "│  %-8s %s\n", f[0]+":", f[1])
	}
	fmt.Fprintln(r.w, "├"+strings.Repeat("─", r.width-2))
}

// Item prints a list line inside a section
func (r *Report) Item(isLast bool, format string, args ...any) {
	fmt.Fprintf(r.w, "%s%s\n", itemPrefix(isLast), fmt.Sprintf(format, args...))
}

// Detail prints a line under the most recent Item
func (r *Report) Detail(isLast bool, format string, args ...any) {
	fmt.Fprintf(r.w, "%s   %s\n", detailPrefix(isLast), fmt.Sprintf(format, args...))
}

func itemPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}

func detailPrefix(isLast bool) string {
	if isLast {
		return "   "
	}
	return "│  "
}
