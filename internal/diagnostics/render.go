package diagnostics

import (
	"io"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/mattn/go-isatty"

	"github.com/funvibe/calltrace/internal/source"
)

// Render writes errs with source snippets from unit. Errors without a line
// are rendered without a subject.
func Render(w io.Writer, unit *source.Unit, errs []*Error, color bool) error {
	files := map[string]*hcl.File{}
	if unit != nil {
		files[unit.Name()] = &hcl.File{Bytes: []byte(unit.Text)}
	}
	writer := hcl.NewDiagnosticTextWriter(w, files, 100, color)
	return writer.WriteDiagnostics(toHCL(unit, errs))
}

// ColorEnabled reports whether f is an interactive terminal.
func ColorEnabled(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func toHCL(unit *source.Unit, errs []*Error) hcl.Diagnostics {
	diags := make(hcl.Diagnostics, 0, len(errs))
	for _, e := range errs {
		d := &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  e.Code.Title() + " [" + string(e.Code) + "]",
			Detail:   e.Message,
		}
		if unit != nil && e.Line > 0 {
			d.Subject = rangeOf(unit, e.Span)
		}
		diags = append(diags, d)
	}
	return diags
}

func rangeOf(unit *source.Unit, span source.Span) *hcl.Range {
	end := span.End
	if end < span.Start {
		end = span.Start
	}
	start, stop := unit.Position(span.Start), unit.Position(end)
	return &hcl.Range{
		Filename: unit.Name(),
		Start:    hcl.Pos{Line: start.Line, Column: start.Column, Byte: start.Byte},
		End:      hcl.Pos{Line: stop.Line, Column: stop.Column, Byte: stop.Byte},
	}
}
