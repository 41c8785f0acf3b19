// Package overlay builds and positions the text annotations framing a
// viewport: patient and series context, the slice counter, the window
// readout and the zoom factor, anchored to the four corners.
package overlay

import (
	"fmt"
	"strconv"

	"github.com/sliceview/sliceview.go/pkg/projection"
	"github.com/sliceview/sliceview.go/pkg/series"
	"github.com/sliceview/sliceview.go/pkg/windowing"
)

// ViewContext carries everything the field formatters read: the slice
// under display and the live view state around it.
type ViewContext struct {
	Meta       *series.SliceMeta
	SliceIndex int
	SliceCount int

	// Window is the readout-convention window; Unit its unit label.
	Window windowing.WindowLevel
	Unit   string
	// PresetLabel names the matched preset, empty when none matches.
	PresetLabel string

	Zoom       float64
	Projection projection.Spec
}

// Field names one overlay line. The config layer maps these keys to
// corners per modality.
type Field string

const (
	FieldPatient    Field = "patient"
	FieldPatientID  Field = "patient_id"
	FieldStudy      Field = "study"
	FieldSeries     Field = "series"
	FieldModality   Field = "modality"
	FieldSlice      Field = "slice"
	FieldWindow     Field = "window"
	FieldZoom       Field = "zoom"
	FieldProjection Field = "projection"
	FieldDerivation Field = "derivation"
)

// knownFields guards config parsing.
var knownFields = map[Field]bool{
	FieldPatient: true, FieldPatientID: true, FieldStudy: true,
	FieldSeries: true, FieldModality: true, FieldSlice: true,
	FieldWindow: true, FieldZoom: true, FieldProjection: true,
	FieldDerivation: true,
}

// Known reports whether the key names a formatter.
func (f Field) Known() bool { return knownFields[f] }

// fnum renders a window component without trailing zeros.
func fnum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Format renders one field against the view. An empty result means
// the field has nothing to say and its line is omitted.
func (f Field) Format(ctx ViewContext) string {
	switch f {
	case FieldPatient:
		return ctx.Meta.PatientName
	case FieldPatientID:
		return ctx.Meta.PatientID
	case FieldStudy:
		return ctx.Meta.StudyDescription
	case FieldSeries:
		return ctx.Meta.SeriesDescription
	case FieldModality:
		return ctx.Meta.Modality
	case FieldSlice:
		if ctx.SliceCount <= 0 {
			return ""
		}
		return fmt.Sprintf("Slice %d/%d", ctx.SliceIndex+1, ctx.SliceCount)
	case FieldWindow:
		s := fmt.Sprintf("WL: %s WW: %s", fnum(ctx.Window.Center), fnum(ctx.Window.Width))
		if ctx.Unit != "" {
			s += " " + ctx.Unit
		}
		if ctx.PresetLabel != "" {
			s += " [" + ctx.PresetLabel + "]"
		}
		return s
	case FieldZoom:
		if ctx.Zoom <= 0 {
			return ""
		}
		return fmt.Sprintf("Zoom: %.0f%%", ctx.Zoom*100)
	case FieldProjection:
		if !ctx.Projection.Active() {
			return ""
		}
		return fmt.Sprintf("%s x%d", ctx.Projection.Mode, ctx.Projection.Count)
	case FieldDerivation:
		return ctx.Meta.Derivation
	default:
		return ""
	}
}

// Lines renders a corner's fields in order, dropping empty ones so a
// missing attribute never leaves a blank row behind.
func Lines(fields []Field, ctx ViewContext) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if s := f.Format(ctx); s != "" {
			out = append(out, s)
		}
	}
	return out
}
