package series

import "fmt"

// Requirement classifies how a missing attribute affects display.
type Requirement int

const (
	// Required attributes block display when absent or invalid.
	Required Requirement = 1
	// Advisory attributes degrade display when absent; the pipeline
	// substitutes a documented fallback and carries on.
	Advisory Requirement = 2
)

// CheckError reports one attribute that failed a display check.
type CheckError struct {
	Attribute string
	Level     Requirement
	Message   string
}

func (e CheckError) Error() string {
	lvl := "advisory"
	if e.Level == Required {
		lvl = "required"
	}
	return fmt.Sprintf("%s (%s): %s", e.Attribute, lvl, e.Message)
}

// CheckResult collects everything a display check found.
type CheckResult struct {
	Errors   []CheckError
	Warnings []CheckError
}

// Displayable returns true when no required attribute failed.
func (r CheckResult) Displayable() bool { return len(r.Errors) == 0 }

// HasWarnings returns true when advisory attributes are degraded.
func (r CheckResult) HasWarnings() bool { return len(r.Warnings) > 0 }

func (r *CheckResult) required(attr, msg string) {
	r.Errors = append(r.Errors, CheckError{Attribute: attr, Level: Required, Message: msg})
}

func (r *CheckResult) advisory(attr, msg string) {
	r.Warnings = append(r.Warnings, CheckError{Attribute: attr, Level: Advisory, Message: msg})
}

// CheckForDisplay verifies a slice carries what the render pipeline
// needs. Geometry, depth and series identity are required; calibration
// attributes are advisory because every consumer has a fallback:
// identity rescale, pixel-unit areas, and min/max windowing.
func CheckForDisplay(m *SliceMeta, px *PixelBuffer) CheckResult {
	var r CheckResult

	if m.Study == "" {
		r.required("Study", "missing study identifier")
	}
	if m.Series == "" {
		r.required("Series", "missing series identifier")
	}
	if m.Rows <= 0 || m.Cols <= 0 {
		r.required("Rows/Columns", fmt.Sprintf("invalid geometry %dx%d", m.Cols, m.Rows))
	}
	switch m.Bits {
	case 8, 16, 32:
	default:
		r.required("BitsAllocated", fmt.Sprintf("unsupported depth %d", m.Bits))
	}
	if px == nil {
		r.required("PixelData", "no pixel buffer")
	} else {
		if px.Rows != m.Rows || px.Cols != m.Cols {
			r.required("PixelData", fmt.Sprintf("buffer %dx%d disagrees with header %dx%d",
				px.Cols, px.Rows, m.Cols, m.Rows))
		}
		if px.Bits != m.Bits || px.Signed != m.Signed {
			r.required("PixelData", "buffer representation disagrees with header")
		}
	}

	if m.Modality == "" {
		r.advisory("Modality", "missing; overlay layout falls back to defaults")
	}
	if _, ok := m.Rescale(); !ok {
		r.advisory("Rescale", "missing; window values stay in stored units")
	}
	if _, _, ok := m.PixelSpacing(); !ok {
		r.advisory("PixelSpacing", "missing; areas reported in px")
	}
	if _, ok := m.SliceThickness(); !ok {
		r.advisory("SliceThickness", "missing; derived projections omit slab depth")
	}
	switch m.PhotometricInterpretation {
	case "", "MONOCHROME1", "MONOCHROME2":
	default:
		r.advisory("PhotometricInterpretation",
			fmt.Sprintf("%q not grayscale; rendered as MONOCHROME2", m.PhotometricInterpretation))
	}

	return r
}
