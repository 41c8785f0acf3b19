package series

// Rescale maps stored sample values to calibrated modality units via
// value*Slope + Intercept. Unit names the calibrated space, e.g. "HU".
type Rescale struct {
	Slope     float64
	Intercept float64
	Unit      string
}

// Apply converts a stored sample value into the calibrated space.
func (r Rescale) Apply(v float64) float64 {
	return v*r.Slope + r.Intercept
}

// Preset is a suggested window retrieved from the slice header. Center
// and Width are expressed in calibrated units when Rescaled is set,
// otherwise in stored sample values.
type Preset struct {
	Center   float64
	Width    float64
	Rescaled bool
	Label    string
}

// SliceMeta carries the per-slice attributes the display pipeline
// consumes. Structural attributes are plain fields; calibration
// attributes that a header may legitimately omit are reachable only
// through accessors that report presence.
type SliceMeta struct {
	Study    string
	Series   string
	Instance int

	Modality                  string
	PhotometricInterpretation string

	Rows   int
	Cols   int
	Bits   int
	Signed bool

	PatientName       string
	PatientID         string
	StudyDescription  string
	SeriesDescription string
	SOPInstanceUID    string

	// Derivation describes how a derived slice was produced, e.g.
	// "MIP of 4 slices". Empty for original acquisitions.
	Derivation string

	// Presets are window suggestions from the header, best first.
	Presets []Preset

	rescale      Rescale
	hasRescale   bool
	rowSpacing   float64
	colSpacing   float64
	hasSpacing   bool
	thickness    float64
	hasThickness bool
}

// Key returns the slice's identity within its series.
func (m *SliceMeta) Key() Key {
	return Key{Identity: Identity{Study: m.Study, Series: m.Series}, Instance: m.Instance}
}

// SetRescale records the stored-to-calibrated mapping for this slice.
func (m *SliceMeta) SetRescale(slope, intercept float64, unit string) {
	m.rescale = Rescale{Slope: slope, Intercept: intercept, Unit: unit}
	m.hasRescale = true
}

// Rescale returns the stored-to-calibrated mapping when the header
// carried one. Callers treat an absent mapping as identity; the zero
// Rescale's Slope of 0 keeps conversions inert if used directly.
func (m *SliceMeta) Rescale() (Rescale, bool) {
	return m.rescale, m.hasRescale
}

// SetPixelSpacing records the physical size of one pixel in mm,
// row spacing (vertical) first per the header convention.
func (m *SliceMeta) SetPixelSpacing(row, col float64) {
	m.rowSpacing, m.colSpacing = row, col
	m.hasSpacing = true
}

// PixelSpacing returns the per-pixel physical size in mm. Absent
// spacing means physical measurements are unavailable and areas stay
// in pixel units.
func (m *SliceMeta) PixelSpacing() (row, col float64, ok bool) {
	return m.rowSpacing, m.colSpacing, m.hasSpacing
}

// SetSliceThickness records the slab depth of this slice in mm.
func (m *SliceMeta) SetSliceThickness(mm float64) {
	m.thickness = mm
	m.hasThickness = true
}

// SliceThickness returns the slab depth in mm when the header carried
// one. Projections summing N slices multiply this by N for the derived
// header; absent thickness propagates as absent.
func (m *SliceMeta) SliceThickness() (float64, bool) {
	return m.thickness, m.hasThickness
}

// Inverted reports whether low stored values should render bright,
// per a MONOCHROME1 photometric interpretation.
func (m *SliceMeta) Inverted() bool {
	return m.PhotometricInterpretation == "MONOCHROME1"
}
