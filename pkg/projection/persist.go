package projection

import (
	"fmt"

	"github.com/sliceview/sliceview.go/pkg/series"
)

// Quantize maps the composite back into the anchor's stored
// representation, rounding each sample and clipping to the range the
// depth and signedness can hold. An averaged run of signed 16-bit
// slices comes back as signed 16-bit samples, ready to persist.
func (c *Composite) Quantize() (*series.PixelBuffer, error) {
	out, err := series.New(c.Rows, c.Cols, c.Anchor.Bits, c.Anchor.Signed)
	if err != nil {
		return nil, err
	}
	for y := 0; y < c.Rows; y++ {
		for x := 0; x < c.Cols; x++ {
			out.SetValue(x, y, float64(c.Data[y*c.Cols+x]))
		}
	}
	return out, nil
}

// DerivedMeta builds the header for persisting the composite as a new
// slice: the anchor's series context and calibration, a fresh instance
// identity supplied by the caller, the summed slab depth when known,
// and a derivation note naming the reduction.
func (c *Composite) DerivedMeta(sopUID string) *series.SliceMeta {
	m := &series.SliceMeta{
		Study:    c.Anchor.Study,
		Series:   c.Anchor.Series,
		Instance: c.Anchor.Instance,

		Modality:                  c.Anchor.Modality,
		PhotometricInterpretation: c.Anchor.PhotometricInterpretation,

		Rows:   c.Rows,
		Cols:   c.Cols,
		Bits:   c.Anchor.Bits,
		Signed: c.Anchor.Signed,

		PatientName:       c.Anchor.PatientName,
		PatientID:         c.Anchor.PatientID,
		StudyDescription:  c.Anchor.StudyDescription,
		SeriesDescription: c.Anchor.SeriesDescription,
		SOPInstanceUID:    sopUID,

		Derivation: fmt.Sprintf("%s of %d slices", c.Mode, c.Count),
	}
	if rs, ok := c.Anchor.Rescale(); ok {
		m.SetRescale(rs.Slope, rs.Intercept, rs.Unit)
	}
	if row, col, ok := c.Anchor.PixelSpacing(); ok {
		m.SetPixelSpacing(row, col)
	}
	if th, ok := c.Thickness(); ok {
		m.SetSliceThickness(th)
	}
	return m
}
