package dicomsrc

import (
	"fmt"
	"os"
	"strconv"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/sliceview/sliceview.go/pkg/projection"
	"github.com/sliceview/sliceview.go/pkg/series"
	"github.com/sliceview/sliceview.go/pkg/util"
)

// SecondaryCaptureSOPClassUID identifies derived renditions persisted
// outside the original acquisition.
const SecondaryCaptureSOPClassUID = "1.2.840.10008.5.1.4.1.1.7"

const explicitVRLittleEndian = "1.2.840.10008.1.2.1"

// DerivedSlice materializes a composite as a persistable slice:
// samples quantized back to the anchor's representation, header under
// a freshly generated instance identity.
func DerivedSlice(comp *projection.Composite) (*series.Slice, error) {
	px, err := comp.Quantize()
	if err != nil {
		return nil, err
	}
	return &series.Slice{Meta: comp.DerivedMeta(util.GenerateUID("")), Pixels: px}, nil
}

// SaveComposite writes the composite to path as a derived DICOM file
// and returns the slice it persisted.
func SaveComposite(path string, comp *projection.Composite) (*series.Slice, error) {
	sl, err := DerivedSlice(comp)
	if err != nil {
		return nil, err
	}
	if err := SaveSlice(path, sl); err != nil {
		return nil, err
	}
	return sl, nil
}

// SaveSlice writes the slice to path as an explicit VR little endian
// secondary capture file.
func SaveSlice(path string, sl *series.Slice) error {
	ds, err := Dataset(sl)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := dicom.Write(f, ds); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

type field struct {
	t tag.Tag
	v interface{}
}

// Dataset assembles the element list for one slice, file meta
// included.
func Dataset(sl *series.Slice) (dicom.Dataset, error) {
	meta := sl.Meta
	if sl.Pixels == nil {
		return dicom.Dataset{}, fmt.Errorf("%w: slice has no pixels", series.ErrPixelAccess)
	}

	rep := 0
	if meta.Signed {
		rep = 1
	}
	fields := []field{
		{tag.TransferSyntaxUID, []string{explicitVRLittleEndian}},
		{tag.MediaStorageSOPClassUID, []string{SecondaryCaptureSOPClassUID}},
		{tag.MediaStorageSOPInstanceUID, []string{meta.SOPInstanceUID}},
		{tag.SOPClassUID, []string{SecondaryCaptureSOPClassUID}},
		{tag.SOPInstanceUID, []string{meta.SOPInstanceUID}},
		{tag.PatientName, []string{meta.PatientName}},
		{tag.PatientID, []string{meta.PatientID}},
		{tag.StudyInstanceUID, []string{meta.Study}},
		{tag.StudyDescription, []string{meta.StudyDescription}},
		{tag.SeriesInstanceUID, []string{meta.Series}},
		{tag.SeriesDescription, []string{meta.SeriesDescription}},
		{tag.Modality, []string{meta.Modality}},
		{tag.InstanceNumber, []string{strconv.Itoa(meta.Instance)}},
		{tag.Rows, []int{meta.Rows}},
		{tag.Columns, []int{meta.Cols}},
		{tag.BitsAllocated, []int{meta.Bits}},
		{tag.BitsStored, []int{meta.Bits}},
		{tag.HighBit, []int{meta.Bits - 1}},
		{tag.PixelRepresentation, []int{rep}},
		{tag.SamplesPerPixel, []int{1}},
		{tag.PhotometricInterpretation, []string{meta.PhotometricInterpretation}},
	}

	if meta.Derivation != "" {
		fields = append(fields,
			field{tag.ImageType, []string{"DERIVED", "SECONDARY"}},
			field{tag.DerivationDescription, []string{meta.Derivation}})
	}
	if rs, ok := meta.Rescale(); ok {
		fields = append(fields,
			field{tag.RescaleSlope, []string{decimal(rs.Slope)}},
			field{tag.RescaleIntercept, []string{decimal(rs.Intercept)}})
		if rs.Unit != "" {
			fields = append(fields, field{tag.RescaleType, []string{rs.Unit}})
		}
	}
	if row, col, ok := meta.PixelSpacing(); ok {
		fields = append(fields, field{tag.PixelSpacing, []string{decimal(row), decimal(col)}})
	}
	if th, ok := meta.SliceThickness(); ok {
		fields = append(fields, field{tag.SliceThickness, []string{decimal(th)}})
	}
	if len(meta.Presets) > 0 {
		centers := make([]string, len(meta.Presets))
		widths := make([]string, len(meta.Presets))
		labels := make([]string, len(meta.Presets))
		labeled := false
		for i, p := range meta.Presets {
			centers[i] = decimal(p.Center)
			widths[i] = decimal(p.Width)
			labels[i] = p.Label
			labeled = labeled || p.Label != ""
		}
		fields = append(fields,
			field{tag.WindowCenter, centers},
			field{tag.WindowWidth, widths})
		if labeled {
			fields = append(fields, field{tag.WindowCenterWidthExplanation, labels})
		}
	}

	fr, err := nativeFrame(sl.Pixels)
	if err != nil {
		return dicom.Dataset{}, err
	}
	fields = append(fields, field{tag.PixelData, dicom.PixelDataInfo{
		IsEncapsulated: false,
		Frames:         []*frame.Frame{fr},
	}})

	els := make([]*dicom.Element, 0, len(fields))
	for _, f := range fields {
		el, err := dicom.NewElement(f.t, f.v)
		if err != nil {
			return dicom.Dataset{}, fmt.Errorf("element %v: %w", f.t, err)
		}
		els = append(els, el)
	}
	return dicom.Dataset{Elements: els}, nil
}

// nativeFrame packs the buffer's samples back into their stored bit
// patterns at the buffer's depth.
func nativeFrame(px *series.PixelBuffer) (*frame.Frame, error) {
	rows, cols := px.Dims()
	n := rows * cols
	switch px.Bits {
	case 8:
		nf := frame.NewNativeFrame[uint8](8, rows, cols, n, 1)
		for i := 0; i < n; i++ {
			nf.RawData[i] = uint8(int64(px.ValueAt(i)))
		}
		return &frame.Frame{Encapsulated: false, NativeData: nf}, nil
	case 16:
		nf := frame.NewNativeFrame[uint16](16, rows, cols, n, 1)
		for i := 0; i < n; i++ {
			nf.RawData[i] = uint16(int64(px.ValueAt(i)))
		}
		return &frame.Frame{Encapsulated: false, NativeData: nf}, nil
	case 32:
		nf := frame.NewNativeFrame[uint32](32, rows, cols, n, 1)
		for i := 0; i < n; i++ {
			nf.RawData[i] = uint32(int64(px.ValueAt(i)))
		}
		return &frame.Frame{Encapsulated: false, NativeData: nf}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported depth %d", series.ErrPixelAccess, px.Bits)
	}
}

// decimal renders a float as a DICOM decimal string.
func decimal(f float64) string {
	return fmt.Sprintf("%.6g", f)
}
