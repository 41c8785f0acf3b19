// Package dicomsrc adapts DICOM files into the display model. Parsed
// headers become slice metadata and native frames become pixel
// buffers, grouped into per-series stacks.
package dicomsrc

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/sliceview/sliceview.go/pkg/series"
	"github.com/sliceview/sliceview.go/pkg/util"
)

// Load parses the given files and groups them into per-series stacks.
// Unreadable files are logged and skipped; Load errors only when no
// file yields a slice.
func Load(paths ...string) ([]*series.Stack, error) {
	var slices []*series.Slice
	for _, p := range paths {
		sl, err := LoadFile(p)
		if err != nil {
			slog.Warn("skipping file", "path", p, "error", err)
			continue
		}
		slices = append(slices, sl)
	}
	if len(slices) == 0 {
		return nil, fmt.Errorf("no displayable slices among %d files", len(paths))
	}
	return Group(slices)
}

// LoadDir loads every regular file directly under dir.
func LoadDir(dir string) ([]*series.Stack, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files in %s", dir)
	}
	return Load(paths...)
}

// LoadFile parses a single DICOM file into a slice.
func LoadFile(path string) (*series.Slice, error) {
	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return FromDataset(ds)
}

// Group sorts slices into one stack per series identity, stacks
// ordered by identity for stable listings.
func Group(slices []*series.Slice) ([]*series.Stack, error) {
	byID := make(map[series.Identity][]*series.Slice)
	for _, sl := range slices {
		id := series.Identity{Study: sl.Meta.Study, Series: sl.Meta.Series}
		byID[id] = append(byID[id], sl)
	}
	ids := make([]series.Identity, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	stacks := make([]*series.Stack, 0, len(ids))
	for _, id := range ids {
		st, err := series.NewStack(byID[id]...)
		if err != nil {
			return nil, err
		}
		stacks = append(stacks, st)
	}
	return stacks, nil
}

// FromDataset maps a parsed dataset onto the display model. Missing
// identity attributes fall back to hashed stand-ins so files without
// UIDs still group deterministically.
func FromDataset(ds dicom.Dataset) (*series.Slice, error) {
	meta := &series.SliceMeta{
		Study:  stringValue(ds, tag.StudyInstanceUID),
		Series: stringValue(ds, tag.SeriesInstanceUID),

		Modality:                  stringValue(ds, tag.Modality),
		PhotometricInterpretation: stringValue(ds, tag.PhotometricInterpretation),

		PatientName:       stringValue(ds, tag.PatientName),
		PatientID:         stringValue(ds, tag.PatientID),
		StudyDescription:  stringValue(ds, tag.StudyDescription),
		SeriesDescription: stringValue(ds, tag.SeriesDescription),
		SOPInstanceUID:    stringValue(ds, tag.SOPInstanceUID),

		Derivation: stringValue(ds, tag.DerivationDescription),
	}
	if meta.PhotometricInterpretation == "" {
		meta.PhotometricInterpretation = "MONOCHROME2"
	}
	if meta.Study == "" {
		meta.Study = util.HashUUID(meta.PatientID + "/" + meta.StudyDescription)
	}
	if meta.Series == "" {
		meta.Series = util.HashUUID(meta.Study + "/" + meta.SeriesDescription + "/" + meta.Modality)
	}

	meta.Instance, _ = intValue(ds, tag.InstanceNumber)

	rows, ok := intValue(ds, tag.Rows)
	if !ok {
		return nil, fmt.Errorf("dataset missing Rows")
	}
	cols, ok := intValue(ds, tag.Columns)
	if !ok {
		return nil, fmt.Errorf("dataset missing Columns")
	}
	meta.Rows, meta.Cols = rows, cols

	meta.Bits = 16
	if bits, ok := intValue(ds, tag.BitsAllocated); ok {
		meta.Bits = bits
	}
	if rep, ok := intValue(ds, tag.PixelRepresentation); ok {
		meta.Signed = rep == 1
	}

	slope, hasSlope := floatValue(ds, tag.RescaleSlope)
	intercept, hasIntercept := floatValue(ds, tag.RescaleIntercept)
	if hasSlope || hasIntercept {
		if !hasSlope {
			slope = 1
		}
		unit := stringValue(ds, tag.RescaleType)
		if unit == "" && meta.Modality == "CT" {
			unit = "HU"
		}
		meta.SetRescale(slope, intercept, unit)
	}

	if sp := floatValues(ds, tag.PixelSpacing); len(sp) >= 2 {
		meta.SetPixelSpacing(sp[0], sp[1])
	}
	if th, ok := floatValue(ds, tag.SliceThickness); ok {
		meta.SetSliceThickness(th)
	}
	meta.Presets = headerPresets(ds)

	px, err := pixels(ds, rows, cols, meta.Signed)
	if err != nil {
		return nil, err
	}
	return &series.Slice{Meta: meta, Pixels: px}, nil
}

// headerPresets pairs the window center, width and explanation
// attributes into presets, best first. The header convention is
// rescaled units.
func headerPresets(ds dicom.Dataset) []series.Preset {
	centers := floatValues(ds, tag.WindowCenter)
	widths := floatValues(ds, tag.WindowWidth)
	labels := stringValues(ds, tag.WindowCenterWidthExplanation)

	n := len(centers)
	if len(widths) < n {
		n = len(widths)
	}
	if n == 0 {
		return nil
	}
	presets := make([]series.Preset, n)
	for i := 0; i < n; i++ {
		presets[i] = series.Preset{Center: centers[i], Width: widths[i], Rescaled: true}
		if i < len(labels) {
			presets[i].Label = labels[i]
		}
	}
	return presets
}

// pixels unpacks the first native frame into a pixel buffer. Anything
// the display path cannot address reports ErrPixelAccess.
func pixels(ds dicom.Dataset, rows, cols int, signed bool) (*series.PixelBuffer, error) {
	el, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, fmt.Errorf("%w: no pixel data element", series.ErrPixelAccess)
	}
	info, ok := el.Value.GetValue().(dicom.PixelDataInfo)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected pixel data value", series.ErrPixelAccess)
	}
	if info.IsEncapsulated || len(info.Frames) == 0 {
		return nil, fmt.Errorf("%w: no native frames", series.ErrPixelAccess)
	}
	if len(info.Frames) > 1 {
		slog.Debug("using first frame of multi-frame image", "frames", len(info.Frames))
	}
	fr := info.Frames[0]
	if fr.Encapsulated {
		return nil, fmt.Errorf("%w: encapsulated frame", series.ErrPixelAccess)
	}

	switch nf := fr.NativeData.(type) {
	case *frame.NativeFrame[uint8]:
		return series.FromSamples8(rows, cols, signed, nf.RawData)
	case *frame.NativeFrame[uint16]:
		return series.FromSamples16(rows, cols, signed, nf.RawData)
	case *frame.NativeFrame[uint32]:
		return series.FromSamples32(rows, cols, signed, nf.RawData)
	default:
		return nil, fmt.Errorf("%w: unsupported frame type %T", series.ErrPixelAccess, fr.NativeData)
	}
}

// stringValue returns the element's first string, trimmed, or "" when
// the element is absent or holds another kind.
func stringValue(ds dicom.Dataset, t tag.Tag) string {
	vals := stringValues(ds, t)
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

func stringValues(ds dicom.Dataset, t tag.Tag) []string {
	el, err := ds.FindElementByTag(t)
	if err != nil {
		return nil
	}
	raw, ok := el.Value.GetValue().([]string)
	if !ok {
		return nil
	}
	vals := make([]string, len(raw))
	for i, s := range raw {
		vals[i] = strings.TrimSpace(s)
	}
	return vals
}

// intValue reads an integer attribute, accepting both binary and
// integer-string encodings.
func intValue(ds dicom.Dataset, t tag.Tag) (int, bool) {
	el, err := ds.FindElementByTag(t)
	if err != nil {
		return 0, false
	}
	switch v := el.Value.GetValue().(type) {
	case []int:
		if len(v) > 0 {
			return v[0], true
		}
	case []string:
		if len(v) > 0 {
			if n, err := strconv.Atoi(strings.TrimSpace(v[0])); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// floatValue reads a numeric attribute, accepting binary floats,
// decimal strings and integers.
func floatValue(ds dicom.Dataset, t tag.Tag) (float64, bool) {
	vals := floatValues(ds, t)
	if len(vals) == 0 {
		return 0, false
	}
	return vals[0], true
}

func floatValues(ds dicom.Dataset, t tag.Tag) []float64 {
	el, err := ds.FindElementByTag(t)
	if err != nil {
		return nil
	}
	switch v := el.Value.GetValue().(type) {
	case []float64:
		return v
	case []int:
		out := make([]float64, len(v))
		for i, n := range v {
			out[i] = float64(n)
		}
		return out
	case []string:
		out := make([]float64, 0, len(v))
		for _, s := range v {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil
			}
			out = append(out, f)
		}
		return out
	}
	return nil
}
