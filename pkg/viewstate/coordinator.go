// Package viewstate owns one viewport's lifecycle, from load request
// to displayed slice, and keeps window, projection, transform and
// measurement state coherent as the user moves through the set.
package viewstate

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/sliceview/sliceview.go/pkg/geom"
	"github.com/sliceview/sliceview.go/pkg/overlay"
	"github.com/sliceview/sliceview.go/pkg/projection"
	"github.com/sliceview/sliceview.go/pkg/render"
	"github.com/sliceview/sliceview.go/pkg/roi"
	"github.com/sliceview/sliceview.go/pkg/series"
	"github.com/sliceview/sliceview.go/pkg/windowing"
)

// Phase is where the coordinator stands in its lifecycle.
type Phase int

const (
	// Idle means nothing is loaded.
	Idle Phase = iota
	// Loading means a load request is in flight.
	Loading
	// Displaying means a slice is on screen.
	Displaying
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Displaying:
		return "displaying"
	default:
		return "idle"
	}
}

var (
	// ErrStaleLoad marks a load completion that lost the race to a
	// newer request. Its result is discarded.
	ErrStaleLoad = errors.New("stale load generation")
	// ErrNoDisplay means no slice is available to serve the call.
	ErrNoDisplay = errors.New("nothing is displayed")
	// ErrNotDisplayable wraps validation failures of the slice under
	// display.
	ErrNotDisplayable = errors.New("slice not displayable")
)

// Hooks carries the optional observer callbacks. Nil fields are
// skipped.
type Hooks struct {
	// DefaultsChanged fires when a series' view defaults become
	// canonical.
	DefaultsChanged func(series.Identity, ViewDefaults)
	// OverlayInvalidated fires whenever the overlay's content or
	// anchoring may have changed and corners need repositioning.
	OverlayInvalidated func()
}

func (h Hooks) defaultsChanged(id series.Identity, def ViewDefaults) {
	if h.DefaultsChanged != nil {
		h.DefaultsChanged(id, def)
	}
}

func (h Hooks) overlayInvalidated() {
	if h.OverlayInvalidated != nil {
		h.OverlayInvalidated()
	}
}

// Coordinator owns one viewport's state. It is not safe for
// concurrent use; async loaders hand results back on the caller's
// goroutine with the generation stamp they were issued.
type Coordinator struct {
	phase      Phase
	generation uint64

	stacks []*series.Stack
	cur    int
	index  int

	engines  map[series.Identity]*windowing.Engine
	inverted map[series.Identity]bool
	defaults *defaultsStore
	first    *ViewDefaults

	shapes *roi.Store

	viewW, viewH float64
	transform    geom.Transform
	userAdjusted bool

	proj projection.Spec

	hooks Hooks
}

// NewCoordinator returns an idle coordinator.
func NewCoordinator(hooks Hooks) *Coordinator {
	return &Coordinator{
		engines:   make(map[series.Identity]*windowing.Engine),
		inverted:  make(map[series.Identity]bool),
		defaults:  newDefaultsStore(),
		shapes:    roi.NewStore(),
		transform: geom.IdentityTransform(),
		hooks:     hooks,
	}
}

// Phase returns the lifecycle phase.
func (c *Coordinator) Phase() Phase { return c.phase }

// Generation returns the current request generation.
func (c *Coordinator) Generation() uint64 { return c.generation }

// BeginLoad announces that a new file set is being loaded and returns
// the generation stamp its completion must present. Starting a new
// load invalidates every older one.
func (c *Coordinator) BeginLoad() uint64 {
	c.generation++
	c.phase = Loading
	return c.generation
}

// CompleteLoad installs a loaded file set. Completions carrying an old
// generation return ErrStaleLoad and change nothing. A fresh set
// clears defaults, engines and shapes, then displays the first slice
// of the first series.
func (c *Coordinator) CompleteLoad(gen uint64, stacks []*series.Stack) error {
	if gen != c.generation {
		slog.Debug("discarding stale load result", "got", gen, "want", c.generation)
		return ErrStaleLoad
	}
	if len(stacks) == 0 {
		c.phase = Idle
		return fmt.Errorf("load produced no series")
	}

	c.stacks = stacks
	c.cur = 0
	c.index = 0
	c.engines = make(map[series.Identity]*windowing.Engine)
	c.inverted = make(map[series.Identity]bool)
	c.defaults.clear()
	c.first = nil
	c.shapes.Clear()
	c.proj = projection.Spec{}
	c.phase = Displaying

	return c.display(true)
}

// FailLoad reports that the load carrying gen failed. Stale failures
// are ignored; the current one drops the coordinator back to Idle.
func (c *Coordinator) FailLoad(gen uint64, err error) bool {
	if gen != c.generation {
		slog.Debug("discarding stale load failure", "got", gen, "want", c.generation, "error", err)
		return false
	}
	slog.Warn("load failed", "error", err)
	c.phase = Idle
	return true
}

func (c *Coordinator) stack() *series.Stack {
	if c.phase != Displaying || c.cur >= len(c.stacks) {
		return nil
	}
	return c.stacks[c.cur]
}

// display runs the shared display path. A series' first display stages
// tentative defaults and validates the slice; canonicalizing waits for
// settle once zoom and pan are known. Validation failure rolls the
// staged state back so the next attempt starts clean.
func (c *Coordinator) display(newSeries bool) error {
	st := c.stack()
	if st == nil {
		return ErrNoDisplay
	}
	sl := st.At(c.index)
	if sl == nil {
		return ErrNoDisplay
	}
	id := st.Identity()
	if newSeries {
		// Supersede in-flight work for the previous context.
		c.generation++
	}

	eng, existed := c.engines[id]
	if !existed {
		eng = windowing.NewEngine()
		c.engines[id] = eng
		def := ViewDefaults{
			Window:   eng.ComputeDefaults(sl),
			Inverted: sl.Meta.Inverted(),
		}
		def.Rescale, def.HasRescale = eng.Rescale()
		def.Rescaled = eng.RescaledReadout()
		c.defaults.stage(id, def)
		c.inverted[id] = def.Inverted
	}

	if res := series.CheckForDisplay(sl.Meta, sl.Pixels); !res.Displayable() {
		if !existed {
			c.defaults.discard(id)
			delete(c.engines, id)
			delete(c.inverted, id)
		}
		return fmt.Errorf("%w: %v", ErrNotDisplayable, res.Errors[0])
	} else if res.HasWarnings() {
		for _, w := range res.Warnings {
			slog.Debug("display degraded", "slice", sl.Meta.Key().String(), "warning", w.Error())
		}
	}

	if newSeries {
		c.proj = projection.Spec{}
		c.fit()
		c.settle()
	}
	c.hooks.overlayInvalidated()
	return nil
}

// settle canonicalizes tentatively staged defaults for the displayed
// series now that the layout is known.
func (c *Coordinator) settle() {
	st := c.stack()
	if st == nil {
		return
	}
	id := st.Identity()
	if !c.defaults.commit(id, c.transform) {
		return
	}
	def, _ := c.defaults.get(id)
	if c.first == nil {
		d := def
		c.first = &d
	}
	c.hooks.defaultsChanged(id, def)
}

// SetSlice displays the slice at index i, clamped to the stack. The
// transform, window and projection all survive same-series moves.
func (c *Coordinator) SetSlice(i int) error {
	st := c.stack()
	if st == nil {
		return ErrNoDisplay
	}
	c.index = st.Clamp(i)
	return c.display(false)
}

// Step moves delta slices with wraparound, the cine path.
func (c *Coordinator) Step(delta int) error {
	st := c.stack()
	if st == nil {
		return ErrNoDisplay
	}
	c.index = st.Step(c.index, delta)
	return c.display(false)
}

// SeriesCount returns how many series the file set holds.
func (c *Coordinator) SeriesCount() int { return len(c.stacks) }

// SelectSeries switches to the i-th series. First visits compute
// defaults and fit the view; revisits keep whatever window the user
// left behind.
func (c *Coordinator) SelectSeries(i int) error {
	if c.phase != Displaying {
		return ErrNoDisplay
	}
	if i < 0 || i >= len(c.stacks) {
		return fmt.Errorf("no series %d of %d", i, len(c.stacks))
	}
	if i == c.cur {
		return nil
	}
	c.cur = i
	c.index = 0
	return c.display(true)
}

// SliceIndex returns the displayed slice's position in its stack.
func (c *Coordinator) SliceIndex() int { return c.index }

// SliceCount returns the current stack's length.
func (c *Coordinator) SliceCount() int {
	if st := c.stack(); st != nil {
		return st.Len()
	}
	return 0
}

// CurrentSlice returns the slice under display.
func (c *Coordinator) CurrentSlice() *series.Slice {
	if st := c.stack(); st != nil {
		return st.At(c.index)
	}
	return nil
}

// CurrentKey identifies the slice under display.
func (c *Coordinator) CurrentKey() (series.Key, bool) {
	sl := c.CurrentSlice()
	if sl == nil {
		return series.Key{}, false
	}
	return sl.Meta.Key(), true
}

// Engine returns the window engine of the displayed series, nil when
// nothing is displayed.
func (c *Coordinator) Engine() *windowing.Engine {
	st := c.stack()
	if st == nil {
		return nil
	}
	return c.engines[st.Identity()]
}

// fit centers the current slice in the viewport at the largest scale
// that shows all of it.
func (c *Coordinator) fit() {
	sl := c.CurrentSlice()
	if sl == nil {
		return
	}
	c.transform = geom.FitRect(float64(sl.Meta.Cols), float64(sl.Meta.Rows), c.viewW, c.viewH)
	c.userAdjusted = false
}

// SetViewport records the viewport size. While the user has not
// zoomed or panned, the view refits; a hand-adjusted view stays put.
func (c *Coordinator) SetViewport(w, h float64) {
	c.viewW, c.viewH = w, h
	if !c.userAdjusted {
		c.fit()
	}
	c.settle()
	c.hooks.overlayInvalidated()
}

// Transform returns the scene-to-viewport mapping.
func (c *Coordinator) Transform() geom.Transform { return c.transform }

// Zoom returns the current scale factor.
func (c *Coordinator) Zoom() float64 { return c.transform.Scale }

// ZoomAt multiplies the zoom by factor keeping the given viewport
// point fixed under the cursor.
func (c *Coordinator) ZoomAt(factor float64, pivot geom.Point) {
	c.transform = c.transform.ScaledAbout(factor, pivot)
	c.userAdjusted = true
	c.hooks.overlayInvalidated()
}

// PanBy shifts the view by a viewport-pixel delta.
func (c *Coordinator) PanBy(dx, dy float64) {
	c.transform = c.transform.Translated(dx, dy)
	c.userAdjusted = true
	c.hooks.overlayInvalidated()
}

// FitToView refits and recenters the current slice.
func (c *Coordinator) FitToView() {
	c.fit()
	c.hooks.overlayInvalidated()
}

// SetProjection dials the projection for the current view. Counts
// outside the offered slab sizes are rejected.
func (c *Coordinator) SetProjection(spec projection.Spec) error {
	if spec.Mode != projection.None && !projection.ValidCount(spec.Count) {
		return fmt.Errorf("unsupported projection count %d", spec.Count)
	}
	c.proj = spec
	c.hooks.overlayInvalidated()
	return nil
}

// Projection returns the dialed projection.
func (c *Coordinator) Projection() projection.Spec { return c.proj }

// Composite reduces the projection window anchored at the current
// slice. ErrTooFewSlices near the stack end means callers should fall
// back to the plain slice.
func (c *Coordinator) Composite() (*projection.Composite, error) {
	st := c.stack()
	if st == nil {
		return nil, ErrNoDisplay
	}
	if !c.proj.Active() {
		return nil, projection.ErrTooFewSlices
	}
	return projection.Compose(c.proj.Mode, st.Window(c.index, c.proj.Count))
}

// Inverted reports whether the displayed series renders with the
// grayscale ramp flipped.
func (c *Coordinator) Inverted() bool {
	st := c.stack()
	if st == nil {
		return false
	}
	return c.inverted[st.Identity()]
}

// ToggleInvert flips the grayscale ramp for the displayed series.
func (c *Coordinator) ToggleInvert() {
	st := c.stack()
	if st == nil {
		return
	}
	id := st.Identity()
	c.inverted[id] = !c.inverted[id]
	c.hooks.overlayInvalidated()
}

// screenComposite resolves what an active projection contributes to
// the screen: the composite when the run reduces, nil when there is no
// active projection or the run degrades to the plain slice. Degenerate
// runs, too few slices at the stack end or shapes that disagree, are
// absorbed and logged; pixel access failures surface.
func (c *Coordinator) screenComposite() (*projection.Composite, error) {
	if !c.proj.Active() {
		return nil, nil
	}
	comp, err := c.Composite()
	switch {
	case err == nil:
		return comp, nil
	case errors.Is(err, projection.ErrTooFewSlices), errors.Is(err, projection.ErrShapeMismatch):
		slog.Debug("projection degraded to plain slice",
			"mode", c.proj.Mode.String(), "count", c.proj.Count, "error", err)
		return nil, nil
	default:
		return nil, err
	}
}

// Frame renders the current view: the projected composite when one is
// dialed in, the plain slice otherwise or when the run degrades near
// the stack end or over mismatched shapes.
func (c *Coordinator) Frame() (*image.Gray, error) {
	sl := c.CurrentSlice()
	eng := c.Engine()
	if sl == nil || eng == nil {
		return nil, ErrNoDisplay
	}
	comp, err := c.screenComposite()
	if err != nil {
		return nil, err
	}
	if comp != nil {
		return render.Frame(comp, eng.Current(), c.Inverted()), nil
	}
	return render.Frame(sl.Pixels, eng.Current(), c.Inverted()), nil
}

// AdjustWindow nudges the window by readout-convention deltas.
func (c *Coordinator) AdjustWindow(deltaCenter, deltaWidth float64) {
	if eng := c.Engine(); eng != nil {
		eng.AdjustBy(deltaCenter, deltaWidth)
		c.hooks.overlayInvalidated()
	}
}

// SetWindow replaces the window, expressed in the readout convention.
func (c *Coordinator) SetWindow(wl windowing.WindowLevel) {
	if eng := c.Engine(); eng != nil {
		eng.SetWindow(wl)
		c.hooks.overlayInvalidated()
	}
}

// ApplyPreset applies the i-th preset of the displayed series.
func (c *Coordinator) ApplyPreset(i int) bool {
	eng := c.Engine()
	if eng == nil || !eng.ApplyPreset(i) {
		return false
	}
	c.hooks.overlayInvalidated()
	return true
}

// SetRescaledReadout flips the window readout between stored and
// calibrated units. What renders cannot change.
func (c *Coordinator) SetRescaledReadout(on bool) bool {
	eng := c.Engine()
	if eng == nil || !eng.SetRescaledReadout(on) {
		return false
	}
	c.hooks.overlayInvalidated()
	return true
}

// ResetView restores the series' canonical view defaults and drops
// the projection. A series whose defaults never canonicalized falls
// back to the first displayed series' defaults, carried across
// calibration mappings, and a plain refit.
func (c *Coordinator) ResetView() error {
	st := c.stack()
	eng := c.Engine()
	if st == nil || eng == nil {
		return ErrNoDisplay
	}
	id := st.Identity()
	c.generation++

	if def, ok := c.defaults.get(id); ok {
		eng.Reset()
		eng.SetRescaledReadout(def.Rescaled)
		c.inverted[id] = def.Inverted
		c.transform = def.Transform
		c.userAdjusted = false
	} else {
		if c.first != nil {
			target, hasTarget := eng.Rescale()
			eng.SetRawWindow(c.first.carryInto(target, hasTarget))
		} else {
			eng.Reset()
		}
		if sl := c.CurrentSlice(); sl != nil {
			c.inverted[id] = sl.Meta.Inverted()
		}
		c.fit()
	}

	c.proj = projection.Spec{}
	c.hooks.overlayInvalidated()
	return nil
}

// AddShape records a measurement on the displayed slice and returns
// its key.
func (c *Coordinator) AddShape(sh roi.Shape) (series.Key, error) {
	key, ok := c.CurrentKey()
	if !ok {
		return series.Key{}, ErrNoDisplay
	}
	c.shapes.Add(key, sh)
	c.hooks.overlayInvalidated()
	return key, nil
}

// Shapes returns the measurements drawn on the displayed slice.
func (c *Coordinator) Shapes() []roi.Shape {
	key, ok := c.CurrentKey()
	if !ok {
		return nil
	}
	return c.shapes.At(key)
}

// Store exposes the shape store for pruning and bulk operations.
func (c *Coordinator) Store() *roi.Store { return c.shapes }

// Measure evaluates the displayed slice's shapes against what is on
// screen, resolved exactly as Frame resolves it: composite values when
// the projection reduces, stored samples otherwise. Values follow the
// window readout convention, so toggling it to raw reads the same
// regions back in stored units. Pixel access failures surface so stats
// are never reported for a frame that cannot render.
func (c *Coordinator) Measure() ([]roi.Stats, error) {
	sl := c.CurrentSlice()
	if sl == nil {
		return nil, ErrNoDisplay
	}
	var src roi.Source = sl.Pixels
	meta := sl.Meta
	comp, err := c.screenComposite()
	if err != nil {
		return nil, err
	}
	if comp != nil {
		src = comp
		meta = comp.Anchor
	}
	calibrated := true
	if eng := c.Engine(); eng != nil {
		calibrated = eng.RescaledReadout()
	}
	shapes := c.Shapes()
	out := make([]roi.Stats, len(shapes))
	for i, sh := range shapes {
		if calibrated {
			out[i] = roi.Compute(sh, src, meta)
		} else {
			out[i] = roi.ComputeRaw(sh, src, meta)
		}
	}
	return out, nil
}

// OverlayContext assembles what the overlay fields need to render the
// current view.
func (c *Coordinator) OverlayContext() overlay.ViewContext {
	ctx := overlay.ViewContext{Zoom: c.Zoom(), Projection: c.proj}
	sl := c.CurrentSlice()
	if sl == nil {
		ctx.Meta = &series.SliceMeta{}
		return ctx
	}
	ctx.Meta = sl.Meta
	ctx.SliceIndex = c.index
	ctx.SliceCount = c.SliceCount()
	if eng := c.Engine(); eng != nil {
		ctx.Window = eng.Display()
		ctx.Unit = eng.Unit()
		if i, ok := eng.MatchPreset(); ok {
			ctx.PresetLabel = eng.Presets()[i].Label
		}
	}
	return ctx
}
