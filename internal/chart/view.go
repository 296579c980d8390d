package chart

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/anytimesk/stock-ml-front-end/internal/model"
	"github.com/anytimesk/stock-ml-front-end/internal/theme"
)

var (
	// ErrNoData is returned when there is nothing to draw.
	ErrNoData = errors.New("no chart data")
	// ErrDisposed is returned when a released surface is used.
	ErrDisposed = errors.New("chart surface disposed")
)

type cacheKey struct {
	pane Pane
	zoom Zoom
}

// Surface is a rendering target bound to one data set, one palette and one
// size. Rendered panes are kept until the surface is resized or disposed.
type Surface struct {
	mu       sync.Mutex
	data     *Data
	palette  theme.Palette
	width    int
	height   int
	cache    map[cacheKey][]byte
	disposed bool
}

func newSurface(data *Data, palette theme.Palette, width, height int) *Surface {
	return &Surface{
		data:    data,
		palette: palette,
		width:   width,
		height:  height,
		cache:   make(map[cacheKey][]byte),
	}
}

// Render returns the SVG for a pane at zoom.
func (s *Surface) Render(pane Pane, zoom Zoom) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return nil, ErrDisposed
	}

	key := cacheKey{pane: pane, zoom: zoom.Normalize()}
	if svg, ok := s.cache[key]; ok {
		return svg, nil
	}

	svg, err := Render(s.data, pane, Options{
		Width:   s.width,
		Height:  s.height,
		Palette: s.palette,
		Zoom:    key.zoom,
	})
	if err != nil {
		return nil, err
	}
	s.cache[key] = svg
	return svg, nil
}

// Resize re-lays out the surface for a new size, keeping its data.
func (s *Surface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed || (width == s.width && height == s.height) {
		return
	}
	s.width, s.height = width, height
	s.cache = make(map[cacheKey][]byte)
}

// Size returns the current layout size.
func (s *Surface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Dispose releases the surface. Later renders fail with ErrDisposed.
func (s *Surface) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
	s.cache = nil
	s.data = nil
}

// Disposed reports whether Dispose was called.
func (s *Surface) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// View owns at most one Surface for a session's price chart. The surface
// is disposed and rebuilt whenever the data, title or theme changes, and
// there is no surface at all while the data is empty.
type View struct {
	mu          sync.Mutex
	logger      *zap.Logger
	width       int
	height      int
	palette     theme.Palette
	data        *Data
	surface     *Surface
	unsubscribe func()
}

// NewView creates a view that follows state's theme.
func NewView(state *theme.State, width, height int, logger *zap.Logger) *View {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := &View{
		logger:  logger,
		width:   width,
		height:  height,
		palette: state.Palette(),
	}
	v.unsubscribe = state.Subscribe(v.onTheme)
	return v
}

func (v *View) onTheme(mode theme.Mode) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.palette = mode.Palette()
	v.rebuild()
	v.logger.Debug("Chart rebuilt for theme", zap.String("theme", string(mode)))
}

// Update replaces the chart's records and title.
func (v *View) Update(records []model.PriceRecord, title string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(records) == 0 {
		v.data = nil
	} else {
		v.data = NewData(records, title)
	}
	v.rebuild()
}

// Clear drops the data and releases the surface.
func (v *View) Clear() {
	v.Update(nil, "")
}

// rebuild must be called with v.mu held.
func (v *View) rebuild() {
	if v.surface != nil {
		v.surface.Dispose()
		v.surface = nil
	}
	if v.data.Len() == 0 {
		return
	}
	v.surface = newSurface(v.data, v.palette, v.width, v.height)
}

// Surface returns the live surface, or nil when there is no data.
func (v *View) Surface() *Surface {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.surface
}

// HasData reports whether there is anything to draw.
func (v *View) HasData() bool {
	return v.Len() > 0
}

// Len returns the number of candles.
func (v *View) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.data.Len()
}

// Candles returns a copy of the date-sorted candles.
func (v *View) Candles() []Candle {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.data == nil {
		return nil
	}
	return append([]Candle(nil), v.data.Candles...)
}

// Title returns the chart title.
func (v *View) Title() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.data == nil {
		return ""
	}
	return v.data.Title
}

// Size returns the layout size new surfaces are built with.
func (v *View) Size() (int, int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.width, v.height
}

// Resize changes the layout size of the current and future surfaces
// without touching the data.
func (v *View) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.width, v.height = width, height
	if v.surface != nil {
		v.surface.Resize(width, height)
	}
}

// Render draws a pane. A nil zoom uses DefaultZoom. A surface replaced
// while rendering is retried once against its successor.
func (v *View) Render(pane Pane, zoom *Zoom) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		v.mu.Lock()
		surface := v.surface
		n := v.data.Len()
		v.mu.Unlock()

		if surface == nil {
			return nil, ErrNoData
		}

		z := DefaultZoom(n)
		if zoom != nil {
			z = *zoom
		}
		svg, err := surface.Render(pane, z)
		if errors.Is(err, ErrDisposed) && attempt == 0 {
			continue
		}
		return svg, err
	}
}

// Close stops following the theme and releases the surface.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.unsubscribe != nil {
		v.unsubscribe()
		v.unsubscribe = nil
	}
	if v.surface != nil {
		v.surface.Dispose()
		v.surface = nil
	}
	v.data = nil
}
