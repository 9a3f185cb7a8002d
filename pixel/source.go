package pixel

import (
	"image/color"
	"math"
	"sync"

	"github.com/wippyai/liqbridge/engine"
	"github.com/wippyai/liqbridge/errors"
)

// RowSource produces rows of canonical colours on demand.
type RowSource interface {
	Width() int
	Height() int
	// NextRow fills dst with the colours of row y. dst holds Width entries
	// and must not be retained.
	NextRow(y int, dst []color.NRGBA)
}

// State is the lifecycle stage of a Source.
type State uint8

const (
	// StateBuilding accepts fixed colours.
	StateBuilding State = iota
	// StateFrozen follows a successful quantization; the palette inputs are
	// fixed and only remapping is allowed.
	StateFrozen
	// StateReleased follows Drop.
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateFrozen:
		return "frozen"
	case StateReleased:
		return "released"
	}
	return "unknown"
}

// Source owns a private copy of caller pixel bytes and serves it to the
// engine row by row.
type Source struct {
	buf    []byte
	img    *engine.Image
	layout Layout
	width  int
	height int
	state  State
	mu     sync.RWMutex
}

var _ RowSource = (*Source)(nil)

// NewSource copies raw and builds an engine image pulling rows from the copy.
// raw must hold at least width*height*components bytes; extra bytes are
// ignored.
func NewSource(attr *engine.Attr, raw []byte, width, height, components int) (*Source, error) {
	if attr == nil {
		return nil, errors.InvalidInput(errors.PhaseImage, "attribute is absent")
	}
	if raw == nil {
		return nil, errors.MissingBuffer(errors.PhaseImage, "image_create")
	}
	layout, err := LayoutFor(components)
	if err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, errors.New(errors.PhaseImage, errors.KindOutOfRange).
			Op("image_create").
			Detail("dimensions %dx%d must be positive", width, height).
			Build()
	}
	if width > math.MaxInt32/height/components {
		return nil, errors.New(errors.PhaseImage, errors.KindAllocation).
			Op("image_create").
			Detail("%dx%dx%d bytes overflow", width, height, components).
			Build()
	}

	need := width * height * components
	if len(raw) < need {
		return nil, errors.BufferTooSmall(errors.PhaseImage, "image_create", need, len(raw))
	}

	s := &Source{
		buf:    make([]byte, need),
		layout: layout,
		width:  width,
		height: height,
	}
	copy(s.buf, raw[:need])

	img, err := engine.NewImageCustom(attr, s.rows, width, height, 0)
	if err != nil {
		s.buf = nil
		return nil, errors.Engine(errors.PhaseImage, "image_create", err)
	}
	s.img = img
	return s, nil
}

func (s *Source) Width() int     { return s.width }
func (s *Source) Height() int    { return s.height }
func (s *Source) Layout() Layout { return s.layout }

// NextRow decodes row y from the owned copy. Rows outside the image and rows
// of a released source decode as transparent black.
func (s *Source) NextRow(y int, dst []color.NRGBA) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.buf == nil || y < 0 || y >= s.height {
		clear(dst)
		return
	}
	n := min(len(dst), s.width)
	stride := s.width * s.layout.Components()
	s.layout.Decode(dst[:n], s.buf[y*stride:(y+1)*stride])
	clear(dst[n:])
}

// rows adapts NextRow to the engine callback shape.
func (s *Source) rows(row []color.NRGBA, y int) {
	s.NextRow(y, row)
}

// Image returns the engine image built over the owned copy.
func (s *Source) Image() *engine.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.img
}

// State returns the current lifecycle stage.
func (s *Source) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// AddFixedColor reserves a palette entry. Only allowed while building.
func (s *Source) AddFixedColor(c color.NRGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateBuilding {
		return errors.InvalidState(errors.PhaseImage, "add_fixed_color",
			"fixed colors must be added before quantization; image is "+s.state.String())
	}
	if err := s.img.AddFixedColor(c); err != nil {
		return errors.Engine(errors.PhaseImage, "add_fixed_color", err)
	}
	return nil
}

// Freeze moves a building source to StateFrozen. Freezing a frozen source is
// a no-op; a released source cannot be frozen.
func (s *Source) Freeze() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateReleased {
		return errors.InvalidState(errors.PhaseQuantize, "quantize", "image is released")
	}
	s.state = StateFrozen
	return nil
}

// Drop releases the byte copy and the engine image.
func (s *Source) Drop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf = nil
	s.img = nil
	s.state = StateReleased
}
