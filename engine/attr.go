package engine

// Attr holds quantization settings. The zero value is not usable; create one
// with NewAttr.
type Attr struct {
	maxColors       int
	minQuality      int
	maxQuality      int
	speed           int
	minPosterize    int
	lastTransparent bool
}

// NewAttr returns settings with the engine defaults: 256 colors, quality
// 0..100, speed 4, no posterization.
func NewAttr() *Attr {
	return &Attr{
		maxColors:  256,
		minQuality: 0,
		maxQuality: 100,
		speed:      4,
	}
}

// Copy returns an independent clone.
func (a *Attr) Copy() *Attr {
	c := *a
	return &c
}

// SetMaxColors limits the palette size to 1..256 colors.
func (a *Attr) SetMaxColors(colors int) error {
	if colors < 1 || colors > 256 {
		return ValueOutOfRange
	}
	a.maxColors = colors
	return nil
}

func (a *Attr) MaxColors() int { return a.maxColors }

// SetQuality sets the acceptable quality range. Quantization fails with
// QualityTooLow when the result falls below min; it stops refining once max
// is reached.
func (a *Attr) SetQuality(min, max int) error {
	if max < 0 || max > 100 || min < 0 || min > max {
		return ValueOutOfRange
	}
	a.minQuality = min
	a.maxQuality = max
	return nil
}

func (a *Attr) MinQuality() int { return a.minQuality }
func (a *Attr) MaxQuality() int { return a.maxQuality }

// SetSpeed trades quality for speed, 1 (slowest) to 11 (fastest).
func (a *Attr) SetSpeed(speed int) error {
	if speed < 1 || speed > 11 {
		return ValueOutOfRange
	}
	a.speed = speed
	return nil
}

func (a *Attr) Speed() int { return a.speed }

// SetMinPosterization drops the given number of least significant bits from
// every channel, 0..4.
func (a *Attr) SetMinPosterization(bits int) error {
	if bits < 0 || bits > 4 {
		return ValueOutOfRange
	}
	a.minPosterize = bits
	return nil
}

func (a *Attr) MinPosterization() int { return a.minPosterize }

// SetLastIndexTransparent moves the transparent entry to the end of the
// palette instead of the front.
func (a *Attr) SetLastIndexTransparent(v bool) {
	a.lastTransparent = v
}

// sampleLimit is the number of distinct colours fed to clustering.
func (a *Attr) sampleLimit() int {
	return 512 * (12 - a.speed)
}

// refineIterations is the number of weighted refinement passes over the
// full histogram.
func (a *Attr) refineIterations() int {
	return max(1, (11-a.speed)/2+1)
}
