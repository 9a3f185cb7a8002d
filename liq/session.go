package liq

import (
	"go.uber.org/zap"

	"github.com/wippyai/liqbridge/engine"
	"github.com/wippyai/liqbridge/errors"
	"github.com/wippyai/liqbridge/pixel"
	"github.com/wippyai/liqbridge/resource"
)

// Config configures a Session.
type Config struct {
	// Logger receives handle lifecycle events at debug level. Nil uses the
	// package logger.
	Logger *zap.Logger
	// MaxHandles caps live objects per kind. Zero means no cap beyond the
	// handle encoding.
	MaxHandles int
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		MaxHandles: 0,
	}
}

// Session owns one handle table per object kind. Every exported method is
// safe to call with any handle value, including 0, stale and mismatched
// handles; such calls fail with a handle-phase error.
type Session struct {
	attrs   *resource.Table[*engine.Attr]
	images  *resource.Table[*pixel.Source]
	results *resource.Table[*engine.Result]
	log     *zap.Logger
	stops   []func()
}

// NewSession creates an empty session.
func NewSession(cfg Config) *Session {
	log := cfg.Logger
	if log == nil {
		log = Logger()
	}

	s := &Session{
		attrs:   resource.NewTable[*engine.Attr](resource.KindAttribute, cfg.MaxHandles),
		images:  resource.NewTable[*pixel.Source](resource.KindPixelSource, cfg.MaxHandles),
		results: resource.NewTable[*engine.Result](resource.KindResult, cfg.MaxHandles),
		log:     log,
	}

	obs := resource.ObserverFunc(s.onEvent)
	s.stops = append(s.stops,
		s.attrs.Subscribe(obs),
		s.images.Subscribe(obs),
		s.results.Subscribe(obs),
	)
	return s
}

func (s *Session) onEvent(e resource.Event) {
	if ce := s.log.Check(zap.DebugLevel, "handle "+e.Type.String()); ce != nil {
		fields := []zap.Field{
			zap.Stringer("kind", e.Kind),
			zap.Uint64("handle", uint64(e.Handle)),
		}
		if e.Err != nil {
			fields = append(fields, zap.Error(e.Err))
		}
		ce.Write(fields...)
	}
}

// Live reports whether h names a live object of any kind. Palette
// references are live while their result is.
func (s *Session) Live(h resource.Handle) bool {
	switch resource.KindOf(h) {
	case resource.KindAttribute:
		return s.attrs.Contains(h)
	case resource.KindPixelSource:
		return s.images.Contains(h)
	case resource.KindResult:
		return s.results.Contains(h)
	case resource.KindPalette:
		return s.results.Contains(resource.WithKind(h, resource.KindResult))
	}
	return false
}

// Stats reports the number of live objects per kind.
type Stats struct {
	Attributes int
	Images     int
	Results    int
}

func (s *Session) Stats() Stats {
	return Stats{
		Attributes: s.attrs.Len(),
		Images:     s.images.Len(),
		Results:    s.results.Len(),
	}
}

// Close releases every object still live. Handles are invalid afterwards.
func (s *Session) Close() error {
	st := s.Stats()
	if st.Attributes+st.Images+st.Results > 0 {
		s.log.Debug("closing session with live handles",
			zap.Int("attributes", st.Attributes),
			zap.Int("images", st.Images),
			zap.Int("results", st.Results),
		)
	}
	for _, stop := range s.stops {
		stop()
	}
	s.stops = nil

	var firstErr error
	for _, c := range []interface{ Close() error }{s.results, s.images, s.attrs} {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Session) attr(op string, h resource.Handle) (*engine.Attr, error) {
	a, err := s.attrs.Get(h)
	if err != nil {
		return nil, errors.Handle(op, err)
	}
	return a, nil
}

func (s *Session) image(op string, h resource.Handle) (*pixel.Source, error) {
	src, err := s.images.Get(h)
	if err != nil {
		return nil, errors.Handle(op, err)
	}
	return src, nil
}

func (s *Session) result(op string, h resource.Handle) (*engine.Result, error) {
	r, err := s.results.Get(h)
	if err != nil {
		return nil, errors.Handle(op, err)
	}
	return r, nil
}

// engineErr wraps an engine failure and logs its specific cause, which is
// otherwise lost once the error collapses to a status code.
func (s *Session) engineErr(phase errors.Phase, op string, err error) error {
	if code, ok := errors.EngineCause(err); ok {
		s.log.Debug("engine rejected operation",
			zap.String("op", op),
			zap.String("cause", code.Error()),
		)
	}
	return errors.Engine(phase, op, err)
}
