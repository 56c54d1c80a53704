package theme

import "sync"

// StaticTheme is a NativeTheme without an OS behind it. It is the fallback
// when no desktop portal is reachable, and it lets callers simulate OS
// preference changes.
type StaticTheme struct {
	mu     sync.Mutex
	dark   bool
	source Mode
	subs   map[int]func()
	nextID int
}

// NewStaticTheme creates a theme whose OS preference is prefersDark.
func NewStaticTheme(prefersDark bool) *StaticTheme {
	return &StaticTheme{dark: prefersDark, source: ModeSystem, subs: make(map[int]func())}
}

// SetSource records the override.
func (s *StaticTheme) SetSource(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = m
}

// Source returns the last override applied.
func (s *StaticTheme) Source() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// SystemPrefersDark implements NativeTheme.
func (s *StaticTheme) SystemPrefersDark() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dark
}

// SetSystemDark changes the OS preference and notifies subscribers.
func (s *StaticTheme) SetSystemDark(dark bool) {
	s.mu.Lock()
	s.dark = dark
	subs := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// OnUpdated implements NativeTheme.
func (s *StaticTheme) OnUpdated(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Subscribers returns the number of live subscriptions.
func (s *StaticTheme) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
