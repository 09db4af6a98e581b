package resume

import (
	"fmt"
	"sync"

	"github.com/wippyai/resumable/errors"
)

// Signal is a suspension in progress. It collects one Frame per function
// it unwinds through, innermost first.
//
// Signal implements error so hosts can return it from a blocking function,
// but it is never an ordinary failure.
type Signal struct {
	// Reason describes why execution suspended, for display only.
	Reason string
	frames []*Frame
}

// NewSignal creates an empty suspension.
func NewSignal(reason string) *Signal {
	return &Signal{Reason: reason}
}

// Error implements error.
func (s *Signal) Error() string {
	if s.Reason == "" {
		return fmt.Sprintf("suspended with %d frame(s)", len(s.frames))
	}
	return fmt.Sprintf("suspended (%s) with %d frame(s)", s.Reason, len(s.frames))
}

// Add appends the record of the next outer frame.
func (s *Signal) Add(f *Frame) {
	s.frames = append(s.frames, f)
}

// Append adds frames that are outside every frame collected so far, such
// as the not yet replayed callers of a frame that suspended again.
func (s *Signal) Append(frames ...*Frame) {
	s.frames = append(s.frames, frames...)
}

// Frames returns the collected records, innermost first.
func (s *Signal) Frames() []*Frame {
	out := make([]*Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

// Depth returns the number of collected frames.
func (s *Signal) Depth() int {
	return len(s.frames)
}

// Plan validates every frame of s and returns them in replay order,
// innermost first. No frame is returned unless all of them are valid.
func Plan(s *Signal) ([]*Frame, error) {
	if s == nil || len(s.frames) == 0 {
		return nil, errors.InvalidInput(errors.PhaseResume, "signal has no frames")
	}
	for i, f := range s.frames {
		if f == nil {
			return nil, errors.FieldMissing(errors.PhaseResume, []string{"frames", fmt.Sprint(i)}, "frame")
		}
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return s.Frames(), nil
}

// Marker is the ambient resume slot read by a resumed function's restore
// prologue. Taking the record clears the slot, so a later unrelated
// invocation never restores stale state.
type Marker struct {
	frame *Frame
	mu    sync.Mutex
}

// Set stores the record of the frame about to be re-entered.
func (m *Marker) Set(f *Frame) {
	m.mu.Lock()
	m.frame = f
	m.mu.Unlock()
}

// Peek returns the stored record without clearing it.
func (m *Marker) Peek() (*Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frame, m.frame != nil
}

// Take returns the stored record and clears the slot. A second Take
// returns false.
func (m *Marker) Take() (*Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := m.frame
	m.frame = nil
	return f, f != nil
}

// Clear empties the slot.
func (m *Marker) Clear() {
	m.Set(nil)
}
