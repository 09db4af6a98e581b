package resume

import (
	stderrors "errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/resumable/errors"
)

func validFrame() *Frame {
	return &Frame{
		Func:           "scope",
		StatementIndex: 2,
		Assignments:    map[int]string{0: "temp0", 1: "temp1"},
		Values:         map[string]any{"temp0": 1.0, "temp1": nil},
	}
}

func TestFrame_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Frame)
		kind   errors.Kind
	}{
		{"valid", func(*Frame) {}, ""},
		{"zero index", func(f *Frame) { f.StatementIndex = 0 }, ""},
		{"missing func", func(f *Frame) { f.Func = nil }, errors.KindFieldMissing},
		{"negative index", func(f *Frame) { f.StatementIndex = -1 }, errors.KindOutOfBounds},
		{"negative assignment", func(f *Frame) { f.Assignments[-3] = "temp0" }, errors.KindOutOfBounds},
		{"assigned binding missing", func(f *Frame) { delete(f.Values, "temp1") }, errors.KindFieldMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFrame()
			tt.modify(f)
			err := f.Validate()
			if tt.kind == "" {
				if err != nil {
					t.Fatalf("Validate() = %v", err)
				}
				return
			}
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("Validate() = %v, want *errors.Error", err)
			}
			if e.Phase != errors.PhaseResume || e.Kind != tt.kind {
				t.Errorf("got %s/%s, want resume/%s", e.Phase, e.Kind, tt.kind)
			}
		})
	}
}

func TestFrame_Inject(t *testing.T) {
	f := validFrame()
	got := f.Inject("result")

	if got.Values["temp1"] != "result" {
		t.Errorf("temp1 = %v, want result", got.Values["temp1"])
	}
	if f.Values["temp1"] != nil {
		t.Error("Inject modified the original frame")
	}

	f.StatementIndex = 4
	if diff := cmp.Diff(f.Values, f.Inject("x").Values); diff != "" {
		t.Errorf("unassigned step changed values (-want +got):\n%s", diff)
	}
}

func TestFrame_InjectNilValues(t *testing.T) {
	f := &Frame{Func: "f", StatementIndex: 1, Assignments: map[int]string{0: "t"}}
	if got := f.Inject(3.0).Values["t"]; got != 3.0 {
		t.Errorf("t = %v, want 3", got)
	}
}

func TestSignal(t *testing.T) {
	s := NewSignal("sleep")
	inner, outer := validFrame(), validFrame()
	s.Add(inner)
	s.Add(outer)

	if s.Depth() != 2 {
		t.Fatalf("Depth() = %d, want 2", s.Depth())
	}
	frames := s.Frames()
	if frames[0] != inner || frames[1] != outer {
		t.Error("frames out of order")
	}
	frames[0] = nil
	if s.Frames()[0] == nil {
		t.Error("Frames exposes internal slice")
	}
	if got := s.Error(); got != "suspended (sleep) with 2 frame(s)" {
		t.Errorf("Error() = %q", got)
	}

	var err error = s
	var sig *Signal
	if !stderrors.As(err, &sig) || sig != s {
		t.Error("Signal should unwrap from error")
	}
}

func TestPlan(t *testing.T) {
	if _, err := Plan(nil); err == nil {
		t.Error("Plan(nil) should fail")
	}
	if _, err := Plan(NewSignal("")); err == nil {
		t.Error("Plan(empty) should fail")
	}

	s := NewSignal("")
	s.Add(validFrame())
	bad := validFrame()
	bad.StatementIndex = -2
	s.Add(bad)
	_, err := Plan(s)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseResume, Kind: errors.KindOutOfBounds}) {
		t.Errorf("Plan() = %v, want out_of_bounds", err)
	}

	ok := NewSignal("")
	ok.Append(validFrame(), validFrame())
	frames, err := Plan(ok)
	if err != nil || len(frames) != 2 {
		t.Errorf("Plan() = %d frames, %v", len(frames), err)
	}
}

func TestMarker(t *testing.T) {
	var m Marker
	if _, ok := m.Take(); ok {
		t.Fatal("empty marker returned a frame")
	}

	f := validFrame()
	m.Set(f)
	if got, ok := m.Peek(); !ok || got != f {
		t.Fatal("Peek did not return the frame")
	}
	if got, ok := m.Take(); !ok || got != f {
		t.Fatal("Take did not return the frame")
	}
	if _, ok := m.Take(); ok {
		t.Error("second Take should be a no-op")
	}

	m.Set(f)
	m.Clear()
	if _, ok := m.Peek(); ok {
		t.Error("Clear left the frame")
	}
}
