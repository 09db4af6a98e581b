// Package resume defines the runtime contract between resumable code and
// the host that drives it.
//
// A blocking operation raises a Signal. As the signal propagates outward,
// the capture epilogue of every resumable function adds that function's
// Frame. To continue, the host replays the frames innermost first: the
// result of the blocking operation is injected into the innermost frame,
// the frame is placed in the Marker, and its function is invoked. The
// restore prologue takes the record from the marker and jumps to the
// captured step. The return value of each replayed frame is injected into
// the next outer frame the same way.
//
//	frames, err := resume.Plan(sig)
//	if err != nil {
//	    return err
//	}
//	value := result
//	for _, f := range frames {
//	    marker.Set(f.Inject(value))
//	    value = call(f.Func)
//	}
package resume
