package flowfile

import "fmt"

// FormatIndex renders a frame index as a 6-digit zero-padded string.
func FormatIndex(index int) string {
	return fmt.Sprintf("%06d", index)
}

// ForwardName is the file holding the flow from frame index to index+1,
// so it is keyed by index+1.
func ForwardName(index int) string {
	return "frame_" + FormatIndex(index+1) + ".flo"
}

// BackwardName is the file holding the flow from frame index back to
// index-1, keyed by index.
func BackwardName(index int) string {
	return "frame_" + FormatIndex(index) + "_bwd.flo"
}
