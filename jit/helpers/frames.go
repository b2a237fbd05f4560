package helpers

// FrameCell is one saved-frame entry as spec.md §4.2/§4.5 describes it: a
// capture-save cell carries a capture number and the ovector start/end
// values being restored; a set-string-begin or set-mark cell carries only
// a single value. Kind distinguishes which shape applies.
type FrameCell struct {
	Kind  FrameCellKind
	Num   int // capture number, for KindCapture
	Start int
	End   int // unused for KindSOM/KindMark
}

type FrameCellKind uint8

const (
	KindCapture FrameCellKind = iota
	KindSOM
	KindMark
)

// RevertFrames implements revert_frames: given the frame entries saved
// when a construct was entered, restore them in reverse order into the
// running ovector and start-of-match register, undoing every capture
// written since. Every cell in the slice is restored; there is no sentinel
// entry, the slice length alone ends the walk.
func RevertFrames(cells []FrameCell, ovector []int, setSOM func(int)) {
	for i := len(cells) - 1; i >= 0; i-- {
		c := cells[i]
		switch c.Kind {
		case KindCapture:
			if 2*c.Num+1 < len(ovector) {
				ovector[2*c.Num] = c.Start
				ovector[2*c.Num+1] = c.End
			}
		case KindSOM:
			if setSOM != nil {
				setSOM(c.Start)
			}
		case KindMark:
			// mark restoration is a no-op on the ovector; the mark name itself
			// lives on the matcher, restored by the caller from c.Start as an
			// index into its own mark-name table.
		}
	}
}
