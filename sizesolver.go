package ebml

// solveTotalSize implements the size-and-position solver (spec §4.3):
// given a goal total size, find a (size-VINT width, data width) pair
// that (a) keeps the element's current header width when that alone
// reaches the goal exactly, (b) otherwise tries increasing header
// widths from the minimum, accepting the first exact match, and (c)
// falls back to the candidate whose total is largest but still <=
// goal, preferring the smallest header width among ties.
//
// "header width" here is the width of the size VINT alone; the
// element's ID width is fixed and added on both sides of every
// comparison so the returned width composes directly with Header.Width.
func solveTotalSize(e Element, goal uint64) (sizeWidth int, dataWidth uint64, ok bool) {
	idW := e.Header().idWidth()
	minData := e.MinDataSize()
	minSizeW := vintMinWidth(minData)
	if minSizeW == 0 {
		minSizeW = 8
	}
	if uint64(idW+minSizeW)+minData > goal {
		return 0, 0, false
	}

	// (a) keep the current header width if it reaches the goal exactly.
	curW := e.Header().Width
	if curW >= minSizeW {
		total := uint64(idW + curW)
		if total <= goal {
			if d, okk := e.ValidDataSizeLE(goal - total); okk && d == goal-total && d <= vintMaxValue(curW) {
				return curW, d, true
			}
		}
	}

	// (b)/(c) iterate header widths upward, first exact match wins;
	// otherwise remember the best (largest total <= goal, smallest
	// width on ties, which ascending iteration gives for free).
	bestHave := false
	var bestW int
	var bestD uint64
	var bestTotal uint64
	for w := minSizeW; w <= 8; w++ {
		total := uint64(idW + w)
		if total > goal {
			break
		}
		want := goal - total
		if lim := vintMaxValue(w); want > lim {
			want = lim
		}
		d, okk := e.ValidDataSizeLE(want)
		if !okk {
			continue
		}
		if d == goal-total {
			return w, d, true
		}
		candTotal := total + d
		if !bestHave || candTotal > bestTotal {
			bestHave, bestW, bestD, bestTotal = true, w, d, candTotal
		}
	}
	if bestHave {
		return bestW, bestD, true
	}
	return 0, 0, false
}

// resizeDataGeneric validates dataWidth against the element's own
// ValidDataSizeLE (which encodes every kind-specific width constraint)
// and, if it is exactly reachable, applies it to the header.
func resizeDataGeneric(e Element, dataWidth uint64) error {
	got, ok := e.ValidDataSizeLE(dataWidth)
	if !ok || got != dataWidth {
		return newValueError("%s: data width %d is not valid for this element", e.Name(), dataWidth)
	}
	return e.Header().SetSize(dataWidth)
}

// resizeTotalGeneric applies the solver's result to the header, or
// fails if goal is unreachable.
func resizeTotalGeneric(e Element, goal uint64) error {
	w, d, ok := solveTotalSize(e, goal)
	if !ok {
		return newValueError("%s: total size %d is not reachable", e.Name(), goal)
	}
	if err := e.Header().SetSize(d); err != nil {
		return err
	}
	return e.Header().SetEncodedWidth(w)
}
