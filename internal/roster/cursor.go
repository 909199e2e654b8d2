package roster

// DeriveCursor re-derives the rotation cursor after the active subset has
// changed membership.
//
// The cursor follows identity, not position:
//   - if the old current mobber is still active, the cursor points at it;
//   - otherwise it lands on the first mobber after the old current (in old
//     rotation order, wrapping) that is still active, i.e. the old "next";
//   - an empty new subset, or an empty old one, yields 0.
//
// The function is pure; it never reads or writes Roster state.
func DeriveCursor(oldActive []Mobber, oldCursor int, newActive []Mobber) int {
	if len(newActive) == 0 || len(oldActive) == 0 {
		return 0
	}
	if oldCursor < 0 || oldCursor >= len(oldActive) {
		oldCursor = 0
	}

	index := make(map[string]int, len(newActive))
	for i, m := range newActive {
		index[m.ID] = i
	}

	for step := 0; step < len(oldActive); step++ {
		candidate := oldActive[(oldCursor+step)%len(oldActive)]
		if i, ok := index[candidate.ID]; ok {
			return i
		}
	}
	return 0
}
