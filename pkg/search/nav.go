package search

import "btctui/pkg/models"

// Navigation rows for a confirmed transaction appear in a fixed order:
// block height (row 0), inputs (if any), outputs (if any). The helpers are
// pure functions of the result so the UI and tests share one definition.

// InputsRow returns the selection index of the inputs row, or -1 when the
// result has no inputs.
func InputsRow(r models.SearchResult) int {
	if len(r.Vins) == 0 {
		return -1
	}
	return 1
}

// OutputsRow returns the selection index of the outputs row, or -1 when the
// result has no outputs.
func OutputsRow(r models.SearchResult) int {
	if len(r.Vouts) == 0 {
		return -1
	}
	if len(r.Vins) == 0 {
		return 1
	}
	return 2
}

// MaxSelection returns the highest valid selection index.
func MaxSelection(r models.SearchResult) int {
	n := 0
	if len(r.Vins) > 0 {
		n++
	}
	if len(r.Vouts) > 0 {
		n++
	}
	return n
}

// OverlayWindowSize is how many rows an inputs/outputs overlay shows.
const OverlayWindowSize = 10

// OverlayWindow returns the first visible row and window size for an
// overlay list of n items with the given selection. The window re-centers
// on the selection and clamps to valid bounds; sel < 0 pins it to the top.
func OverlayWindow(n, sel int) (top, win int) {
	win = n
	if win > OverlayWindowSize {
		win = OverlayWindowSize
	}
	if sel >= 0 {
		top = sel - win/2
		if top > n-win {
			top = n - win
		}
		if top < 0 {
			top = 0
		}
	}
	return top, win
}
