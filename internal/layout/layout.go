// Package layout computes column-packed positions for the events of one
// visible day, in the style calendar grids render overlapping blocks:
// mutually overlapping events share the horizontal axis in equal-width
// columns while isolated events span the full width.
package layout

import (
	"sort"
	"time"

	"github.com/example/calendar-core/internal/event"
)

// Position describes where an event block renders inside the day column.
// Width and Left are percentages of the day column; ZIndex orders stacked
// blocks so later columns paint above earlier ones. Positions are ephemeral
// and recomputed per render, never persisted.
type Position struct {
	Width  float64
	Left   float64
	ZIndex int
}

// minBlockLength is the layout floor for zero-duration events. The stored
// duration is never touched; the floor only keeps the block visible.
const minBlockLength = time.Minute

type block struct {
	id     string
	start  time.Time
	end    time.Time
	column int
}

// ComputeDay assigns a Position to every event intersecting the day that
// begins at dayStart. Events spanning midnight are clipped to the visible
// day for packing purposes only.
func ComputeDay(dayStart time.Time, events []event.Event) map[string]Position {
	dayEnd := dayStart.AddDate(0, 0, 1)
	blocks := make([]block, 0, len(events))

	for _, ev := range events {
		start, end := ev.Interval()
		if end.Sub(start) < minBlockLength {
			end = start.Add(minBlockLength)
		}
		// Clip to the visible day.
		if start.Before(dayStart) {
			start = dayStart
		}
		if end.After(dayEnd) {
			end = dayEnd
		}
		if !start.Before(end) {
			continue
		}
		blocks = append(blocks, block{id: ev.ID, start: start, end: end})
	}

	// Start ascending; on ties the longer block claims its column first so
	// the visually larger event anchors the leftmost slot.
	sort.SliceStable(blocks, func(i, j int) bool {
		if blocks[i].start.Equal(blocks[j].start) {
			di := blocks[i].end.Sub(blocks[i].start)
			dj := blocks[j].end.Sub(blocks[j].start)
			if di != dj {
				return di > dj
			}
			return blocks[i].id < blocks[j].id
		}
		return blocks[i].start.Before(blocks[j].start)
	})

	positions := make(map[string]Position, len(blocks))

	// columnEnds[i] holds the end of the block currently occupying column i.
	var columnEnds []time.Time
	clusterStart := 0
	clusterColumns := 0

	flush := func(upto int) {
		if clusterColumns == 0 {
			return
		}
		width := 100.0 / float64(clusterColumns)
		for _, b := range blocks[clusterStart:upto] {
			positions[b.id] = Position{
				Width:  width,
				Left:   float64(b.column) * width,
				ZIndex: b.column + 1,
			}
		}
	}

	for i := range blocks {
		b := &blocks[i]

		// A block starting at or after every active column's end closes the
		// current cluster: nothing later can overlap anything earlier.
		if i > clusterStart && noneActive(columnEnds, b.start) {
			flush(i)
			columnEnds = columnEnds[:0]
			clusterStart = i
			clusterColumns = 0
		}

		assigned := -1
		for col, end := range columnEnds {
			if !end.After(b.start) {
				assigned = col
				break
			}
		}
		if assigned == -1 {
			columnEnds = append(columnEnds, b.end)
			assigned = len(columnEnds) - 1
		} else {
			columnEnds[assigned] = b.end
		}
		b.column = assigned
		if assigned+1 > clusterColumns {
			clusterColumns = assigned + 1
		}
	}
	flush(len(blocks))

	return positions
}

func noneActive(columnEnds []time.Time, at time.Time) bool {
	for _, end := range columnEnds {
		if end.After(at) {
			return false
		}
	}
	return true
}
