// Package frontend packs the hits of one front-end board into the board's
// output word, once per board clock tick.
//
// A board serves up to three layers of 16 wires. Board wire index is
// row*16 + local, rows counted outward. The layers alternate in a half-cell
// stagger: in a row at an odd distance from the priority row, wire k sits
// half a cell to the right of wire k of the priority row.
//
// The input word of every board type is
//
//	hitPattern  N bits, bit i = wire i fired in the sampling window
//	timing[i]   5 bits per wire, NotHit (31) when the wire did not fire
//
// and the output word is, in order,
//
//	InnerInside   (48 wires, priority row 0)
//	  hitPattern[48] priority[16] secondPriority[16] secondPrioritySide[16]x1
//	  fastest[16] edge[3] = wires 31 32 47                         319 bits
//	InnerOutside  (32 wires)
//	  hitPattern[32] fastest[16] edge[7] = wires 0 14 15 16 17 30 31  147 bits
//	OuterInside   (48 wires, priority row 2)
//	  hitPattern[48] priority[16] [secondPriority[16] secondPrioritySide[16]x1]
//	  fastest[16] edge[3] = wires 0 15 31                  223 or 319 bits
//	OuterOutside  (48 wires)
//	  hitPattern[48] fastest[16] edge[3] = wires 15 16 31          143 bits
//
// Timing fields are 5 bits unless marked x1. The bracketed second priority of
// OuterInside is present only with Options.OuterSecondPriority.
//
// Fastest-of-N candidates for segment i, in comparator tree order:
//
//	InnerInside   i, 15+i, 16+i, 31+i, 32+i, 33+i
//	              seg 0: 0 16 32 33          seg 15: 15 30 31 46 47
//	InnerOutside  i-2, i-1, i, i+1, 14+i, 15+i, 16+i, 17+i, 18+i
//	              seg 0: 0 1 16 17 18        seg 1: 0 1 2 16 17 18 19
//	              seg 14: 12 13 14 15 28 29 30 31
//	              seg 15: 13 14 15 29 30 31
//	OuterInside   32+i, 15+i, 16+i, i-1, i, i+1
//	              seg 0: 32 16 0 1           seg 15: 47 30 31 14 15
//	OuterOutside  i-1, i, 15+i, 16+i, 17+i
//	              seg 0: 0 16 17             seg 15: 14 15 30 31
//
// Second priority of segment i takes the priority wire if it fired, else the
// earlier of the left (15+i) and right (16+i) wire of the row next to the
// priority row. Segment 0 has the right candidate only. InnerInside prefers
// the right candidate on equal timing, OuterInside the left one.
package frontend
