package canopy

import (
	"fmt"
	"os"
	"time"
)

// debugBoundsColor is the fixed color used to stroke a node's bounding
// rectangle when its Debug flag is set.
var debugBoundsColor = Color{0, 1, 0, 1}

// debugHitColor is the fixed color used to stroke a node's hit region when
// its DebugHit flag is set.
var debugHitColor = Color{1, 0, 0, 1}

// debugChecks mirrors the most recently set Stage debug flag so that node
// operations (which lack a Stage pointer) can check it cheaply. Only valid
// with a single Stage; multiple Stages with differing debug modes will
// reflect whichever called SetDebug last.
var debugChecks bool

// debugStats holds per-tick timing metrics. Only populated when the stage
// is in debug mode.
type debugStats struct {
	updateTime time.Duration
	renderTime time.Duration
	redraws    uint64
}

// debugLog prints per-tick stats to stderr.
func debugLog(stats debugStats) {
	_, _ = fmt.Fprintf(os.Stderr,
		"[canopy] update: %v | render: %v | redraws: %d\n",
		stats.updateTime, stats.renderTime, stats.redraws)
}

// debugCheckTreeDepth warns on stderr if tree depth exceeds the threshold.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.Parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		_, _ = fmt.Fprintf(os.Stderr, "[canopy] warning: tree depth %d exceeds %d (node %q)\n",
			depth, debugMaxTreeDepth, n.Name)
	}
}
