package tree

// MaxIncremerkles is the number of recent states kept to serve proofs and short reorgs
const MaxIncremerkles = 10

// Incremerkles is a bounded list of recent incremerkle states, newest first.
// The block number of a state is its node count
type Incremerkles struct {
	states []*Incremerkle
	max    int
}

// NewIncremerkles creates a list keeping at most max states. Non positive max means MaxIncremerkles
func NewIncremerkles(max int) *Incremerkles {
	if max <= 0 {
		max = MaxIncremerkles
	}
	return &Incremerkles{max: max}
}

// Add stores a copy of t if it is newer than the latest state. It reports whether t was added
func (l *Incremerkles) Add(t *Incremerkle) bool {
	if latest := l.Latest(); latest != nil && t.NodeCount() <= latest.NodeCount() {
		return false
	}
	l.states = append([]*Incremerkle{t.Copy()}, l.states...)
	if len(l.states) > l.max {
		l.states = l.states[:l.max]
	}
	return true
}

// Latest returns the newest state or nil if the list is empty
func (l *Incremerkles) Latest() *Incremerkle {
	if len(l.states) == 0 {
		return nil
	}
	return l.states[0]
}

// ByBlockNum returns a copy of the state for blockNum, if still kept
func (l *Incremerkles) ByBlockNum(blockNum uint64) (*Incremerkle, bool) {
	for _, s := range l.states {
		if s.NodeCount() == blockNum {
			return s.Copy(), true
		}
	}
	return nil, false
}

// DropFrom removes the states for blockNum and later
func (l *Incremerkles) DropFrom(blockNum uint64) {
	kept := l.states[:0]
	for _, s := range l.states {
		if s.NodeCount() < blockNum {
			kept = append(kept, s)
		}
	}
	l.states = kept
}

func (l *Incremerkles) Len() int {
	return len(l.states)
}
