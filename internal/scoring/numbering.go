package scoring

// Numbering hands out canonical question numbers for one scoring walk. The
// numbers it returns are strictly increasing, so every row is unique.
type Numbering struct {
	next int
}

// NewNumbering starts a counter at 1.
func NewNumbering() *Numbering {
	return &Numbering{next: 1}
}

// Begin opens a section. An explicit start moves the counter forward; it
// never moves it back.
func (n *Numbering) Begin(explicitStart int) int {
	if explicitStart > n.next {
		n.next = explicitStart
	}
	return n.next
}

// Take claims the next number, jumping forward to desired when that is
// later than the counter.
func (n *Numbering) Take(desired int) int {
	num := n.next
	if desired > num {
		num = desired
	}
	n.next = num + 1
	return num
}

// Next is the number the following Take would return without a desired
// number.
func (n *Numbering) Next() int {
	return n.next
}
