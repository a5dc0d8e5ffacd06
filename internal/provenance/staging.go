package provenance

// stagingNode is one fixed-capacity chunk of the staging list.
// len(batches) is the used slot count; cap(batches) is the node capacity.
type stagingNode struct {
	batches []Batch
	next    *stagingNode // older node
}

// staging is the append-only list of registered but not yet indexed batches.
// The newest node is the head. Every node behind the head is full.
//
// staging is not safe for concurrent use; Map serializes access.
type staging struct {
	head     *stagingNode
	capacity int
	checks   bool

	nodes   int
	batches int
}

func newStaging(capacity int, checks bool) staging {
	return staging{capacity: capacity, checks: checks}
}

func (s *staging) newNode(b Batch, next *stagingNode) *stagingNode {
	n := &stagingNode{
		batches: make([]Batch, 1, s.capacity),
		next:    next,
	}
	n.batches[0] = b
	s.nodes++
	return n
}

// push appends b. Amortized O(1); allocates a node only when the head is full.
func (s *staging) push(b Batch) {
	switch {
	case s.head == nil:
		s.head = s.newNode(b, nil)
	case len(s.head.batches) < s.capacity:
		s.head.batches = append(s.head.batches, b)
		s.checkOlderFull(s.head)
	default:
		s.head = s.newNode(b, s.head)
		s.checkOlderFull(s.head)
	}
	s.batches++
}

// empty reports whether nothing is staged.
func (s *staging) empty() bool {
	return s.head == nil
}

// chain returns the staged nodes oldest first.
func (s *staging) chain() []*stagingNode {
	nodes := make([]*stagingNode, 0, s.nodes)
	for n := s.head; n != nil; n = n.next {
		nodes = append(nodes, n)
	}
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	return nodes
}

// take detaches every staged node, oldest first, and leaves the list empty.
func (s *staging) take() []*stagingNode {
	nodes := s.chain()
	for i, n := range nodes {
		s.checkNode(n, i == len(nodes)-1)
	}
	s.head = nil
	s.nodes = 0
	s.batches = 0
	return nodes
}

// release drops a drained node's references so the batches can be collected.
func (n *stagingNode) release() {
	clear(n.batches)
	n.batches = nil
	n.next = nil
}

func (s *staging) checkOlderFull(head *stagingNode) {
	if !s.checks || head.next == nil {
		return
	}
	if c := len(head.next.batches); c != s.capacity {
		panic(&InvariantError{Check: "node behind head is not full", Count: c, Capacity: s.capacity})
	}
}

func (s *staging) checkNode(n *stagingNode, isHead bool) {
	if !s.checks {
		return
	}
	c := len(n.batches)
	if c <= 0 || c > s.capacity {
		panic(&InvariantError{Check: "node slot count out of range", Count: c, Capacity: s.capacity})
	}
	if !isHead && c != s.capacity {
		panic(&InvariantError{Check: "node behind head is not full", Count: c, Capacity: s.capacity})
	}
}
