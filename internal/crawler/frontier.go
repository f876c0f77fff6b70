package crawler

// FrontierItem is a pending URL together with its discovery depth.
type FrontierItem struct {
	URL   string
	Depth int
}

// Frontier owns the queue of pending URLs, the visited set, and the depth
// ceiling. URLs are dequeued in FIFO order, so the traversal is
// breadth-first. The frontier is only touched from the controller's single
// loop; no locking is needed.
//
// Invariant: a URL never appears twice across queue and visited set. A URL
// is added to the visited set the moment it is accepted into the queue, so
// the reservation doubles as the duplicate guard and every URL reaches the
// fetch pipeline at most once per run.
type Frontier struct {
	queue    []FrontierItem
	visited  map[string]struct{}
	maxDepth int
}

// NewFrontier creates an empty frontier with the given depth ceiling.
func NewFrontier(maxDepth int) *Frontier {
	return &Frontier{
		visited:  make(map[string]struct{}),
		maxDepth: maxDepth,
	}
}

// Seed enqueues the starting URL at depth 0.
func (f *Frontier) Seed(startURL string) {
	f.Offer(startURL, 0)
}

// Offer inserts a candidate URL at the given depth. It reports false when
// the depth exceeds the ceiling or the URL has already been seen. Depth is
// enforced here, at enqueue time, not at dequeue time; the first discovery
// depth of a URL wins.
func (f *Frontier) Offer(candidate string, depth int) bool {
	if depth > f.maxDepth {
		return false
	}
	if _, seen := f.visited[candidate]; seen {
		return false
	}

	f.visited[candidate] = struct{}{}
	f.queue = append(f.queue, FrontierItem{URL: candidate, Depth: depth})
	return true
}

// Next removes and returns the next pending item. It reports false when the
// frontier is empty.
func (f *Frontier) Next() (FrontierItem, bool) {
	if len(f.queue) == 0 {
		return FrontierItem{}, false
	}

	item := f.queue[0]
	f.queue = f.queue[1:]
	return item, true
}

// Len returns the number of pending URLs.
func (f *Frontier) Len() int {
	return len(f.queue)
}

// VisitedCount returns the number of URLs ever accepted into the frontier.
func (f *Frontier) VisitedCount() int {
	return len(f.visited)
}
