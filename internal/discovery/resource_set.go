package discovery

import (
	"sync"

	"github.com/aleister1102/jssecretscanner/internal/models"
)

// ResourceSet is the ordered, deduplicated and capped set of script
// resources of one scan. Order numbers start at 1 and follow insertion.
type ResourceSet struct {
	mu   sync.Mutex
	max  int
	seen map[string]struct{}
	refs []models.ResourceRef
}

// NewResourceSet creates a set that holds at most max refs.
func NewResourceSet(max int) *ResourceSet {
	return &ResourceSet{
		max:  max,
		seen: make(map[string]struct{}),
	}
}

// Add inserts ref unless its URL is already present or the set is full. The
// stored ref, with its Order assigned, is returned on success.
func (s *ResourceSet) Add(ref models.ResourceRef) (models.ResourceRef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.refs) >= s.max {
		return models.ResourceRef{}, false
	}
	if _, dup := s.seen[ref.URL]; dup {
		return models.ResourceRef{}, false
	}
	ref.Order = len(s.refs) + 1
	s.seen[ref.URL] = struct{}{}
	s.refs = append(s.refs, ref)
	return ref, true
}

// Contains reports whether url was added.
func (s *ResourceSet) Contains(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[url]
	return ok
}

// Full reports whether the cap is reached.
func (s *ResourceSet) Full() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.refs) >= s.max
}

// Len returns the number of refs.
func (s *ResourceSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.refs)
}

// Refs returns a copy of the refs in insertion order.
func (s *ResourceSet) Refs() []models.ResourceRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ResourceRef, len(s.refs))
	copy(out, s.refs)
	return out
}

// Frontier drives breadth-first expansion over a ResourceSet. Depth 0 is the
// entry document; children of a depth d resource are kept only while
// d+1 <= maxDepth.
type Frontier struct {
	set      *ResourceSet
	maxDepth int
	next     []models.ResourceRef
}

// NewFrontier creates a frontier over set.
func NewFrontier(set *ResourceSet, maxDepth int) *Frontier {
	return &Frontier{set: set, maxDepth: maxDepth}
}

// Expand queues the children of a resource found at parentDepth and returns
// how many were accepted into the set.
func (f *Frontier) Expand(parentDepth int, children []models.ResourceRef) int {
	depth := parentDepth + 1
	if depth > f.maxDepth {
		return 0
	}
	added := 0
	for _, child := range children {
		child.Depth = depth
		stored, ok := f.set.Add(child)
		if !ok {
			if f.set.Full() {
				break
			}
			continue
		}
		f.next = append(f.next, stored)
		added++
	}
	return added
}

// Next returns the queued level and clears it.
func (f *Frontier) Next() []models.ResourceRef {
	level := f.next
	f.next = nil
	return level
}

// WantsChildren reports whether children of a resource at depth are kept.
func (f *Frontier) WantsChildren(depth int) bool {
	return depth+1 <= f.maxDepth
}
