// Package eidcache implements the engine's two-tier cache: a
// per-element memoization table that must never extend an element's
// lifetime, and a bounded selector-result LRU shared across targets.
package eidcache

import (
	"container/list"
	"runtime"
	"sync"
	"weak"

	"github.com/anchorkit/anchorkit/pkg/domtree"
	"github.com/anchorkit/anchorkit/pkg/eid"
	"github.com/anchorkit/anchorkit/pkg/eidlog"
)

// DefaultSelectorCapacity bounds the selector-result LRU absent an
// explicit capacity.
const DefaultSelectorCapacity = 1000

// elementEntry holds whatever has been memoized for one live element.
// Fields are filled in lazily as each stage runs.
type elementEntry struct {
	anchor    *eid.AnchorNode
	semantics *eid.ElementSemantics
	full      *eid.EID
}

// Cache is a single engine's per-element and selector caches. The zero
// value is not usable; construct with New.
type Cache struct {
	mu       sync.Mutex
	elements map[weak.Pointer[domtree.Element]]*elementEntry
	selector *selectorLRU
	log      eidlog.Logger
}

// New builds a Cache whose selector LRU holds at most selectorCapacity
// entries. A non-positive capacity uses DefaultSelectorCapacity.
func New(selectorCapacity int) *Cache {
	if selectorCapacity <= 0 {
		selectorCapacity = DefaultSelectorCapacity
	}
	return &Cache{
		elements: make(map[weak.Pointer[domtree.Element]]*elementEntry),
		selector: newSelectorLRU(selectorCapacity),
		log:      eidlog.Noop(),
	}
}

// SetLogger wires a logger that observes per-element reclamation and
// selector-LRU evictions. A nil logger restores the default no-op.
func (c *Cache) SetLogger(l eidlog.Logger) {
	if l == nil {
		l = eidlog.Noop()
	}
	c.mu.Lock()
	c.log = l
	c.selector.mu.Lock()
	c.selector.log = l
	c.selector.mu.Unlock()
	c.mu.Unlock()
}

var (
	defaultOnce  sync.Once
	defaultCache *Cache
)

// Default returns the process-wide cache generate/resolve fall back to
// when the caller supplies no explicit handle.
func Default() *Cache {
	defaultOnce.Do(func() { defaultCache = New(DefaultSelectorCapacity) })
	return defaultCache
}

// entry returns el's memoization slot, creating one (and registering a
// cleanup to drop it once el is collected) if this is the first time
// el has been seen.
func (c *Cache) entry(el *domtree.Element) *elementEntry {
	key := weak.Make(el)

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.elements[key]; ok {
		return e
	}
	e := &elementEntry{}
	c.elements[key] = e
	runtime.AddCleanup(el, c.evictElement, key)
	return e
}

func (c *Cache) evictElement(key weak.Pointer[domtree.Element]) {
	c.mu.Lock()
	delete(c.elements, key)
	log := c.log
	c.mu.Unlock()
	log.Debug("eidcache: reclaimed element entry")
}

// GetAnchor returns the memoized anchor result for el, if any.
func (c *Cache) GetAnchor(el *domtree.Element) (eid.AnchorNode, bool) {
	c.mu.Lock()
	key := weak.Make(el)
	e, ok := c.elements[key]
	c.mu.Unlock()
	if !ok || e.anchor == nil {
		return eid.AnchorNode{}, false
	}
	return *e.anchor, true
}

// PutAnchor memoizes a's anchor result for el.
func (c *Cache) PutAnchor(el *domtree.Element, a eid.AnchorNode) {
	e := c.entry(el)
	c.mu.Lock()
	e.anchor = &a
	c.mu.Unlock()
}

// GetSemantics returns the memoized extraction for el, if any.
func (c *Cache) GetSemantics(el *domtree.Element) (eid.ElementSemantics, bool) {
	c.mu.Lock()
	key := weak.Make(el)
	e, ok := c.elements[key]
	c.mu.Unlock()
	if !ok || e.semantics == nil {
		return eid.ElementSemantics{}, false
	}
	return *e.semantics, true
}

// PutSemantics memoizes sem as el's extraction result.
func (c *Cache) PutSemantics(el *domtree.Element, sem eid.ElementSemantics) {
	e := c.entry(el)
	c.mu.Lock()
	e.semantics = &sem
	c.mu.Unlock()
}

// GetEID returns the memoized complete EID for el, if any.
func (c *Cache) GetEID(el *domtree.Element) (eid.EID, bool) {
	c.mu.Lock()
	key := weak.Make(el)
	e, ok := c.elements[key]
	c.mu.Unlock()
	if !ok || e.full == nil {
		return eid.EID{}, false
	}
	return *e.full, true
}

// PutEID memoizes the complete generated EID for el.
func (c *Cache) PutEID(el *domtree.Element, e eid.EID) {
	entry := c.entry(el)
	c.mu.Lock()
	entry.full = &e
	c.mu.Unlock()
}

// Forget drops every memoized entry for el, e.g. after the caller
// mutates it in a way that invalidates prior results.
func (c *Cache) Forget(el *domtree.Element) {
	c.mu.Lock()
	delete(c.elements, weak.Make(el))
	c.mu.Unlock()
}

// GetSelector returns the cached candidate list for selector, if any.
func (c *Cache) GetSelector(selector string) ([]*domtree.Element, bool) {
	return c.selector.get(selector)
}

// PutSelector caches results as the candidate list for selector,
// evicting the least recently used entry if the LRU is full.
func (c *Cache) PutSelector(selector string, results []*domtree.Element) {
	c.selector.put(selector, results)
}

// selectorLRU is a fixed-capacity least-recently-used cache keyed by
// selector string, separate from the per-element cache because the
// same selector recurs across different targets during disambiguation.
type selectorLRU struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	index    map[string]*list.Element
	log      eidlog.Logger
}

type selectorEntry struct {
	key     string
	results []*domtree.Element
}

func newSelectorLRU(capacity int) *selectorLRU {
	return &selectorLRU{
		capacity: capacity,
		ll:       list.New(),
		index:    make(map[string]*list.Element),
		log:      eidlog.Noop(),
	}
}

func (s *selectorLRU) get(key string) ([]*domtree.Element, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.index[key]
	if !ok {
		return nil, false
	}
	s.ll.MoveToFront(el)
	return el.Value.(*selectorEntry).results, true
}

func (s *selectorLRU) put(key string, results []*domtree.Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.index[key]; ok {
		el.Value.(*selectorEntry).results = results
		s.ll.MoveToFront(el)
		return
	}
	el := s.ll.PushFront(&selectorEntry{key: key, results: results})
	s.index[key] = el
	if s.ll.Len() > s.capacity {
		oldest := s.ll.Back()
		if oldest != nil {
			evicted := oldest.Value.(*selectorEntry)
			s.ll.Remove(oldest)
			delete(s.index, evicted.key)
			s.log.Debug("eidcache: evicted selector entry", "selector", evicted.key)
		}
	}
}
