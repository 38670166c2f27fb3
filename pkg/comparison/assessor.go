package comparison

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Assessment is the category hierarchy's answer to "is child already
// counted inside parent's reported activity?".
type Assessment struct {
	Included bool
	Reason   string
}

// InclusionAssessor queries the category hierarchy.
type InclusionAssessor interface {
	AssessInclusion(ctx context.Context, childID, parentID int) (Assessment, error)
}

// AssessorFunc adapts a function to InclusionAssessor.
type AssessorFunc func(ctx context.Context, childID, parentID int) (Assessment, error)

// AssessInclusion implements InclusionAssessor.
func (f AssessorFunc) AssessInclusion(ctx context.Context, childID, parentID int) (Assessment, error) {
	return f(ctx, childID, parentID)
}

// CachedAssessor memoises successful assessments for the page session and
// collapses concurrent lookups of the same pair into one call.
type CachedAssessor struct {
	next  InclusionAssessor
	group singleflight.Group

	mu    sync.RWMutex
	cache map[[2]int]Assessment
}

// NewCachedAssessor wraps next.
func NewCachedAssessor(next InclusionAssessor) *CachedAssessor {
	return &CachedAssessor{next: next, cache: make(map[[2]int]Assessment)}
}

// AssessInclusion returns the cached answer or asks the wrapped assessor.
// Failures are not cached.
func (c *CachedAssessor) AssessInclusion(ctx context.Context, childID, parentID int) (Assessment, error) {
	key := [2]int{childID, parentID}
	c.mu.RLock()
	a, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return a, nil
	}

	v, err, _ := c.group.Do(fmt.Sprintf("%d/%d", childID, parentID), func() (interface{}, error) {
		a, err := c.next.AssessInclusion(ctx, childID, parentID)
		if err != nil {
			return Assessment{}, err
		}
		c.mu.Lock()
		c.cache[key] = a
		c.mu.Unlock()
		return a, nil
	})
	if err != nil {
		return Assessment{}, err
	}
	return v.(Assessment), nil
}

// Len reports the number of cached pairs.
func (c *CachedAssessor) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}
