// Package common holds small generic helpers shared by the kernel package
// and cmd/echokernel.
package common

import (
	"sort"

	"k8s.io/klog/v2"
)

// Set implements a set for the comparable key type T.
type Set[T comparable] map[T]struct{}

// MakeSet returns an empty Set of the given type. size is optional, and if
// given reserves the expected capacity.
func MakeSet[T comparable](size ...int) Set[T] {
	if len(size) == 0 {
		return make(Set[T])
	}
	return make(Set[T], size[0])
}

// Has returns true if Set s has the given key.
func (s Set[T]) Has(key T) bool {
	_, found := s[key]
	return found
}

// Insert key into set.
func (s Set[T]) Insert(key T) {
	s[key] = struct{}{}
}

// Delete key from set, if present.
func (s Set[T]) Delete(key T) {
	delete(s, key)
}

// Len returns the number of elements in the set.
func (s Set[T]) Len() int {
	return len(s)
}

// SortedKeys enumerates keys from a string-keyed map and returns them sorted.
func SortedKeys[T any](m map[string]T) (keys []string) {
	keys = make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return
}

// ReportError logs an error at warning level but otherwise ignores it. Used
// at fire-and-forget boundaries (publishing an iopub message from a deferred
// cleanup, for instance) where there is no caller left to propagate to.
func ReportError(err error) {
	if err != nil {
		klog.Warningf("unhandled error: %+v", err)
	}
}
