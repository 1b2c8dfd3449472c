package rbac

// Package rbac flattens the static activity-code hierarchy into the accepted
// role/activity code sets and classifies raw identity claims against them.
// It is pure and free of I/O.

import "sort"

// ActivityCode is one node of the role-derivation hierarchy. Children are
// value copies, so the same leaf may be reused under multiple parents
// without forming a cycle.
type ActivityCode struct {
	Code              string
	BaselineRoleCodes []string
	Children          map[string]ActivityCode
}

// Hierarchy is the root level of an activity-code tree, keyed by code.
type Hierarchy map[string]ActivityCode

// CodeSet is an insertion-order-preserving string set. Iteration order
// follows first discovery; membership is what matters semantically.
type CodeSet struct {
	order []string
	seen  map[string]struct{}
}

// NewCodeSet returns a CodeSet seeded with the given codes.
func NewCodeSet(codes ...string) *CodeSet {
	s := &CodeSet{seen: make(map[string]struct{}, len(codes))}
	for _, c := range codes {
		s.Add(c)
	}
	return s
}

// Add inserts a code, ignoring duplicates.
func (s *CodeSet) Add(code string) {
	if _, ok := s.seen[code]; ok {
		return
	}
	s.seen[code] = struct{}{}
	s.order = append(s.order, code)
}

// Contains reports set membership.
func (s *CodeSet) Contains(code string) bool {
	_, ok := s.seen[code]
	return ok
}

// Values returns the codes in first-discovery order.
func (s *CodeSet) Values() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of distinct codes.
func (s *CodeSet) Len() int { return len(s.order) }

// ExtractAccessCodes flattens the hierarchy into the complete accepted
// role-code and activity-code sets via depth-first traversal. Each node
// contributes its own code and baseline role codes; shared subtrees are
// deduplicated by the set semantics.
func ExtractAccessCodes(h Hierarchy) (roleCodes, activityCodes *CodeSet) {
	roleCodes = NewCodeSet()
	activityCodes = NewCodeSet()
	for _, code := range sortedKeys(h) {
		collect(h[code], roleCodes, activityCodes)
	}
	return roleCodes, activityCodes
}

func collect(node ActivityCode, roleCodes, activityCodes *CodeSet) {
	activityCodes.Add(node.Code)
	for _, rc := range node.BaselineRoleCodes {
		roleCodes.Add(rc)
	}
	for _, code := range sortedKeys(node.Children) {
		collect(node.Children[code], roleCodes, activityCodes)
	}
}

// sortedKeys gives the traversal a deterministic order; map iteration order
// would otherwise vary between runs.
func sortedKeys(m map[string]ActivityCode) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
