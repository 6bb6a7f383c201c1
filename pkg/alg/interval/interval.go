// Package interval provides a generic augmented interval tree for
// range-overlap queries. Insert and Delete are O(log N); QueryOverlap and
// QueryPoint are O(log N + k), where k is the number of reported intervals.
//
// The tree is a red-black tree ordered by (Low, High). Every node stores the
// largest High found in its subtree (maxHigh), which lets overlap queries
// skip whole subtrees that end before the query starts.
//
// Intervals are closed: [Low, High]. Callers that need half-open semantics
// filter the reported intervals themselves.
package interval

import "cmp"

// Interval is a closed range [Low, High] carrying a Value.
type Interval[K cmp.Ordered, V comparable] struct {
	Low   K
	High  K
	Value V
}

// Tree is an augmented interval tree. The zero value is an empty tree.
type Tree[K cmp.Ordered, V comparable] struct {
	root *node[K, V]
	size int
}

type node[K cmp.Ordered, V comparable] struct {
	iv          Interval[K, V]
	maxHigh     K
	left, right *node[K, V]
	parent      *node[K, V]
	color       color
}

type color bool

const (
	red   color = false
	black color = true
)

// New creates an empty interval tree.
func New[K cmp.Ordered, V comparable]() *Tree[K, V] {
	return &Tree[K, V]{}
}

// Len returns the number of intervals in the tree.
func (t *Tree[K, V]) Len() int {
	return t.size
}

// Clear removes all intervals from the tree.
func (t *Tree[K, V]) Clear() {
	t.root = nil
	t.size = 0
}

// Insert adds the interval [low, high] with the given value.
// Duplicates (same bounds, same value) are stored as separate entries.
func (t *Tree[K, V]) Insert(low, high K, value V) {
	n := &node[K, V]{
		iv:      Interval[K, V]{Low: low, High: high, Value: value},
		maxHigh: high,
		color:   red,
	}

	t.bstInsert(n)
	t.insertFixup(n)
	t.size++
}

// Delete removes one interval matching [low, high] and value.
// Returns false if no such interval is stored.
func (t *Tree[K, V]) Delete(low, high K, value V) bool {
	n := t.findExact(t.root, Interval[K, V]{Low: low, High: high, Value: value})
	if n == nil {
		return false
	}

	t.deleteNode(n)
	t.size--

	return true
}

// QueryOverlap returns all intervals [a, b] with a <= high and b >= low,
// ordered by (Low, High).
func (t *Tree[K, V]) QueryOverlap(low, high K) []Interval[K, V] {
	if t.root == nil {
		return nil
	}

	var results []Interval[K, V]

	t.VisitOverlap(low, high, func(iv Interval[K, V]) bool {
		results = append(results, iv)

		return true
	})

	return results
}

// QueryPoint returns all intervals containing point.
func (t *Tree[K, V]) QueryPoint(point K) []Interval[K, V] {
	return t.QueryOverlap(point, point)
}

// VisitOverlap calls fn for every interval overlapping [low, high] in
// (Low, High) order. Returning false from fn stops the walk.
func (t *Tree[K, V]) VisitOverlap(low, high K, fn func(Interval[K, V]) bool) {
	visitOverlap(t.root, low, high, fn)
}

func visitOverlap[K cmp.Ordered, V comparable](n *node[K, V], low, high K, fn func(Interval[K, V]) bool) bool {
	if n == nil || n.maxHigh < low {
		return true
	}

	if !visitOverlap(n.left, low, high, fn) {
		return false
	}

	if n.iv.Low > high {
		return true
	}

	if n.iv.High >= low && !fn(n.iv) {
		return false
	}

	return visitOverlap(n.right, low, high, fn)
}

func (t *Tree[K, V]) bstInsert(n *node[K, V]) {
	if t.root == nil {
		t.root = n

		return
	}

	current := t.root

	for {
		if n.iv.High > current.maxHigh {
			current.maxHigh = n.iv.High
		}

		if compareBounds(n.iv, current.iv) < 0 {
			if current.left == nil {
				current.left = n
				n.parent = current

				return
			}

			current = current.left

			continue
		}

		if current.right == nil {
			current.right = n
			n.parent = current

			return
		}

		current = current.right
	}
}

// findExact locates a node with equal bounds and value. Equal bounds may
// sit on either side of a node after rotations, so both subtrees are
// searched on a bounds tie.
func (t *Tree[K, V]) findExact(n *node[K, V], target Interval[K, V]) *node[K, V] {
	for n != nil {
		c := compareBounds(target, n.iv)

		switch {
		case c < 0:
			n = n.left
		case c > 0:
			n = n.right
		default:
			if n.iv.Value == target.Value {
				return n
			}

			if found := t.findExact(n.left, target); found != nil {
				return found
			}

			n = n.right
		}
	}

	return nil
}

func (t *Tree[K, V]) deleteNode(n *node[K, V]) {
	if n.left != nil && n.right != nil {
		succ := minimum(n.right)
		n.iv = succ.iv
		n = succ
	}

	repl := n.left
	if repl == nil {
		repl = n.right
	}

	needFixup := n.color == black
	wasLeft := n.parent != nil && n == n.parent.left

	t.transplant(n, repl)
	propagateMaxHigh(n.parent)

	if !needFixup {
		return
	}

	if repl != nil {
		t.deleteFixup(repl)

		return
	}

	if n.parent != nil {
		t.deleteFixupLeaf(n.parent, wasLeft)
	}
}

func (t *Tree[K, V]) transplant(u, v *node[K, V]) {
	switch {
	case u.parent == nil:
		t.root = v
	case u == u.parent.left:
		u.parent.left = v
	default:
		u.parent.right = v
	}

	if v != nil {
		v.parent = u.parent
	}
}

func (t *Tree[K, V]) insertFixup(n *node[K, V]) {
	for n != t.root && colorOf(n.parent) == red {
		parent := n.parent

		grandparent := parent.parent
		if grandparent == nil {
			break
		}

		n = t.insertFixupSide(n, parent, grandparent, parent == grandparent.left)
	}

	t.root.color = black
}

// insertFixupSide handles one mirror image of the insert fixup; leftCase
// means parent is grandparent.left.
func (t *Tree[K, V]) insertFixupSide(n, parent, grandparent *node[K, V], leftCase bool) *node[K, V] {
	uncle := child(grandparent, !leftCase)

	if colorOf(uncle) == red {
		parent.color = black
		uncle.color = black
		grandparent.color = red

		return grandparent
	}

	if n == child(parent, !leftCase) {
		t.rotate(parent, leftCase)
		n, parent = parent, n
	}

	parent.color = black
	grandparent.color = red
	t.rotate(grandparent, !leftCase)

	return n
}

func (t *Tree[K, V]) deleteFixup(x *node[K, V]) {
	for x != t.root && colorOf(x) == black {
		if x.parent == nil {
			break
		}

		x = t.deleteFixupSide(x.parent, x == x.parent.left)
	}

	setBlack(x)
}

func (t *Tree[K, V]) deleteFixupSide(parent *node[K, V], isLeft bool) *node[K, V] {
	sibling := child(parent, !isLeft)
	if sibling == nil {
		return parent
	}

	if colorOf(sibling) == red {
		sibling.color = black
		parent.color = red
		t.rotate(parent, isLeft)

		sibling = child(parent, !isLeft)
		if sibling == nil {
			return parent
		}
	}

	outer := child(sibling, !isLeft)
	inner := child(sibling, isLeft)

	if colorOf(inner) == black && colorOf(outer) == black {
		sibling.color = red

		return parent
	}

	if colorOf(outer) == black {
		setBlack(inner)

		sibling.color = red
		t.rotate(sibling, !isLeft)

		sibling = child(parent, !isLeft)
	}

	if sibling != nil {
		sibling.color = parent.color
	}

	parent.color = black

	setBlack(child(sibling, !isLeft))
	t.rotate(parent, isLeft)

	return t.root
}

// deleteFixupLeaf rebalances after a childless black node was unlinked from
// parent; wasLeft tells which side of parent is now the missing black.
func (t *Tree[K, V]) deleteFixupLeaf(parent *node[K, V], wasLeft bool) {
	for parent != nil {
		if t.leafFixupStep(parent, wasLeft) {
			return
		}

		if parent.parent != nil {
			wasLeft = parent == parent.parent.left
		}

		parent = parent.parent
	}
}

// leafFixupStep runs one iteration of the leaf fixup and reports whether
// the tree is balanced again.
func (t *Tree[K, V]) leafFixupStep(parent *node[K, V], isLeft bool) bool {
	sibling := child(parent, !isLeft)
	if sibling == nil {
		return false
	}

	if colorOf(sibling) == red {
		sibling.color = black
		parent.color = red
		t.rotate(parent, isLeft)

		sibling = child(parent, !isLeft)
		if sibling == nil {
			return true
		}
	}

	outer := child(sibling, !isLeft)
	inner := child(sibling, isLeft)

	if colorOf(inner) == black && colorOf(outer) == black {
		sibling.color = red

		if parent.color == red {
			parent.color = black

			return true
		}

		return false
	}

	if colorOf(outer) == black {
		setBlack(inner)

		sibling.color = red
		t.rotate(sibling, !isLeft)

		sibling = child(parent, !isLeft)
		outer = child(sibling, !isLeft)
	}

	if sibling != nil {
		sibling.color = parent.color
	}

	parent.color = black

	setBlack(outer)
	t.rotate(parent, isLeft)

	return true
}

// rotate rotates left around n when left is true, right otherwise, and
// recomputes maxHigh for the two nodes whose subtrees changed.
func (t *Tree[K, V]) rotate(n *node[K, V], left bool) {
	var pivot *node[K, V]

	if left {
		pivot = n.right
		n.right = pivot.left

		if pivot.left != nil {
			pivot.left.parent = n
		}

		pivot.left = n
	} else {
		pivot = n.left
		n.left = pivot.right

		if pivot.right != nil {
			pivot.right.parent = n
		}

		pivot.right = n
	}

	pivot.parent = n.parent

	switch {
	case n.parent == nil:
		t.root = pivot
	case n == n.parent.left:
		n.parent.left = pivot
	default:
		n.parent.right = pivot
	}

	n.parent = pivot

	recalcMaxHigh(n)
	recalcMaxHigh(pivot)
}

// compareBounds orders intervals by Low, then High.
func compareBounds[K cmp.Ordered, V comparable](a, b Interval[K, V]) int {
	if c := cmp.Compare(a.Low, b.Low); c != 0 {
		return c
	}

	return cmp.Compare(a.High, b.High)
}

func colorOf[K cmp.Ordered, V comparable](n *node[K, V]) color {
	if n == nil {
		return black
	}

	return n.color
}

func setBlack[K cmp.Ordered, V comparable](n *node[K, V]) {
	if n != nil {
		n.color = black
	}
}

func child[K cmp.Ordered, V comparable](n *node[K, V], left bool) *node[K, V] {
	if n == nil {
		return nil
	}

	if left {
		return n.left
	}

	return n.right
}

func recalcMaxHigh[K cmp.Ordered, V comparable](n *node[K, V]) {
	if n == nil {
		return
	}

	m := n.iv.High

	if n.left != nil && n.left.maxHigh > m {
		m = n.left.maxHigh
	}

	if n.right != nil && n.right.maxHigh > m {
		m = n.right.maxHigh
	}

	n.maxHigh = m
}

func propagateMaxHigh[K cmp.Ordered, V comparable](n *node[K, V]) {
	for ; n != nil; n = n.parent {
		recalcMaxHigh(n)
	}
}

func minimum[K cmp.Ordered, V comparable](n *node[K, V]) *node[K, V] {
	for n.left != nil {
		n = n.left
	}

	return n
}
