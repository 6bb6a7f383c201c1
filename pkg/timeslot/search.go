package timeslot

import "slices"

// Boundary sequences hold many points that compare equal (same position and
// kind, different IDs). A plain binary search lands on an arbitrary member of
// such a run, so every lookup goes through the run edges below.

// lowerBound returns the index of the first point not less than key.
func lowerBound(points []BoundaryPoint, key BoundaryPoint) int {
	i, _ := slices.BinarySearchFunc(points, key, Compare)

	return i
}

// upperBound returns the index of the first point greater than key.
func upperBound(points []BoundaryPoint, key BoundaryPoint) int {
	i, _ := slices.BinarySearchFunc(points, key, func(p, k BoundaryPoint) int {
		if Compare(p, k) <= 0 {
			return -1
		}

		return 1
	})

	return i
}

// equalRun returns the half-open index range [lo, hi) of points equal to key.
func equalRun(points []BoundaryPoint, key BoundaryPoint) (int, int) {
	return lowerBound(points, key), upperBound(points, key)
}

// locate finds the index of the point equal to p that carries p's ID,
// scanning the equal run from its last element backward.
func locate(points []BoundaryPoint, p BoundaryPoint) (int, bool) {
	lo, hi := equalRun(points, p)

	for i := hi - 1; i >= lo; i-- {
		if points[i].ID == p.ID {
			return i, true
		}
	}

	return -1, false
}

// insertFirst places p ahead of every point equal to it: among equal points
// the newest comes first.
func insertFirst(points []BoundaryPoint, p BoundaryPoint) []BoundaryPoint {
	return slices.Insert(points, lowerBound(points, p), p)
}

// insertLast places p after every point equal to it.
func insertLast(points []BoundaryPoint, p BoundaryPoint) []BoundaryPoint {
	return slices.Insert(points, upperBound(points, p), p)
}
