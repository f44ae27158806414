package planclient

// Delta is the three-way diff of one collection: entities only in next
// (creates), in both with different payloads (updates), and only in prev
// (deletes). Deletes are informational; Sync never issues them.
type Delta[T any] struct {
	Creates []T
	Updates []T
	Deletes []T
}

// Changed reports whether the delta carries anything Sync would send.
func (d Delta[T]) Changed() bool {
	return len(d.Creates) > 0 || len(d.Updates) > 0
}

// diffCollection keys both slices by keyOf and compares entities by the
// canonical JSON of their wire payload, so persistence-managed fields never
// register as changes.
func diffCollection[T any](prev, next []T, keyOf func(T) string, payload func(T) map[string]any) Delta[T] {
	prevByKey := make(map[string]T, len(prev))
	for _, item := range prev {
		prevByKey[keyOf(item)] = item
	}

	var delta Delta[T]
	seen := make(map[string]struct{}, len(next))
	for _, item := range next {
		key := keyOf(item)
		seen[key] = struct{}{}
		before, ok := prevByKey[key]
		if !ok {
			delta.Creates = append(delta.Creates, item)
			continue
		}
		if canonical(payload(before)) != canonical(payload(item)) {
			delta.Updates = append(delta.Updates, item)
		}
	}
	for _, item := range prev {
		if _, ok := seen[keyOf(item)]; !ok {
			delta.Deletes = append(delta.Deletes, item)
		}
	}
	return delta
}
