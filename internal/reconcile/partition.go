// Package reconcile partitions incoming record batches against a cached
// snapshot to decide which records to create and which to update.
package reconcile

// Partition splits live records into create and update sets keyed by the
// identity function. Within live, a later record with the same key wins;
// output order follows the first occurrence of each key, so identical
// inputs always yield identical partitions.
func Partition[T any](live, cache []T, key func(T) string) (toCreate []T, toUpdate map[string]T) {
	cacheKeys := make(map[string]struct{}, len(cache))
	for _, rec := range cache {
		cacheKeys[key(rec)] = struct{}{}
	}

	liveByKey := make(map[string]T, len(live))
	order := make([]string, 0, len(live))
	for _, rec := range live {
		k := key(rec)
		if _, seen := liveByKey[k]; !seen {
			order = append(order, k)
		}
		liveByKey[k] = rec
	}

	toUpdate = make(map[string]T)
	for _, k := range order {
		if _, exists := cacheKeys[k]; exists {
			toUpdate[k] = liveByKey[k]
		} else {
			toCreate = append(toCreate, liveByKey[k])
		}
	}
	return toCreate, toUpdate
}
