package sim

// PartitionPlan assigns each producer a contiguous, non-overlapping slice of
// the source id range [1, n]. The union of all slices is the full range.
type PartitionPlan [][]int

// NewPartitionPlan splits [1, items] across producers. The first
// items%producers partitions receive one extra id, so no two partitions
// differ in size by more than one. Partitions are empty when producers > items.
func NewPartitionPlan(items, producers int) (PartitionPlan, error) {
	if err := mustBePositive("number_of_items", items); err != nil {
		return nil, err
	}
	if err := mustBePositive("num_producers", producers); err != nil {
		return nil, err
	}

	chunk := items / producers
	remainder := items % producers
	plan := make(PartitionPlan, producers)
	next := 1
	for p := 0; p < producers; p++ {
		size := chunk
		if p < remainder {
			size++
		}
		ids := make([]int, size)
		for i := range ids {
			ids[i] = next
			next++
		}
		plan[p] = ids
	}
	return plan, nil
}

// Sizes returns the number of ids in each partition.
func (p PartitionPlan) Sizes() []int {
	sizes := make([]int, len(p))
	for i, ids := range p {
		sizes[i] = len(ids)
	}
	return sizes
}

// Total returns the number of ids across all partitions.
func (p PartitionPlan) Total() int {
	total := 0
	for _, ids := range p {
		total += len(ids)
	}
	return total
}
