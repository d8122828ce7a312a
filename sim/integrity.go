package sim

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// maxReportedMissing caps how many missing ids are listed in one violation.
const maxReportedMissing = 10

// VerifyResult checks an aggregated result: exactly items entries, ids forming
// the set {1..items} with no duplicates, and sequence numbers strictly
// increasing. Every violation found is reported in one *InvariantViolation.
func VerifyResult(result []WorkItem, items int) error {
	var merr *multierror.Error
	if len(result) != items {
		merr = multierror.Append(merr, fmt.Errorf("got %d items, want %d", len(result), items))
	}

	seen := make(map[int]bool, len(result))
	for i, w := range result {
		switch {
		case w.ItemID < 1 || w.ItemID > items:
			merr = multierror.Append(merr, fmt.Errorf("item id %d outside [1, %d]", w.ItemID, items))
		case seen[w.ItemID]:
			merr = multierror.Append(merr, fmt.Errorf("duplicate item id %d", w.ItemID))
		}
		seen[w.ItemID] = true
		if i > 0 && w.SequenceNumber <= result[i-1].SequenceNumber {
			merr = multierror.Append(merr, fmt.Errorf("sequence number %d at position %d does not follow %d",
				w.SequenceNumber, i, result[i-1].SequenceNumber))
		}
	}

	var missing []int
	for id := 1; id <= items; id++ {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > maxReportedMissing {
		merr = multierror.Append(merr, fmt.Errorf("%d item ids missing, first %v", len(missing), missing[:maxReportedMissing]))
	} else if len(missing) > 0 {
		merr = multierror.Append(merr, fmt.Errorf("item ids missing: %v", missing))
	}

	if err := merr.ErrorOrNil(); err != nil {
		return errors.WithStack(&InvariantViolation{Detail: "result integrity", Err: err})
	}
	return nil
}
