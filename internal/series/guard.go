package series

import (
	"fmt"
	"sort"

	v1 "github.com/aevon-lab/tracelens/internal/api/v1"
	"github.com/aevon-lab/tracelens/internal/core/storage"
)

// ExcessDimensionError reports identity keys that still vary inside a bucket:
// the grouping did not pin them, so several documents collapsed onto one point.
type ExcessDimensionError struct {
	Target string
	Fields []string
}

func (e *ExcessDimensionError) Error() string {
	return fmt.Sprintf("excess dimensionality for %q: ungrouped fields %v", e.Target, e.Fields)
}

// Message is the user-facing hint naming the fields to group by.
func (e *ExcessDimensionError) Message() string {
	return fmt.Sprintf("Excess data received, try grouping by one or more of: %v", e.Fields)
}

// CheckExcess inspects the buckets returned for req. Every top-level field
// other than the bucket key, y, and the collected value fields holds the
// distinct values of an ungrouped identity key; more than one value is excess.
// Documents that are exact duplicates leave every list at one value and pass.
func CheckExcess(target string, buckets []v1.Document, req storage.AggregateRequest) error {
	skip := map[string]bool{
		v1.BucketKey:       true,
		storage.CollectedY: true,
	}
	for _, name := range req.Collect {
		skip[name] = true
	}

	excess := make(map[string]bool)
	for _, bucket := range buckets {
		for field, v := range bucket {
			if skip[field] {
				continue
			}
			if list, ok := v.([]any); ok && len(list) > 1 {
				excess[field] = true
			}
		}
	}
	if len(excess) == 0 {
		return nil
	}

	fields := make([]string, 0, len(excess))
	for f := range excess {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return &ExcessDimensionError{Target: target, Fields: fields}
}
