package cache

import (
	"errors"
	"fmt"
)

// ErrEntryTooLarge matches any EntryTooLargeError via errors.Is.
var ErrEntryTooLarge = errors.New("cache: entry exceeds partition budget")

// EntryTooLargeError reports an insert whose sized entry alone exceeds the
// owning partition's byte budget. Nothing was stored; the caller should
// proceed with the uncached value. This is the only error Insert returns.
type EntryTooLargeError struct {
	SizeBytes       int64
	PartitionBudget int64
}

func (e *EntryTooLargeError) Error() string {
	return fmt.Sprintf("cache: entry of %d bytes exceeds partition budget of %d bytes",
		e.SizeBytes, e.PartitionBudget)
}

// Is reports whether target is ErrEntryTooLarge.
func (e *EntryTooLargeError) Is(target error) bool { return target == ErrEntryTooLarge }
