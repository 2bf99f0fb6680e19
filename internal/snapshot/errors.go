package snapshot

import "errors"

// ErrRosterFetch is returned when the roster cannot be retrieved. The whole
// aggregation is aborted and no snapshot is produced.
var ErrRosterFetch = errors.New("roster fetch failed")
