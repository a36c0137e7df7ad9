package history

import "errors"

// ErrNoRecord indicates navigation past either end of the record
// sequence, or a record that has been evicted.
var ErrNoRecord = errors.New("no such command record")
