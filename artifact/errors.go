package artifact

import "fmt"

var (
	// ErrNotFound is returned when no artifact exists for the given tenant,
	// task and name triple.
	ErrNotFound = fmt.Errorf("artifact not found")
)
