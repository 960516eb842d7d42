package ids

import "github.com/segmentio/ksuid"

// New returns a sortable unique id for queue jobs and log correlation.
func New() string {
	return ksuid.New().String()
}
