package enums

import "fmt"

// LoadStatus tracks where a section is in its load lifecycle.
type LoadStatus string

const (
	LoadStatusUnloaded LoadStatus = "unloaded"
	LoadStatusLoading  LoadStatus = "loading"
	LoadStatusLoaded   LoadStatus = "loaded"
)

var validLoadStatuses = []LoadStatus{
	LoadStatusUnloaded,
	LoadStatusLoading,
	LoadStatusLoaded,
}

// String implements fmt.Stringer.
func (v LoadStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known LoadStatus.
func (v LoadStatus) IsValid() bool {
	for _, candidate := range validLoadStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseLoadStatus converts raw input into a LoadStatus.
func ParseLoadStatus(value string) (LoadStatus, error) {
	for _, candidate := range validLoadStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid load status %q", value)
}
