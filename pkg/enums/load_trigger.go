package enums

import "fmt"

// LoadTrigger records why a section load started.
type LoadTrigger string

const (
	LoadTriggerNavigation LoadTrigger = "navigation"
	LoadTriggerReload     LoadTrigger = "reload"
)

var validLoadTriggers = []LoadTrigger{
	LoadTriggerNavigation,
	LoadTriggerReload,
}

// String implements fmt.Stringer.
func (v LoadTrigger) String() string {
	return string(v)
}

// IsValid reports whether the value is a known LoadTrigger.
func (v LoadTrigger) IsValid() bool {
	for _, candidate := range validLoadTriggers {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseLoadTrigger converts raw input into a LoadTrigger.
func ParseLoadTrigger(value string) (LoadTrigger, error) {
	for _, candidate := range validLoadTriggers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid load trigger %q", value)
}
