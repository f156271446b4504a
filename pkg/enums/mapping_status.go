package enums

import "fmt"

// MappingStatus maps to the mapping_status_enum enum in Postgres.
type MappingStatus string

const (
	MappingStatusPending MappingStatus = "pending"
	MappingStatusMapped  MappingStatus = "mapped"
	MappingStatusNewItem MappingStatus = "new_item"
	MappingStatusIgnored MappingStatus = "ignored"
)

var validMappingStatuses = []MappingStatus{
	MappingStatusPending,
	MappingStatusMapped,
	MappingStatusNewItem,
	MappingStatusIgnored,
}

// IsValid reports whether the value matches the canonical mapping status enum.
func (s MappingStatus) IsValid() bool {
	for _, candidate := range validMappingStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsResolved reports whether a line item with this status has left the pending state.
func (s MappingStatus) IsResolved() bool {
	return s != MappingStatusPending
}

// ParseMappingStatus converts raw input into MappingStatus.
func ParseMappingStatus(value string) (MappingStatus, error) {
	for _, candidate := range validMappingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid mapping status %q", value)
}
