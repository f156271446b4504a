package enums

import "fmt"

// ReceiptStatus maps to the receipt_status_enum enum in Postgres.
type ReceiptStatus string

const (
	ReceiptStatusUploaded ReceiptStatus = "uploaded"
	ReceiptStatusImported ReceiptStatus = "imported"
)

var validReceiptStatuses = []ReceiptStatus{
	ReceiptStatusUploaded,
	ReceiptStatusImported,
}

// IsValid reports whether the value matches the canonical receipt status enum.
func (s ReceiptStatus) IsValid() bool {
	for _, candidate := range validReceiptStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseReceiptStatus converts raw input into ReceiptStatus.
func ParseReceiptStatus(value string) (ReceiptStatus, error) {
	for _, candidate := range validReceiptStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid receipt status %q", value)
}
