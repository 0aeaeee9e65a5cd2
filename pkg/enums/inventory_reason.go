package enums

import "fmt"

// InventoryReason labels why an inventory adjustment row was written.
type InventoryReason string

const (
	InventoryReasonOrderCreated   InventoryReason = "order_created"
	InventoryReasonOrderCancelled InventoryReason = "order_cancelled"
)

var validInventoryReasons = []InventoryReason{
	InventoryReasonOrderCreated,
	InventoryReasonOrderCancelled,
}

// String implements fmt.Stringer.
func (i InventoryReason) String() string {
	return string(i)
}

// IsValid reports whether the value is a known InventoryReason.
func (i InventoryReason) IsValid() bool {
	for _, candidate := range validInventoryReasons {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseInventoryReason converts raw input into an InventoryReason.
func ParseInventoryReason(value string) (InventoryReason, error) {
	for _, candidate := range validInventoryReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inventory reason %q", value)
}
