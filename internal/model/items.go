package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ItemTotal returns the sum of price * quantity over all lines.
func ItemTotal(items []OrderItem) float64 {
	total := 0.0
	for _, it := range items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

// MergeItems applies an add-items batch to an order's existing lines.
//
// Every existing line loses its newly-added mark first, so the flag always
// means "added in the most recent batch". A batch line whose ID matches an
// existing line is merged into it (quantities sum); otherwise it is appended.
// Merged and appended lines get AddedAt=now and IsNewlyAdded=true.
func MergeItems(existing, batch []OrderItem, now time.Time) []OrderItem {
	merged := make([]OrderItem, len(existing))
	copy(merged, existing)
	for i := range merged {
		merged[i].IsNewlyAdded = false
	}

	for _, in := range batch {
		idx := -1
		for i := range merged {
			if merged[i].ID == in.ID {
				idx = i
				break
			}
		}
		if idx >= 0 {
			merged[idx].Quantity += in.Quantity
			merged[idx].IsNewlyAdded = true
			t := now
			merged[idx].AddedAt = &t
			continue
		}
		it := in
		t := now
		it.AddedAt = &t
		it.IsNewlyAdded = true
		merged = append(merged, it)
	}

	return merged
}

// ValidateItems checks an item batch for creation or add-items requests.
func ValidateItems(items []OrderItem) error {
	if len(items) == 0 {
		return fmt.Errorf("at least one item is required")
	}
	for _, it := range items {
		if it.ID == "" {
			return fmt.Errorf("item %q: id is required", it.Name)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("item %q: quantity must be positive", it.Name)
		}
		if it.Price < 0 {
			return fmt.Errorf("item %q: price must not be negative", it.Name)
		}
	}
	return nil
}

// NewOrderID mints a globally unique order identifier of the form
// ORD-<unix-ms>-<UUID8>.
func NewOrderID(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:8])
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), suffix)
}
