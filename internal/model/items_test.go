package model

import (
	"strings"
	"testing"
	"time"
)

func TestItemTotal(t *testing.T) {
	tests := []struct {
		name  string
		items []OrderItem
		want  float64
	}{
		{"empty", nil, 0},
		{"single", []OrderItem{{Price: 4.5, Quantity: 2}}, 9},
		{"multiple", []OrderItem{
			{Price: 4.5, Quantity: 2},
			{Price: 12, Quantity: 1},
			{Price: 0.5, Quantity: 4},
		}, 23},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ItemTotal(tt.items); got != tt.want {
				t.Errorf("ItemTotal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergeItems_AppendsNewLines(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	existing := []OrderItem{{ID: "dish-1", Name: "Margherita", Quantity: 1, Price: 9}}
	batch := []OrderItem{{ID: "dish-2", Name: "Calzone", Quantity: 2, Price: 11}}

	merged := MergeItems(existing, batch, now)

	if len(merged) != 2 {
		t.Fatalf("len(merged) = %d, want 2", len(merged))
	}
	if merged[0].IsNewlyAdded {
		t.Error("existing line kept its newly-added mark")
	}
	if !merged[1].IsNewlyAdded {
		t.Error("appended line is not marked newly added")
	}
	if merged[1].AddedAt == nil || !merged[1].AddedAt.Equal(now) {
		t.Errorf("appended line AddedAt = %v, want %v", merged[1].AddedAt, now)
	}
}

func TestMergeItems_SumsMatchingLine(t *testing.T) {
	now := time.Now().UTC()
	existing := []OrderItem{
		{ID: "dish-1", Quantity: 1, Price: 9},
		{ID: "dish-2", Quantity: 1, Price: 11},
	}
	batch := []OrderItem{{ID: "dish-1", Quantity: 3, Price: 9}}

	merged := MergeItems(existing, batch, now)

	if len(merged) != 2 {
		t.Fatalf("len(merged) = %d, want 2", len(merged))
	}
	if merged[0].Quantity != 4 {
		t.Errorf("merged quantity = %d, want 4", merged[0].Quantity)
	}
	if !merged[0].IsNewlyAdded {
		t.Error("merged line is not marked newly added")
	}
	if merged[1].IsNewlyAdded {
		t.Error("untouched line is marked newly added")
	}
}

func TestMergeItems_OnlyLastBatchMarked(t *testing.T) {
	now := time.Now().UTC()
	items := []OrderItem{{ID: "a", Quantity: 1, Price: 1}}

	items = MergeItems(items, []OrderItem{{ID: "b", Quantity: 1, Price: 2}}, now)
	items = MergeItems(items, []OrderItem{{ID: "c", Quantity: 1, Price: 3}}, now)

	for _, it := range items {
		want := it.ID == "c"
		if it.IsNewlyAdded != want {
			t.Errorf("item %s IsNewlyAdded = %v, want %v", it.ID, it.IsNewlyAdded, want)
		}
	}
}

func TestMergeItems_DoesNotMutateInput(t *testing.T) {
	now := time.Now().UTC()
	existing := []OrderItem{{ID: "a", Quantity: 1, Price: 1, IsNewlyAdded: true}}

	_ = MergeItems(existing, []OrderItem{{ID: "a", Quantity: 1, Price: 1}}, now)

	if existing[0].Quantity != 1 || !existing[0].IsNewlyAdded {
		t.Error("MergeItems mutated its input slice")
	}
}

func TestMergeItems_NeverDecreasesTotal(t *testing.T) {
	now := time.Now().UTC()
	existing := []OrderItem{
		{ID: "a", Quantity: 2, Price: 5},
		{ID: "b", Quantity: 1, Price: 3},
	}
	before := ItemTotal(existing)

	merged := MergeItems(existing, []OrderItem{{ID: "a", Quantity: 1, Price: 5}}, now)

	if after := ItemTotal(merged); after < before {
		t.Errorf("total decreased: before %v, after %v", before, after)
	}
}

func TestValidateItems(t *testing.T) {
	tests := []struct {
		name    string
		items   []OrderItem
		wantErr bool
	}{
		{"empty", nil, true},
		{"missing id", []OrderItem{{Name: "x", Quantity: 1, Price: 1}}, true},
		{"zero quantity", []OrderItem{{ID: "a", Quantity: 0, Price: 1}}, true},
		{"negative price", []OrderItem{{ID: "a", Quantity: 1, Price: -1}}, true},
		{"free item", []OrderItem{{ID: "a", Quantity: 1, Price: 0}}, false},
		{"valid", []OrderItem{{ID: "a", Quantity: 2, Price: 4.5}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateItems(tt.items)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateItems() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewOrderID(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	id := NewOrderID(now)

	if !strings.HasPrefix(id, "ORD-1748779200000-") {
		t.Errorf("unexpected prefix: %s", id)
	}
	suffix := id[strings.LastIndex(id, "-")+1:]
	if len(suffix) != 8 {
		t.Errorf("suffix %q length = %d, want 8", suffix, len(suffix))
	}
	if suffix != strings.ToUpper(suffix) {
		t.Errorf("suffix %q is not uppercase", suffix)
	}

	if other := NewOrderID(now); other == id {
		t.Error("two ids from the same instant collide")
	}
}
