package cart

import (
	"testing"

	"github.com/vitrine-app/vitrine/internal/model"
)

func product(id int64, name string, price float64) model.Product {
	return model.Product{ID: id, Name: name, Price: price}
}

// checkTotals verifies that the derived totals match the current items.
func checkTotals(t *testing.T, c *Cart) {
	t.Helper()
	var wantItems int
	var wantPrice float64
	for _, item := range c.Items() {
		wantItems += item.Quantity
		wantPrice += item.Product.Price * float64(item.Quantity)
	}
	if got := c.TotalItems(); got != wantItems {
		t.Errorf("TotalItems = %d, want %d", got, wantItems)
	}
	if got := c.TotalPrice(); got != wantPrice {
		t.Errorf("TotalPrice = %v, want %v", got, wantPrice)
	}
}

func TestAddItemMergesDuplicates(t *testing.T) {
	c := New()
	p := product(1, "Mug", 9.90)

	c.AddItem(p)
	c.AddItem(p)

	items := c.Items()
	if len(items) != 1 {
		t.Fatalf("expected 1 line after adding same product twice, got %d", len(items))
	}
	if items[0].Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", items[0].Quantity)
	}
	checkTotals(t, c)
}

func TestTotalsScenario(t *testing.T) {
	c := New()
	a := product(1, "A", 10.00)
	b := product(2, "B", 5.00)

	c.AddItem(a)
	c.AddItem(a)
	c.AddItem(b)

	if got := c.TotalItems(); got != 3 {
		t.Errorf("TotalItems = %d, want 3", got)
	}
	if got := c.TotalPrice(); got != 25.00 {
		t.Errorf("TotalPrice = %v, want 25.00", got)
	}
}

func TestUpdateQuantity(t *testing.T) {
	c := New()
	p := product(1, "Mug", 9.90)
	c.AddItem(p)

	c.UpdateQuantity(1, 5)
	if items := c.Items(); items[0].Quantity != 5 {
		t.Errorf("expected quantity 5, got %d", items[0].Quantity)
	}
	checkTotals(t, c)
}

func TestUpdateQuantityZeroRemoves(t *testing.T) {
	c := New()
	c.AddItem(product(1, "Mug", 9.90))

	c.UpdateQuantity(1, 0)
	if c.Len() != 0 {
		t.Errorf("expected empty cart after setting quantity to 0, got %d lines", c.Len())
	}

	c.AddItem(product(2, "Plate", 4.50))
	c.UpdateQuantity(2, -3)
	if c.Len() != 0 {
		t.Error("negative quantity should remove the line")
	}
	checkTotals(t, c)
}

func TestUpdateQuantityUnknownIDNoop(t *testing.T) {
	c := New()
	c.AddItem(product(1, "Mug", 9.90))

	c.UpdateQuantity(42, 7)

	items := c.Items()
	if len(items) != 1 || items[0].Product.ID != 1 || items[0].Quantity != 1 {
		t.Errorf("cart changed by update of unknown id: %+v", items)
	}
}

func TestRemoveItemIdempotent(t *testing.T) {
	c := New()
	c.AddItem(product(1, "Mug", 9.90))

	c.RemoveItem(1)
	c.RemoveItem(1) // second removal is a no-op

	if c.Len() != 0 {
		t.Errorf("expected empty cart, got %d lines", c.Len())
	}
	checkTotals(t, c)
}

func TestClear(t *testing.T) {
	c := New()
	c.AddItem(product(1, "Mug", 9.90))
	c.AddItem(product(2, "Plate", 4.50))

	c.Clear()

	if c.TotalItems() != 0 {
		t.Errorf("TotalItems after Clear = %d, want 0", c.TotalItems())
	}
	if c.TotalPrice() != 0 {
		t.Errorf("TotalPrice after Clear = %v, want 0", c.TotalPrice())
	}
}

func TestInsertionOrderPreserved(t *testing.T) {
	c := New()
	c.AddItem(product(3, "C", 1))
	c.AddItem(product(1, "A", 1))
	c.AddItem(product(2, "B", 1))
	c.AddItem(product(1, "A", 1)) // merge, must not reorder

	var got []int64
	for _, item := range c.Items() {
		got = append(got, item.Product.ID)
	}
	want := []int64{3, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}

	c.RemoveItem(1)
	items := c.Items()
	if items[0].Product.ID != 3 || items[1].Product.ID != 2 {
		t.Errorf("removal disturbed order: %+v", items)
	}
}

func TestCheckoutClearsAndSummarizes(t *testing.T) {
	c := New()
	a := product(1, "A", 10.00)
	c.AddItem(a)
	c.AddItem(a)
	c.AddItem(product(2, "B", 5.00))

	summary := c.Checkout()

	if summary.TotalItems != 3 {
		t.Errorf("summary.TotalItems = %d, want 3", summary.TotalItems)
	}
	if summary.TotalPrice != 25.00 {
		t.Errorf("summary.TotalPrice = %v, want 25.00", summary.TotalPrice)
	}
	if len(summary.Items) != 2 {
		t.Errorf("summary.Items has %d lines, want 2", len(summary.Items))
	}
	if c.Len() != 0 || c.TotalItems() != 0 {
		t.Error("cart should be empty after checkout")
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	c := New()
	c.AddItem(product(1, "Mug", 9.90))

	items := c.Items()
	items[0].Quantity = 99

	if c.TotalItems() != 1 {
		t.Error("mutating the Items copy must not affect the cart")
	}
}

func TestMutationSequenceKeepsInvariant(t *testing.T) {
	c := New()
	ps := []model.Product{
		product(1, "A", 2.50),
		product(2, "B", 7.25),
		product(3, "C", 0.99),
	}

	steps := []func(){
		func() { c.AddItem(ps[0]) },
		func() { c.AddItem(ps[1]) },
		func() { c.AddItem(ps[0]) },
		func() { c.UpdateQuantity(2, 4) },
		func() { c.AddItem(ps[2]) },
		func() { c.RemoveItem(1) },
		func() { c.UpdateQuantity(3, 0) },
		func() { c.UpdateQuantity(99, 5) },
		func() { c.AddItem(ps[2]) },
	}
	for _, step := range steps {
		step()
		checkTotals(t, c)
	}
}
