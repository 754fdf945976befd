// Package cart holds the in-memory shopping cart for a browsing session.
//
// The cart never touches the network: it only tracks which products the
// shopper has picked and in what quantity. Totals are recomputed from the
// items on every read, so they cannot drift out of sync with the contents.
package cart

import (
	"sync"

	"github.com/vitrine-app/vitrine/internal/model"
)

// Item is one cart line: a product and how many of it the shopper wants.
// Quantity is always at least 1; dropping to zero removes the line instead.
type Item struct {
	Product  model.Product
	Quantity int
}

// Summary is the receipt returned by Checkout.
type Summary struct {
	Items      []Item
	TotalItems int
	TotalPrice float64
}

// Cart is a mutex-guarded collection of items in insertion order.
// The zero value is not usable; create one with New and pass it to whoever
// needs it rather than sharing a global.
type Cart struct {
	mu    sync.Mutex
	items []Item
}

// New creates an empty cart.
func New() *Cart {
	return &Cart{}
}

// AddItem adds one unit of a product. If the product is already in the cart
// its quantity is incremented, so a product occupies at most one line.
func (c *Cart) AddItem(p model.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].Product.ID == p.ID {
			c.items[i].Quantity++
			return
		}
	}
	c.items = append(c.items, Item{Product: p, Quantity: 1})
}

// UpdateQuantity sets the quantity for a product. A quantity of zero or less
// removes the line. Updating a product that is not in the cart is a no-op.
func (c *Cart) UpdateQuantity(productID int64, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if quantity <= 0 {
		c.remove(productID)
		return
	}
	for i := range c.items {
		if c.items[i].Product.ID == productID {
			c.items[i].Quantity = quantity
			return
		}
	}
}

// RemoveItem removes a product's line. Removing an absent product is a no-op.
func (c *Cart) RemoveItem(productID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(productID)
}

// remove deletes a line in place, preserving the order of the rest.
// Caller must hold the lock.
func (c *Cart) remove(productID int64) {
	for i := range c.items {
		if c.items[i].Product.ID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// Clear empties the cart unconditionally.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

// Items returns a copy of the cart lines in insertion order.
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]Item, len(c.items))
	copy(items, c.items)
	return items
}

// Len returns the number of distinct product lines.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// TotalItems returns the sum of all quantities.
func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return totalItems(c.items)
}

// TotalPrice returns the sum of price times quantity over all lines.
func (c *Cart) TotalPrice() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return totalPrice(c.items)
}

// Checkout clears the cart and returns a summary of what it held. Checkout
// is simulated: no payment or order is created anywhere.
func (c *Cart) Checkout() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	summary := Summary{
		Items:      c.items,
		TotalItems: totalItems(c.items),
		TotalPrice: totalPrice(c.items),
	}
	c.items = nil
	return summary
}

func totalItems(items []Item) int {
	var n int
	for _, item := range items {
		n += item.Quantity
	}
	return n
}

func totalPrice(items []Item) float64 {
	var total float64
	for _, item := range items {
		total += item.Product.Price * float64(item.Quantity)
	}
	return total
}
