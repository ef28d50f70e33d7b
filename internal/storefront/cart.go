// Package storefront holds the buyer-side state: cart, session and checkout.
package storefront

import (
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/kitchen-orderflow/internal/catalog"
)

// Line is one cart entry.
type Line struct {
	Item     catalog.Item
	Quantity int
}

// Subtotal is price × quantity.
func (l Line) Subtotal() decimal.Decimal {
	return decimal.NewFromFloat(l.Item.Price).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds at most one line per item id, in the order items were first added.
// It also carries the idempotency key for checking out its current contents;
// any change to the contents drops the key.
type Cart struct {
	order []string
	lines map[string]*Line
	key   string
}

func NewCart() *Cart {
	return &Cart{lines: make(map[string]*Line)}
}

// Add puts one more of item in the cart.
func (c *Cart) Add(item catalog.Item) {
	c.key = ""
	if l, ok := c.lines[item.ID]; ok {
		l.Quantity++
		return
	}
	c.order = append(c.order, item.ID)
	c.lines[item.ID] = &Line{Item: item, Quantity: 1}
}

// SetQuantity changes a line's quantity. Quantities below one are ignored;
// use Remove to drop a line.
func (c *Cart) SetQuantity(id string, qty int) {
	if qty < 1 {
		return
	}
	if l, ok := c.lines[id]; ok && l.Quantity != qty {
		l.Quantity = qty
		c.key = ""
	}
}

func (c *Cart) Remove(id string) {
	if _, ok := c.lines[id]; !ok {
		return
	}
	delete(c.lines, id)
	c.key = ""
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Items returns the lines in insertion order.
func (c *Cart) Items() []Line {
	out := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.lines[id])
	}
	return out
}

// Count is the total number of units.
func (c *Cart) Count() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Total is Σ price × quantity.
func (c *Cart) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, id := range c.order {
		sum = sum.Add(c.lines[id].Subtotal())
	}
	return sum
}

func (c *Cart) Empty() bool { return len(c.order) == 0 }

func (c *Cart) Clear() {
	c.order = nil
	c.lines = make(map[string]*Line)
	c.key = ""
}

// checkoutKey returns the key for the current contents, minting one with gen
// the first time it is asked for.
func (c *Cart) checkoutKey(gen func() string) string {
	if c.key == "" {
		c.key = gen()
	}
	return c.key
}
