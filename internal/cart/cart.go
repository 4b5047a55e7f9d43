package cart

import (
	"errors"
	"time"

	"semisto-service/internal/models"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrOutOfStock      = errors.New("not enough stock for this quantity")
)

// Line is one product of the cart. Quantity is never below 1 while present.
type Line struct {
	Product  models.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

// Total returns price times quantity for the line
func (l Line) Total() float64 {
	return l.Product.Price * float64(l.Quantity)
}

// Cart holds at most one line per product id. Totals are derived on read.
type Cart struct {
	ID        string    `json:"id"`
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`
}

func New(id string) *Cart {
	return &Cart{ID: id, Lines: []Line{}, UpdatedAt: time.Now()}
}

func (c *Cart) indexOf(productID string) int {
	for i, l := range c.Lines {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}

// Add increments the line of an already present product or appends a new one.
// The resulting line may not exceed the product stock.
func (c *Cart) Add(product models.Product, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	i := c.indexOf(product.ID)
	total := quantity
	if i >= 0 {
		total += c.Lines[i].Quantity
	}
	if total > product.Stock {
		return ErrOutOfStock
	}

	if i >= 0 {
		c.Lines[i].Quantity = total
		c.Lines[i].Product = product
	} else {
		c.Lines = append(c.Lines, Line{Product: product, Quantity: quantity})
	}

	c.UpdatedAt = time.Now()
	return nil
}

// SetQuantity updates a line in place; anything below 1 removes it.
// Unknown products are ignored. A quantity above the stock of the line's
// product is rejected.
func (c *Cart) SetQuantity(productID string, quantity int) error {
	if quantity < 1 {
		c.Remove(productID)
		return nil
	}

	i := c.indexOf(productID)
	if i < 0 {
		return nil
	}
	if quantity > c.Lines[i].Product.Stock {
		return ErrOutOfStock
	}
	c.Lines[i].Quantity = quantity
	c.UpdatedAt = time.Now()
	return nil
}

// Refresh replaces the product snapshot of a line, e.g. after a stock change
func (c *Cart) Refresh(product models.Product) {
	if i := c.indexOf(product.ID); i >= 0 {
		c.Lines[i].Product = product
	}
}

// Remove deletes the line if present
func (c *Cart) Remove(productID string) {
	i := c.indexOf(productID)
	if i < 0 {
		return
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	c.UpdatedAt = time.Now()
}

func (c *Cart) Clear() {
	c.Lines = []Line{}
	c.UpdatedAt = time.Now()
}

func (c *Cart) Line(productID string) (Line, bool) {
	if i := c.indexOf(productID); i >= 0 {
		return c.Lines[i], true
	}
	return Line{}, false
}

func (c *Cart) Contains(productID string) bool {
	return c.indexOf(productID) >= 0
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Subtotal is the sum of price times quantity over all lines
func (c *Cart) Subtotal() float64 {
	var total float64
	for _, l := range c.Lines {
		total += l.Total()
	}
	return total
}

// SubtotalCents sums line totals in cents to avoid float drift
func (c *Cart) SubtotalCents() int64 {
	var total int64
	for _, l := range c.Lines {
		total += models.ToCents(l.Product.Price) * int64(l.Quantity)
	}
	return total
}

// ItemCount is the sum of quantities over all lines
func (c *Cart) ItemCount() int {
	var count int
	for _, l := range c.Lines {
		count += l.Quantity
	}
	return count
}

// RemainingForFreePickup is how much more must be spent to reach the
// threshold; zero once it is reached.
func RemainingForFreePickup(subtotal, threshold float64) float64 {
	if subtotal >= threshold {
		return 0
	}
	return threshold - subtotal
}

// FreePickupProgress is the share of the threshold reached, capped at 1
func FreePickupProgress(subtotal, threshold float64) float64 {
	if threshold <= 0 || subtotal >= threshold {
		return 1
	}
	return subtotal / threshold
}

// Suggest picks up to limit in-stock products that are not in the cart,
// preferring the categories already present.
func Suggest(c *Cart, products []models.Product, limit int) []models.Product {
	if limit <= 0 {
		return nil
	}

	categories := make(map[string]bool, len(c.Lines))
	for _, l := range c.Lines {
		categories[l.Product.Category] = true
	}

	preferred := make([]models.Product, 0, limit)
	others := make([]models.Product, 0, limit)
	for _, p := range products {
		if !p.InStock() || c.Contains(p.ID) {
			continue
		}
		if categories[p.Category] {
			preferred = append(preferred, p)
		} else {
			others = append(others, p)
		}
	}

	out := append(preferred, others...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
