// Package cart models the cashier's in-progress order as an immutable state
// reduced by tagged actions. Nothing here is persisted; an abandoned cart is
// simply lost, matching the in-person terminal use case.
package cart

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"coffeepos/internal/models"
	"coffeepos/internal/pricing"
)

// MenuItem is a catalog entry as shown on the order-taking screen, with the
// display base price already derived by the pricing engine.
type MenuItem struct {
	ID           int64
	Name         string
	CategoryName string
	BasePrice    decimal.Decimal
	Variants     []models.ProductVariant
}

// Line is one distinct (menu item, variant selection) pairing with a quantity
type Line struct {
	Key        string
	MenuItemID int64
	Name       string
	Selections models.VariantSelections
	FinalPrice decimal.Decimal
	Quantity   int
}

// Cart is the order builder state. Treat values as immutable; Apply returns
// a new Cart.
type Cart struct {
	CustomerName       string
	SalesMethod        models.SalesMethod
	Lines              []Line
	DiscountPercentage decimal.Decimal
	Notes              string
}

// LineKey derives the identity key of a cart line: the menu item ID plus the
// sorted IDs of its selected variants.
func LineKey(menuItemID int64, selections models.VariantSelections) string {
	ids := make([]string, len(selections))
	for i, s := range selections {
		ids[i] = fmt.Sprintf("%d", s.VariantID)
	}
	sort.Strings(ids)
	parts := append([]string{fmt.Sprintf("%d", menuItemID)}, ids...)
	return strings.Join(parts, "-")
}

// Action mutates the cart through Apply
type Action interface {
	isAction()
}

// AddItem adds one unit of a menu item with the given selection. A line with
// the same identity key gains quantity instead of duplicating.
type AddItem struct {
	Item       MenuItem
	Selections models.VariantSelections
}

// RemoveLine deletes a line by its identity key
type RemoveLine struct {
	Key string
}

// SetQuantity sets a line's quantity; zero or less removes the line
type SetQuantity struct {
	Key      string
	Quantity int
}

// ApplyDiscount sets the discount percentage
type ApplyDiscount struct {
	Percentage decimal.Decimal
}

// SetNotes attaches free-form notes to the order
type SetNotes struct {
	Notes string
}

// SetCustomer records the customer name and sales method
type SetCustomer struct {
	Name   string
	Method models.SalesMethod
}

// Reset clears all cart state for the next order
type Reset struct{}

func (AddItem) isAction()       {}
func (RemoveLine) isAction()    {}
func (SetQuantity) isAction()   {}
func (ApplyDiscount) isAction() {}
func (SetNotes) isAction()      {}
func (SetCustomer) isAction()   {}
func (Reset) isAction()         {}

// Apply reduces an action into a new cart state
func (c Cart) Apply(action Action) Cart {
	switch a := action.(type) {
	case AddItem:
		return c.addItem(a)
	case RemoveLine:
		return c.withLines(removeByKey(c.Lines, a.Key))
	case SetQuantity:
		if a.Quantity <= 0 {
			return c.withLines(removeByKey(c.Lines, a.Key))
		}
		lines := make([]Line, len(c.Lines))
		copy(lines, c.Lines)
		for i := range lines {
			if lines[i].Key == a.Key {
				lines[i].Quantity = a.Quantity
			}
		}
		return c.withLines(lines)
	case ApplyDiscount:
		c.DiscountPercentage = a.Percentage
		return c
	case SetNotes:
		c.Notes = a.Notes
		return c
	case SetCustomer:
		c.CustomerName = a.Name
		c.SalesMethod = a.Method
		return c
	case Reset:
		return Cart{}
	}
	return c
}

func (c Cart) addItem(a AddItem) Cart {
	key := LineKey(a.Item.ID, a.Selections)

	lines := make([]Line, len(c.Lines))
	copy(lines, c.Lines)

	for i := range lines {
		if lines[i].Key == key {
			lines[i].Quantity++
			return c.withLines(lines)
		}
	}

	lines = append(lines, Line{
		Key:        key,
		MenuItemID: a.Item.ID,
		Name:       a.Item.Name,
		Selections: a.Selections,
		FinalPrice: pricing.LinePrice(a.Item.BasePrice, a.Selections),
		Quantity:   1,
	})
	return c.withLines(lines)
}

func (c Cart) withLines(lines []Line) Cart {
	c.Lines = lines
	return c
}

func removeByKey(lines []Line, key string) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if l.Key != key {
			out = append(out, l)
		}
	}
	return out
}

// Subtotal sums finalPrice × quantity over all lines
func (c Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.Lines {
		sum = sum.Add(l.FinalPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// Totals computes the order aggregates from the current lines and discount
func (c Cart) Totals() pricing.Totals {
	return pricing.ComputeTotals(c.Subtotal(), c.DiscountPercentage)
}

// Empty reports whether the cart holds no lines
func (c Cart) Empty() bool {
	return len(c.Lines) == 0
}
