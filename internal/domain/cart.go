package domain

import "strconv"

// ItemSnapshot is the catalog view of an item as captured for a cart line.
type ItemSnapshot struct {
	Title      string `json:"title"`
	Image      string `json:"image"`
	PriceCents int64  `json:"priceCents"`
}

// CartLine pairs a catalog item with a quantity. Item is nil when the catalog
// lookup failed upstream.
type CartLine struct {
	ItemID   string        `json:"itemId"`
	Quantity int           `json:"quantity"`
	Item     *ItemSnapshot `json:"item,omitempty"`
}

// Title returns the item title or "" when the snapshot is missing.
func (l CartLine) Title() string {
	if l.Item == nil {
		return ""
	}
	return l.Item.Title
}

// Image returns the item image URL or "" when the snapshot is missing.
func (l CartLine) Image() string {
	if l.Item == nil {
		return ""
	}
	return l.Item.Image
}

// PriceCents returns the unit price, zero when the snapshot is missing.
func (l CartLine) PriceCents() int64 {
	if l.Item == nil {
		return 0
	}
	return l.Item.PriceCents
}

// Subtotal is price * quantity for the line.
func (l CartLine) Subtotal() int64 {
	return l.PriceCents() * int64(l.Quantity)
}

// Total sums the subtotals of lines.
func Total(lines []CartLine) int64 {
	var sum int64
	for _, l := range lines {
		sum += l.Subtotal()
	}
	return sum
}

// FormatCents renders an amount in cents with two decimals, e.g. 2500 -> "25.00".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	frac := cents % 100
	pad := ""
	if frac < 10 {
		pad = "0"
	}
	return sign + strconv.FormatInt(cents/100, 10) + "." + pad + strconv.FormatInt(frac, 10)
}

// CloneLines copies lines including their snapshots so callers cannot mutate
// shared state.
func CloneLines(lines []CartLine) []CartLine {
	out := make([]CartLine, len(lines))
	for i, l := range lines {
		if l.Item != nil {
			snap := *l.Item
			l.Item = &snap
		}
		out[i] = l
	}
	return out
}
