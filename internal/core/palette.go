package core

// PaymentMethod is the card or account an obligation is settled with.
type PaymentMethod struct {
	ID    string
	Name  string
	Color string
}

// Palette maps payment method IDs to display colors. It is passed
// explicitly to formatting call sites; there is no shared mutable
// lookup state.
type Palette map[string]string

const defaultMethodColor = "#9e9e9e"

// MethodColor resolves the display color for a payment method, falling
// back to a neutral grey for unknown IDs.
func (p Palette) MethodColor(methodID string) string {
	if c, ok := p[methodID]; ok && c != "" {
		return c
	}
	return defaultMethodColor
}

// NewPalette builds a palette from a payment method list.
func NewPalette(methods []PaymentMethod) Palette {
	p := make(Palette, len(methods))
	for _, m := range methods {
		p[m.ID] = m.Color
	}
	return p
}
