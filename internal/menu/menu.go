// Package menu holds the static catalog of orderable items.
package menu

// Item is a single orderable product. Items are immutable values created
// once at startup; the engine copies them into orders by value.
type Item struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Menu groups items by category. Category order and declaration order
// within a category define the display order.
type Menu struct {
	Lanches []Item `json:"lanches"`
	Bebidas []Item `json:"bebidas"`
}

// Default returns the lanchonete's standing menu.
func Default() *Menu {
	return &Menu{
		Lanches: []Item{
			{ID: 1, Name: "Hamburguer Simples", Price: 15.0},
			{ID: 2, Name: "Hamburguer Duplo", Price: 20.0},
			{ID: 3, Name: "X-Tudo", Price: 25.0},
		},
		Bebidas: []Item{
			{ID: 4, Name: "Refrigerante 300ml", Price: 5.0},
			{ID: 5, Name: "Suco Natural", Price: 7.0},
		},
	}
}

// AllItems returns every item in display order: lanches first, then bebidas.
func (m *Menu) AllItems() []Item {
	items := make([]Item, 0, len(m.Lanches)+len(m.Bebidas))
	items = append(items, m.Lanches...)
	items = append(items, m.Bebidas...)
	return items
}

// FindByID looks up an item by its numeric id. The boolean reports whether
// the id exists in the catalog; an unknown id is a valid negative result,
// not an error.
func (m *Menu) FindByID(id int) (Item, bool) {
	for _, item := range m.AllItems() {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}
