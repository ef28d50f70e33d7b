// Package catalog is the server-side menu and price authority.
package catalog

// Category groups menu items on the storefront.
type Category string

const (
	CategoryMain  Category = "main"
	CategoryAddon Category = "addon"
	CategoryDrink Category = "drink"
)

// Item is one sellable menu entry. Prices are whole naira.
type Item struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    Category `json:"category"`
	Image       string   `json:"image,omitempty"`
}

var menu = []Item{
	{ID: "1", Name: "Jollof Rice", Description: "Classic Nigerian Jollof rice with rich tomato sauce and spices", Price: 1000, Category: CategoryMain},
	{ID: "2", Name: "Pounded Yam and Vegetable Soup", Description: "Pounded and soup with stock fish and pomo", Price: 1700, Category: CategoryMain},
	{ID: "3", Name: "Pounded Yam and Egusi soup", Description: "Smooth pounded yam served with rich soup", Price: 1700, Category: CategoryMain},
	{ID: "4", Name: "Pounded Yam and Ogbono soup", Description: "Sharp Ogbono soup together with Pounded Yam", Price: 1700, Category: CategoryMain},
	{ID: "5", Name: "Semo and Egusi soup", Description: "Sharp Egusi soup together with semo", Price: 1500, Category: CategoryMain},
	{ID: "6", Name: "Semo and Ogbono soup", Description: "Sharp Ogbono soup together with semo", Price: 1500, Category: CategoryMain},
	{ID: "7", Name: "Semo and Vegetable soup", Description: "Sharp Vegetable soup together with any swallow of your choice", Price: 1500, Category: CategoryMain},
	{ID: "8", Name: "Indomie no egg", Description: "Spicy Nigerian Indomie noodles", Price: 700, Category: CategoryMain},
	{ID: "9", Name: "Moi Moi and stew", Description: "Steamed bean pudding with peppers and stew", Price: 500, Category: CategoryMain},
	{ID: "10", Name: "Samosa", Description: "Crispy Nigerian samosa with savory filling", Price: 200, Category: CategoryMain},
	{ID: "11", Name: "Fried egg", Description: "Fried egg can be eaten together with the indomie", Price: 300, Category: CategoryAddon},
	{ID: "12", Name: "Fried Meat", Description: "Crispy fried meat pieces", Price: 500, Category: CategoryAddon},
	{ID: "13", Name: "Coleslaw/salad", Description: "Fresh cabbage and carrot salad", Price: 500, Category: CategoryAddon},
}

var byID = func() map[string]Item {
	m := make(map[string]Item, len(menu))
	for _, it := range menu {
		m[it.ID] = it
	}
	return m
}()

// Menu returns a copy of the full menu in display order.
func Menu() []Item {
	out := make([]Item, len(menu))
	copy(out, menu)
	return out
}

// Lookup finds an item by id.
func Lookup(id string) (Item, bool) {
	it, ok := byID[id]
	return it, ok
}

// ByCategory filters the menu; "all" or "" returns everything.
func ByCategory(c Category) []Item {
	if c == "" || c == "all" {
		return Menu()
	}
	var out []Item
	for _, it := range menu {
		if it.Category == c {
			out = append(out, it)
		}
	}
	return out
}
