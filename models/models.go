package models

// All returns every model in migration order.
func All() []interface{} {
	return []interface{}{
		&Restaurant{},
		&User{},
		&Table{},
		&Menu{},
		&MenuOption{},
		&Order{},
		&OrderItem{},
		&Payment{},
		&Employee{},
	}
}
