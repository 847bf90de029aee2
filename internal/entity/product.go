package entity

// Product is a catalog item. Stock is mutated only through the catalog
// service's reserve/release operations; every other component treats it as
// read-only. Version backs the product store's conditional update and is
// managed by the store, not by callers.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Version     int64   `json:"-"`
}
