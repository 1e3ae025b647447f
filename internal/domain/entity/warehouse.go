package entity

import "time"

// Warehouse representa una bodega donde se almacena inventario.
type Warehouse struct {
	ID        int64
	Code      string
	Name      string
	Address   string
	CreatedAt time.Time
}
