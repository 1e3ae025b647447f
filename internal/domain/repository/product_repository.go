package repository

import (
	"context"

	"github.com/jhoicas/inventario-scan/internal/domain/entity"
)

// ProductRepository define el puerto de lectura de productos y sus códigos de barras.
// Los Get devuelven (nil, nil) si no existe.
type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	// GetByEAN resuelve por el índice de códigos de barras.
	GetByEAN(ctx context.Context, ean string) (*entity.Product, *entity.Barcode, error)
	ListBarcodes(ctx context.Context, productID int64) ([]entity.Barcode, error)
}
