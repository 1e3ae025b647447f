package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-scan/internal/domain/entity"
	"github.com/jhoicas/inventario-scan/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `p.id, p.sku, p.name, p.description, p.brand, p.cost_price, p.sale_price, p.status, p.created_at, p.updated_at`

func scanProduct(row pgx.Row, extra ...any) (*entity.Product, error) {
	var p entity.Product
	dest := append([]any{
		&p.ID, &p.SKU, &p.Name, &p.Description, &p.Brand,
		&p.CostPrice, &p.SalePrice, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products p WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// GetBySKU obtiene un producto por SKU exacto.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products p WHERE p.sku = $1`, sku))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product by sku: %w", err)
	}
	return p, nil
}

// GetByEAN resuelve el producto por el índice de códigos de barras.
func (r *ProductRepo) GetByEAN(ctx context.Context, ean string) (*entity.Product, *entity.Barcode, error) {
	query := `
		SELECT ` + productColumns + `, b.ean, b.level, b.pack_qty
		FROM product_barcodes b
		JOIN products p ON p.id = b.product_id
		WHERE b.ean = $1`
	var b entity.Barcode
	p, err := scanProduct(r.q.QueryRow(ctx, query, ean), &b.EAN, &b.Level, &b.PackQty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("get product by ean: %w", err)
	}
	b.ProductID = p.ID
	return p, &b, nil
}

// ListBarcodes lista los códigos de un producto (unidad primero).
func (r *ProductRepo) ListBarcodes(ctx context.Context, productID int64) ([]entity.Barcode, error) {
	rows, err := r.q.Query(ctx, `
		SELECT product_id, ean, level, pack_qty
		FROM product_barcodes WHERE product_id = $1
		ORDER BY pack_qty, ean`, productID)
	if err != nil {
		return nil, fmt.Errorf("list barcodes: %w", err)
	}
	defer rows.Close()

	var list []entity.Barcode
	for rows.Next() {
		var b entity.Barcode
		if err := rows.Scan(&b.ProductID, &b.EAN, &b.Level, &b.PackQty); err != nil {
			return nil, fmt.Errorf("scan barcode: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}
