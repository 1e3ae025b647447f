package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-scan/internal/domain"
	"github.com/jhoicas/inventario-scan/internal/domain/entity"
	"github.com/jhoicas/inventario-scan/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get obtiene el stock actual; (nil, nil) si el producto nunca tuvo stock en esa bodega.
func (r *StockRepo) Get(ctx context.Context, productID, warehouseID int64) (*entity.Stock, error) {
	var s entity.Stock
	err := r.q.QueryRow(ctx, `
		SELECT product_id, warehouse_id, quantity, reserved, updated_at
		FROM stock WHERE product_id = $1 AND warehouse_id = $2`, productID, warehouseID).Scan(
		&s.ProductID, &s.WarehouseID, &s.Quantity, &s.Reserved, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return &s, nil
}

// GetForUpdate crea la fila en cero si no existe y la bloquea (SELECT FOR UPDATE).
// Crearla antes garantiza que dos créditos concurrentes a una bodega nueva se serialicen.
func (r *StockRepo) GetForUpdate(ctx context.Context, productID, warehouseID int64) (*entity.Stock, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock (product_id, warehouse_id, quantity, updated_at)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (product_id, warehouse_id) DO NOTHING`, productID, warehouseID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: bodega %d", domain.ErrInvalidWarehouse, warehouseID)
		}
		return nil, fmt.Errorf("ensure stock row: %w", err)
	}
	var s entity.Stock
	err = r.q.QueryRow(ctx, `
		SELECT product_id, warehouse_id, quantity, reserved, updated_at
		FROM stock WHERE product_id = $1 AND warehouse_id = $2
		FOR UPDATE`, productID, warehouseID).Scan(
		&s.ProductID, &s.WarehouseID, &s.Quantity, &s.Reserved, &s.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get stock for update: %w", err)
	}
	return &s, nil
}

// Upsert inserta o actualiza la cantidad en stock (por producto y bodega).
func (r *StockRepo) Upsert(ctx context.Context, stock *entity.Stock) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock (product_id, warehouse_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id, warehouse_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at`,
		stock.ProductID, stock.WarehouseID, stock.Quantity, stock.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}

// ListByProduct stock del producto en cada bodega, ordenado por bodega.
func (r *StockRepo) ListByProduct(ctx context.Context, productID int64) ([]entity.WarehouseStock, error) {
	rows, err := r.q.Query(ctx, `
		SELECT w.id, w.code, w.name, w.address, w.created_at, s.quantity, s.reserved, s.updated_at
		FROM stock s
		JOIN warehouses w ON w.id = s.warehouse_id
		WHERE s.product_id = $1
		ORDER BY w.id`, productID)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	defer rows.Close()

	var list []entity.WarehouseStock
	for rows.Next() {
		var ws entity.WarehouseStock
		if err := rows.Scan(
			&ws.Warehouse.ID, &ws.Warehouse.Code, &ws.Warehouse.Name, &ws.Warehouse.Address, &ws.Warehouse.CreatedAt,
			&ws.Quantity, &ws.Reserved, &ws.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, ws)
	}
	return list, rows.Err()
}
