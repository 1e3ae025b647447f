package ledger_test

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-scan/internal/domain"
	"github.com/jhoicas/inventario-scan/internal/domain/entity"
	"github.com/jhoicas/inventario-scan/internal/domain/repository"
)

// memDB base en memoria con semántica de transacción: Run serializa (como los bloqueos de fila)
// y descarta los cambios si fn falla.
type memDB struct {
	mu         sync.Mutex
	txMu       sync.Mutex
	products   map[int64]*entity.Product
	barcodes   []entity.Barcode
	warehouses map[int64]*entity.Warehouse
	stock      map[[2]int64]entity.Stock
	movements  []*entity.LedgerMovement
	locks      [][2]int64
}

func newMemDB() *memDB {
	return &memDB{
		products:   map[int64]*entity.Product{},
		warehouses: map[int64]*entity.Warehouse{},
		stock:      map[[2]int64]entity.Stock{},
	}
}

func (db *memDB) addProduct(id int64, sku string, eans ...string) {
	db.products[id] = &entity.Product{ID: id, SKU: sku, Name: "Producto " + sku, Status: "active"}
	for _, e := range eans {
		db.barcodes = append(db.barcodes, entity.Barcode{ProductID: id, EAN: e, Level: "unit", PackQty: 1})
	}
}

func (db *memDB) addWarehouse(id int64, code string) {
	db.warehouses[id] = &entity.Warehouse{ID: id, Code: code, Name: "Bodega " + code}
}

func (db *memDB) setStock(productID, warehouseID int64, qty string) {
	db.stock[[2]int64{productID, warehouseID}] = entity.Stock{
		ProductID: productID, WarehouseID: warehouseID, Quantity: decimal.RequireFromString(qty),
	}
}

func (db *memDB) qty(productID, warehouseID int64) decimal.Decimal {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.stock[[2]int64{productID, warehouseID}].Quantity
}

func (db *memDB) movementCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.movements)
}

// ---------- TxRunner ----------

func (db *memDB) Run(ctx context.Context, fn func(
	movRepo repository.LedgerMovementRepository,
	stockRepo repository.StockRepository,
	warehouseRepo repository.WarehouseRepository,
) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.mu.Lock()
	stockSnap := make(map[[2]int64]entity.Stock, len(db.stock))
	for k, v := range db.stock {
		stockSnap[k] = v
	}
	movSnap := append([]*entity.LedgerMovement(nil), db.movements...)
	db.mu.Unlock()

	if err := fn(movRepo{db}, stockRepo{db}, warehouseRepo{db}); err != nil {
		db.mu.Lock()
		db.stock = stockSnap
		db.movements = movSnap
		db.mu.Unlock()
		return err
	}
	return nil
}

// ---------- ProductRepository ----------

type productRepo struct{ db *memDB }

func (r productRepo) GetByID(_ context.Context, id int64) (*entity.Product, error) {
	return r.db.products[id], nil
}

func (r productRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	for _, p := range r.db.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return nil, nil
}

func (r productRepo) GetByEAN(_ context.Context, ean string) (*entity.Product, *entity.Barcode, error) {
	for i := range r.db.barcodes {
		if r.db.barcodes[i].EAN == ean {
			b := r.db.barcodes[i]
			return r.db.products[b.ProductID], &b, nil
		}
	}
	return nil, nil, nil
}

func (r productRepo) ListBarcodes(_ context.Context, productID int64) ([]entity.Barcode, error) {
	var out []entity.Barcode
	for _, b := range r.db.barcodes {
		if b.ProductID == productID {
			out = append(out, b)
		}
	}
	return out, nil
}

// ---------- WarehouseRepository ----------

type warehouseRepo struct{ db *memDB }

func (r warehouseRepo) GetByID(_ context.Context, id int64) (*entity.Warehouse, error) {
	return r.db.warehouses[id], nil
}

// ---------- StockRepository ----------

type stockRepo struct{ db *memDB }

func (r stockRepo) Get(_ context.Context, productID, warehouseID int64) (*entity.Stock, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.stock[[2]int64{productID, warehouseID}]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r stockRepo) GetForUpdate(_ context.Context, productID, warehouseID int64) (*entity.Stock, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.locks = append(r.db.locks, [2]int64{productID, warehouseID})
	s, ok := r.db.stock[[2]int64{productID, warehouseID}]
	if !ok {
		s = entity.Stock{ProductID: productID, WarehouseID: warehouseID, Quantity: decimal.Zero}
	}
	return &s, nil
}

func (r stockRepo) Upsert(_ context.Context, s *entity.Stock) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.stock[[2]int64{s.ProductID, s.WarehouseID}] = *s
	return nil
}

func (r stockRepo) ListByProduct(_ context.Context, productID int64) ([]entity.WarehouseStock, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []entity.WarehouseStock
	for k, s := range r.db.stock {
		if k[0] != productID {
			continue
		}
		out = append(out, entity.WarehouseStock{Warehouse: *r.db.warehouses[k[1]], Quantity: s.Quantity})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Warehouse.ID < out[j].Warehouse.ID })
	return out, nil
}

// ---------- LedgerMovementRepository ----------

type movRepo struct{ db *memDB }

func (r movRepo) Create(_ context.Context, m *entity.LedgerMovement) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.movements {
		if existing.IdempotencyKey == m.IdempotencyKey {
			return domain.ErrConflict
		}
	}
	cp := *m
	r.db.movements = append(r.db.movements, &cp)
	return nil
}

func (r movRepo) GetByIdempotencyKey(_ context.Context, key string) (*entity.LedgerMovement, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, m := range r.db.movements {
		if m.IdempotencyKey == key {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r movRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.LedgerMovement, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.LedgerMovement
	for i := len(r.db.movements) - 1; i >= 0; i-- {
		m := r.db.movements[i]
		if f.ProductID != 0 && m.ProductID != f.ProductID {
			continue
		}
		if f.Actor != "" && m.Actor != f.Actor {
			continue
		}
		if f.WarehouseID != 0 && !touches(m, f.WarehouseID) {
			continue
		}
		out = append(out, m)
	}
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func touches(m *entity.LedgerMovement, warehouseID int64) bool {
	return (m.SourceWarehouseID != nil && *m.SourceWarehouseID == warehouseID) ||
		(m.DestWarehouseID != nil && *m.DestWarehouseID == warehouseID)
}

// ---------- ReplayCache ----------

type memCache struct {
	mu      sync.Mutex
	entries map[string]string
	err     error
}

func (c *memCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", false, c.err
	}
	id, ok := c.entries[key]
	return id, ok, nil
}

func (c *memCache) Put(_ context.Context, key, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	if c.entries == nil {
		c.entries = map[string]string{}
	}
	c.entries[key] = id
	return nil
}

func ptr(v int64) *int64 { return &v }
