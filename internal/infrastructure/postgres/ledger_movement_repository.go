package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-scan/internal/domain"
	"github.com/jhoicas/inventario-scan/internal/domain/entity"
	"github.com/jhoicas/inventario-scan/internal/domain/repository"
)

var _ repository.LedgerMovementRepository = (*LedgerMovementRepo)(nil)

const idempotencyConstraint = "ledger_movements_idempotency_key"

// LedgerMovementRepo filas inmutables del ledger sobre PostgreSQL (usable con pool o tx).
type LedgerMovementRepo struct {
	q Querier
}

// NewLedgerMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerMovementRepository(q Querier) *LedgerMovementRepo {
	return &LedgerMovementRepo{q: q}
}

const movementColumns = `id, product_id, product_ref, movement_type, quantity, source_warehouse_id, dest_warehouse_id,
	actor, notes, occurred_at, idempotency_key, created_at`

// Create inserta el movimiento. La llave de idempotencia repetida devuelve domain.ErrConflict.
func (r *LedgerMovementRepo) Create(ctx context.Context, m *entity.LedgerMovement) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO ledger_movements (`+movementColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		m.ID, m.ProductID, m.ProductRef, string(m.Type), m.Quantity, m.SourceWarehouseID, m.DestWarehouseID,
		m.Actor, m.Notes, m.OccurredAt, m.IdempotencyKey, m.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, idempotencyConstraint) {
			return fmt.Errorf("%w: llave de idempotencia %s ya registrada", domain.ErrConflict, m.IdempotencyKey)
		}
		return fmt.Errorf("create ledger movement: %w", err)
	}
	return nil
}

// GetByIdempotencyKey devuelve (nil, nil) si la llave no existe.
func (r *LedgerMovementRepo) GetByIdempotencyKey(ctx context.Context, key string) (*entity.LedgerMovement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM ledger_movements WHERE idempotency_key = $1`, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ledger movement by key: %w", err)
	}
	return m, nil
}

// List historial más reciente primero.
func (r *LedgerMovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.LedgerMovement, error) {
	var (
		where []string
		args  []any
	)
	if f.ProductID != 0 {
		args = append(args, f.ProductID)
		where = append(where, fmt.Sprintf("product_id = $%d", len(args)))
	}
	if f.WarehouseID != 0 {
		args = append(args, f.WarehouseID)
		where = append(where, fmt.Sprintf("(source_warehouse_id = $%d OR dest_warehouse_id = $%d)", len(args), len(args)))
	}
	if f.Actor != "" {
		args = append(args, f.Actor)
		where = append(where, fmt.Sprintf("actor = $%d", len(args)))
	}
	query := `SELECT ` + movementColumns + ` FROM ledger_movements`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger movements: %w", err)
	}
	defer rows.Close()

	var list []*entity.LedgerMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.LedgerMovement, error) {
	var m entity.LedgerMovement
	var movementType string
	err := row.Scan(
		&m.ID, &m.ProductID, &m.ProductRef, &movementType, &m.Quantity, &m.SourceWarehouseID, &m.DestWarehouseID,
		&m.Actor, &m.Notes, &m.OccurredAt, &m.IdempotencyKey, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Type = entity.MovementType(movementType)
	return &m, nil
}
