package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/inventario-scan/internal/domain"
	"github.com/jhoicas/inventario-scan/internal/domain/ean"
	"github.com/jhoicas/inventario-scan/internal/domain/entity"
	"github.com/jhoicas/inventario-scan/internal/domain/repository"
)

// resolveProduct busca primero por EAN y luego por SKU.
// Un código con forma de EAN y checksum incorrecto se rechaza sin intentar SKU.
func resolveProduct(ctx context.Context, products repository.ProductRepository, ref string) (*entity.Product, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: product_ref requerido", domain.ErrValidation)
	}
	kind, err := ean.Check(ref)
	if err != nil {
		return nil, err
	}
	if kind == ean.KindEAN {
		p, _, err := products.GetByEAN(ctx, ean.Normalize(ref))
		if err != nil {
			return nil, err
		}
		if p != nil {
			return p, nil
		}
	}
	p, err := products.GetBySKU(ctx, ref)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, ref)
	}
	return p, nil
}
