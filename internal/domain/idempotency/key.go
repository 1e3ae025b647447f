// Package idempotency deriva la llave de deduplicación de un movimiento.
//
// La llave agrupa occurredAt en ventanas fijas: dos envíos del mismo escaneo dentro de la misma
// ventana colapsan en una llave. Duplicados que cruzan el borde de una ventana NO se deduplican;
// es un falso negativo acotado y conocido. El ledger es quien rechaza la llave repetida.
package idempotency

import (
	"strconv"
	"strings"
	"time"
)

// DefaultWindow ancho de ventana por defecto.
const DefaultWindow = 30 * time.Second

const separator = "|"

// Deriver calcula llaves con un ancho de ventana configurable.
type Deriver struct {
	Window time.Duration
}

// NewDeriver construye el derivador; window <= 0 usa DefaultWindow.
func NewDeriver(window time.Duration) Deriver {
	if window <= 0 {
		window = DefaultWindow
	}
	return Deriver{Window: window}
}

// WindowIndex índice de la ventana a la que pertenece t (floor(t / window)).
func (d Deriver) WindowIndex(t time.Time) int64 {
	w := d.window().Milliseconds()
	ms := t.UnixMilli()
	idx := ms / w
	if ms < 0 && ms%w != 0 {
		idx--
	}
	return idx
}

// Derive concatena actor | producto | tipo | ventana.
func (d Deriver) Derive(actor, productIdentifier, movementType string, occurredAt time.Time) string {
	return strings.Join([]string{
		actor,
		productIdentifier,
		movementType,
		strconv.FormatInt(d.WindowIndex(occurredAt), 10),
	}, separator)
}

func (d Deriver) window() time.Duration {
	if d.Window <= 0 {
		return DefaultWindow
	}
	return d.Window
}
