package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrConflict     = errors.New("conflicto con el estado actual")

	// Rechazados antes de entrar a la cola.
	ErrInvalidMovement = errors.New("movimiento inválido")
	ErrInvalidEAN      = errors.New("EAN inválido: checksum incorrecto")

	// Devueltos por el ledger y guardados tal cual como lastError.
	ErrProductNotFound   = errors.New("producto no encontrado")
	ErrInvalidWarehouse  = errors.New("bodega inválida")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrValidation        = errors.New("error de validación")

	// Transitorios, reintentables en el siguiente ciclo.
	ErrNetworkFailure = errors.New("fallo de red")
	ErrTimeout        = errors.New("tiempo de espera agotado")

	// Estado informativo: attemptCount >= retryCeiling.
	ErrRetryExhausted = errors.New("reintentos agotados")

	// Único error fatal para un ciclo de sincronización.
	ErrQueueCorrupt = errors.New("cola local ilegible o corrupta")
)
