package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-scan/internal/application/dto"
)

// Roles aceptados por la API.
const (
	RoleOperator   = "operador"
	RoleSupervisor = "supervisor"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Apply     MovementApplier
	History   MovementLister
	Lookup    ProductLooker
	Health    func(ctx context.Context) error // nil = siempre sano
	JWTSecret string
	RateLimit int // peticiones por minuto por IP; 0 desactiva
	Log       zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", healthHandler(deps.Health))

	api := app.Group("/api")
	if deps.RateLimit > 0 {
		api.Use(limiter.New(limiter.Config{
			Max:        deps.RateLimit,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{Code: dto.CodeRateLimited, Message: "demasiadas peticiones"})
			},
		}))
	}

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret), RequireRole(RoleOperator, RoleSupervisor))

	movementHandler := NewMovementHandler(deps.Apply, deps.History, deps.Log)
	protected.Post("/movements", movementHandler.Apply)
	protected.Get("/movements", movementHandler.List)

	productHandler := NewProductHandler(deps.Lookup, deps.Log)
	protected.Get("/products/lookup", productHandler.Lookup)
}

// healthHandler lo consulta la sonda de conectividad del escáner.
func healthHandler(check func(ctx context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "error": err.Error()})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
