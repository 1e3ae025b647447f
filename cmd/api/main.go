package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/pflag"

	"github.com/jhoicas/inventario-scan/internal/application/ledger"
	"github.com/jhoicas/inventario-scan/internal/domain/idempotency"
	"github.com/jhoicas/inventario-scan/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-scan/internal/infrastructure/rediscache"
	httpRouter "github.com/jhoicas/inventario-scan/internal/interfaces/http"
	"github.com/jhoicas/inventario-scan/pkg/config"
	"github.com/jhoicas/inventario-scan/pkg/jwt"
	"github.com/jhoicas/inventario-scan/pkg/logger"
)

func main() {
	migrate := pflag.Bool("migrate", false, "aplicar el esquema antes de servir")
	issueToken := pflag.String("issue-token", "", "emitir un token para ACTOR[:ROL] y salir")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	if *issueToken != "" {
		actor, role, _ := strings.Cut(*issueToken, ":")
		if role == "" {
			role = httpRouter.RoleOperator
		}
		tok, err := jwt.Generate(cfg.JWT.Secret, actor, role, cfg.JWT.Issuer, cfg.JWT.Expiration)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(tok)
		return
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando ledger")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if *migrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migración")
		}
		log.Info().Msg("esquema aplicado")
	}

	// Caché de reenvíos opcional: sin REDIS_ADDR la tabla del ledger responde sola.
	var replay ledger.ReplayCache
	if cfg.Redis.Addr != "" {
		client, err := rediscache.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis no disponible, se continúa sin caché de reenvíos")
		} else {
			defer client.Close()
			replay = rediscache.NewReplayCache(client, cfg.Redis.ReplayTTL)
		}
	}

	productRepo := postgres.NewProductRepository(pool)
	stockRepo := postgres.NewStockRepository(pool)
	movementRepo := postgres.NewLedgerMovementRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	applyUC := ledger.NewApplyMovementUseCase(
		txRunner, productRepo, movementRepo, replay,
		idempotency.NewDeriver(cfg.Sync.IdempotencyWindow),
		log.Zerolog(),
	)
	lookupUC := ledger.NewProductLookupUseCase(productRepo, stockRepo)
	historyUC := ledger.NewHistoryUseCase(movementRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    cfg.HTTP.BodyLimitKiB * 1024,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Inventario Scan Ledger API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Apply:     applyUC,
		History:   historyUC,
		Lookup:    lookupUC,
		Health:    pool.Ping,
		JWTSecret: cfg.JWT.Secret,
		RateLimit: cfg.HTTP.RateLimit,
		Log:       log.Component("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("ledger detenido")
}
