package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/inventario-scan/internal/application/offline"
	"github.com/jhoicas/inventario-scan/internal/application/status"
	"github.com/jhoicas/inventario-scan/internal/application/syncer"
	"github.com/jhoicas/inventario-scan/internal/domain/idempotency"
	"github.com/jhoicas/inventario-scan/internal/infrastructure/connectivity"
	"github.com/jhoicas/inventario-scan/internal/infrastructure/ledgerclient"
	"github.com/jhoicas/inventario-scan/internal/infrastructure/queuestore"
	"github.com/jhoicas/inventario-scan/pkg/config"
	"github.com/jhoicas/inventario-scan/pkg/logger"
)

const usage = `uso: scanner <comando> [flags]

comandos:
  scan     valida un código y encola el movimiento
  list     muestra la cola local
  stats    conteos de la cola y último ciclo
  sync     ejecuta un ciclo de sincronización
  run      sincroniza en segundo plano (intervalo, reconexión, SIGUSR1)
  retry    devuelve un registro fallido a pending
  discard  elimina un registro no confirmado
  clear    vacía la cola (requiere --yes)
  lookup   consulta un producto en el ledger
`

// app dependencias compartidas por los comandos.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	store    *queuestore.FileStore
	client   *ledgerclient.Client
	creds    *ledgerclient.TokenCredentials
	probe    *connectivity.Probe
	submit   *offline.SubmitUseCase
	engine   *syncer.Engine
	reporter *status.Reporter
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}

	a, err := newApp(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	var runErr error
	switch cmd {
	case "scan":
		runErr = a.scan(ctx, args)
	case "list":
		runErr = a.list(ctx, args)
	case "stats":
		runErr = a.stats(ctx, args)
	case "sync":
		runErr = a.syncOnce(ctx, args)
	case "run":
		runErr = a.run(ctx, args)
	case "retry":
		runErr = a.retry(ctx, args)
	case "discard":
		runErr = a.discard(ctx, args)
	case "clear":
		runErr = a.clear(ctx, args)
	case "lookup":
		runErr = a.lookup(ctx, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "comando desconocido %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if runErr != nil {
		a.log.Error().Err(runErr).Str("cmd", cmd).Msg("comando fallido")
		os.Exit(1)
	}
}

func newApp(cfg *config.Config) (*app, error) {
	// Los logs van a stderr; stdout queda para la salida del comando.
	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
		Out:   os.Stderr,
	})

	store, err := queuestore.NewFileStore(cfg.Queue.Path)
	if err != nil {
		return nil, fmt.Errorf("abrir cola %s: %w", cfg.Queue.Path, err)
	}

	client := ledgerclient.New(cfg.Ledger, log.Component("ledger_client"))
	creds := ledgerclient.NewTokenCredentials(cfg.Ledger.Token)
	probe := connectivity.NewProbe(client, cfg.Sync.ProbeInterval, log.Zerolog())

	engine := syncer.NewEngine(store, client, probe, creds, syncer.Config{
		RetryCeiling:  cfg.Queue.RetryCeiling,
		SubmitTimeout: cfg.Sync.SubmitTimeout,
	}, log.Zerolog())
	reporter := status.NewReporter(store, cfg.Queue.RetryCeiling)
	engine.Observe(reporter)

	return &app{
		cfg:      cfg,
		log:      log,
		store:    store,
		client:   client,
		creds:    creds,
		probe:    probe,
		submit:   offline.NewSubmitUseCase(store, idempotency.NewDeriver(cfg.Sync.IdempotencyWindow), nil, log.Zerolog()),
		engine:   engine,
		reporter: reporter,
	}, nil
}

// actor operador de los movimientos: el del token si lo trae, si no SCANNER_ACTOR.
func (a *app) actor() string {
	if actor := a.creds.Actor(); actor != "" {
		return actor
	}
	return a.cfg.Sync.Actor
}
