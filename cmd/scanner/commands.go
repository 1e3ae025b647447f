package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/inventario-scan/internal/application/offline"
	"github.com/jhoicas/inventario-scan/internal/application/syncer"
	"github.com/jhoicas/inventario-scan/internal/domain/entity"
)

func newFlagSet(name string) *pflag.FlagSet {
	return pflag.NewFlagSet(name, pflag.ExitOnError)
}

// warehouseFlag convierte 0 (sin valor) en nil.
func warehouseFlag(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// oneID exige exactamente un argumento posicional (el id del registro).
func oneID(fs *pflag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s: se espera exactamente un id", fs.Name())
	}
	return fs.Arg(0), nil
}

func (a *app) scan(ctx context.Context, args []string) error {
	fs := newFlagSet("scan")
	typ := fs.StringP("type", "t", "outbound", "inbound | outbound | transfer")
	qty := fs.StringP("qty", "q", "1", "cantidad (> 0)")
	from := fs.Int64("from", 0, "bodega origen")
	to := fs.Int64("to", 0, "bodega destino")
	notes := fs.String("notes", "", "nota opcional")
	actor := fs.String("actor", "", "operador (por defecto el del token o SCANNER_ACTOR)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("scan: se espera un código EAN o SKU")
	}

	mt, err := entity.ParseMovementType(*typ)
	if err != nil {
		return err
	}
	quantity, err := decimal.NewFromString(*qty)
	if err != nil {
		return fmt.Errorf("cantidad %q: %w", *qty, err)
	}
	if *actor == "" {
		*actor = a.actor()
	}

	id, err := a.submit.Submit(ctx, offline.ScanInput{
		Code:              fs.Arg(0),
		MovementType:      mt,
		Quantity:          quantity,
		SourceWarehouseID: warehouseFlag(*from),
		DestWarehouseID:   warehouseFlag(*to),
		Actor:             *actor,
		Notes:             *notes,
	})
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := newFlagSet("list")
	failedOnly := fs.Bool("failed", false, "solo registros fallidos")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *failedOnly {
		failed, err := a.reporter.Failed(ctx)
		if err != nil {
			return err
		}
		return printJSON(failed)
	}

	records, err := a.store.List(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPRODUCTO\tTIPO\tCANT\tESTADO\tINTENTOS\tERROR")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			r.ID, r.ProductRef, r.MovementType, r.Quantity.String(), r.Status, r.AttemptCount, r.LastError)
	}
	return tw.Flush()
}

func (a *app) stats(ctx context.Context, args []string) error {
	if err := newFlagSet("stats").Parse(args); err != nil {
		return err
	}
	snap, err := a.reporter.Snapshot(ctx)
	if err != nil {
		return err
	}
	return printJSON(snap)
}

func (a *app) syncOnce(ctx context.Context, args []string) error {
	if err := newFlagSet("sync").Parse(args); err != nil {
		return err
	}
	report, err := a.engine.RunCycle(ctx)
	if err != nil {
		return err
	}
	return printJSON(report)
}

// run mantiene el scheduler, la sonda de conectividad y SIGUSR1 hasta SIGINT/SIGTERM.
func (a *app) run(ctx context.Context, args []string) error {
	if err := newFlagSet("run").Parse(args); err != nil {
		return err
	}

	scheduler := syncer.NewScheduler(a.engine, a.cfg.Sync.Interval, a.log.Zerolog())
	snapshots, unsubscribe := a.reporter.Subscribe()
	defer unsubscribe()

	manual := make(chan os.Signal, 1)
	signal.Notify(manual, syscall.SIGUSR1)
	defer signal.Stop(manual)

	a.log.Info().
		Str("queue", a.store.Path()).
		Dur("interval", a.cfg.Sync.Interval).
		Int("pid", os.Getpid()).
		Msg("sincronización en segundo plano")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return scheduler.Run(ctx) })
	g.Go(func() error {
		return a.probe.Watch(ctx, func() { scheduler.Trigger(syncer.TriggerReconnect) })
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-manual:
				scheduler.Trigger(syncer.TriggerManual)
			}
		}
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case snap, ok := <-snapshots:
				if !ok {
					return nil
				}
				a.log.Debug().
					Int("pending", snap.Pending).
					Int("error", snap.Error).
					Int("retry_exhausted", snap.RetryExhausted).
					Bool("syncing", snap.Syncing).
					Msg("estado de la cola")
			}
		}
	})
	if err := a.reporter.Notify(ctx); err != nil {
		a.log.Warn().Err(err).Msg("estado inicial de la cola")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.log.Info().Msg("sincronización detenida")
	return nil
}

func (a *app) retry(ctx context.Context, args []string) error {
	id, err := oneID(newFlagSet("retry"), args)
	if err != nil {
		return err
	}
	return a.store.ResetFailed(ctx, id)
}

func (a *app) discard(ctx context.Context, args []string) error {
	id, err := oneID(newFlagSet("discard"), args)
	if err != nil {
		return err
	}
	return a.store.Remove(ctx, id)
}

func (a *app) clear(ctx context.Context, args []string) error {
	fs := newFlagSet("clear")
	yes := fs.Bool("yes", false, "confirmar borrado total e irreversible")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*yes {
		return errors.New("clear borra toda la cola, incluidos los no sincronizados; repetir con --yes")
	}
	stats, err := a.store.Stats(ctx, a.cfg.Queue.RetryCeiling)
	if err != nil {
		return err
	}
	if err := a.store.ClearAll(ctx); err != nil {
		return err
	}
	a.log.Warn().Int("discarded", stats.Total-stats.Confirmed).Msg("cola vaciada")
	return nil
}

func (a *app) lookup(ctx context.Context, args []string) error {
	fs := newFlagSet("lookup")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("lookup: se espera un código EAN o SKU")
	}
	res, err := a.client.Lookup(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	return printJSON(res)
}
