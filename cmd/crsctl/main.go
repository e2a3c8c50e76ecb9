// Comando crsctl: herramienta de operación del almacén de un equipo (estado, respaldo,
// restauración, tablero y preferencias) sin la interfaz gráfica.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jhoicas/crs-vision/internal/application/production"
	"github.com/jhoicas/crs-vision/internal/application/storage"
	"github.com/jhoicas/crs-vision/internal/domain/entity"
	"github.com/jhoicas/crs-vision/internal/domain/repository"
	"github.com/jhoicas/crs-vision/internal/infrastructure/mirror"
	"github.com/jhoicas/crs-vision/internal/infrastructure/postgres"
	"github.com/jhoicas/crs-vision/internal/infrastructure/sqlite"
	"github.com/jhoicas/crs-vision/pkg/config"
	"github.com/jhoicas/crs-vision/pkg/logger"
	"github.com/jhoicas/crs-vision/pkg/settings"
)

const usage = `uso: crsctl <comando> [opciones]

comandos:
  status                     estado del almacén y del servidor espejo
  ping <host>                prueba la conexión con un servidor espejo
  connect <host>             prueba y guarda el servidor espejo ("" = modo local)
  backup [-o archivo]        exporta un respaldo JSON
  restore <archivo>          restaura un respaldo
  orders [-user n] [-q t]    lista el tablero de OCs
  dashboard                  resumen de desempeño del mes
  theme [light|dark]         muestra o cambia el tema
  watch [-every dur]         sigue el tablero sincronizando con el servidor espejo
`

// app dependencias comunes de los comandos.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	prefs *settings.Store
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: "warn", File: cfg.App.LogFile})
	prefs, err := settings.Open(cfg.Settings.File)
	if err != nil {
		fail(err)
	}
	a := &app{cfg: cfg, log: log, prefs: prefs}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	if cmd != "watch" {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()
	}
	switch cmd {
	case "status":
		err = a.status(ctx)
	case "ping":
		err = a.ping(ctx, args)
	case "connect":
		err = a.connect(ctx, args)
	case "backup":
		err = a.backup(ctx, args)
	case "restore":
		err = a.restore(ctx, args)
	case "orders":
		err = a.orders(ctx, args)
	case "dashboard":
		err = a.dashboard(ctx)
	case "theme":
		err = a.theme(args)
	case "watch":
		err = a.watch(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

// recordStore construye el almacén local según STORE_DRIVER.
func (a *app) recordStore() repository.RecordStore {
	if a.cfg.Store.Driver == config.DriverPostgres {
		return postgres.NewRecordStore(a.cfg.Store.DatabaseURL)
	}
	return sqlite.NewRecordStore(a.cfg.Store.Path)
}

// withService abre el servicio de datos, ejecuta fn y drena las escrituras pendientes.
func (a *app) withService(ctx context.Context, fn func(*storage.Service) error) error {
	local := a.recordStore()
	defer local.Close()

	client := mirror.NewClient(a.prefs.ServerHost(), a.cfg.Mirror.Port, a.cfg.Mirror.Timeout)
	var (
		mu       sync.Mutex
		failures []storage.Failure
	)
	svc := storage.NewService(local, client, a.log.Zerolog(), storage.WithFailureHook(func(f storage.Failure) {
		mu.Lock()
		failures = append(failures, f)
		mu.Unlock()
	}))
	if err := svc.Initialize(ctx); err != nil {
		return err
	}
	runErr := fn(svc)
	// El contexto del comando puede estar cancelado (watch): el drenado usa uno propio.
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := svc.Shutdown(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, err)
	}
	mu.Lock()
	defer mu.Unlock()
	for _, f := range failures {
		fmt.Fprintf(os.Stderr, "aviso: %s (%s) no se guardó: %v\n", f.Op, f.Mode, f.Err)
	}
	return runErr
}

func (a *app) status(ctx context.Context) error {
	host := a.prefs.ServerHost()
	return a.withService(ctx, func(svc *storage.Service) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
		fmt.Fprintf(w, "Almacén\t%s\n", a.storeLabel())
		if host == "" {
			fmt.Fprintf(w, "Servidor\t(sin configurar)\n")
		} else {
			fmt.Fprintf(w, "Servidor\t%s:%d\n", host, a.cfg.Mirror.Port)
		}
		fmt.Fprintf(w, "Modo\t%s\n", svc.Mode())
		fmt.Fprintf(w, "Usuarios\t%d\n", len(svc.Users()))
		fmt.Fprintf(w, "OCs\t%d\n", len(svc.Orders()))
		fmt.Fprintf(w, "Clichês\t%d\n", len(svc.Cliches()))
		logs := svc.Logs()
		fmt.Fprintf(w, "Actividad\t%d\n", len(logs))
		if len(logs) > 0 {
			fmt.Fprintf(w, "Última actividad\t%s (%s)\n", logs[0].Action, humanize.Time(logs[0].Timestamp))
		}
		return w.Flush()
	})
}

func (a *app) storeLabel() string {
	if a.cfg.Store.Driver == config.DriverPostgres {
		return "postgres"
	}
	label := "sqlite " + a.cfg.Store.Path
	if st, err := os.Stat(a.cfg.Store.Path); err == nil {
		label += " (" + humanize.Bytes(uint64(st.Size())) + ")"
	}
	return label
}

func (a *app) ping(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("uso: crsctl ping <host>")
	}
	host := strings.TrimSpace(args[0])
	start := time.Now()
	if !mirror.TestConnection(ctx, host, a.cfg.Mirror.Port, mirror.DefaultTestTimeout) {
		return fmt.Errorf("sin respuesta de %s:%d", host, a.cfg.Mirror.Port)
	}
	fmt.Printf("%s:%d en línea (%s)\n", host, a.cfg.Mirror.Port, time.Since(start).Round(time.Millisecond))
	return nil
}

func (a *app) connect(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New(`uso: crsctl connect <host>  (use "" para volver al modo local)`)
	}
	host := strings.TrimSpace(args[0])
	if host != "" && !mirror.TestConnection(ctx, host, a.cfg.Mirror.Port, mirror.DefaultTestTimeout) {
		return fmt.Errorf("sin respuesta de %s:%d, no se guardó", host, a.cfg.Mirror.Port)
	}
	if err := a.prefs.SetServerHost(host); err != nil {
		return err
	}
	if host == "" {
		fmt.Println("servidor eliminado: modo local")
	} else {
		fmt.Printf("servidor guardado: %s\n", host)
	}
	return nil
}

func (a *app) backup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("backup", flag.ContinueOnError)
	out := fs.String("o", storage.BackupFileName(time.Now()), "archivo de salida")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.withService(ctx, func(svc *storage.Service) error {
		tmp := *out + ".tmp"
		f, err := os.Create(tmp)
		if err != nil {
			return err
		}
		if err := svc.CreateBackup(f); err != nil {
			f.Close()
			os.Remove(tmp)
			return err
		}
		if err := f.Close(); err != nil {
			os.Remove(tmp)
			return err
		}
		if err := os.Rename(tmp, *out); err != nil {
			return err
		}
		st, err := os.Stat(*out)
		if err != nil {
			return err
		}
		abs, _ := filepath.Abs(*out)
		fmt.Printf("respaldo guardado en %s (%s)\n", abs, humanize.Bytes(uint64(st.Size())))
		return nil
	})
}

func (a *app) restore(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("uso: crsctl restore <archivo>")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	return a.withService(ctx, func(svc *storage.Service) error {
		if err := svc.RestoreBackup(ctx, f); err != nil {
			return err
		}
		ds := svc.Snapshot()
		fmt.Printf("restaurado (%s): %s usuarios, %s OCs, %s clichês, %s entradas de actividad\n",
			svc.Mode(),
			humanize.Comma(int64(len(ds.Users))), humanize.Comma(int64(len(ds.Orders))),
			humanize.Comma(int64(len(ds.Cliches))), humanize.Comma(int64(len(ds.Logs))))
		return nil
	})
}

func (a *app) orders(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("orders", flag.ContinueOnError)
	userName := fs.String("user", "", "ver el tablero como este usuario")
	search := fs.String("q", "", "buscar por cliente, OC o descripción")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.withService(ctx, func(svc *storage.Service) error {
		viewer := entity.User{Name: "crsctl", Role: entity.RoleAdmin}
		if *userName != "" {
			found := false
			for _, u := range svc.Users() {
				if entity.NameKey(u.Name) == entity.NameKey(strings.TrimSpace(*userName)) {
					viewer, found = u, true
					break
				}
			}
			if !found {
				return fmt.Errorf("usuario %q no encontrado", *userName)
			}
		}

		list := production.VisibleOrders(viewer, svc.Orders(), *search)
		counters := production.CountersOf(list)
		w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
		fmt.Fprintln(w, "OC\tCLIENTE\tPRIORIDAD\tESTADO\tENTREGA\tVENDEDOR")
		for _, o := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", o.OCNumber, o.Client, o.Priority, o.Status, o.DueDate, o.Salesperson)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\n%d OCs, %d urgentes, %d en producción\n", counters.Total, counters.Urgent, counters.InProgress)
		return nil
	})
}

func (a *app) dashboard(ctx context.Context) error {
	return a.withService(ctx, func(svc *storage.Service) error {
		now := time.Now()
		sum := production.MonthlySummary(svc.Orders(), now)
		fmt.Printf("Desempeño %02d/%d\n", sum.Month, sum.Year)
		fmt.Printf("  OCs del mes:       %d\n", sum.MonthOrders)
		fmt.Printf("  Concluidas:        %d (%s%%)\n", sum.CompletedInMonth, sum.CompletionRate.StringFixed(2))
		fmt.Printf("  Activas:           %d\n", sum.ActiveOrders)

		if len(sum.UrgencyRanking) > 0 {
			fmt.Println("\nUrgencias por vendedor")
			for _, r := range sum.UrgencyRanking {
				fmt.Printf("  %-20s %d\n", r.Name, r.Count)
			}
		}
		if len(sum.VolumeRanking) > 0 {
			fmt.Println("\nVolumen por vendedor")
			for _, r := range sum.VolumeRanking {
				bar := strings.Repeat("█", r.Count*20/sum.MaxVolume)
				fmt.Printf("  %-20s %-20s %d\n", r.Name, bar, r.Count)
			}
		}

		sched := production.Week(svc.Orders(), now, 0)
		fmt.Println("\nSemana actual")
		for _, d := range sched {
			fmt.Printf("  %s  %d OCs\n", d.Day.Format("Mon 02/01"), len(d.Orders))
		}
		return nil
	})
}

func (a *app) theme(args []string) error {
	if len(args) == 0 {
		fmt.Println(a.prefs.Theme())
		return nil
	}
	return a.prefs.SetTheme(args[0])
}

// watch mantiene la sesión abierta: Poll reemplaza el caché cada intervalo y se imprime
// el resumen del tablero cuando cambia. Termina con Ctrl+C.
func (a *app) watch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	every := fs.Duration("every", a.cfg.Mirror.PollInterval, "intervalo de sincronización (MIRROR_POLL_SECONDS)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *every <= 0 {
		return errors.New("intervalo de sincronización no configurado: use -every o MIRROR_POLL_SECONDS")
	}
	return a.withService(ctx, func(svc *storage.Service) error {
		if svc.Mode() != storage.ModeRemote {
			return errors.New("sin servidor espejo accesible: nada que sincronizar (use crsctl connect)")
		}
		pollErr := make(chan error, 1)
		go func() { pollErr <- svc.Poll(ctx, *every) }()

		ticker := time.NewTicker(*every)
		defer ticker.Stop()
		last := ""
		for {
			c := production.CountersOf(svc.Orders())
			line := fmt.Sprintf("%d OCs, %d urgentes, %d en producción", c.Total, c.Urgent, c.InProgress)
			if line != last {
				fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05"), line)
				last = line
			}
			select {
			case <-ctx.Done():
				<-pollErr
				return nil
			case <-ticker.C:
			}
		}
	})
}
