package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	appmirror "github.com/jhoicas/crs-vision/internal/application/mirror"
	"github.com/jhoicas/crs-vision/internal/infrastructure/jsonfile"
	infrapdf "github.com/jhoicas/crs-vision/internal/infrastructure/pdf"
	httpRouter "github.com/jhoicas/crs-vision/internal/interfaces/http"
	"github.com/jhoicas/crs-vision/pkg/config"
	"github.com/jhoicas/crs-vision/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
		File:  cfg.App.LogFile,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando servidor espejo")

	ctx := context.Background()
	hub := appmirror.NewHub(jsonfile.NewDatasetFile(cfg.HTTP.DBFile), log.Zerolog())
	if err := hub.Load(ctx); err != nil {
		log.Fatal().Err(err).Str("file", cfg.HTTP.DBFile).Msg("base de datos del servidor")
	}

	app := httpRouter.NewApp(cfg.App.Name, httpRouter.RouterDeps{
		Hub:     hub,
		Sheet:   infrapdf.NewSheetGenerator(time.Local),
		DistDir: cfg.HTTP.DistDir,
		Log:     log.Zerolog(),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	fmt.Println("SERVIDOR CRS VISION EN EJECUCIÓN")
	fmt.Printf("Local:  http://localhost:%d\n", cfg.HTTP.Port)
	if ip := lanIPv4(); ip != "" {
		fmt.Printf("Red:    http://%s:%d\n", ip, cfg.HTTP.Port)
		fmt.Printf("Configure los demás equipos con la IP %s\n", ip)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("servidor detenido")
}

// lanIPv4 primera dirección IPv4 no loopback de una interfaz activa.
func lanIPv4() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			if ipn, ok := a.(*net.IPNet); ok {
				if ip4 := ipn.IP.To4(); ip4 != nil {
					return ip4.String()
				}
			}
		}
	}
	return ""
}
