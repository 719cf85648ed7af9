// Command castcut runs the reference command/event server over the
// engine described in SPEC_FULL.md. It keeps the teacher's headless
// utility modes (UUID generation, free-port discovery) from
// startInLuaHelperMode, dropping only the Wails/GUI bootstrap that does
// not apply to a library-first engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/oliwoli/castcut/internal/config"
	"github.com/oliwoli/castcut/internal/server"
	"github.com/oliwoli/castcut/internal/telemetry"
)

func main() {
	addr := flag.String("addr", "", "address to listen on (default: env CASTCUT_ADDR, or :8787)")
	findPort := flag.Bool("find-port", false, "find a free TCP port, print it, and exit")
	uuidCount := flag.Int("uuid", 0, "print N random UUIDs and exit")
	uuidFromStr := flag.String("uuid-from-str", "", "print a deterministic UUID derived from this string and exit")
	flag.Parse()

	if *uuidCount > 0 {
		for i := 0; i < *uuidCount; i++ {
			fmt.Println(uuid.New())
		}
		return
	}
	if *uuidFromStr != "" {
		fmt.Println(uuid.NewMD5(uuid.Nil, []byte(*uuidFromStr)))
		return
	}
	if *findPort {
		port, err := findFreePort()
		if err != nil {
			fmt.Fprintln(os.Stderr, "could not find free port:", err)
			os.Exit(1)
		}
		fmt.Println(port)
		return
	}

	cfg := config.Load()
	log := telemetry.NewLogger("castcut")
	entry := telemetry.WithComponent(log, "cmd")

	listenAddr := *addr
	if listenAddr == "" {
		listenAddr = cfg.ServerAddr
	}

	srv := server.New(listenAddr, entry, cfg)
	bound, err := srv.ListenAndServe()
	if err != nil {
		entry.WithError(err).Fatal("could not start server")
	}
	entry.WithField("addr", bound).Info("castcut server ready")

	metricsAddr := ":9090"
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", telemetry.Handler())
	metricsSrv := &http.Server{Addr: metricsAddr, Handler: metricsMux}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			entry.WithError(err).Warn("metrics server stopped")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	entry.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(ctx)
}

func findFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
