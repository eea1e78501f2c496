package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"holdem-tafel/internal/config"
	"holdem-tafel/internal/gateway"
	"holdem-tafel/internal/history"
	"holdem-tafel/internal/table"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}
	log := cfg.Logger()

	historyService, historyMode, err := history.NewService(cfg.History, log)
	if err != nil {
		log.WithError(err).Fatal("failed to init history service")
	}
	defer historyService.Close()

	tbl, err := table.New("main", cfg.Game, historyService, log)
	if err != nil {
		log.WithError(err).Fatal("failed to create table")
	}

	gw := gateway.New(tbl, cfg.OriginAllowlist, log)
	historyHTTP := history.NewHTTPHandler(historyService)

	mux := http.NewServeMux()
	gw.RegisterRoutes(mux)
	historyHTTP.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.WithField("history_mode", historyMode).Infof("starting websocket server on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-stop
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("server forced to shutdown")
	}
	// hijacked websocket connections are not closed by Shutdown
	gw.CloseAll()
	tbl.Stop()
	log.Info("server stopped")
}
