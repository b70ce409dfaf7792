package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"purchase-drivers/internal/analyzer"
	"purchase-drivers/internal/config"
	"purchase-drivers/internal/crawler"
	"purchase-drivers/internal/parser"
	"purchase-drivers/internal/pipeline"
	"purchase-drivers/internal/store"
	"purchase-drivers/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New().Errorf("load config: %v", err)
		os.Exit(1)
	}
	l := cfg.Logger()

	tax, err := cfg.Taxonomy()
	if err != nil {
		l.Errorf("load taxonomy: %v", err)
		os.Exit(1)
	}
	an := analyzer.New(tax, analyzer.DefaultOptions())

	s := &server{
		log:         l,
		analyzer:    an,
		parser:      parser.New(),
		concurrency: cfg.Concurrency,
		maxBody:     cfg.MaxBodyBytes,
	}
	opts := []pipeline.Option{pipeline.WithTimeout(cfg.FetchTimeout * 2)}
	if cfg.DBPath != "" {
		st, err := store.Open(context.Background(), cfg.DBPath)
		if err != nil {
			l.Errorf("open history %s: %v", cfg.DBPath, err)
			os.Exit(1)
		}
		defer st.Close()
		s.history = st
		opts = append(opts, pipeline.WithRecorder(st))
	}
	s.pipeline = pipeline.New(crawler.NewHTTPClient(cfg.CrawlerOptions()), an, l, opts...)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      newRouter(s),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		l.Infof("server listening on %s (taxonomy %s)", cfg.Addr, tax.Language())
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			l.Errorf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	l.Infof("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	l.Infof("bye")
}
