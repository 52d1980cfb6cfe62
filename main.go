package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/mbolis/quick-xform/app"
	"github.com/mbolis/quick-xform/compiler"
	"github.com/mbolis/quick-xform/config"
	"github.com/mbolis/quick-xform/database"
	"github.com/mbolis/quick-xform/httpx"
	"github.com/mbolis/quick-xform/log"
	"github.com/mbolis/quick-xform/routes"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	cfg.Compiler.Apply()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	bearerServer := httpx.NewBearerServer(db, cfg)

	app := app.App{
		DB:           db,
		BearerServer: bearerServer,
		Compiler:     compiler.New(cfg.Compiler.Options()),
		Config:       cfg,
	}

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
