package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/matthewbaird/pageforge/internal/apiclient"
	"github.com/matthewbaird/pageforge/internal/eventbus"
	"github.com/matthewbaird/pageforge/internal/pagestore"
	"github.com/matthewbaird/pageforge/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "file:pageforge.db?_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	db.SetMaxOpenConns(1)
	defer db.Close()

	store := pagestore.NewSQLiteStore(db)
	if err := store.CreateTable(ctx); err != nil {
		log.Fatalf("creating pages table: %v", err)
	}

	bus := eventbus.New(0)
	bus.Subscribe("log", eventbus.NewLogConsumer())
	bus.Start(ctx)
	defer bus.Stop()

	client := apiclient.NewHTTPCaller(os.Getenv("UPSTREAM_BASE_URL"))

	port := 8080
	if p := os.Getenv("PORT"); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	if err := server.Run(ctx, server.Config{
		Port:   port,
		Store:  store,
		Client: client,
		Bus:    bus,
	}); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
