package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/lexatlas/statute-crag/internal/adapters/mcpserver"
	"github.com/lexatlas/statute-crag/internal/bootstrap"
	"github.com/lexatlas/statute-crag/internal/config"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, "mcp", cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	srv := mcpserver.New(app.AskUC, app.SearchUC)

	addr := "localhost:" + cfg.APIPort
	sse := server.NewSSEServer(srv, server.WithBaseURL(fmt.Sprintf("http://%s", addr)))

	go func() {
		app.Log.Info("mcp listening", "addr", addr)
		if err := sse.Start(addr); err != nil {
			log.Fatalf("mcp server error: %v", err)
		}
	}()

	<-ctx.Done()
	if err := sse.Shutdown(context.Background()); err != nil {
		app.Log.Error("mcp shutdown error", "error", err)
	}
}
