package main

import (
	"context"
	"time"

	"github.com/niksmo/recycled/config"
	"github.com/niksmo/recycled/internal/app"
	"github.com/niksmo/recycled/pkg/sigctx"
)

const closeTimeout = 5 * time.Second

func main() {
	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	cfg := config.Load()
	cfg.Print()

	lookupService := app.New(sigCtx, cfg)

	lookupService.Run(closeApp)

	<-sigCtx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	lookupService.Close(ctx)
}
