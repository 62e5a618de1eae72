package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/km-arc/armature/app/controllers"
	"github.com/km-arc/armature/app/services"
	"github.com/km-arc/armature/framework/app"
	"github.com/km-arc/armature/framework/metadata"
)

func main() {
	a := app.New()

	a.Use(metadata.Logging())
	a.Declare(
		services.Declare,
		controllers.DeclareTasks,
		controllers.DeclareStatus,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.DiscoverAndRegister(ctx); err != nil {
		a.Logger().WithError(err).Fatal("bootstrap failed")
	}
	if err := a.Run(ctx); err != nil {
		a.Logger().WithError(err).Fatal("server stopped")
	}
}
