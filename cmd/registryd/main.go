// Command registryd is a reference process for the discovery client. It
// serves a health endpoint, registers itself with the registry, resolves
// configured peers, and deregisters on SIGINT/SIGTERM.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"github.com/kbukum/svcreg/bootstrap"
	"github.com/kbukum/svcreg/component"
	"github.com/kbukum/svcreg/config"
	"github.com/kbukum/svcreg/discovery"
	_ "github.com/kbukum/svcreg/discovery/static"
	"github.com/kbukum/svcreg/errors"
	"github.com/kbukum/svcreg/logger"
	"github.com/kbukum/svcreg/observability"
	"github.com/kbukum/svcreg/server"
)

func main() {
	if err := run(context.Background()); err != nil {
		logger.Error("registryd exited", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg Config
	if err := config.LoadConfig(serviceName, &cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	app, err := bootstrap.NewApp(&cfg)
	if err != nil {
		return err
	}
	if err := wire(app); err != nil {
		return err
	}
	return app.Run(ctx)
}

// wire registers the components in start order: telemetry first so the
// global providers are in place, then the server so the health endpoint
// answers before the registry starts polling it, then discovery and peers.
func wire(app *bootstrap.App[*Config]) error {
	cfg := app.Cfg

	metrics, err := observability.NewDiscoveryMetrics(otel.Meter(serviceName))
	if err != nil {
		return err
	}

	srv := server.New(cfg.Server, app.Logger)
	srv.ApplyDefaults(cfg.Name, app.Components.HealthAll)

	disc := discovery.NewComponent(cfg.Discovery, &cfg.Consul, app.Logger,
		discovery.WithShutdownRegistrar(app),
		discovery.WithObserver(metrics),
	)
	peers := newPeerWatcher(cfg.Peers, disc, app.Logger)

	srv.Engine().GET("/v1/discover/:service", discoverHandler(disc))
	srv.Engine().GET("/v1/peers/:service", peerHandler(peers))

	components := []component.Component{
		observability.NewComponent(cfg.Observability),
		server.NewComponent(srv),
		disc,
		peers,
	}
	for _, c := range components {
		if err := app.RegisterComponent(c); err != nil {
			return err
		}
	}
	return nil
}

// discoverHandler resolves one healthy instance of the named service.
func discoverHandler(source clientSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		client := source.Client()
		if client == nil {
			server.RespondWithError(c, errors.Internal(fmt.Errorf("discovery not started")))
			return
		}
		inst, err := client.Lookup(c.Request.Context(), c.Param("service"))
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		server.RespondOK(c, inst)
	}
}

// peerHandler returns the instance last resolved for a configured peer.
func peerHandler(peers *peerWatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("service")
		inst, ok := peers.Resolved(name)
		if !ok {
			server.RespondWithError(c, errors.EmptyResult(name))
			return
		}
		server.RespondOK(c, inst)
	}
}
