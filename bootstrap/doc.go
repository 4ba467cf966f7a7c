// Package bootstrap runs the lifecycle of a registry-aware process.
//
// An App starts registered components in order, runs startup hooks, logs
// a summary, waits for SIGINT/SIGTERM, and then shuts down: OnStop hooks,
// named shutdown hooks, then components in reverse order.
//
// # Quick Start
//
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil {
//	    return err
//	}
//	app.RegisterComponent(server.NewComponent(srv))
//	app.RegisterComponent(discovery.NewComponent(cfg.Discovery, nil, app.Logger,
//	    discovery.WithShutdownRegistrar(app)))
//	return app.Run(ctx)
//
// App implements discovery.ShutdownRegistrar, so the discovery client's
// exit-time deregistration runs as part of the shutdown sequence.
package bootstrap
