// Package bootstrap runs the lifecycle shared by the ssogate binaries:
// validate the typed config, start, print a startup summary, block until a
// shutdown signal, then stop in reverse order.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.OnStart(srv.Start)
//	app.OnStop(srv.Stop)
//	app.Summary.Add("server", srv.Addr())
//	return app.Run(ctx)
package bootstrap
