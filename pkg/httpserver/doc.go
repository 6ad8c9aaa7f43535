// Package httpserver runs an http.Server for the lifetime of a context and
// provides liveness/readiness handlers.
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	g.Go(func() error { return srv.Run(ctx, router) })
//
// Run returns nil after a graceful shutdown triggered by ctx. Listen
// failures wrap ErrStart and shutdown failures wrap ErrShutdown.
package httpserver
