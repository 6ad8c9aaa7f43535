// Package redis connects to Redis with retries and exposes a readiness probe.
//
// Configuration is read from the environment through Config:
//
//	cfg, err := config.Load[redis.Config]()
//	if err != nil {
//		return err
//	}
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	probes := []func(context.Context) error{redis.Healthcheck(client)}
//
// Errors returned by Connect wrap ErrRedisNotReady or
// ErrFailedToParseRedisConnString together with the driver error.
package redis
