// Package redisstore mirrors session records into Redis.
//
//	client, err := redis.Connect(ctx, redisCfg)
//	...
//	store := redisstore.New(client, redisstore.WithPrefix(redisCfg.KeyPrefix))
//	registry, err := session.New(ctx, store)
package redisstore
