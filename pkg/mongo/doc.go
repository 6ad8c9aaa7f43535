// Package mongo connects to MongoDB with retries and exposes a readiness
// probe. Config is populated from MONGODB_* environment variables.
package mongo
