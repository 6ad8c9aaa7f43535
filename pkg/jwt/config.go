package jwt

import "time"

// Config holds token settings.
type Config struct {
	SigningKey string        `env:"JWT_SIGNING_KEY,required"`
	Issuer     string        `env:"JWT_ISSUER" envDefault:"sessionguard"`
	TTL        time.Duration `env:"JWT_TTL" envDefault:"15m"`
}
