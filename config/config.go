package config

import "time"

type Config struct {
	Web      Web
	Cors     Cors
	DB       DB
	Redis    Redis
	Cart     Cart
	Checkout Checkout
	Session  Session
	Rate     Rate
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type Cors struct {
	Origin string
}

type DB struct {
	User       string `conf:"default:postgres"`
	Password   string `conf:"default:postgres,mask"`
	Host       string `conf:"default:localhost"`
	Name       string `conf:"default:market"`
	DisableTLS bool   `conf:"default:true"`
}

type Redis struct {
	Addr     string `conf:"default:localhost:6379"`
	Password string `conf:"mask"`
}

type Cart struct {
	// TTL bounds how long an untouched cart survives in durable
	// storage; every write slides it forward.
	TTL time.Duration `conf:"default:720h"`
}

type Checkout struct {
	// PlaceTimeout bounds one order-placement call; hitting it counts
	// as that shop's failure.
	PlaceTimeout time.Duration `conf:"default:10s"`
}

type Session struct {
	Lifetime time.Duration `conf:"default:24h"`
}

type Rate struct {
	Burst  int     `conf:"default:20"`
	Expiry int     `conf:"default:10"`
	RPS    float64 `conf:"default:5"`
}
