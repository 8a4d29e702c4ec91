package config

type App struct {
	Port           string `env:"APP_PORT" default:"8080"`
	DatabaseURL    string `env:"DATABASE_URL,required"`
	JWTSecret      string `env:"JWT_SECRET,required"`
	FineRatePerDay int64  `env:"FINE_RATE_PER_DAY" default:"1"`
	Env            string `env:"APP_ENV" default:"dev"`
}
