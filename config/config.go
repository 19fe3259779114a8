package config

import "os"

type Config struct {
	ServerPort string
	StaticDir  string
}

func Load() *Config {
	return &Config{
		ServerPort: fromEnv("PORT", ":8080"),
		StaticDir:  fromEnv("STATIC_DIR", "./static"),
	}
}

func fromEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
