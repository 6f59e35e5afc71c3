package main

import (
	"os"
	"runtime"

	"github.com/joho/godotenv"
)

// Config is built once at startup and carried on the Bot. Handlers never
// read ambient environment state.
type Config struct {
	BotName     string
	OwnerName   string
	OwnerNumber string
	Prefix      string

	DatabaseURL string
	MongoURI    string
	RedisURL    string
	Port        string

	GeminiKey     string
	ScreenshotKey string
}

func loadConfig() Config {
	godotenv.Load()

	return Config{
		BotName:     getEnv("BOT_NAME", "Guard Bot"),
		OwnerName:   getEnv("OWNER_NAME", "Nothing Is Impossible"),
		OwnerNumber: getEnv("OWNER_NUMBER", ""),
		Prefix:      getEnv("BOT_PREFIX", "."),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		MongoURI:    getEnv("MONGO_URI", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		Port:        getEnv("PORT", "8080"),

		GeminiKey:     getEnv("GEMINI_API_KEY", ""),
		ScreenshotKey: getEnv("SCREENSHOT_API_KEY", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// hostPlatform reports where the bot is running. Hosting providers are
// detected by their marker variables before falling back to the OS name.
func hostPlatform() string {
	markers := []struct{ env, name string }{
		{"DYNO", "Heroku"},
		{"RAILWAY_ENVIRONMENT", "Railway"},
		{"REPL_ID", "Replit"},
		{"KOYEB_APP_NAME", "Koyeb"},
		{"RENDER", "Render"},
	}
	for _, m := range markers {
		if _, ok := os.LookupEnv(m.env); ok {
			return m.name
		}
	}
	return runtime.GOOS
}
