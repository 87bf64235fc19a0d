package configs

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Port             string
	GinMode          string
	MongoURI         string
	MongoDatabase    string
	JWTAccessSecret  string
	JWTRefreshSecret string
	APIAccessToken   string
	LLMBaseURL       string
	LLMAPIKey        string
	LLMModel         string
	ChiselURL        string
	ClientOrigin     string
	BcryptCost       int
	RedisURI         string
	RabbitMQURI      string
	RabbitMQExchange string
	CourseCatalog    string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cost, err := strconv.Atoi(getEnvOrDefault("BCRYPT_COST", "10"))
	if err != nil || cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	return &Config{
		Port:             getEnvOrDefault("PORT", "8081"),
		GinMode:          getEnvOrDefault("GIN_MODE", "debug"),
		MongoURI:         getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:    getEnvOrDefault("MONGO_DATABASE", "viktorai"),
		JWTAccessSecret:  getEnvOrDefault("JWT_ACCESS_SECRET", ""),
		JWTRefreshSecret: getEnvOrDefault("JWT_REFRESH_SECRET", ""),
		APIAccessToken:   getEnvOrDefault("API_ACCESS_TOKEN", ""),
		LLMBaseURL:       getEnvOrDefault("LLM_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai"),
		LLMAPIKey:        getEnvOrDefault("LLM_API_KEY", ""),
		LLMModel:         getEnvOrDefault("LLM_MODEL", "gemini-2.0-flash"),
		ChiselURL:        getEnvOrDefault("CHISEL_URL", "http://localhost:8001"),
		ClientOrigin:     getEnvOrDefault("CLIENT_ORIGIN", "http://localhost:8080"),
		BcryptCost:       cost,
		RedisURI:         getEnvOrDefault("REDIS_URI", ""),
		RabbitMQURI:      getEnvOrDefault("RABBITMQ_URI", ""),
		RabbitMQExchange: getEnvOrDefault("RABBITMQ_EXCHANGE", ""),
		CourseCatalog:    getEnvOrDefault("COURSE_CATALOG", "data/course_catalog.json"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
