package config

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

type Config struct {
	DB        *sql.DB
	Port      string
	JWTSecret string
	// SweepHour is the local hour at which the overdue sweep runs.
	SweepHour int
}

var AppConfig *Config

// Load reads .env (if present), opens the database and populates
// AppConfig. It fails fast: a missing DATABASE_URL or JWT_SECRET is a
// deployment error, not something to default around.
func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading environment directly")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		host := envOr("PGHOST", "localhost")
		port := envOr("PGPORT", "5432")
		user := envOr("PGUSER", "postgres")
		password := os.Getenv("PGPASSWORD")
		dbname := envOr("PGDATABASE", "greenschool")
		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			host, port, user, password, dbname)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatal("Failed to open database connection:", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	if err = db.Ping(); err != nil {
		log.Fatal("Cannot establish database connection: ", err)
	}

	sweepHour := 6
	if v := os.Getenv("OVERDUE_SWEEP_HOUR"); v != "" {
		h, err := strconv.Atoi(v)
		if err != nil || h < 0 || h > 23 {
			log.Fatalf("OVERDUE_SWEEP_HOUR must be 0-23, got %q", v)
		}
		sweepHour = h
	}

	AppConfig = &Config{
		DB:        db,
		Port:      envOr("PORT", "8080"),
		JWTSecret: secret,
		SweepHour: sweepHour,
	}
	log.Println("Database connected successfully")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func GetDB() *sql.DB {
	return AppConfig.DB
}

func JWTSecret() []byte {
	return []byte(AppConfig.JWTSecret)
}
