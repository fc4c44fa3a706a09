package main

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	bookingdb "venue-booking/internal/booking/db"
	"venue-booking/internal/config"
	"venue-booking/internal/dashboard"
	"venue-booking/internal/logger"
)

func main() {
	log := logger.NewLogger("dashboard-service")
	defer log.Close()

	log.Info("APP", "Starting Dashboard Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}

	cfg := config.Load()

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.Username,
		cfg.Database.Password, cfg.Database.Database)

	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
	}
	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	for i := 0; i < 5; i++ {
		if err = sqldb.Ping(); err == nil {
			break
		}
		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("PostgreSQL unreachable: %v", err))
	}
	log.Info("DATABASE", "PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())
	defer bunDB.Close()

	service := dashboard.NewService(&bookingdb.DB{Bun: bunDB}, log)
	handler := dashboard.NewHandler(service, log)

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	handler.RegisterRoutes(router)

	port := os.Getenv("DASHBOARD_PORT")
	if port == "" {
		port = ":8081"
	}

	log.Info("HTTP", fmt.Sprintf("Dashboard service listening on %s", port))
	if err := router.Run(port); err != nil {
		log.Fatal("HTTP", fmt.Sprintf("Server failed: %v", err))
	}
}
