package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"greenschool/app/config"
	"greenschool/app/database"
	"greenschool/app/routes/auth"
	"greenschool/app/routes/bursaries"
	"greenschool/app/routes/fees"
	"greenschool/app/routes/feestructures"
	"greenschool/app/routes/payments"
	"greenschool/app/services"
)

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
		"code":    code,
	})
}

func main() {
	config.Load()
	defer config.GetDB().Close()

	if err := database.RunMigrations(config.GetDB()); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Background overdue sweep
	scanner := &services.OverdueScanner{
		Snapshots: &database.SnapshotDB{DB: config.GetDB()},
		Events:    &database.OutboxDB{DB: config.GetDB()},
	}
	services.StartScheduler(scanner, config.AppConfig.SweepHour)

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"status": "ok"}})
	})

	auth.SetupAuthRoutes(app)
	feestructures.SetupFeeStructureRoutes(app)
	bursaries.SetupBursaryRoutes(app)
	fees.SetupFeesRoutes(app)
	payments.SetupPaymentRoutes(app)

	// Catch-all route for 404 errors (must be last)
	app.Use("*", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not found")
	})

	addr := ":" + config.AppConfig.Port
	log.Println("Server starting on", addr)
	log.Fatal(app.Listen(addr))
}
