package fees

import (
	"github.com/gofiber/fiber/v2"

	"greenschool/app/config"
	"greenschool/app/database"
	"greenschool/app/routes/auth"
	"greenschool/app/services"
)

// SetupFeesRoutes sets up the fee calculation and snapshot routes
func SetupFeesRoutes(app *fiber.App) {
	db := config.GetDB()
	snapshots := &database.SnapshotDB{DB: db}
	payments := &database.PaymentDB{DB: db}
	events := &database.OutboxDB{DB: db}

	calculator := &services.FeeCalculator{
		Catalog:   &services.FeeCatalog{Structures: &database.StructureDB{DB: db}},
		Snapshots: snapshots,
		Bursaries: &database.BursaryDB{DB: db},
		Students:  &database.DirectoryDB{DB: db},
	}
	ledger := &services.PaymentLedger{
		Snapshots: snapshots,
		Payments:  payments,
		Events:    events,
	}

	api := app.Group("/api/fees")
	api.Use(auth.AuthMiddleware)

	api.Post("/preview", func(c *fiber.Ctx) error {
		return PreviewFeesAPI(c, calculator)
	})

	api.Post("/calculate", auth.RoleMiddleware("admin", "bursar"), func(c *fiber.Ctx) error {
		return CalculateFeesAPI(c, calculator)
	})

	api.Get("/active", func(c *fiber.Ctx) error {
		return GetActiveSnapshotAPI(c, snapshots)
	})

	api.Get("/overdue", func(c *fiber.Ctx) error {
		return ListOverdueAPI(c, snapshots)
	})

	api.Get("/report", auth.RoleMiddleware("admin", "bursar"), func(c *fiber.Ctx) error {
		return RevenueReportAPI(c, ledger)
	})

	api.Get("/snapshots/:id", func(c *fiber.Ctx) error {
		return GetSnapshotAPI(c, snapshots)
	})

	api.Get("/snapshots/:id/ledger", func(c *fiber.Ctx) error {
		return GetLedgerAPI(c, ledger)
	})

	api.Post("/snapshots/:id/waive", auth.RoleMiddleware("admin", "bursar"), func(c *fiber.Ctx) error {
		return WaiveFeesAPI(c, ledger)
	})
}
