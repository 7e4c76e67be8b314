package payments

import (
	"github.com/gofiber/fiber/v2"

	"greenschool/app/config"
	"greenschool/app/database"
	"greenschool/app/routes/auth"
	"greenschool/app/services"
)

// SetupPaymentRoutes sets up the payment ledger routes
func SetupPaymentRoutes(app *fiber.App) {
	db := config.GetDB()
	payments := &database.PaymentDB{DB: db}
	ledger := &services.PaymentLedger{
		Snapshots: &database.SnapshotDB{DB: db},
		Payments:  payments,
		Events:    &database.OutboxDB{DB: db},
	}

	api := app.Group("/api/payments")
	api.Use(auth.AuthMiddleware)

	api.Post("/", auth.RoleMiddleware("admin", "bursar", "cashier"), func(c *fiber.Ctx) error {
		return RecordPaymentAPI(c, ledger)
	})

	api.Get("/:id", func(c *fiber.Ctx) error {
		return GetPaymentAPI(c, payments)
	})

	api.Post("/:id/refund", auth.RoleMiddleware("admin", "bursar"), func(c *fiber.Ctx) error {
		return RefundPaymentAPI(c, ledger)
	})
}
