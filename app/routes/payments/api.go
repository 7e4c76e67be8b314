package payments

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"greenschool/app/database"
	"greenschool/app/models"
	"greenschool/app/routes/auth"
	"greenschool/app/routes/respond"
	"greenschool/app/services"
)

// RecordPaymentRequest is a ledger append. Amount is minor units and
// must not exceed the snapshot's balance due.
type RecordPaymentRequest struct {
	SnapshotID  string `json:"snapshot_id" validate:"required,uuid"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Method      string `json:"payment_method" validate:"required,oneof=cash bank_transfer mobile_money card"`
	PaymentDate string `json:"payment_date,omitempty"`
}

func RecordPaymentAPI(c *fiber.Ctx, ledger *services.PaymentLedger) error {
	var req RecordPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return respond.BadRequest(c, "Invalid request body")
	}
	if err := models.Validate(&req); err != nil {
		return respond.BadRequest(c, err.Error())
	}

	date := time.Now().UTC()
	if req.PaymentDate != "" {
		var err error
		if date, err = time.Parse("2006-01-02", req.PaymentDate); err != nil {
			return respond.BadRequest(c, "payment_date must be YYYY-MM-DD")
		}
	}

	recordedBy := auth.UserID(c)
	p, err := ledger.Record(auth.SchoolID(c), req.SnapshotID, req.Amount,
		models.PaymentMethod(req.Method), date, &recordedBy)
	if err != nil {
		return respond.Err(c, err)
	}

	return respond.Created(c, p)
}

func GetPaymentAPI(c *fiber.Ctx, store *database.PaymentDB) error {
	p, err := store.Get(auth.SchoolID(c), c.Params("id"))
	if err != nil {
		return respond.Err(c, err)
	}
	return respond.OK(c, p)
}

type refundRequest struct {
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Reason string `json:"reason" validate:"required"`
}

// RefundPaymentAPI reverses part or all of a completed payment. The
// refund is its own ledger entry; the original row is never rewritten.
func RefundPaymentAPI(c *fiber.Ctx, ledger *services.PaymentLedger) error {
	var req refundRequest
	if err := c.BodyParser(&req); err != nil {
		return respond.BadRequest(c, "Invalid request body")
	}
	if err := models.Validate(&req); err != nil {
		return respond.BadRequest(c, err.Error())
	}

	refund, err := ledger.Refund(auth.SchoolID(c), c.Params("id"), req.Amount, req.Reason)
	if err != nil {
		return respond.Err(c, err)
	}

	return respond.Created(c, refund)
}
