package Controllers

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"SiteBook/BillBook"
	"SiteBook/Models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// BillBookController exposes the ledger engine over HTTP
type BillBookController struct {
	Engine *BillBook.Engine
}

// NewBillBookController creates a new BillBookController
func NewBillBookController(engine *BillBook.Engine) *BillBookController {
	return &BillBookController{Engine: engine}
}

type CreateLedgerRequest struct {
	Name     string `json:"name" form:"name" validate:"required,max=255"`
	Type     string `json:"type" form:"type" validate:"required,oneof=CUSTOMER WORKER VENDOR PROJECT"`
	EntityID uint   `json:"entity_id" form:"entity_id"`
}

type EntryRequest struct {
	Amount  decimal.Decimal `json:"amount" form:"amount" validate:"gte=0"`
	Type    string          `json:"type" form:"type" validate:"required,oneof=CREDIT DEBIT"`
	Mode    string          `json:"mode" form:"mode" validate:"required,max=64"`
	Remarks string          `json:"remarks" form:"remarks"`
	Date    string          `json:"date" form:"date"`
}

// LedgerView adds the human readable balance status to a ledger
type LedgerView struct {
	*Models.Ledger
	Status string `json:"status"`
}

func viewOf(ledger *Models.Ledger) LedgerView {
	return LedgerView{Ledger: ledger, Status: ledger.Status()}
}

// NoStore marks bill-book responses as uncacheable so balances are never stale
func (c *BillBookController) NoStore(ctx *fiber.Ctx) error {
	ctx.Set(fiber.HeaderCacheControl, "no-store")
	return ctx.Next()
}

// GetLedgers lists ledgers, most recently updated first
func (c *BillBookController) GetLedgers(ctx *fiber.Ctx) error {
	ledgers, err := c.Engine.GetLedgers(ctx.UserContext())
	if err != nil {
		return ledgerError(ctx, err)
	}

	views := make([]LedgerView, len(ledgers))
	for i := range ledgers {
		views[i] = viewOf(&ledgers[i])
	}
	return ctx.JSON(views)
}

// GetLedger returns a ledger with its entries, newest first
func (c *BillBookController) GetLedger(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid ledger ID"})
	}

	ledger, err := c.Engine.GetLedger(ctx.UserContext(), id)
	if err != nil {
		return ledgerError(ctx, err)
	}
	return ctx.JSON(viewOf(ledger))
}

func (c *BillBookController) CreateLedger(ctx *fiber.Ctx) error {
	var input CreateLedgerRequest
	if err := parseBody(ctx, &input); err != nil {
		return badRequest(ctx, err)
	}

	ledger, err := c.Engine.CreateLedger(ctx.UserContext(), BillBook.CreateLedgerInput{
		Name:     input.Name,
		Type:     Models.LedgerType(input.Type),
		EntityID: input.EntityID,
	})
	if err != nil {
		return ledgerError(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(viewOf(ledger))
}

func (c *BillBookController) AddEntry(ctx *fiber.Ctx) error {
	ledgerID, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid ledger ID"})
	}

	var input EntryRequest
	if err := parseBody(ctx, &input); err != nil {
		return badRequest(ctx, err)
	}

	date := time.Now()
	if input.Date != "" {
		if date, err = parseDate(input.Date); err != nil {
			return badRequest(ctx, err)
		}
	}

	entry, err := c.Engine.AddEntry(ctx.UserContext(), ledgerID, BillBook.EntryInput{
		Amount:  input.Amount,
		Type:    Models.EntryType(input.Type),
		Mode:    input.Mode,
		Remarks: input.Remarks,
		Date:    date,
	})
	if err != nil {
		return ledgerError(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(entry)
}

func (c *BillBookController) DeleteEntry(ctx *fiber.Ctx) error {
	ledgerID, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid ledger ID"})
	}
	entryID, err := parseID(ctx, "entryId")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid entry ID"})
	}

	if err := c.Engine.DeleteEntry(ctx.UserContext(), entryID, ledgerID); err != nil {
		return ledgerError(ctx, err)
	}
	return ctx.JSON(fiber.Map{"message": "Entry deleted successfully"})
}

// ExportStatement downloads the ledger as an .xlsx statement
func (c *BillBookController) ExportStatement(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid ledger ID"})
	}

	var buf bytes.Buffer
	if err := c.Engine.ExportStatement(ctx.UserContext(), id, &buf); err != nil {
		return ledgerError(ctx, err)
	}

	ctx.Set(fiber.HeaderContentType, xlsxContentType)
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="statement-%d.xlsx"`, id))
	return ctx.Send(buf.Bytes())
}

// ledgerError maps bill-book errors onto HTTP statuses
func ledgerError(ctx *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, BillBook.ErrLedgerNotFound),
		errors.Is(err, BillBook.ErrEntryNotFound),
		errors.Is(err, BillBook.ErrEntityNotFound):
		status, message = fiber.StatusNotFound, err.Error()
	case errors.Is(err, BillBook.ErrLedgerNameRequired),
		errors.Is(err, BillBook.ErrInvalidLedgerType),
		errors.Is(err, BillBook.ErrInvalidEntryType),
		errors.Is(err, BillBook.ErrNegativeAmount),
		errors.Is(err, BillBook.ErrAmountPrecision):
		status, message = fiber.StatusBadRequest, err.Error()
	case errors.Is(err, BillBook.ErrBalanceConflict), errors.Is(err, gorm.ErrDuplicatedKey):
		status, message = fiber.StatusConflict, err.Error()
	default:
		log.Printf("Bill book request %s %s failed: %v\n", ctx.Method(), ctx.Path(), err)
	}

	return ctx.Status(status).JSON(fiber.Map{"error": message})
}
