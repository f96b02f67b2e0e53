package Controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"SiteBook/Models"
	"SiteBook/Storage"
)

// BillController handles purchase bills booked against projects
type BillController struct {
	DB      *gorm.DB
	Storage *Storage.Local
}

// NewBillController creates a new BillController
func NewBillController(db *gorm.DB, storage *Storage.Local) *BillController {
	return &BillController{DB: db, Storage: storage}
}

type BillInput struct {
	Description   string          `json:"description" form:"description" validate:"required,max=500"`
	Amount        decimal.Decimal `json:"amount" form:"amount" validate:"gte=0"`
	BillDate      string          `json:"bill_date" form:"bill_date" validate:"required"`
	InvoiceNumber string          `json:"invoice_number" form:"invoice_number" validate:"max=64"`
}

// GetProjectBills lists a project's bills, latest bill date first
func (c *BillController) GetProjectBills(ctx *fiber.Ctx) error {
	projectID, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid project ID"})
	}
	if err := projectExists(c.DB, projectID); err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Project not found"})
	}

	var bills []Models.Bill
	if err := c.DB.Where("project_id = ?", projectID).Order("bill_date DESC, id DESC").Find(&bills).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve bills"})
	}
	return ctx.JSON(bills)
}

func (c *BillController) CreateBill(ctx *fiber.Ctx) error {
	projectID, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid project ID"})
	}
	if err := projectExists(c.DB, projectID); err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Project not found"})
	}

	var input BillInput
	if err := parseBody(ctx, &input); err != nil {
		return badRequest(ctx, err)
	}
	billDate, err := parseDate(input.BillDate)
	if err != nil {
		return badRequest(ctx, err)
	}

	bill := Models.Bill{
		Description:   input.Description,
		Amount:        input.Amount,
		BillDate:      billDate,
		InvoiceNumber: input.InvoiceNumber,
		ProjectID:     projectID,
	}
	if url, ok := saveFormFile(ctx, c.Storage, "file", "bills"); ok {
		bill.FileURL = url
	}

	if err := c.DB.Create(&bill).Error; err != nil {
		removeFile(c.Storage, bill.FileURL)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create bill"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(bill)
}

// UpdateBill edits a bill; a newly uploaded file replaces the old one
func (c *BillController) UpdateBill(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid bill ID"})
	}

	var bill Models.Bill
	if result := c.DB.First(&bill, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Bill not found"})
	}

	var input BillInput
	if err := parseBody(ctx, &input); err != nil {
		return badRequest(ctx, err)
	}
	billDate, err := parseDate(input.BillDate)
	if err != nil {
		return badRequest(ctx, err)
	}

	previousFile := ""
	bill.Description = input.Description
	bill.Amount = input.Amount
	bill.BillDate = billDate
	bill.InvoiceNumber = input.InvoiceNumber
	if url, ok := saveFormFile(ctx, c.Storage, "file", "bills"); ok {
		previousFile = bill.FileURL
		bill.FileURL = url
	}

	if err := c.DB.Save(&bill).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update bill"})
	}
	removeFile(c.Storage, previousFile)

	return ctx.JSON(bill)
}

func (c *BillController) DeleteBill(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid bill ID"})
	}

	var bill Models.Bill
	if result := c.DB.First(&bill, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Bill not found"})
	}

	if err := c.DB.Delete(&bill).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete bill"})
	}
	removeFile(c.Storage, bill.FileURL)

	return ctx.JSON(fiber.Map{"message": "Bill deleted successfully"})
}
