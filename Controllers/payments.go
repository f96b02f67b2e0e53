package Controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"SiteBook/BillBook"
	"SiteBook/Models"
	"SiteBook/Storage"
)

var errProjectNotFound = errors.New("Project not found")

// PaymentController records customer payments and mirrors them into the bill book
type PaymentController struct {
	DB      *gorm.DB
	Storage *Storage.Local
	Syncer  *BillBook.Syncer
}

// NewPaymentController creates a new PaymentController
func NewPaymentController(db *gorm.DB, storage *Storage.Local, syncer *BillBook.Syncer) *PaymentController {
	return &PaymentController{DB: db, Storage: storage, Syncer: syncer}
}

type PaymentInput struct {
	Amount    decimal.Decimal `json:"amount" form:"amount" validate:"gt=0"`
	Date      string          `json:"date" form:"date" validate:"required"`
	Mode      string          `json:"mode" form:"mode" validate:"required,max=64"`
	Reference string          `json:"reference" form:"reference" validate:"max=255"`
	Remarks   string          `json:"remarks" form:"remarks"`
	ProjectID uint            `json:"project_id" form:"project_id" validate:"required"`
}

// GetPayments lists payments newest first, optionally for one project via ?project_id=
func (c *PaymentController) GetPayments(ctx *fiber.Ctx) error {
	projectID, err := queryID(ctx, "project_id")
	if err != nil {
		return badRequest(ctx, err)
	}

	query := c.DB.Preload("Project.Customer").Preload("Documents").Order("date DESC, id DESC")
	if projectID != 0 {
		query = query.Where("project_id = ?", projectID)
	}

	var payments []Models.Payment
	if err := query.Find(&payments).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve payments"})
	}
	return ctx.JSON(payments)
}

// CreatePayment stores the payment and its attached files, then posts it to the
// customer's bill-book ledger. A failed ledger sync does not fail the request.
func (c *PaymentController) CreatePayment(ctx *fiber.Ctx) error {
	var input PaymentInput
	if err := parseBody(ctx, &input); err != nil {
		return badRequest(ctx, err)
	}
	if err := BillBook.CheckAmount(input.Amount); err != nil {
		return badRequest(ctx, err)
	}
	date, err := parseDate(input.Date)
	if err != nil {
		return badRequest(ctx, err)
	}
	if err := projectExists(c.DB, input.ProjectID); err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}

	payment := Models.Payment{
		Amount:    input.Amount,
		Date:      date,
		Mode:      input.Mode,
		Reference: input.Reference,
		Remarks:   input.Remarks,
		ProjectID: input.ProjectID,
	}

	urls := c.saveAttachments(ctx)
	err = c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		return c.attach(tx, &payment, urls)
	})
	if err != nil {
		for _, u := range urls {
			removeFile(c.Storage, u.url)
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create payment"})
	}

	c.Syncer.PostPayment(ctx.UserContext(), &payment)

	return ctx.Status(fiber.StatusCreated).JSON(payment)
}

// UpdatePayment edits the payment row only; the bill book is left as it is
func (c *PaymentController) UpdatePayment(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment ID"})
	}

	var payment Models.Payment
	if result := c.DB.First(&payment, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment not found"})
	}

	var input PaymentInput
	if err := parseBody(ctx, &input); err != nil {
		return badRequest(ctx, err)
	}
	if err := BillBook.CheckAmount(input.Amount); err != nil {
		return badRequest(ctx, err)
	}
	date, err := parseDate(input.Date)
	if err != nil {
		return badRequest(ctx, err)
	}
	if err := projectExists(c.DB, input.ProjectID); err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}

	payment.Amount = input.Amount
	payment.Date = date
	payment.Mode = input.Mode
	payment.Reference = input.Reference
	payment.Remarks = input.Remarks
	payment.ProjectID = input.ProjectID

	urls := c.saveAttachments(ctx)
	err = c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Project", "Documents").Save(&payment).Error; err != nil {
			return err
		}
		return c.attach(tx, &payment, urls)
	})
	if err != nil {
		for _, u := range urls {
			removeFile(c.Storage, u.url)
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update payment"})
	}

	return ctx.JSON(payment)
}

// DeletePayment removes the payment and its documents. Ledger entries posted for it stay.
func (c *PaymentController) DeletePayment(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment ID"})
	}

	var payment Models.Payment
	if result := c.DB.Preload("Documents").First(&payment, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment not found"})
	}

	err = c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("payment_id = ?", payment.ID).Delete(&Models.Document{}).Error; err != nil {
			return err
		}
		return tx.Delete(&payment).Error
	})
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete payment"})
	}

	for _, doc := range payment.Documents {
		removeFile(c.Storage, doc.Path)
	}
	return ctx.JSON(fiber.Map{"message": "Payment deleted successfully"})
}

type savedFile struct {
	name string
	url  string
}

// saveAttachments stores every non-empty "files" part of a multipart request
func (c *PaymentController) saveAttachments(ctx *fiber.Ctx) []savedFile {
	form, err := ctx.MultipartForm()
	if err != nil {
		return nil
	}

	var saved []savedFile
	for _, fh := range form.File["files"] {
		if fh.Size == 0 {
			continue
		}
		url, err := c.Storage.SaveUpload("documents", fh)
		if err != nil {
			log.Printf("Failed to store payment attachment %s: %v\n", fh.Filename, err)
			continue
		}
		saved = append(saved, savedFile{name: fh.Filename, url: url})
	}
	return saved
}

func (c *PaymentController) attach(tx *gorm.DB, payment *Models.Payment, files []savedFile) error {
	for _, f := range files {
		paymentID := payment.ID
		doc := Models.Document{
			Name:      f.name,
			Path:      f.url,
			Type:      "Bill",
			ProjectID: payment.ProjectID,
			PaymentID: &paymentID,
		}
		if err := tx.Create(&doc).Error; err != nil {
			return err
		}
		payment.Documents = append(payment.Documents, doc)
	}
	return nil
}

func projectExists(db *gorm.DB, id uint) error {
	var project Models.Project
	if err := db.Select("id").First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errProjectNotFound
		}
		return err
	}
	return nil
}
