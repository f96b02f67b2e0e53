package Controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"SiteBook/Models"
)

// AgreementController handles agreement-related API endpoints
type AgreementController struct {
	DB *gorm.DB
}

// NewAgreementController creates a new AgreementController
func NewAgreementController(db *gorm.DB) *AgreementController {
	return &AgreementController{DB: db}
}

type AgreementInput struct {
	Title           string          `json:"title" form:"title" validate:"required,max=255"`
	AgreementNumber string          `json:"agreement_number" form:"agreement_number" validate:"required,max=64"`
	Value           decimal.Decimal `json:"value" form:"value" validate:"gte=0"`
	PaymentTerms    string          `json:"payment_terms" form:"payment_terms"`
	ProjectID       uint            `json:"project_id" form:"project_id" validate:"required"`
	StartDate       string          `json:"start_date" form:"start_date"`
	EndDate         string          `json:"end_date" form:"end_date"`
}

// GetAgreements lists agreements, optionally for one project via ?project_id=
func (c *AgreementController) GetAgreements(ctx *fiber.Ctx) error {
	projectID, err := queryID(ctx, "project_id")
	if err != nil {
		return badRequest(ctx, err)
	}

	query := c.DB.Preload("Project").Order("created_at DESC")
	if projectID != 0 {
		query = query.Where("project_id = ?", projectID)
	}

	var agreements []Models.Agreement
	if err := query.Find(&agreements).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve agreements"})
	}
	return ctx.JSON(agreements)
}

func (c *AgreementController) GetAgreement(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid agreement ID"})
	}

	var agreement Models.Agreement
	if result := c.DB.Preload("Project").First(&agreement, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Agreement not found"})
	}
	return ctx.JSON(agreement)
}

func (c *AgreementController) CreateAgreement(ctx *fiber.Ctx) error {
	var input AgreementInput
	if err := parseBody(ctx, &input); err != nil {
		return badRequest(ctx, err)
	}

	agreement := Models.Agreement{}
	if err := c.apply(&agreement, input); err != nil {
		return badRequest(ctx, err)
	}

	if err := c.DB.Create(&agreement).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create agreement"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(agreement)
}

func (c *AgreementController) UpdateAgreement(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid agreement ID"})
	}

	var agreement Models.Agreement
	if result := c.DB.First(&agreement, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Agreement not found"})
	}

	var input AgreementInput
	if err := parseBody(ctx, &input); err != nil {
		return badRequest(ctx, err)
	}
	if err := c.apply(&agreement, input); err != nil {
		return badRequest(ctx, err)
	}

	if err := c.DB.Omit("Project").Save(&agreement).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update agreement"})
	}
	return ctx.JSON(agreement)
}

func (c *AgreementController) apply(agreement *Models.Agreement, input AgreementInput) error {
	if err := projectExists(c.DB, input.ProjectID); err != nil {
		return err
	}
	startDate, err := optionalDate(input.StartDate)
	if err != nil {
		return err
	}
	endDate, err := optionalDate(input.EndDate)
	if err != nil {
		return err
	}

	agreement.Title = input.Title
	agreement.AgreementNumber = input.AgreementNumber
	agreement.Value = input.Value
	agreement.PaymentTerms = input.PaymentTerms
	agreement.ProjectID = input.ProjectID
	agreement.StartDate = startDate
	agreement.EndDate = endDate
	return nil
}

func (c *AgreementController) DeleteAgreement(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid agreement ID"})
	}

	var agreement Models.Agreement
	if result := c.DB.First(&agreement, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Agreement not found"})
	}

	if err := c.DB.Delete(&agreement).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete agreement"})
	}
	return ctx.JSON(fiber.Map{"message": "Agreement deleted successfully"})
}
