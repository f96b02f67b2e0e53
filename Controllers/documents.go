package Controllers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"SiteBook/Models"
	"SiteBook/Storage"
)

// DocumentController handles files uploaded to a project
type DocumentController struct {
	DB      *gorm.DB
	Storage *Storage.Local
}

// NewDocumentController creates a new DocumentController
func NewDocumentController(db *gorm.DB, storage *Storage.Local) *DocumentController {
	return &DocumentController{DB: db, Storage: storage}
}

type DocumentInput struct {
	Name string `json:"name" form:"name" validate:"max=255"`
	Type string `json:"type" form:"type" validate:"required,max=64"`
}

// UploadDocument stores the "file" part of a multipart request as a project document
func (c *DocumentController) UploadDocument(ctx *fiber.Ctx) error {
	projectID, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid project ID"})
	}
	if err := projectExists(c.DB, projectID); err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Project not found"})
	}

	var input DocumentInput
	if err := parseBody(ctx, &input); err != nil {
		return badRequest(ctx, err)
	}

	fh, err := ctx.FormFile("file")
	if err != nil || fh.Size == 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No file provided"})
	}
	url, err := c.Storage.SaveUpload("documents", fh)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store file"})
	}

	name := input.Name
	if name == "" {
		name = fh.Filename
	}
	doc := Models.Document{Name: name, Path: url, Type: input.Type, ProjectID: projectID}
	if err := c.DB.Create(&doc).Error; err != nil {
		removeFile(c.Storage, url)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save document"})
	}

	return ctx.Status(fiber.StatusCreated).JSON(doc)
}

func (c *DocumentController) DeleteDocument(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid document ID"})
	}

	var doc Models.Document
	if result := c.DB.First(&doc, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Document not found"})
	}

	if err := c.DB.Delete(&doc).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete document"})
	}
	removeFile(c.Storage, doc.Path)

	return ctx.JSON(fiber.Map{"message": "Document deleted successfully"})
}
