package Controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"SiteBook/Models"
	"SiteBook/Storage"
)

// ProjectController handles project-related API endpoints
type ProjectController struct {
	DB      *gorm.DB
	Storage *Storage.Local
}

// NewProjectController creates a new ProjectController
func NewProjectController(db *gorm.DB, storage *Storage.Local) *ProjectController {
	return &ProjectController{DB: db, Storage: storage}
}

type ProjectInput struct {
	Name       string `json:"name" form:"name" validate:"required,max=255"`
	Location   string `json:"location" form:"location" validate:"max=255"`
	Area       string `json:"area" form:"area" validate:"max=64"`
	Type       string `json:"type" form:"type" validate:"required,max=64"`
	Status     string `json:"status" form:"status" validate:"required,max=32"`
	CustomerID uint   `json:"customer_id" form:"customer_id" validate:"required"`
	ImageURL   string `json:"image_url" form:"image_url" validate:"max=500"`
	StartDate  string `json:"start_date" form:"start_date"`
	EndDate    string `json:"end_date" form:"end_date"`
}

// ProjectSummary is a project row in the list view
type ProjectSummary struct {
	Models.Project
	AgreementCount int64 `json:"agreement_count"`
	DocumentCount  int64 `json:"document_count"`
	WorkerCount    int64 `json:"worker_count"`
}

type countRow struct {
	ProjectID uint
	Total     int64
}

// GetProjects lists projects with their customer and related record counts
func (c *ProjectController) GetProjects(ctx *fiber.Ctx) error {
	var projects []Models.Project
	if err := c.DB.Preload("Customer").Order("created_at DESC").Find(&projects).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve projects"})
	}

	agreements, err := c.countBy(c.DB.Model(&Models.Agreement{}))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to count agreements"})
	}
	documents, err := c.countBy(c.DB.Model(&Models.Document{}))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to count documents"})
	}
	workers, err := c.countBy(c.DB.Table("project_workers"))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to count workers"})
	}

	summaries := make([]ProjectSummary, len(projects))
	for i, project := range projects {
		summaries[i] = ProjectSummary{
			Project:        project,
			AgreementCount: agreements[project.ID],
			DocumentCount:  documents[project.ID],
			WorkerCount:    workers[project.ID],
		}
	}
	return ctx.JSON(summaries)
}

func (c *ProjectController) countBy(query *gorm.DB) (map[uint]int64, error) {
	var rows []countRow
	if err := query.Select("project_id, COUNT(*) AS total").Group("project_id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.ProjectID] = row.Total
	}
	return counts, nil
}

// GetProject returns a project with everything attached to it
func (c *ProjectController) GetProject(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid project ID"})
	}

	var project Models.Project
	result := c.DB.
		Preload("Customer").
		Preload("Workers").
		Preload("Agreements").
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("date DESC") }).
		Preload("Payments.Documents").
		Preload("Bills", func(db *gorm.DB) *gorm.DB { return db.Order("bill_date DESC") }).
		Preload("Documents").
		Preload("Images").
		First(&project, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Project not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve project"})
	}

	return ctx.JSON(project)
}

func (c *ProjectController) CreateProject(ctx *fiber.Ctx) error {
	var input ProjectInput
	if err := parseBody(ctx, &input); err != nil {
		return badRequest(ctx, err)
	}

	project := Models.Project{}
	if err := c.apply(&project, input); err != nil {
		return badRequest(ctx, err)
	}
	if url, ok := saveFormFile(ctx, c.Storage, "image", "projects"); ok {
		project.ImageURL = url
	}

	if err := c.DB.Create(&project).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create project"})
	}

	return ctx.Status(fiber.StatusCreated).JSON(project)
}

func (c *ProjectController) UpdateProject(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid project ID"})
	}

	var project Models.Project
	if result := c.DB.First(&project, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Project not found"})
	}

	var input ProjectInput
	if err := parseBody(ctx, &input); err != nil {
		return badRequest(ctx, err)
	}
	if err := c.apply(&project, input); err != nil {
		return badRequest(ctx, err)
	}
	if url, ok := saveFormFile(ctx, c.Storage, "image", "projects"); ok {
		project.ImageURL = url
	}

	if err := c.DB.Omit("Customer", "Workers").Save(&project).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update project"})
	}

	return ctx.JSON(project)
}

// apply copies validated input onto project, checking the customer exists
func (c *ProjectController) apply(project *Models.Project, input ProjectInput) error {
	startDate, err := optionalDate(input.StartDate)
	if err != nil {
		return err
	}
	endDate, err := optionalDate(input.EndDate)
	if err != nil {
		return err
	}

	var customer Models.Customer
	if err := c.DB.Select("id").First(&customer, input.CustomerID).Error; err != nil {
		return errors.New("Customer not found")
	}

	project.Name = input.Name
	project.Location = input.Location
	project.Area = input.Area
	project.Type = input.Type
	project.Status = input.Status
	project.CustomerID = input.CustomerID
	project.ImageURL = input.ImageURL
	if startDate != nil {
		project.StartDate = startDate
	}
	if endDate != nil {
		project.EndDate = endDate
	}
	return nil
}

// DeleteProject removes a project together with its images
func (c *ProjectController) DeleteProject(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid project ID"})
	}

	var project Models.Project
	if result := c.DB.Preload("Images").First(&project, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Project not found"})
	}

	err = c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&project).Association("Workers").Clear(); err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", project.ID).Delete(&Models.ProjectImage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&project).Error
	})
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete project"})
	}

	for _, image := range project.Images {
		removeFile(c.Storage, image.URL)
	}
	return ctx.JSON(fiber.Map{"message": "Project deleted successfully"})
}

// AddProjectImage uploads an image into the project gallery
func (c *ProjectController) AddProjectImage(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid project ID"})
	}

	var project Models.Project
	if result := c.DB.Select("id").First(&project, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Project not found"})
	}

	url, ok := saveFormFile(ctx, c.Storage, "image", "projects")
	if !ok {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No image provided"})
	}

	image := Models.ProjectImage{ProjectID: project.ID, URL: url}
	if err := c.DB.Create(&image).Error; err != nil {
		removeFile(c.Storage, url)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to add image"})
	}

	return ctx.Status(fiber.StatusCreated).JSON(image)
}

func (c *ProjectController) DeleteProjectImage(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "imageId")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid image ID"})
	}

	var image Models.ProjectImage
	if result := c.DB.First(&image, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Image not found"})
	}

	if err := c.DB.Delete(&image).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete image"})
	}
	removeFile(c.Storage, image.URL)

	return ctx.JSON(fiber.Map{"message": "Image deleted successfully"})
}
