package Controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"SiteBook/Models"
	"SiteBook/Storage"
)

var ErrDuplicateContact = errors.New("Worker with this contact number already exists")

// WorkerController handles worker-related API endpoints
type WorkerController struct {
	DB      *gorm.DB
	Storage *Storage.Local
}

// NewWorkerController creates a new WorkerController
func NewWorkerController(db *gorm.DB, storage *Storage.Local) *WorkerController {
	return &WorkerController{DB: db, Storage: storage}
}

type WorkerInput struct {
	Name            string `json:"name" form:"name" validate:"required,max=255"`
	Role            string `json:"role" form:"role" validate:"required,max=64"`
	Contact         string `json:"contact" form:"contact" validate:"required,len=10,numeric"`
	Status          string `json:"status" form:"status" validate:"omitempty,max=32"`
	ImageURL        string `json:"image_url" form:"image_url" validate:"max=500"`
	BankAccountNo   string `json:"bank_account_no" form:"bank_account_no" validate:"max=64"`
	BankIFSC        string `json:"bank_ifsc" form:"bank_ifsc" validate:"max=32"`
	BankName        string `json:"bank_name" form:"bank_name" validate:"max=255"`
	UpiID           string `json:"upi_id" form:"upi_id" validate:"max=255"`
	Address         string `json:"address" form:"address"`
	PanNumber       string `json:"pan_number" form:"pan_number" validate:"max=16"`
	AadhaarNumber   string `json:"aadhaar_number" form:"aadhaar_number" validate:"omitempty,len=12,numeric"`
	AccountProofURL string `json:"account_proof_url" form:"account_proof_url" validate:"max=500"`
}

// WorkerListItem is a worker row with the number of projects they are on
type WorkerListItem struct {
	Models.Worker
	ProjectCount int `json:"project_count"`
}

// GetWorkers lists workers with their projects, newest first
func (c *WorkerController) GetWorkers(ctx *fiber.Ctx) error {
	var workers []Models.Worker
	if err := c.DB.Preload("Projects").Order("created_at DESC").Find(&workers).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve workers"})
	}

	items := make([]WorkerListItem, len(workers))
	for i, worker := range workers {
		items[i] = WorkerListItem{Worker: worker, ProjectCount: len(worker.Projects)}
	}
	return ctx.JSON(items)
}

func (c *WorkerController) GetWorker(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid worker ID"})
	}

	var worker Models.Worker
	if result := c.DB.Preload("Projects").First(&worker, id); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Worker not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve worker"})
	}

	return ctx.JSON(worker)
}

func (c *WorkerController) CreateWorker(ctx *fiber.Ctx) error {
	var input WorkerInput
	if err := parseBody(ctx, &input); err != nil {
		return badRequest(ctx, err)
	}
	if err := c.checkContact(input.Contact, 0); err != nil {
		return c.contactError(ctx, err)
	}

	worker := Models.Worker{}
	c.apply(ctx, &worker, input)

	if err := c.DB.Create(&worker).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": ErrDuplicateContact.Error()})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create worker"})
	}

	return ctx.Status(fiber.StatusCreated).JSON(worker)
}

func (c *WorkerController) UpdateWorker(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid worker ID"})
	}

	var worker Models.Worker
	if result := c.DB.First(&worker, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Worker not found"})
	}

	var input WorkerInput
	if err := parseBody(ctx, &input); err != nil {
		return badRequest(ctx, err)
	}
	if err := c.checkContact(input.Contact, worker.ID); err != nil {
		return c.contactError(ctx, err)
	}

	c.apply(ctx, &worker, input)
	if err := c.DB.Omit("Projects").Save(&worker).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update worker"})
	}

	return ctx.JSON(worker)
}

func (c *WorkerController) apply(ctx *fiber.Ctx, worker *Models.Worker, input WorkerInput) {
	worker.Name = input.Name
	worker.Role = input.Role
	worker.Contact = input.Contact
	worker.Status = input.Status
	if worker.Status == "" {
		worker.Status = "active"
	}
	worker.ImageURL = input.ImageURL
	worker.BankAccountNo = input.BankAccountNo
	worker.BankIFSC = input.BankIFSC
	worker.BankName = input.BankName
	worker.UpiID = input.UpiID
	worker.Address = input.Address
	worker.PanNumber = input.PanNumber
	worker.AadhaarNumber = input.AadhaarNumber
	worker.AccountProofURL = input.AccountProofURL

	if url, ok := saveFormFile(ctx, c.Storage, "image", "workers"); ok {
		worker.ImageURL = url
	}
	if url, ok := saveFormFile(ctx, c.Storage, "account_proof", "workers"); ok {
		worker.AccountProofURL = url
	}
}

// checkContact rejects a contact number already used by another worker
func (c *WorkerController) checkContact(contact string, exceptID uint) error {
	var count int64
	query := c.DB.Model(&Models.Worker{}).Where("contact = ?", contact)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateContact
	}
	return nil
}

func (c *WorkerController) contactError(ctx *fiber.Ctx, err error) error {
	if errors.Is(err, ErrDuplicateContact) {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to check contact number"})
}

func (c *WorkerController) DeleteWorker(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid worker ID"})
	}

	var worker Models.Worker
	if result := c.DB.First(&worker, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Worker not found"})
	}

	err = c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&worker).Association("Projects").Clear(); err != nil {
			return err
		}
		return tx.Delete(&worker).Error
	})
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete worker"})
	}

	return ctx.JSON(fiber.Map{"message": "Worker deleted successfully"})
}

// AssignWorker adds the worker to a project team
func (c *WorkerController) AssignWorker(ctx *fiber.Ctx) error {
	worker, project, ok, err := c.workerAndProject(ctx)
	if !ok {
		return err
	}

	if err := c.DB.Model(project).Association("Workers").Append(worker); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to assign worker"})
	}
	return ctx.JSON(fiber.Map{"message": "Worker assigned to project"})
}

// RemoveWorker takes the worker off a project team
func (c *WorkerController) RemoveWorker(ctx *fiber.Ctx) error {
	worker, project, ok, err := c.workerAndProject(ctx)
	if !ok {
		return err
	}

	if err := c.DB.Model(project).Association("Workers").Delete(worker); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to remove worker"})
	}
	return ctx.JSON(fiber.Map{"message": "Worker removed from project"})
}

// workerAndProject loads the :id worker and :projectId project; when ok is false
// the response has already been written and err is what the handler returns
func (c *WorkerController) workerAndProject(ctx *fiber.Ctx) (*Models.Worker, *Models.Project, bool, error) {
	workerID, err := parseID(ctx, "id")
	if err != nil {
		return nil, nil, false, ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid worker ID"})
	}
	projectID, err := parseID(ctx, "projectId")
	if err != nil {
		return nil, nil, false, ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid project ID"})
	}

	var worker Models.Worker
	if result := c.DB.First(&worker, workerID); result.Error != nil {
		return nil, nil, false, ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Worker not found"})
	}
	var project Models.Project
	if result := c.DB.First(&project, projectID); result.Error != nil {
		return nil, nil, false, ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Project not found"})
	}
	return &worker, &project, true, nil
}
