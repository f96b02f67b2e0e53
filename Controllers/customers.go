package Controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"SiteBook/Models"
	"SiteBook/Storage"
)

// CustomerController handles customer-related API endpoints
type CustomerController struct {
	DB      *gorm.DB
	Storage *Storage.Local
}

// NewCustomerController creates a new CustomerController
func NewCustomerController(db *gorm.DB, storage *Storage.Local) *CustomerController {
	return &CustomerController{DB: db, Storage: storage}
}

type CustomerInput struct {
	Name      string `json:"name" form:"name" validate:"required,max=255"`
	Phone     string `json:"phone" form:"phone" validate:"required,max=32"`
	Email     string `json:"email" form:"email" validate:"omitempty,email"`
	Address   string `json:"address" form:"address"`
	IDDetails string `json:"id_details" form:"id_details" validate:"max=255"`
	ImageURL  string `json:"image_url" form:"image_url" validate:"max=500"`
}

// GetCustomers lists customers, newest first
func (c *CustomerController) GetCustomers(ctx *fiber.Ctx) error {
	var customers []Models.Customer
	if err := c.DB.Order("created_at DESC").Find(&customers).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve customers"})
	}
	return ctx.JSON(customers)
}

// GetCustomer returns a customer with their projects
func (c *CustomerController) GetCustomer(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid customer ID"})
	}

	var customer Models.Customer
	result := c.DB.Preload("Projects", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at DESC")
	}).First(&customer, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Customer not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve customer"})
	}

	return ctx.JSON(customer)
}

func (c *CustomerController) CreateCustomer(ctx *fiber.Ctx) error {
	var input CustomerInput
	if err := parseBody(ctx, &input); err != nil {
		return badRequest(ctx, err)
	}
	if url, ok := c.upload(ctx, "image"); ok {
		input.ImageURL = url
	}

	customer := Models.Customer{
		Name:      input.Name,
		Phone:     input.Phone,
		Email:     input.Email,
		Address:   input.Address,
		IDDetails: input.IDDetails,
		ImageURL:  input.ImageURL,
	}
	if err := c.DB.Create(&customer).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create customer"})
	}

	return ctx.Status(fiber.StatusCreated).JSON(customer)
}

func (c *CustomerController) UpdateCustomer(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid customer ID"})
	}

	var customer Models.Customer
	if result := c.DB.First(&customer, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Customer not found"})
	}

	var input CustomerInput
	if err := parseBody(ctx, &input); err != nil {
		return badRequest(ctx, err)
	}
	if url, ok := c.upload(ctx, "image"); ok {
		input.ImageURL = url
	}

	// Select keeps cleared optional fields
	err = c.DB.Model(&customer).
		Select("Name", "Phone", "Email", "Address", "IDDetails", "ImageURL").
		Updates(Models.Customer{
			Name:      input.Name,
			Phone:     input.Phone,
			Email:     input.Email,
			Address:   input.Address,
			IDDetails: input.IDDetails,
			ImageURL:  input.ImageURL,
		}).Error
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update customer"})
	}

	return ctx.JSON(customer)
}

// DeleteCustomer soft deletes a customer. Customers with projects are kept.
func (c *CustomerController) DeleteCustomer(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid customer ID"})
	}

	var customer Models.Customer
	if result := c.DB.First(&customer, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Customer not found"})
	}

	var projects int64
	c.DB.Model(&Models.Project{}).Where("customer_id = ?", id).Count(&projects)
	if projects > 0 {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Customer still has projects"})
	}

	if err := c.DB.Delete(&customer).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete customer"})
	}

	return ctx.JSON(fiber.Map{"message": "Customer deleted successfully"})
}

// upload stores the optional multipart file field and returns its URL
func (c *CustomerController) upload(ctx *fiber.Ctx, field string) (string, bool) {
	return saveFormFile(ctx, c.Storage, field, "customers")
}

func saveFormFile(ctx *fiber.Ctx, storage *Storage.Local, field, subdir string) (string, bool) {
	fh, err := ctx.FormFile(field)
	if err != nil || fh.Size == 0 {
		return "", false
	}
	url, err := storage.SaveUpload(subdir, fh)
	if err != nil {
		log.Printf("Failed to store %s upload: %v\n", field, err)
		return "", false
	}
	return url, true
}

func removeFile(storage *Storage.Local, url string) {
	if url == "" {
		return
	}
	if err := storage.Remove(url); err != nil {
		log.Printf("Failed to delete file %s from disk: %v\n", url, err)
	}
}
