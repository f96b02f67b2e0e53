package Controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"SiteBook/Models"
	"SiteBook/Storage"
	"SiteBook/middleware"
)

// AuthController handles accounts, sessions and the company profile
type AuthController struct {
	DB      *gorm.DB
	Storage *Storage.Local
}

// NewAuthController creates a new AuthController
func NewAuthController(db *gorm.DB, storage *Storage.Local) *AuthController {
	return &AuthController{DB: db, Storage: storage}
}

type RegisterInput struct {
	Name            string `json:"name" form:"name" validate:"required,max=255"`
	Mobile          string `json:"mobile" form:"mobile" validate:"required,max=16"`
	Password        string `json:"password" form:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" validate:"required,eqfield=Password"`
}

type LoginInput struct {
	Mobile   string `json:"mobile" form:"mobile" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type ProfileInput struct {
	Name        string `json:"name" form:"name" validate:"required,max=255"`
	CompanyName string `json:"company_name" form:"company_name" validate:"max=255"`
	GSTIN       string `json:"gstin" form:"gstin" validate:"omitempty,len=15,alphanum"`
	Address     string `json:"address" form:"address"`
}

// CreateUser hashes password and stores a new user with the given permission level
func CreateUser(db *gorm.DB, name, mobile, password string, permission int) (*Models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := Models.User{
		Name:       name,
		Mobile:     mobile,
		Password:   hash,
		Permission: permission,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *AuthController) Register(ctx *fiber.Ctx) error {
	var input RegisterInput
	if err := parseBody(ctx, &input); err != nil {
		return badRequest(ctx, err)
	}

	var existing int64
	c.DB.Model(&Models.User{}).Where("mobile = ?", input.Mobile).Count(&existing)
	if existing > 0 {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Mobile number already registered."})
	}

	user, err := CreateUser(c.DB, input.Name, input.Mobile, input.Password, Models.PermissionUser)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Mobile number already registered."})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create account"})
	}

	if err := middleware.IssueSession(ctx, user); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to start session"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(user)
}

func (c *AuthController) Login(ctx *fiber.Ctx) error {
	var input LoginInput
	if err := parseBody(ctx, &input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Please enter both mobile and password."})
	}

	var user Models.User
	if result := c.DB.Where("mobile = ?", input.Mobile).First(&user); result.Error != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid mobile number or password."})
	}
	if err := bcrypt.CompareHashAndPassword(user.Password, []byte(input.Password)); err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid mobile number or password."})
	}

	if err := middleware.IssueSession(ctx, &user); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to start session"})
	}
	return ctx.JSON(user)
}

func (c *AuthController) Logout(ctx *fiber.Ctx) error {
	middleware.ClearSession(ctx)
	return ctx.JSON(fiber.Map{"message": "Logged out"})
}

// Me returns the signed-in user with their company uploads
func (c *AuthController) Me(ctx *fiber.Ctx) error {
	current, _ := middleware.CurrentUser(ctx)

	var user Models.User
	result := c.DB.Preload("CompanyDocuments").Preload("CompanyImages").First(&user, current.ID)
	if result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	return ctx.JSON(user)
}

// UpdateProfile saves the profile fields and any of the logo, document,
// profile_picture and user_photo uploads
func (c *AuthController) UpdateProfile(ctx *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(ctx)

	var input ProfileInput
	if err := parseBody(ctx, &input); err != nil {
		return badRequest(ctx, err)
	}

	updates := map[string]interface{}{
		"name":         input.Name,
		"company_name": input.CompanyName,
		"gstin":        input.GSTIN,
		"address":      input.Address,
	}
	replaced := []string{}
	uploads := []struct {
		field, subdir, column, current string
	}{
		{"document", "documents", "document_url", user.DocumentURL},
		{"logo", "logos", "logo_url", user.LogoURL},
		{"profile_picture", "profiles", "profile_picture_url", user.ProfilePictureURL},
		{"user_photo", "users", "user_photo_url", user.UserPhotoURL},
	}
	for _, u := range uploads {
		if url, ok := saveFormFile(ctx, c.Storage, u.field, u.subdir); ok {
			updates[u.column] = url
			replaced = append(replaced, u.current)
		}
	}

	if err := c.DB.Model(&user).Updates(updates).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}
	for _, old := range replaced {
		removeFile(c.Storage, old)
	}

	return ctx.JSON(user)
}

func (c *AuthController) AddCompanyDocument(ctx *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(ctx)

	fh, err := ctx.FormFile("file")
	if err != nil || fh.Size == 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No file provided"})
	}
	url, err := c.Storage.SaveUpload("company-documents", fh)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload document"})
	}

	name := ctx.FormValue("name")
	if name == "" {
		name = fh.Filename
	}
	doc := Models.CompanyDocument{
		Name:   name,
		URL:    url,
		Type:   fh.Header.Get(fiber.HeaderContentType),
		UserID: user.ID,
	}
	if err := c.DB.Create(&doc).Error; err != nil {
		removeFile(c.Storage, url)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload document"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(doc)
}

func (c *AuthController) DeleteCompanyDocument(ctx *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(ctx)
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid document ID"})
	}

	var doc Models.CompanyDocument
	if result := c.DB.First(&doc, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Document not found"})
	}
	if doc.UserID != user.ID {
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Unauthorized"})
	}

	if err := c.DB.Delete(&doc).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete document"})
	}
	removeFile(c.Storage, doc.URL)
	return ctx.JSON(fiber.Map{"message": "Document deleted successfully"})
}

func (c *AuthController) AddCompanyImage(ctx *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(ctx)

	fh, err := ctx.FormFile("file")
	if err != nil || fh.Size == 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No file provided"})
	}
	url, err := c.Storage.SaveUpload("gallery", fh)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload image"})
	}

	image := Models.CompanyImage{URL: url, Caption: fh.Filename, UserID: user.ID}
	if err := c.DB.Create(&image).Error; err != nil {
		removeFile(c.Storage, url)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload image"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(image)
}

func (c *AuthController) DeleteCompanyImage(ctx *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(ctx)
	id, err := parseID(ctx, "id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid image ID"})
	}

	var image Models.CompanyImage
	if result := c.DB.First(&image, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Image not found"})
	}
	if image.UserID != user.ID {
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Unauthorized"})
	}

	if err := c.DB.Delete(&image).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete image"})
	}
	removeFile(c.Storage, image.URL)
	return ctx.JSON(fiber.Map{"message": "Image deleted successfully"})
}
