package FiberConfig

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/template/html"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"SiteBook/BillBook"
	"SiteBook/Config"
	"SiteBook/Controllers"
	"SiteBook/Models"
	"SiteBook/Storage"
	"SiteBook/middleware"
)

// maximum request body, uploads included
const bodyLimit = 20 * 1024 * 1024

func SetupRoutes(app *fiber.App, db *gorm.DB, engine *BillBook.Engine, storage *Storage.Local, logDir string) {
	// Initialize handlers
	authController := Controllers.NewAuthController(db, storage)
	customerController := Controllers.NewCustomerController(db, storage)
	projectController := Controllers.NewProjectController(db, storage)
	workerController := Controllers.NewWorkerController(db, storage)
	agreementController := Controllers.NewAgreementController(db)
	paymentController := Controllers.NewPaymentController(db, storage, BillBook.NewSyncer(db, engine))
	billController := Controllers.NewBillController(db, storage)
	documentController := Controllers.NewDocumentController(db, storage)
	billBookController := Controllers.NewBillBookController(engine)
	dashboardController := Controllers.NewDashboardController(db, engine)
	pageController := Controllers.NewPageController(dashboardController, engine)
	logController := Controllers.NewLogController(logDir)

	user := middleware.Verify(Models.PermissionUser)
	admin := middleware.Verify(Models.PermissionAdmin)

	// API group
	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authController.Register)
	auth.Post("/login", authController.Login)
	auth.Post("/logout", authController.Logout)
	auth.Get("/me", user, authController.Me)
	auth.Put("/profile", user, authController.UpdateProfile)
	auth.Post("/company-documents", user, authController.AddCompanyDocument)
	auth.Delete("/company-documents/:id", user, authController.DeleteCompanyDocument)
	auth.Post("/company-images", user, authController.AddCompanyImage)
	auth.Delete("/company-images/:id", user, authController.DeleteCompanyImage)

	api.Get("/dashboard", user, dashboardController.GetStats)

	// Customer routes
	customers := api.Group("/customers", user)
	customers.Get("/", customerController.GetCustomers)
	customers.Post("/", customerController.CreateCustomer)
	customers.Get("/:id", customerController.GetCustomer)
	customers.Put("/:id", customerController.UpdateCustomer)
	customers.Delete("/:id", admin, customerController.DeleteCustomer)

	// Project routes, with the bills, documents and images hanging off a project
	projects := api.Group("/projects", user)
	projects.Get("/", projectController.GetProjects)
	projects.Post("/", projectController.CreateProject)
	projects.Get("/:id", projectController.GetProject)
	projects.Put("/:id", projectController.UpdateProject)
	projects.Delete("/:id", admin, projectController.DeleteProject)
	projects.Post("/:id/images", projectController.AddProjectImage)
	projects.Delete("/:id/images/:imageId", projectController.DeleteProjectImage)
	projects.Get("/:id/bills", billController.GetProjectBills)
	projects.Post("/:id/bills", billController.CreateBill)
	projects.Post("/:id/documents", documentController.UploadDocument)

	bills := api.Group("/bills", user)
	bills.Put("/:id", billController.UpdateBill)
	bills.Delete("/:id", billController.DeleteBill)

	documents := api.Group("/documents", user)
	documents.Delete("/:id", documentController.DeleteDocument)

	// Worker routes
	workers := api.Group("/workers", user)
	workers.Get("/", workerController.GetWorkers)
	workers.Post("/", workerController.CreateWorker)
	workers.Get("/:id", workerController.GetWorker)
	workers.Put("/:id", workerController.UpdateWorker)
	workers.Delete("/:id", admin, workerController.DeleteWorker)
	workers.Post("/:id/projects/:projectId", workerController.AssignWorker)
	workers.Delete("/:id/projects/:projectId", workerController.RemoveWorker)

	// Agreement routes
	agreements := api.Group("/agreements", user)
	agreements.Get("/", agreementController.GetAgreements)
	agreements.Post("/", agreementController.CreateAgreement)
	agreements.Get("/:id", agreementController.GetAgreement)
	agreements.Put("/:id", agreementController.UpdateAgreement)
	agreements.Delete("/:id", agreementController.DeleteAgreement)

	// Payment routes
	payments := api.Group("/payments", user)
	payments.Get("/", paymentController.GetPayments)
	payments.Post("/", paymentController.CreatePayment)
	payments.Put("/:id", paymentController.UpdatePayment)
	payments.Delete("/:id", paymentController.DeletePayment)

	// Bill book routes
	billBook := api.Group("/bill-book", user, billBookController.NoStore)
	billBook.Get("/", billBookController.GetLedgers)
	billBook.Post("/", billBookController.CreateLedger)
	billBook.Get("/:id", billBookController.GetLedger)
	billBook.Get("/:id/export", billBookController.ExportStatement)
	billBook.Post("/:id/entries", billBookController.AddEntry)
	billBook.Delete("/:id/entries/:entryId", billBookController.DeleteEntry)

	// Request log viewer
	adminAPI := api.Group("/admin", admin)
	adminAPI.Get("/logs", logController.GetLogs)
	adminAPI.Get("/logs/stats", logController.GetLogStats)

	// HTML pages
	app.Get("/", user, pageController.Home)
	app.Get("/bill-book", user, pageController.BillBookIndex)
	app.Get("/bill-book/:id", user, pageController.BillBookShow)
}

// NewApp builds the Fiber application with every route, the template engine and
// the ambient middleware
func NewApp(cfg Config.Config, db *gorm.DB, publisher BillBook.Publisher) *fiber.App {
	// Html Template engine
	engine := html.New(cfg.ViewsDir, ".html")
	for name, fn := range Controllers.TemplateFuncs() {
		engine.AddFunc(name, fn)
	}

	app := fiber.New(fiber.Config{
		Views:        engine,
		BodyLimit:    bodyLimit,
		ErrorHandler: errorHandler,
	})
	app.Use(middleware.RequestLogger(cfg.LogDir))
	app.Use(middleware.ErrorLogger(cfg.LogDir))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true, // Important for cookies
		MaxAge:           300,
	}))

	middleware.Configure(db, cfg.SessionSecret, cfg.SecureCookies)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Static("/uploads", cfg.UploadDir)

	storage := Storage.NewLocal(cfg.UploadDir, "/uploads")
	SetupRoutes(app, db, BillBook.New(db, BillBook.WithPublisher(publisher)), storage, cfg.LogDir)
	return app
}

// FiberConfig serves the application on cfg.Port until the listener fails
func FiberConfig(cfg Config.Config, publisher BillBook.Publisher) error {
	log.Printf("Server Up on :%s\n", cfg.Port)
	app := NewApp(cfg, Models.DB, publisher)
	return app.Listen(":" + cfg.Port)
}

// errorHandler answers API requests with JSON and pages with plain text
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		log.Printf("Request %s %s failed: %v\n", c.Method(), c.Path(), err)
	}

	if strings.HasPrefix(c.Path(), "/api") {
		return c.Status(code).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(code).SendString(err.Error())
}
