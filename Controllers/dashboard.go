package Controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"SiteBook/BillBook"
	"SiteBook/Models"
)

const recentProjectsLimit = 5

// DashboardController serves the headline numbers of the business
type DashboardController struct {
	DB     *gorm.DB
	Engine *BillBook.Engine
}

// NewDashboardController creates a new DashboardController
func NewDashboardController(db *gorm.DB, engine *BillBook.Engine) *DashboardController {
	return &DashboardController{DB: db, Engine: engine}
}

type DashboardStats struct {
	Projects           int64            `json:"projects"`
	Customers          int64            `json:"customers"`
	Workers            int64            `json:"workers"`
	TotalRevenue       decimal.Decimal  `json:"total_revenue"`
	TotalContractValue decimal.Decimal  `json:"total_contract_value"`
	BillBook           BillBook.Totals  `json:"bill_book"`
	RecentProjects     []Models.Project `json:"recent_projects"`
}

// Stats collects the dashboard numbers
func (c *DashboardController) Stats(ctx context.Context) (DashboardStats, error) {
	db := c.DB.WithContext(ctx)
	var stats DashboardStats

	// 1. Counts
	if err := db.Model(&Models.Project{}).Count(&stats.Projects).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&Models.Customer{}).Count(&stats.Customers).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&Models.Worker{}).Count(&stats.Workers).Error; err != nil {
		return stats, err
	}

	// 2. Money in and money agreed
	if err := sumOf(db.Model(&Models.Payment{}), "amount", &stats.TotalRevenue); err != nil {
		return stats, err
	}
	if err := sumOf(db.Model(&Models.Agreement{}), "value", &stats.TotalContractValue); err != nil {
		return stats, err
	}

	// 3. Bill book position
	totals, err := c.Engine.Totals(ctx)
	if err != nil {
		return stats, err
	}
	stats.BillBook = totals

	// 4. Latest projects
	err = db.Preload("Customer").Order("created_at DESC").Limit(recentProjectsLimit).Find(&stats.RecentProjects).Error
	return stats, err
}

func sumOf(query *gorm.DB, column string, out *decimal.Decimal) error {
	return query.Select("COALESCE(SUM(" + column + "), 0)").Row().Scan(out)
}

func (c *DashboardController) GetStats(ctx *fiber.Ctx) error {
	stats, err := c.Stats(ctx.UserContext())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load dashboard"})
	}
	return ctx.JSON(stats)
}
