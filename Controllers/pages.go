package Controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"SiteBook/BillBook"
	"SiteBook/middleware"
)

const pageLayout = "layouts/main"

// PageController renders the server-side HTML pages
type PageController struct {
	Dashboard *DashboardController
	Engine    *BillBook.Engine
}

// NewPageController creates a new PageController
func NewPageController(dashboard *DashboardController, engine *BillBook.Engine) *PageController {
	return &PageController{Dashboard: dashboard, Engine: engine}
}

// TemplateFuncs are the helpers available to every page template
func TemplateFuncs() map[string]interface{} {
	return map[string]interface{}{
		"money": Money,
		"abs":   func(d decimal.Decimal) decimal.Decimal { return d.Abs() },
		"positive": func(d decimal.Decimal) bool {
			return d.IsPositive()
		},
		"negative": func(d decimal.Decimal) bool {
			return d.IsNegative()
		},
	}
}

// Money formats d with two decimals and thousands separators, e.g. -12,500.00
func Money(d decimal.Decimal) string {
	d = d.Round(2)
	whole, frac, _ := strings.Cut(d.Abs().StringFixed(2), ".")

	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

func (c *PageController) Home(ctx *fiber.Ctx) error {
	stats, err := c.Dashboard.Stats(ctx.UserContext())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load dashboard")
	}

	user, _ := middleware.CurrentUser(ctx)
	return ctx.Render("dashboard", fiber.Map{
		"Title": "Dashboard",
		"User":  user.Name,
		"Stats": stats,
	}, pageLayout)
}

func (c *PageController) BillBookIndex(ctx *fiber.Ctx) error {
	ledgers, err := c.Engine.GetLedgers(ctx.UserContext())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load ledgers")
	}
	totals, err := c.Engine.Totals(ctx.UserContext())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load ledgers")
	}

	views := make([]LedgerView, len(ledgers))
	for i := range ledgers {
		views[i] = viewOf(&ledgers[i])
	}

	ctx.Set(fiber.HeaderCacheControl, "no-store")
	return ctx.Render("billbook/index", fiber.Map{
		"Title":   "Bill Book",
		"Ledgers": views,
		"Totals":  totals,
	}, pageLayout)
}

func (c *PageController) BillBookShow(ctx *fiber.Ctx) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid ledger ID")
	}

	ledger, err := c.Engine.GetLedger(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, BillBook.ErrLedgerNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Ledger not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load ledger")
	}

	ctx.Set(fiber.HeaderCacheControl, "no-store")
	return ctx.Render("billbook/show", fiber.Map{
		"Title":  ledger.Name,
		"Ledger": viewOf(ledger),
	}, pageLayout)
}
