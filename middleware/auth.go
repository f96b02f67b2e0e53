package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"

	"SiteBook/Models"
)

const (
	SessionCookie   = "session"
	SessionLifetime = 7 * 24 * time.Hour
)

var (
	sessionDB     *gorm.DB
	sessionSecret = []byte("secret")
	secureCookies bool
)

// SessionClaims is the payload of the session cookie
type SessionClaims struct {
	Permission int `json:"permission"`
	jwt.RegisteredClaims
}

// Configure sets the database, signing secret and cookie flags used by the session helpers
func Configure(db *gorm.DB, secret string, secure bool) {
	sessionDB = db
	if secret != "" {
		sessionSecret = []byte(secret)
	}
	secureCookies = secure
}

// IssueSession signs a session for user and sets it as an http-only cookie
func IssueSession(c *fiber.Ctx, user *Models.User) error {
	expires := time.Now().Add(SessionLifetime)
	claims := SessionClaims{
		Permission: user.Permission,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(sessionSecret)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return nil
}

// ClearSession expires the session cookie
func ClearSession(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ParseSession validates a session token and returns its claims
func ParseSession(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return sessionSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid session")
	}
	return claims, nil
}

func Verify(requiredPermission int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get JWT from cookies
		cookie := c.Cookies(SessionCookie)
		if cookie == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Not Logged In.",
			})
		}

		claims, err := ParseSession(cookie)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired session",
			})
		}

		// Get user from database
		var user Models.User
		result := sessionDB.Where("id = ?", claims.Subject).First(&user)
		if result.Error != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "User not found",
			})
		}

		// Store user in context for later use in handlers
		c.Locals("user", user)

		if user.Permission >= requiredPermission {
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions to access this resource",
		})
	}
}

// CurrentUser returns the user stored by Verify
func CurrentUser(c *fiber.Ctx) (Models.User, bool) {
	user, ok := c.Locals("user").(Models.User)
	return user, ok
}
