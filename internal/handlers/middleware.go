package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"thesisguard/internal/models"
	"thesisguard/internal/services"
)

const accountLocalKey = "account"

// NewAuthMiddleware resolves the bearer token to an Account and stores it
// in the request locals for the handlers behind it.
func NewAuthMiddleware(auth services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing bearer token",
			})
		}

		account, err := auth.Authenticate(c.UserContext(), token)
		if err != nil {
			return respondError(c, err)
		}

		c.Locals(accountLocalKey, account)
		return c.Next()
	}
}

// CurrentAccount returns the authenticated account set by the middleware.
func CurrentAccount(c *fiber.Ctx) *models.Account {
	account, _ := c.Locals(accountLocalKey).(*models.Account)
	return account
}
