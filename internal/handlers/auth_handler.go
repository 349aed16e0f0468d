package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/converse-chat/converse/internal/auth"
	"github.com/converse-chat/converse/internal/domain"
	"github.com/converse-chat/converse/internal/service"
)

type AuthHandler struct {
	users  *service.UserService
	tokens *auth.TokenManager
	oauth  *auth.OAuth
	log    *zap.SugaredLogger
}

func NewAuthHandler(users *service.UserService, tokens *auth.TokenManager, oauth *auth.OAuth, log *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, oauth: oauth, log: log}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	u, err := h.users.Register(c.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return fail(c, h.log, err)
	}
	return h.respondWithToken(c, fiber.StatusCreated, u)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	u, err := h.users.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return fail(c, h.log, err)
	}
	return h.respondWithToken(c, fiber.StatusOK, u)
}

// OAuthRedirect sends the browser to the provider consent page.
func (h *AuthHandler) OAuthRedirect(c *fiber.Ctx) error {
	provider := c.Params("provider")
	state := uuid.NewString()
	url, err := h.oauth.AuthURL(provider, state)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown provider"})
	}
	c.Cookie(&fiber.Cookie{Name: "oauth_state", Value: state, HTTPOnly: true, SameSite: "Lax"})
	return c.Redirect(url, fiber.StatusTemporaryRedirect)
}

// OAuthCallback exchanges the code, logs the user in or creates them, and
// returns a session token.
func (h *AuthHandler) OAuthCallback(c *fiber.Ctx) error {
	provider := c.Params("provider")
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" || state != c.Cookies("oauth_state") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid oauth callback"})
	}
	profile, err := h.oauth.Exchange(c.Context(), provider, code)
	if err != nil {
		h.log.Warnw("oauth exchange failed", "provider", provider, "err", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "oauth exchange failed"})
	}
	u, err := h.users.OAuthLogin(c.Context(), profile)
	if err != nil {
		return fail(c, h.log, err)
	}
	return h.respondWithToken(c, fiber.StatusOK, u)
}

func (h *AuthHandler) respondWithToken(c *fiber.Ctx, status int, u *domain.User) error {
	token, err := h.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(status).JSON(fiber.Map{"token": token, "user": u})
}
