package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/flowlogic-api/internal/application/dto"
)

// AuthHandler maneja registro, login, perfil y alta de prueba.
type AuthHandler struct {
	uc authService
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(uc authService) *AuthHandler {
	return &AuthHandler{uc: uc}
}

// Register godoc
// @Summary      Registrar usuario
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterRequest  true  "email, password, company_id"
// @Success      201   {object}  dto.UserResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in dto.RegisterRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	user, err := h.uc.RegisterUser(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login godoc
// @Summary      Iniciar sesión
// @Description  Acepta email o username en el campo email.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "email (o username), password"
// @Success      200   {object}  dto.LoginResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.Login(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Me godoc
// @Summary      Usuario autenticado
// @Tags         auth
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.UserResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	user, err := h.uc.Me(c.Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(user)
}

// SignupTrial godoc
// @Summary      Alta con prueba gratuita
// @Description  Crea empresa, bodega principal y usuario admin, e inicia el periodo de prueba.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TrialSignupRequest  true  "name, email, password, company_name"
// @Success      201   {object}  dto.TrialSignupResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/auth/signup-trial [post]
func (h *AuthHandler) SignupTrial(c *fiber.Ctx) error {
	var in dto.TrialSignupRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.SignupTrial(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
