package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jhoicas/flowlogic-api/internal/application/dto"
	"github.com/jhoicas/flowlogic-api/internal/domain"
)

// validate instancia única: cachea la metadata de los structs.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Los errores usan el nombre del campo tal como viaja (json/query/form).
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query", "form"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// parseBody decodifica el JSON y valida las etiquetas validate. Devuelve la respuesta
// 400 ya escrita y ok=false si algo falla.
func parseBody(c *fiber.Ctx, out any) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo de la petición inválido"})
	}
	return checkStruct(c, out)
}

// parseQuery igual que parseBody para parámetros de query.
func parseQuery(c *fiber.Ctx, out any) (bool, error) {
	if err := c.QueryParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros de consulta inválidos"})
	}
	return checkStruct(c, out)
}

func checkStruct(c *fiber.Ctx, out any) (bool, error) {
	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			details[fe.Field()] = fieldMessage(fe)
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION", Message: "la petición no es válida", Details: details,
		})
	}
	return true, nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "es obligatorio"
	case "email":
		return "debe ser un email válido"
	case "uuid":
		return "debe ser un UUID válido"
	case "oneof":
		return "debe ser uno de: " + fe.Param()
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("debe tener al menos %s caracteres", fe.Param())
		}
		return fmt.Sprintf("debe ser al menos %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("debe tener como máximo %s caracteres", fe.Param())
		}
		return fmt.Sprintf("debe ser como máximo %s", fe.Param())
	case "alphanum":
		return "solo admite letras y números"
	}
	return "no es válido"
}

// writeError traduce errores de dominio a status HTTP + ErrorResponse.
func writeError(c *fiber.Ctx, err error) error {
	status, code, msg := fiber.StatusInternalServerError, "INTERNAL", "error interno"
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, code, msg = fiber.StatusBadRequest, "VALIDATION", err.Error()
	case errors.Is(err, domain.ErrInvalidPlan):
		status, code, msg = fiber.StatusBadRequest, "INVALID_PLAN", "plan inválido"
	case errors.Is(err, domain.ErrInvalidSignature), errors.Is(err, domain.ErrWebhookNotConfigured):
		status, code, msg = fiber.StatusBadRequest, "WEBHOOK_ERROR", err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		status, code, msg = fiber.StatusUnauthorized, "UNAUTHORIZED", "credenciales inválidas"
	case errors.Is(err, domain.ErrForbidden):
		status, code, msg = fiber.StatusForbidden, "FORBIDDEN", "cuenta inactiva o suspendida"
	case errors.Is(err, domain.ErrUserNotFound):
		status, code, msg = fiber.StatusNotFound, "USER_NOT_FOUND", "usuario no encontrado"
	case errors.Is(err, domain.ErrCompanyNotFound):
		status, code, msg = fiber.StatusNotFound, "COMPANY_NOT_FOUND", "la empresa no existe"
	case errors.Is(err, domain.ErrNotFound):
		status, code, msg = fiber.StatusNotFound, "NOT_FOUND", "recurso no encontrado"
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		status, code, msg = fiber.StatusConflict, "EMAIL_EXISTS", "el email ya está registrado"
	case errors.Is(err, domain.ErrDuplicate), errors.Is(err, domain.ErrConflict):
		status, code, msg = fiber.StatusConflict, "CONFLICT", err.Error()
	case errors.Is(err, domain.ErrUpstream):
		status, code, msg = fiber.StatusInternalServerError, "UPSTREAM", "el proveedor externo no respondió; intenta de nuevo"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

// parseID lee el parámetro :id. Las claves de alertas son UUID: un id mal formado
// no puede existir y responde 404 sin consultar la base.
func parseID(c *fiber.Ctx, id *string) (bool, error) {
	*id = c.Params("id")
	if err := uuid.Validate(*id); err != nil {
		return false, c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	}
	return true, nil
}

// parseWarehouseID lee el filtro opcional ?warehouse_id=; si viene debe ser UUID.
func parseWarehouseID(c *fiber.Ctx, id *string) (bool, error) {
	*id = c.Query("warehouse_id")
	if err := validate.Var(*id, "omitempty,uuid"); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION", Message: "la petición no es válida",
			Details: map[string]string{"warehouse_id": "debe ser un UUID válido"},
		})
	}
	return true, nil
}

// noCompany respuesta 401 cuando el token no trae empresa.
func noCompany(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Code: "UNAUTHORIZED", Message: "company_id no encontrado en el token",
	})
}
