package http

import (
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/flowlogic-api/internal/application/analytics"
	"github.com/jhoicas/flowlogic-api/internal/application/dto"
	"github.com/jhoicas/flowlogic-api/internal/application/ingestion"
)

// IngestionHandler carga de exportaciones WMS/ERP e historial de ingestas.
type IngestionHandler struct {
	uc ingestionService
}

// NewIngestionHandler construye el handler.
func NewIngestionHandler(uc ingestionService) *IngestionHandler {
	return &IngestionHandler{uc: uc}
}

// Upload godoc
// @Summary      Importar inventario
// @Description  Archivo JSON/XML de OFBiz o CSV con mapeo generic|manhattan|sap. Los registros
// @Description  inválidos se cuentan como errores; las reglas de alertas se evalúan al final.
// @Tags         ingestion
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        file          formData  file    true   "exportación de inventario"
// @Param        products      formData  file    false  "catálogo de productos (JSON OFBiz)"
// @Param        source_key    formData  string  false  "identidad del origen"
// @Param        source        formData  string  false  "etiqueta del origen"
// @Param        mapping_type  formData  string  false  "generic|manhattan|sap|ofbiz"
// @Param        format        formData  string  false  "json|xml|csv"
// @Param        encoding      formData  string  false  "utf-8|iso-8859-1|windows-1252"
// @Success      201  {object}  dto.ImportResultDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/ingestion/upload [post]
func (h *IngestionHandler) Upload(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return noCompany(c)
	}
	var in dto.UploadRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_FILE", Message: "el campo file es obligatorio"})
	}
	data, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_FILE", Message: "no se pudo leer el archivo"})
	}
	defer data.Close()

	var products io.Reader
	if pf, err := c.FormFile("products"); err == nil {
		var pr multipart.File
		if pr, err = pf.Open(); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_FILE", Message: "no se pudo leer el catálogo de productos"})
		}
		defer pr.Close()
		products = pr
	}

	res, err := h.uc.Import(c.Context(), ingestion.ImportRequest{
		CompanyID:   companyID,
		UserID:      GetUserID(c),
		SourceKey:   in.SourceKey,
		Source:      in.Source,
		Filename:    fh.Filename,
		Format:      in.Format,
		MappingType: in.MappingType,
		Encoding:    in.Encoding,
		Data:        data,
		Products:    products,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toImportResultDTO(res))
}

// History godoc
// @Summary      Historial de ingestas
// @Tags         ingestion
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "máximo (por defecto 20, máx 100)"
// @Param        offset  query  int  false  "desplazamiento"
// @Success      200  {object}  dto.IngestionHistoryResponse
// @Router       /api/ingestion/history [get]
func (h *IngestionHandler) History(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return noCompany(c)
	}
	var page dto.PageRequest
	if ok, err := parseQuery(c, &page); !ok {
		return err
	}
	page.DefaultPage()
	list, err := h.uc.History(c.Context(), companyID, page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.IngestionHistoryResponse{
		Data: make([]dto.IngestionDTO, 0, len(list)),
		Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, i := range list {
		out.Data = append(out.Data, analytics.ToIngestionDTO(i))
	}
	return c.JSON(out)
}

// Mappings godoc
// @Summary      Mapeos CSV disponibles
// @Tags         ingestion
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.MappingsResponse
// @Router       /api/ingestion/mappings [get]
func (h *IngestionHandler) Mappings(c *fiber.Ctx) error {
	return c.JSON(dto.MappingsResponse{Mappings: h.uc.Mappings()})
}

func toImportResultDTO(r *ingestion.ImportResult) dto.ImportResultDTO {
	out := dto.ImportResultDTO{
		IngestionID:   r.IngestionID,
		Status:        r.Status,
		Imported:      r.Imported,
		ErrorCount:    r.ErrorCount,
		ProductCount:  r.ProductCount,
		AlertsCreated: r.AlertsCreated,
		AlertsSkipped: r.AlertsSkipped,
		RuleFailures:  r.RuleFailures,
	}
	for _, e := range r.Errors {
		out.Errors = append(out.Errors, dto.RowErrorDTO{Row: e.Row, Message: e.Message})
	}
	return out
}
