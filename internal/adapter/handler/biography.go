package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	biographyUsecase "github.com/telaila/companion/internal/usecase/biography"
)

// Biography serves the life story built from the archive
type Biography struct {
	service *biographyUsecase.Service
	logger  *zap.Logger
}

// NewBiographyHandler creates a new biography handler
func NewBiographyHandler(service *biographyUsecase.Service, logger *zap.Logger) *Biography {
	return &Biography{service: service, logger: logger}
}

// Get handles GET /v1/testers/:id/biography
// @Summary      Full biography
// @Tags         Biography
// @Produce      json
// @Param        id   path      string  true  "Beta ID"
// @Success      200  {object}  entities.Biography
// @Failure      404  {object}  map[string]interface{}
// @Router       /v1/testers/{id}/biography [get]
func (h *Biography) Get(c echo.Context) error {
	id, err := testerID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	bio, err := h.service.Build(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, bio)
}

// Export handles GET /v1/testers/:id/biography/export?format=markdown|html|json.
// The document is returned as is, not wrapped in the response envelope.
// @Summary      Export biography document
// @Tags         Biography
// @Produce      text/markdown,text/html,application/json
// @Param        id      path      string  true   "Beta ID"
// @Param        format  query     string  false  "markdown (default), html or json"
// @Success      200     {string}  string
// @Failure      400     {object}  map[string]interface{}
// @Router       /v1/testers/{id}/biography/export [get]
func (h *Biography) Export(c echo.Context) error {
	id, err := testerID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	format := GetQueryParam(c, "format", biographyUsecase.FormatMarkdown)

	doc, err := h.service.Export(c.Request().Context(), id, format)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	if c.QueryParam("download") == "true" {
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="biography_`+id+`.`+doc.Extension+`"`)
	}
	return c.Blob(http.StatusOK, doc.ContentType, []byte(doc.Content))
}

// Upload handles POST /v1/testers/:id/biography/upload?format=markdown|html|json
// @Summary      Store a biography export in object storage
// @Tags         Biography
// @Produce      json
// @Param        id      path      string  true   "Beta ID"
// @Param        format  query     string  false  "markdown (default), html or json"
// @Success      200     {object}  biography.Upload
// @Failure      503     {object}  map[string]interface{}
// @Router       /v1/testers/{id}/biography/upload [post]
func (h *Biography) Upload(c echo.Context) error {
	id, err := testerID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	format := GetQueryParam(c, "format", biographyUsecase.FormatMarkdown)

	upload, err := h.service.UploadExport(c.Request().Context(), id, format)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, upload)
}

// Exports handles GET /v1/testers/:id/biography/exports
// @Summary      Previously uploaded exports
// @Tags         Biography
// @Produce      json
// @Param        id   path      string  true  "Beta ID"
// @Success      200  {array}   biography.Upload
// @Failure      503  {object}  map[string]interface{}
// @Router       /v1/testers/{id}/biography/exports [get]
func (h *Biography) Exports(c echo.Context) error {
	id, err := testerID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	uploads, err := h.service.ListExports(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, uploads)
}

// Blocks handles GET /v1/testers/:id/biography/blocks
// @Summary      Story bullets kept in the knowledge base
// @Tags         Biography
// @Produce      json
// @Param        id   path      string  true  "Beta ID"
// @Success      200  {array}   memory.BuildingBlock
// @Failure      404  {object}  map[string]interface{}
// @Router       /v1/testers/{id}/biography/blocks [get]
func (h *Biography) Blocks(c echo.Context) error {
	id, err := testerID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	blocks, err := h.service.BuildingBlocks(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, map[string]interface{}{
		"beta_id": id,
		"blocks":  blocks,
		"total":   len(blocks),
	})
}
