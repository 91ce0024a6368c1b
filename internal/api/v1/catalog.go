package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vidinfra/revalloc/internal/api/dto"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/logger"
	"github.com/vidinfra/revalloc/internal/service"
)

type CatalogHandler struct {
	catalogService service.CatalogService
	logger         *logger.Logger
}

func NewCatalogHandler(catalogService service.CatalogService, logger *logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

func (h *CatalogHandler) CreateEntry(c *gin.Context) {
	var req dto.CreateSspEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.catalogService.CreateEntry(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

func (h *CatalogHandler) GetEntry(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("entry ID is required").
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.catalogService.GetEntry(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *CatalogHandler) ListEntries(c *gin.Context) {
	response, err := h.catalogService.ListEntries(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *CatalogHandler) SubmitForReview(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("entry ID is required").
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.catalogService.SubmitForReview(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *CatalogHandler) Approve(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("entry ID is required").
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.catalogService.Approve(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *CatalogHandler) CheckCorridor(c *gin.Context) {
	var req dto.CorridorCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.catalogService.CheckCorridorCompliance(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}
