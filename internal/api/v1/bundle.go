package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vidinfra/revalloc/internal/api/dto"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/logger"
	"github.com/vidinfra/revalloc/internal/service"
)

type BundleHandler struct {
	bundleService service.BundleService
	logger        *logger.Logger
}

func NewBundleHandler(bundleService service.BundleService, logger *logger.Logger) *BundleHandler {
	return &BundleHandler{
		bundleService: bundleService,
		logger:        logger,
	}
}

func (h *BundleHandler) UpsertBundle(c *gin.Context) {
	var req dto.UpsertBundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.bundleService.UpsertBundle(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *BundleHandler) GetBundle(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("bundle ID is required").
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.bundleService.GetBundle(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *BundleHandler) ListBundles(c *gin.Context) {
	response, err := h.bundleService.ListBundles(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}
