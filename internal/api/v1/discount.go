package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vidinfra/revalloc/internal/api/dto"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/logger"
	"github.com/vidinfra/revalloc/internal/service"
)

type DiscountHandler struct {
	discountService service.DiscountService
	logger          *logger.Logger
}

func NewDiscountHandler(discountService service.DiscountService, logger *logger.Logger) *DiscountHandler {
	return &DiscountHandler{
		discountService: discountService,
		logger:          logger,
	}
}

func (h *DiscountHandler) CreateRule(c *gin.Context) {
	var req dto.CreateDiscountRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.discountService.CreateRule(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

func (h *DiscountHandler) GetRule(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("rule ID is required").
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.discountService.GetRule(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *DiscountHandler) ListRules(c *gin.Context) {
	response, err := h.discountService.ListRules(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}
