package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vidinfra/revalloc/internal/api/dto"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/logger"
	"github.com/vidinfra/revalloc/internal/service"
)

type AllocationHandler struct {
	allocationService service.AllocationService
	logger            *logger.Logger
}

func NewAllocationHandler(allocationService service.AllocationService, logger *logger.Logger) *AllocationHandler {
	return &AllocationHandler{
		allocationService: allocationService,
		logger:            logger,
	}
}

func (h *AllocationHandler) Allocate(c *gin.Context) {
	var req dto.AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.allocationService.Allocate(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

func (h *AllocationHandler) GetAudit(c *gin.Context) {
	invoiceID := c.Param("invoice_id")
	runID := c.Param("run_id")
	if invoiceID == "" || runID == "" {
		c.Error(ierr.NewError("invoice ID and run ID are required").
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.allocationService.GetAudit(c.Request.Context(), invoiceID, runID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *AllocationHandler) ListAudits(c *gin.Context) {
	invoiceID := c.Param("invoice_id")
	if invoiceID == "" {
		c.Error(ierr.NewError("invoice ID is required").
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.allocationService.ListAudits(c.Request.Context(), invoiceID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}
