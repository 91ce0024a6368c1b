package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vidinfra/revalloc/internal/api/dto"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/logger"
	"github.com/vidinfra/revalloc/internal/service"
)

type PolicyHandler struct {
	policyService service.PolicyService
	logger        *logger.Logger
}

func NewPolicyHandler(policyService service.PolicyService, logger *logger.Logger) *PolicyHandler {
	return &PolicyHandler{
		policyService: policyService,
		logger:        logger,
	}
}

func (h *PolicyHandler) UpsertPolicy(c *gin.Context) {
	var req dto.UpsertSspPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.policyService.UpsertPolicy(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *PolicyHandler) GetPolicy(c *gin.Context) {
	response, err := h.policyService.GetPolicy(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}
