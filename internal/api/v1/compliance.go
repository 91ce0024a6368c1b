package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vidinfra/revalloc/internal/logger"
	"github.com/vidinfra/revalloc/internal/service"
)

type ComplianceHandler struct {
	complianceService service.ComplianceService
	logger            *logger.Logger
}

func NewComplianceHandler(complianceService service.ComplianceService, logger *logger.Logger) *ComplianceHandler {
	return &ComplianceHandler{
		complianceService: complianceService,
		logger:            logger,
	}
}

func (h *ComplianceHandler) ListCorridorBreaches(c *gin.Context) {
	response, err := h.complianceService.CheckCorridorBreaches(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *ComplianceHandler) GetSnapshot(c *gin.Context) {
	response, err := h.complianceService.GenerateSspStateSnapshot(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *ComplianceHandler) ListIssues(c *gin.Context) {
	response, err := h.complianceService.CheckSspPolicyCompliance(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}
