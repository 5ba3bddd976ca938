package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	dashboarddomain "github.com/smallbiznis/copilot-insights/internal/dashboard/domain"
)

func (s *Server) GetOrganization(c *gin.Context) {
	dateRange, err := s.parseDateRange(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.dashboardSvc.Organization(c.Request.Context(), dashboarddomain.OrganizationRequest{
		Range: dateRange,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetLanguages(c *gin.Context) {
	dateRange, err := s.parseDateRange(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.dashboardSvc.Languages(c.Request.Context(), dashboarddomain.LanguagesRequest{
		Range:     dateRange,
		Languages: queryValues(c, "languages"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetEditors(c *gin.Context) {
	dateRange, err := s.parseDateRange(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.dashboardSvc.Editors(c.Request.Context(), dashboarddomain.EditorsRequest{
		Range:   dateRange,
		Editors: queryValues(c, "editors"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetChatPrompts(c *gin.Context) {
	dateRange, err := s.parseDateRange(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.dashboardSvc.ChatPrompts(c.Request.Context(), dashboarddomain.ChatPromptsRequest{
		Range: dateRange,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetBilling(c *gin.Context) {
	resp, err := s.dashboardSvc.Billing(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetDebug(c *gin.Context) {
	resp, err := s.dashboardSvc.Debug(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
