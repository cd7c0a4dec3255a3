package server

import (
	"net/http"

	notificationdomain "github.com/bamahomes/sigiyoro/internal/notification/domain"
	plandomain "github.com/bamahomes/sigiyoro/internal/plan/domain"
	"github.com/bamahomes/sigiyoro/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

type listNotificationsQuery struct {
	Status string `form:"status"`
	pagination.Pagination
}

func (s *Server) ListNotifications(c *gin.Context) {
	var query listNotificationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	rows, pageInfo, err := s.notifications.List(c.Request.Context(), notificationdomain.ListRequest{
		Status:     notificationdomain.Status(query.Status),
		Pagination: query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      rows,
		"page_info": pageInfo,
	})
}

func (s *Server) ListPlans(c *gin.Context) {
	plans, err := s.plans.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": plans})
}

type createPlanRequest struct {
	Name         string `json:"name"`
	PriceCents   int64  `json:"price_cents"`
	Currency     string `json:"currency"`
	BillingCycle string `json:"billing_cycle"`
}

func (s *Server) CreatePlan(c *gin.Context) {
	var req createPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	plan := &plandomain.Plan{
		Name:         req.Name,
		PriceCents:   req.PriceCents,
		Currency:     req.Currency,
		BillingCycle: req.BillingCycle,
		Active:       true,
	}
	if err := s.plans.Create(c.Request.Context(), plan); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, plan)
}

func (s *Server) CleanupSessions(c *gin.Context) {
	count, err := s.sessions.CleanupExpired(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}
