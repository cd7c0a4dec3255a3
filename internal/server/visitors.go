package server

import (
	"net/http"

	"github.com/bamahomes/sigiyoro/internal/fingerprint"
	visitordomain "github.com/bamahomes/sigiyoro/internal/visitor/domain"
	"github.com/bamahomes/sigiyoro/internal/visitorsession/local"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type recognizeRequest struct {
	Email    string              `json:"email"`
	Phone    string              `json:"phone"`
	AgencyID *snowflake.ID       `json:"agency_id"`
	Signals  fingerprint.Signals `json:"signals"`
}

type identifyRequest struct {
	Email    string              `json:"email"`
	Phone    string              `json:"phone"`
	AgencyID *snowflake.ID       `json:"agency_id"`
	Signals  fingerprint.Signals `json:"signals"`
}

// RecognizeVisitor resolves the calling browser to a known contact. The
// response degrades to method "none" rather than erroring; the session
// cookie is refreshed whenever a new session is minted.
func (s *Server) RecognizeVisitor(c *gin.Context) {
	var req recognizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	store := local.NewCookieStore(c, s.cfg.SessionCookieSecure)
	result := s.visitors.Recognize(c.Request.Context(), store, visitordomain.RecognizeRequest{
		Email:     req.Email,
		Phone:     req.Phone,
		AgencyID:  req.AgencyID,
		Signals:   req.Signals,
		UserAgent: c.Request.UserAgent(),
		ClientIP:  c.ClientIP(),
	})

	c.JSON(http.StatusOK, result)
}

// IdentifyVisitor binds a submitted email or phone to the calling browser,
// creating the contact when it is new.
func (s *Server) IdentifyVisitor(c *gin.Context) {
	var req identifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	store := local.NewCookieStore(c, s.cfg.SessionCookieSecure)
	result, err := s.visitors.Identify(c.Request.Context(), store, visitordomain.IdentifyRequest{
		Email:     req.Email,
		Phone:     req.Phone,
		AgencyID:  req.AgencyID,
		Signals:   req.Signals,
		UserAgent: c.Request.UserAgent(),
		ClientIP:  c.ClientIP(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CheckAgencyAccess reports whether the calling browser holds a session that
// covers the requested agency. Unscoped sessions cover every agency.
func (s *Server) CheckAgencyAccess(c *gin.Context) {
	agencyID, err := snowflake.ParseString(c.Query("agency_id"))
	if err != nil || agencyID == 0 {
		AbortWithError(c, newValidationError("agency_id", "required", "agency_id is required"))
		return
	}

	store := local.NewCookieStore(c, s.cfg.SessionCookieSecure)
	hasAccess := s.sessions.HasAccessToAgency(c.Request.Context(), store, agencyID)

	c.JSON(http.StatusOK, gin.H{"has_access": hasAccess})
}

func (s *Server) LogoutVisitor(c *gin.Context) {
	store := local.NewCookieStore(c, s.cfg.SessionCookieSecure)
	s.visitors.Logout(c.Request.Context(), store)

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
