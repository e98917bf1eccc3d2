package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/chamados-io/chamados-ce/internal/approval"
	"github.com/chamados-io/chamados-ce/internal/middleware"
	"github.com/chamados-io/chamados-ce/internal/models"
	"github.com/chamados-io/chamados-ce/internal/repository"
	"github.com/chamados-io/chamados-ce/internal/services"
)

// Handler wires the ticket and approval services to their routes.
type Handler struct {
	tickets   *services.TicketService
	approvals *services.ApprovalService
}

func NewHandler(tickets *services.TicketService, approvals *services.ApprovalService) *Handler {
	return &Handler{tickets: tickets, approvals: approvals}
}

// RegisterRoutes mounts the authenticated API under group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup, authmw *middleware.AuthMiddleware) {
	group.Use(authmw.RequireAuth())

	group.GET("/me/permissions", h.handleMyPermissions)

	group.POST("/tickets", h.handleCreateTicket)
	group.GET("/tickets/:id/transitions", h.handleListTransitions)
	group.POST("/tickets/:id/transitions", h.handleRequestTransition)

	group.GET("/tickets/:id/approval", h.handleApprovalStatus)
	group.POST("/tickets/:id/approval", h.handleInitiateApproval)
	group.POST("/tickets/:id/approval/:level", h.handleDecideApproval)
}

func (h *Handler) handleMyPermissions(c *gin.Context) {
	perms := middleware.PermissionsFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"permissions": perms.List(),
			"is_admin":    perms.IsAdmin(),
		},
	})
}

type createTicketRequest struct {
	Domain models.TicketDomain `json:"domain" binding:"required"`
	Title  string              `json:"title" binding:"required"`
}

func (h *Handler) handleCreateTicket(c *gin.Context) {
	var req createTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "domain and title are required")
		return
	}

	ticket, err := h.tickets.CreateTicket(c.Request.Context(), req.Domain, req.Title,
		middleware.UserIDFrom(c), middleware.AssignmentsFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": ticket})
}

func (h *Handler) handleListTransitions(c *gin.Context) {
	id, ok := ticketID(c)
	if !ok {
		return
	}

	actions, err := h.tickets.AllowedActions(c.Request.Context(), id, middleware.AssignmentsFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": actions})
}

type transitionRequest struct {
	NextStatus models.TicketStatus `json:"next_status" binding:"required"`
}

func (h *Handler) handleRequestTransition(c *gin.Context) {
	id, ok := ticketID(c)
	if !ok {
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "next_status is required")
		return
	}

	err := h.tickets.RequestTransition(c.Request.Context(), id, req.NextStatus,
		middleware.AssignmentsFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) handleApprovalStatus(c *gin.Context) {
	id, ok := ticketID(c)
	if !ok {
		return
	}

	records, err := h.approvals.Status(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": records})
}

func (h *Handler) handleInitiateApproval(c *gin.Context) {
	id, ok := ticketID(c)
	if !ok {
		return
	}

	err := h.approvals.Initiate(c.Request.Context(), id, middleware.AssignmentsFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true})
}

type decisionRequest struct {
	Decision models.ApprovalDecision `json:"decision" binding:"required"`
	Notes    string                  `json:"notes"`
}

func (h *Handler) handleDecideApproval(c *gin.Context) {
	id, ok := ticketID(c)
	if !ok {
		return
	}
	level, err := strconv.Atoi(c.Param("level"))
	if err != nil {
		badRequest(c, "invalid approval level")
		return
	}
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "decision is required")
		return
	}

	err = h.approvals.Decide(c.Request.Context(), id, approval.Level(level),
		req.Decision, req.Notes, middleware.UserIDFrom(c), middleware.AssignmentsFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func ticketID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid ticket id")
		return 0, false
	}
	return id, true
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"code":    "validation",
		"error":   message,
	})
}

// respondError translates the service error taxonomy into HTTP codes the UI
// can pattern-match: denial (403) and write conflict (409) are distinct so
// the client offers "refresh and retry" instead of "you lack permission".
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrTicketNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false, "code": "not_found", "error": "ticket not found",
		})
	case errors.Is(err, services.ErrPermissionDenied):
		middleware.CountDenial()
		c.JSON(http.StatusForbidden, gin.H{
			"success": false, "code": "denied", "error": "permission denied",
		})
	case errors.Is(err, repository.ErrVersionConflict):
		middleware.CountConflict()
		c.JSON(http.StatusConflict, gin.H{
			"success": false, "code": "conflict",
			"error": "the ticket changed while you were looking at it; refresh and retry",
		})
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrInvalidDecision),
		errors.Is(err, repository.ErrApprovalExists),
		errors.Is(err, approval.ErrInvalidLevel),
		errors.Is(err, approval.ErrWrongLevel),
		errors.Is(err, approval.ErrAlreadyDecided),
		errors.Is(err, approval.ErrNotesRequired),
		errors.Is(err, approval.ErrNotUnderApproval):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false, "code": "validation", "error": err.Error(),
		})
	default:
		log.Printf("unexpected error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false, "code": "internal", "error": "internal error",
		})
	}
}
