package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/work-marketplace/backend/internal/apperrors"
	"github.com/work-marketplace/backend/internal/http/dto"
	"github.com/work-marketplace/backend/internal/middleware"
	"github.com/work-marketplace/backend/internal/repositories"
	"github.com/work-marketplace/backend/internal/services"
	"go.uber.org/zap"
)

type AdminHandler struct {
	adminService *services.AdminService
	log          *zap.Logger
}

func NewAdminHandler(adminService *services.AdminService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{adminService: adminService, log: log}
}

func (h *AdminHandler) ExecuteAction(c *fiber.Ctx) error {
	var req dto.AdminActionRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	input := services.AdminActionInput{
		ActionType: req.ActionType,
		Notes:      req.Notes,
		Details:    req.Details,
	}
	if req.ContractID != nil {
		id, err := uuid.Parse(*req.ContractID)
		if err != nil {
			return respondError(c, apperrors.Validation("invalid contract_id"))
		}
		input.ContractID = &id
	}
	if req.TargetUserID != nil {
		id, err := uuid.Parse(*req.TargetUserID)
		if err != nil {
			return respondError(c, apperrors.Validation("invalid target_user_id"))
		}
		input.TargetUserID = &id
	}

	adminID := middleware.GetUserID(c)
	action, err := h.adminService.ExecuteAction(c.Context(), adminID, input)
	if err != nil {
		// The action row may still have been appended; surface it alongside
		// the rejection so the operator sees what was recorded.
		if action != nil {
			h.log.Warn("admin action rejected", zap.String("action_type", req.ActionType), zap.Error(err))
		}
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: action})
}

func (h *AdminHandler) ListActions(c *fiber.Ctx) error {
	filter := repositories.AdminActionFilter{
		Limit:  50,
		Offset: 0,
	}

	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}
	if v := c.Query("action_type"); v != "" {
		filter.ActionType = &v
	}
	if v := c.Query("contract_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return respondError(c, apperrors.Validation("invalid contract_id"))
		}
		filter.ContractID = &id
	}
	if v := c.Query("admin_user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return respondError(c, apperrors.Validation("invalid admin_user_id"))
		}
		filter.AdminUserID = &id
	}

	actions, err := h.adminService.ListActions(c.Context(), filter)
	if err != nil {
		h.log.Error("list admin actions failed", zap.Error(err))
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: actions})
}
