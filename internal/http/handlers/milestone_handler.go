package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/work-marketplace/backend/internal/apperrors"
	"github.com/work-marketplace/backend/internal/http/dto"
	"github.com/work-marketplace/backend/internal/middleware"
	"github.com/work-marketplace/backend/internal/services"
	"go.uber.org/zap"
)

type MilestoneHandler struct {
	milestoneService *services.MilestoneService
	log              *zap.Logger
}

func NewMilestoneHandler(milestoneService *services.MilestoneService, log *zap.Logger) *MilestoneHandler {
	return &MilestoneHandler{milestoneService: milestoneService, log: log}
}

func milestoneIDs(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	contractID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, apperrors.Validation("invalid contract id")
	}
	milestoneID, err := uuid.Parse(c.Params("milestoneId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, apperrors.Validation("invalid milestone id")
	}
	return contractID, milestoneID, nil
}

func (h *MilestoneHandler) SubmitMilestone(c *fiber.Ctx) error {
	contractID, milestoneID, err := milestoneIDs(c)
	if err != nil {
		return respondError(c, err)
	}

	actorID := middleware.GetUserID(c)
	if err := h.milestoneService.Submit(c.Context(), contractID, milestoneID, actorID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *MilestoneHandler) ApproveMilestone(c *fiber.Ctx) error {
	contractID, milestoneID, err := milestoneIDs(c)
	if err != nil {
		return respondError(c, err)
	}

	var req dto.ApproveMilestoneRequest
	_ = c.BodyParser(&req)

	actorID := middleware.GetUserID(c)
	result, err := h.milestoneService.Approve(c.Context(), contractID, milestoneID, actorID, req.ApprovalNote)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: settlementResponse(result)})
}

func (h *MilestoneHandler) RejectMilestone(c *fiber.Ctx) error {
	contractID, milestoneID, err := milestoneIDs(c)
	if err != nil {
		return respondError(c, err)
	}

	var req dto.RejectRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	actorID := middleware.GetUserID(c)
	if err := h.milestoneService.Reject(c.Context(), contractID, milestoneID, actorID, req.Reason); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}
