package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/work-marketplace/backend/internal/apperrors"
	"github.com/work-marketplace/backend/internal/http/dto"
	"github.com/work-marketplace/backend/internal/middleware"
	"github.com/work-marketplace/backend/internal/repositories"
	"github.com/work-marketplace/backend/internal/services"
	"go.uber.org/zap"
)

type ContractHandler struct {
	contractService *services.ContractService
	log             *zap.Logger
}

func NewContractHandler(contractService *services.ContractService, log *zap.Logger) *ContractHandler {
	return &ContractHandler{contractService: contractService, log: log}
}

func (h *ContractHandler) CreateContract(c *fiber.Ctx) error {
	var req dto.CreateContractRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	freelancerID, err := uuid.Parse(req.FreelancerUserID)
	if err != nil {
		return respondError(c, apperrors.Validation("invalid freelancer_user_id"))
	}
	total, err := decimal.NewFromString(req.TotalAmount)
	if err != nil {
		return respondError(c, apperrors.Validation("invalid total_amount"))
	}

	input := services.CreateContractInput{
		FreelancerUserID: freelancerID,
		Title:            req.Title,
		Description:      req.Description,
		ContractType:     req.ContractType,
		TotalAmount:      total,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
	}
	if req.ProposalID != nil {
		pid, err := uuid.Parse(*req.ProposalID)
		if err != nil {
			return respondError(c, apperrors.Validation("invalid proposal_id"))
		}
		input.ProposalID = &pid
	}
	input.Milestones, err = parseMilestones(req.Milestones)
	if err != nil {
		return respondError(c, err)
	}

	clientID := middleware.GetUserID(c)
	contract, err := h.contractService.CreateContract(c.Context(), clientID, input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: contract})
}

func (h *ContractHandler) GetContract(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperrors.Validation("invalid contract id"))
	}

	contract, err := h.contractService.GetContract(c.Context(), id, middleware.GetUserID(c), middleware.IsAdmin(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: contract})
}

func (h *ContractHandler) ListContracts(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	filter := repositories.ContractFilter{
		Limit:  20,
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
	if v := c.Query("status"); v != "" {
		filter.Status = &v
	}

	switch c.Query("role") {
	case "freelancer":
		filter.FreelancerUserID = &userID
	case "client":
		filter.ClientUserID = &userID
	default:
		filter.ClientUserID = &userID
	}

	contracts, err := h.contractService.ListContracts(c.Context(), filter)
	if err != nil {
		h.log.Error("list contracts failed", zap.Error(err))
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: contracts})
}

func (h *ContractHandler) SignContract(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperrors.Validation("invalid contract id"))
	}

	actorID := middleware.GetUserID(c)
	contract, err := h.contractService.Sign(c.Context(), id, actorID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: contract})
}

func (h *ContractHandler) SubmitCompletion(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperrors.Validation("invalid contract id"))
	}

	actorID := middleware.GetUserID(c)
	if err := h.contractService.SubmitForCompletion(c.Context(), id, actorID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *ContractHandler) ApproveCompletion(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperrors.Validation("invalid contract id"))
	}

	var req dto.ApproveContractRequest
	_ = c.BodyParser(&req)

	actorID := middleware.GetUserID(c)
	result, err := h.contractService.Approve(c.Context(), id, actorID, services.ApproveInput{
		ApprovalNote: req.ApprovalNote,
		Rating:       req.Rating,
		Review:       req.Review,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: settlementResponse(result)})
}

func (h *ContractHandler) RejectCompletion(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperrors.Validation("invalid contract id"))
	}

	var req dto.RejectRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	actorID := middleware.GetUserID(c)
	if err := h.contractService.Reject(c.Context(), id, actorID, req.Reason); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *ContractHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperrors.Validation("invalid contract id"))
	}

	var req dto.UpdateContractStatusRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	actorID := middleware.GetUserID(c)
	if err := h.contractService.UpdateStatus(c.Context(), id, actorID, req.Status, req.Reason); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *ContractHandler) EditContract(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperrors.Validation("invalid contract id"))
	}

	var req dto.EditContractRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	input := services.EditContractInput{
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	if req.TotalAmount != nil {
		total, err := decimal.NewFromString(*req.TotalAmount)
		if err != nil {
			return respondError(c, apperrors.Validation("invalid total_amount"))
		}
		input.TotalAmount = &total
	}
	if req.Milestones != nil {
		input.Milestones, err = parseMilestones(req.Milestones)
		if err != nil {
			return respondError(c, err)
		}
	}

	actorID := middleware.GetUserID(c)
	contract, err := h.contractService.Edit(c.Context(), id, actorID, input)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: contract})
}

func (h *ContractHandler) OpenDispute(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperrors.Validation("invalid contract id"))
	}

	var req dto.OpenDisputeRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	actorID := middleware.GetUserID(c)
	dispute, err := h.contractService.OpenDispute(c.Context(), id, actorID, req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: dispute})
}

func (h *ContractHandler) ListMilestones(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperrors.Validation("invalid contract id"))
	}

	milestones, err := h.contractService.ListMilestones(c.Context(), id, middleware.GetUserID(c), middleware.IsAdmin(c))
	if err != nil {
		h.log.Error("list milestones failed", zap.Error(err))
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: milestones})
}

func (h *ContractHandler) ListTransactions(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperrors.Validation("invalid contract id"))
	}

	txs, err := h.contractService.ListTransactions(c.Context(), id, middleware.GetUserID(c), middleware.IsAdmin(c))
	if err != nil {
		h.log.Error("list transactions failed", zap.Error(err))
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: txs})
}

func (h *ContractHandler) ListDisputes(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperrors.Validation("invalid contract id"))
	}

	disputes, err := h.contractService.ListDisputes(c.Context(), id, middleware.GetUserID(c), middleware.IsAdmin(c))
	if err != nil {
		h.log.Error("list disputes failed", zap.Error(err))
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: disputes})
}

func (h *ContractHandler) GetContractEvents(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperrors.Validation("invalid contract id"))
	}

	events, err := h.contractService.GetContractEvents(c.Context(), id, middleware.GetUserID(c), middleware.IsAdmin(c))
	if err != nil {
		h.log.Error("get contract events failed", zap.Error(err))
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: events})
}

func parseMilestones(in []dto.MilestoneInputRequest) ([]services.MilestoneInput, error) {
	out := make([]services.MilestoneInput, 0, len(in))
	for _, m := range in {
		amount, err := decimal.NewFromString(m.Amount)
		if err != nil {
			return nil, apperrors.Validation("invalid milestone amount %q", m.Amount)
		}
		out = append(out, services.MilestoneInput{
			Title:       m.Title,
			Description: m.Description,
			Amount:      amount,
			DueDate:     m.DueDate,
		})
	}
	return out, nil
}
