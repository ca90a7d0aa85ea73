package handlers

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/work-marketplace/backend/internal/apperrors"
	"github.com/work-marketplace/backend/internal/http/dto"
	"github.com/work-marketplace/backend/internal/middleware"
	"github.com/work-marketplace/backend/internal/services"
)

var validate = validator.New()

// respondError maps the error taxonomy onto HTTP statuses. Store failures
// and anything unclassified surface as 500 with a generic body.
func respondError(c *fiber.Ctx, err error) error {
	status, message := fiber.StatusInternalServerError, "internal error"
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		status, message = fiber.StatusBadRequest, err.Error()
	case apperrors.KindUnauthorized:
		status, message = fiber.StatusForbidden, err.Error()
	case apperrors.KindNotFound:
		status, message = fiber.StatusNotFound, err.Error()
	case apperrors.KindInvalidState:
		status, message = fiber.StatusConflict, err.Error()
	}
	return c.Status(status).JSON(dto.ErrorResponse{
		Error:     message,
		RequestID: middleware.GetRequestID(c),
	})
}

// settlementResponse shapes an approval outcome for the caller: the settled
// entity, its new status and the computed net payout.
func settlementResponse(r *services.ApprovalResult) dto.SettlementResponse {
	resp := dto.SettlementResponse{
		ContractID: r.ContractID.String(),
		Status:     r.Status,
		NetAmount:  r.NetAmount.String(),
	}
	if r.MilestoneID != nil {
		id := r.MilestoneID.String()
		resp.MilestoneID = &id
	}
	return resp
}

func parsePage(c *fiber.Ctx, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// parseBody decodes and validates a JSON body. The returned error is
// already classified for respondError.
func parseBody(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.Validation("invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return apperrors.Validation("%v", err)
	}
	return nil
}
