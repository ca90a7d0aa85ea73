package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/work-marketplace/backend/internal/apperrors"
	"github.com/work-marketplace/backend/internal/http/dto"
	"github.com/work-marketplace/backend/internal/middleware"
	"github.com/work-marketplace/backend/internal/models"
	"github.com/work-marketplace/backend/internal/rbac"
	"github.com/work-marketplace/backend/internal/repositories"
	"go.uber.org/zap"
)

type ProfileHandler struct {
	userRepo      *repositories.UserRepo
	profileRepo   *repositories.ProfileRepo
	violationRepo *repositories.ViolationRepo
	reviewRepo    *repositories.ReviewRepo
	log           *zap.Logger
}

func NewProfileHandler(userRepo *repositories.UserRepo, profileRepo *repositories.ProfileRepo, violationRepo *repositories.ViolationRepo, reviewRepo *repositories.ReviewRepo, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{userRepo: userRepo, profileRepo: profileRepo, violationRepo: violationRepo, reviewRepo: reviewRepo, log: log}
}

func (h *ProfileHandler) GetMe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	user, err := h.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		return respondError(c, apperrors.NotFound("user not found"))
	}
	if err := h.userRepo.UpdateLastActive(c.Context(), userID); err != nil {
		h.log.Warn("failed to bump last_active_at", zap.Error(err))
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: user})
}

// GetMyProfile returns the caller's rollup profile. The freelancer profile
// carries earnings, completed jobs and the rating aggregate; the client
// profile carries total spend. Both carry the trust score.
func (h *ProfileHandler) GetMyProfile(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	userType := c.Query("user_type")
	if userType == "" {
		if middleware.GetRole(c) == rbac.RoleFreelancer {
			userType = models.UserTypeFreelancer
		} else {
			userType = models.UserTypeClient
		}
	}

	switch userType {
	case models.UserTypeFreelancer:
		profile, err := h.profileRepo.GetFreelancer(c.Context(), userID)
		if err != nil {
			return respondError(c, apperrors.NotFound("profile not found"))
		}
		return c.JSON(dto.SuccessResponse{OK: true, Data: profile})
	case models.UserTypeClient:
		profile, err := h.profileRepo.GetClient(c.Context(), userID)
		if err != nil {
			return respondError(c, apperrors.NotFound("profile not found"))
		}
		return c.JSON(dto.SuccessResponse{OK: true, Data: profile})
	default:
		return respondError(c, apperrors.Validation("user_type must be client or freelancer"))
	}
}

// ListUserReviews returns the reviews left for a user, newest first.
func (h *ProfileHandler) ListUserReviews(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperrors.Validation("invalid user id"))
	}

	limit, offset := parsePage(c, 50)
	reviews, err := h.reviewRepo.ListByReviewee(c.Context(), userID, limit, offset)
	if err != nil {
		h.log.Error("list reviews failed", zap.Error(err))
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: reviews})
}

// ListUserViolations is admin-only; routed behind the admin group.
func (h *ProfileHandler) ListUserViolations(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperrors.Validation("invalid user id"))
	}

	limit, offset := parsePage(c, 50)
	violations, err := h.violationRepo.ListByUser(c.Context(), userID, limit, offset)
	if err != nil {
		h.log.Error("list violations failed", zap.Error(err))
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: violations})
}
