package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/ZaaliAi/thelifecoachingcafe-sub002/internal/models"
	"github.com/ZaaliAi/thelifecoachingcafe-sub002/internal/repository"
)

type coachDirectoryRepository interface {
	ListCoaches(ctx context.Context, filter repository.CoachListFilter) ([]models.Profile, int, error)
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
}

type DirectoryHandler struct {
	profileRepo coachDirectoryRepository
}

func NewDirectoryHandler(profileRepo coachDirectoryRepository) *DirectoryHandler {
	return &DirectoryHandler{profileRepo: profileRepo}
}

func (h *DirectoryHandler) ListCoaches(c *fiber.Ctx) error {
	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	minRating, err := parseNonNegativeFloat(c.Query("min_rating"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "min_rating must be a valid non-negative number"})
	}
	maxPrice, err := parseNonNegativeFloat(c.Query("max_price"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "max_price must be a valid non-negative number"})
	}

	coaches, total, err := h.profileRepo.ListCoaches(c.Context(), repository.CoachListFilter{
		Specialization: strings.TrimSpace(c.Query("specialization")),
		MinRating:      minRating,
		MaxPrice:       maxPrice,
		Offset:         (page - 1) * limit,
		Limit:          limit,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch coaches"})
	}

	response := make([]models.CoachListResponse, 0, len(coaches))
	for _, coach := range coaches {
		response = append(response, buildCoachListResponse(coach))
	}

	return c.JSON(fiber.Map{
		"coaches":    response,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *DirectoryHandler) GetCoachDetail(c *fiber.Ctx) error {
	coachID := strings.TrimSpace(c.Params("id"))
	if coachID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid coach id"})
	}

	coach, err := h.profileRepo.GetByUserID(c.Context(), coachID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Coach not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch coach"})
	}

	return c.JSON(fiber.Map{
		"coach": buildCoachDetailResponse(*coach),
	})
}

func buildCoachListResponse(coach models.Profile) models.CoachListResponse {
	return models.CoachListResponse{
		ID:              coach.UserID,
		FullName:        stringValue(coach.FullName),
		AvatarURL:       stringValue(coach.AvatarURL),
		Specializations: stringSliceValue(coach.Specializations),
		HourlyRate:      floatValue(coach.HourlyRate),
		Rating:          floatValue(coach.Rating),
	}
}

func buildCoachDetailResponse(coach models.Profile) models.CoachDetailResponse {
	return models.CoachDetailResponse{
		CoachListResponse: buildCoachListResponse(coach),
		Bio:               stringValue(coach.Bio),
		IsVerified:        boolValue(coach.IsVerified),
	}
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func stringSliceValue(value *[]string) []string {
	if value == nil {
		return []string{}
	}
	return *value
}

func floatValue(value *float64) float64 {
	if value == nil {
		return 0
	}
	return *value
}

func boolValue(value *bool) bool {
	if value == nil {
		return false
	}
	return *value
}
