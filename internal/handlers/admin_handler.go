package handlers

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/fluencyjet/sentence-master/internal/dto"
	"github.com/fluencyjet/sentence-master/internal/importer"
	"github.com/fluencyjet/sentence-master/internal/services"
)

const maxUploadSize = 5 * 1024 * 1024

type LeaderboardRebuilder interface {
	Rebuild(ctx context.Context) error
}

type AdminHandler struct {
	imports     *services.ExerciseImportService
	users       *services.UserService
	xp          XPLedger
	leaderboard LeaderboardRebuilder
}

func NewAdminHandler(
	imports *services.ExerciseImportService,
	users *services.UserService,
	xp XPLedger,
	leaderboard LeaderboardRebuilder,
) *AdminHandler {
	return &AdminHandler{imports: imports, users: users, xp: xp, leaderboard: leaderboard}
}

// BulkExercises handles POST /api/admin/exercises/bulk with a JSON array.
func (h *AdminHandler) BulkExercises(c *fiber.Ctx) error {
	var rows []dto.BulkExerciseRow
	if err := c.BodyParser(&rows); err != nil {
		return badBody(c)
	}

	res, err := h.imports.Import(c.UserContext(), rows)
	if err != nil {
		return respondError(c, "admin.bulk", err)
	}
	return c.JSON(res)
}

// UploadExercises handles POST /api/admin/exercises/upload with a multipart
// "file" field holding a .csv or .xlsx sheet. The upload is staged in a temp
// file that is removed once parsed.
func (h *AdminHandler) UploadExercises(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "file is required")
	}
	if file.Size > maxUploadSize {
		return errorJSON(c, fiber.StatusBadRequest, "file must be smaller than 5MB")
	}

	ext := filepath.Ext(file.Filename)
	tmp, err := os.CreateTemp("", "exercises-*"+ext)
	if err != nil {
		return respondError(c, "admin.upload", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := c.SaveFile(file, tmpPath); err != nil {
		return respondError(c, "admin.upload", err)
	}

	f, err := os.Open(tmpPath)
	if err != nil {
		return respondError(c, "admin.upload", err)
	}
	defer f.Close()

	parsed, err := importer.Parse(file.Filename, f)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	if len(parsed.Rows) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.BulkImportResponse{
			Skipped: len(parsed.Errors),
			Errors:  parsed.Errors,
		})
	}

	res, err := h.imports.Import(c.UserContext(), parsed.Rows)
	if err != nil {
		return respondError(c, "admin.upload", err)
	}
	res.Skipped += len(parsed.Errors)
	res.Errors = append(parsed.Errors, res.Errors...)

	slog.Info("exercise sheet uploaded", "file", file.Filename, "rows", len(parsed.Rows))
	return c.JSON(res)
}

// UpdateTier handles PUT /api/admin/users/:id/tier.
func (h *AdminHandler) UpdateTier(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid user id")
	}

	var req dto.TierUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	user, err := h.users.UpdateTier(c.UserContext(), userID, &req)
	if err != nil {
		return respondError(c, "admin.tier", err)
	}
	return c.JSON(user)
}

// AdjustXP handles POST /api/admin/xp/adjust.
func (h *AdminHandler) AdjustXP(c *fiber.Ctx) error {
	var req dto.AdminAdjustRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if req.UserID == uuid.Nil {
		return errorJSON(c, fiber.StatusBadRequest, "user_id is required")
	}

	b, err := h.xp.Award(c.UserContext(), req.UserID, services.AwardInput{
		Amount: req.Amount,
		Event:  string(services.EventAdminAdjust),
		Meta:   map[string]interface{}{"reason": req.Reason},
	})
	if err != nil {
		return respondError(c, "admin.xp_adjust", err)
	}

	slog.Info("xp adjusted by admin", "user_id", req.UserID.String(), "amount", req.Amount, "reason", req.Reason)
	return c.JSON(balanceResponse(b))
}

// RebuildLeaderboard handles POST /api/admin/leaderboard/rebuild.
func (h *AdminHandler) RebuildLeaderboard(c *fiber.Ctx) error {
	if err := h.leaderboard.Rebuild(c.UserContext()); err != nil {
		return respondError(c, "admin.leaderboard_rebuild", err)
	}
	return c.JSON(fiber.Map{"rebuilt": true})
}
