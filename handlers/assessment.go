// handlers/assessment.go
package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"story-competition/assessment"
	"story-competition/integrity"
	"story-competition/middleware"
	"story-competition/models"
	"story-competition/services"
)

type assessRequest struct {
	Text            string   `json:"text"`
	AgeBracket      string   `json:"age_bracket"`
	Genre           string   `json:"genre"`
	IsCollaborative bool     `json:"is_collaborative"`
	References      []string `json:"references"`
}

type classifyRequest struct {
	OriginalityScore float64  `json:"originality_score"`
	AILikelihood     string   `json:"ai_likelihood"`
	HumanScore       *float64 `json:"human_score,omitempty"`
}

type createCompetitionRequest struct {
	Period string `json:"period"` // "2026-11"
}

// AssessmentHistory lists archived overall scores of a submission, newest first.
type AssessmentHistory interface {
	History(ctx context.Context, submissionID string) ([]float64, error)
}

// SetupAssessmentRoutes exposes the stateless scoring and classification
// endpoints. Texts over assessment.MaxTextBytes are rejected with 400.
func SetupAssessmentRoutes(app *fiber.App, engine *assessment.Engine) {
	app.Post("/assessments", middleware.UserContextMiddleware(), func(c *fiber.Ctx) error {
		var req assessRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
		}
		result, err := engine.ComputeContext(c.UserContext(), req.Text, assessment.Context{
			AgeBracket:      assessment.ParseAgeBracket(req.AgeBracket),
			Genre:           strings.ToLower(strings.TrimSpace(req.Genre)),
			IsCollaborative: req.IsCollaborative,
			References:      req.References,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(result)
	})

	app.Post("/integrity/classify", middleware.UserContextMiddleware(), func(c *fiber.Ctx) error {
		var req classifyRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
		}
		if req.HumanScore != nil {
			return c.JSON(integrity.ClassifyScores(req.OriginalityScore, *req.HumanScore))
		}
		return c.JSON(integrity.Classify(req.OriginalityScore, integrity.AILikelihood(req.AILikelihood)))
	})
}

// SetupAdminRoutes exposes the manual lifecycle controls. history may be nil.
func SetupAdminRoutes(app *fiber.App, competitions *services.CompetitionService, ranking *services.RankingService, judging *services.JudgingService, history AssessmentHistory) {
	// 🔒 Admin-only routes
	admin := app.Group("/admin", middleware.UserContextMiddleware(), middleware.RequireRole(middleware.RoleAdmin))

	admin.Post("/competitions", func(c *fiber.Ctx) error {
		var req createCompetitionRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
		}
		period, err := models.ParsePeriod(strings.TrimSpace(req.Period))
		if err != nil {
			return respondError(c, err)
		}
		comp, err := competitions.GetOrCreateCurrent(c.UserContext(), period)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(comp)
	})

	admin.Post("/competitions/:id/advance", func(c *fiber.Ctx) error {
		comp, err := competitions.Advance(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(comp)
	})

	admin.Post("/competitions/:id/finalize", func(c *fiber.Ctx) error {
		res, err := ranking.Finalize(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	})

	admin.Post("/submissions/:id/reassess", func(c *fiber.Ctx) error {
		res, err := judging.Reassess(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	})

	if history != nil {
		admin.Get("/submissions/:id/history", func(c *fiber.Ctx) error {
			scores, err := history.History(c.UserContext(), c.Params("id"))
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(fiber.Map{"submission_id": c.Params("id"), "scores": scores})
		})
	}
}
