// handlers/competition.go
package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"story-competition/middleware"
	"story-competition/services"
)

type submitEntryRequest struct {
	SubmissionID string `json:"submission_id"`
}

func SetupCompetitionRoutes(app *fiber.App, competitions *services.CompetitionService, entries *services.EntryService, ranking *services.RankingService) {
	// 🔐 All competition routes need the user context set by the gateway
	secured := app.Group("/competitions", middleware.UserContextMiddleware())

	secured.Get("/current", func(c *fiber.Ctx) error {
		comp, err := competitions.Current(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(comp)
	})

	secured.Get("/:id", func(c *fiber.Ctx) error {
		comp, err := competitions.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(comp)
	})

	secured.Get("/:id/quota", func(c *fiber.Ctx) error {
		decision, err := entries.Quota.CanSubmit(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(decision)
	})

	secured.Post("/:id/entries", func(c *fiber.Ctx) error {
		var req submitEntryRequest
		if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.SubmissionID) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "submission_id is required",
			})
		}
		entry, err := entries.Submit(c.UserContext(), c.Params("id"), middleware.UserID(c), req.SubmissionID)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(entry)
	})

	secured.Get("/:id/results", func(c *fiber.Ctx) error {
		res, err := ranking.Results(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	})

	users := app.Group("/users", middleware.UserContextMiddleware())
	users.Get("/me/eligible-submissions", func(c *fiber.Ctx) error {
		subs, err := entries.EligibleSubmissions(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"submissions": subs})
	})
}
