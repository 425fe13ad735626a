// handlers/game_routes.go
package handlers

import (
	"github.com/fatihyuksel3109/mathlearn/middleware"
	"github.com/fatihyuksel3109/mathlearn/services"

	"github.com/gofiber/fiber/v2"
)

func SetupGameRoutes(app *fiber.App, gameService *services.GameService, levelService *services.LevelService) {
	// 🔐 every route here needs the gateway's user context
	user := middleware.UserContextMiddleware()

	app.Post("/games/start", user, func(c *fiber.Ctx) error {
		var in services.StartInput
		if err := bind(c, &in); err != nil {
			return badRequest(c, err)
		}
		session, err := gameService.StartSession(c.UserContext(), middleware.UserID(c), in)
		if err != nil {
			return fail(c, "failed to start game", err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session_id": session.ID})
	})

	app.Post("/games/submit", user, func(c *fiber.Ctx) error {
		var in services.SubmitInput
		if err := bind(c, &in); err != nil {
			return badRequest(c, err)
		}
		name, avatar := middleware.UserDisplay(c)
		res, err := gameService.SubmitSession(c.UserContext(), middleware.UserID(c), name, avatar, in)
		if err != nil {
			return fail(c, "failed to submit game", err)
		}
		return c.JSON(res)
	})

	app.Post("/levels/complete", user, func(c *fiber.Ctx) error {
		var in services.CompleteLevelInput
		if err := bind(c, &in); err != nil {
			return badRequest(c, err)
		}
		progress, err := levelService.CompleteLevel(c.UserContext(), middleware.UserID(c), in)
		if err != nil {
			return fail(c, "failed to complete level", err)
		}
		return c.JSON(fiber.Map{
			"message":        "Level completed successfully",
			"level_progress": progress,
		})
	})

	app.Get("/levels/progress", user, func(c *fiber.Ctx) error {
		out, err := levelService.Progress(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return fail(c, "failed to load level progress", err)
		}
		return c.JSON(out)
	})
}
