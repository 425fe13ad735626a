// handlers/progression_routes.go
package handlers

import (
	"fmt"
	"time"

	"github.com/fatihyuksel3109/mathlearn/middleware"
	"github.com/fatihyuksel3109/mathlearn/services"

	"github.com/gofiber/fiber/v2"
)

type ProgressionDeps struct {
	Progression  *services.ProgressionService
	Badges       *services.BadgeService
	Leaderboards *services.LeaderboardService
	Champions    *services.ChampionService
	// StreamInterval is how often the badge stream polls for new awards.
	StreamInterval time.Duration
}

func SetupProgressionRoutes(app *fiber.App, d ProgressionDeps) {
	user := middleware.UserContextMiddleware()

	// 🔓 no user context needed
	app.Get("/badges", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"badges": d.Badges.Catalog.All()})
	})

	app.Get("/leaderboard", func(c *fiber.Ctx) error {
		board, err := d.Leaderboards.Get(c.UserContext(), c.Query("period", "all-time"))
		if err != nil {
			return fail(c, "failed to load leaderboard", err)
		}
		return c.JSON(board)
	})

	app.Get("/champions", func(c *fiber.Ctx) error {
		out, err := d.Champions.Overview(c.UserContext())
		if err != nil {
			return fail(c, "failed to load champions", err)
		}
		return c.JSON(out)
	})

	// 🔐 user-scoped
	app.Get("/user", user, func(c *fiber.Ctx) error {
		summary, err := d.Progression.Summary(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return fail(c, "failed to load user", err)
		}
		return c.JSON(summary)
	})

	app.Get("/user/badges", user, func(c *fiber.Ctx) error {
		held, err := d.Badges.UserBadges(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return fail(c, "failed to get badges", err)
		}
		return c.JSON(fiber.Map{"badges": held})
	})

	app.Get("/user/badges/stream", user, d.Badges.StreamUserBadgesSSE(d.StreamInterval))

	app.Post("/badges/check", user, func(c *fiber.Ctx) error {
		earned, err := d.Badges.EvaluateLatest(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return fail(c, "failed to check badges", err)
		}
		msg := "No new badges earned"
		if len(earned) > 0 {
			msg = fmt.Sprintf("Earned %d new badge(s)!", len(earned))
		}
		return c.JSON(fiber.Map{
			"newly_earned_badges": earned,
			"message":             msg,
		})
	})
}
