package services

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"github.com/fatihyuksel3109/mathlearn/logging"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
)

// BadgeCursor is the award time of the last badge a stream delivered.
type BadgeCursor struct {
	AwardedAt time.Time
}

// PollNewBadges returns badges awarded after the cursor and the advanced cursor.
func (s *BadgeService) PollNewBadges(ctx context.Context, userID string, cur BadgeCursor) ([]EarnedBadge, BadgeCursor, error) {
	fresh, err := s.AwardedSince(ctx, userID, cur.AwardedAt)
	if err != nil {
		return nil, cur, err
	}
	if len(fresh) > 0 {
		cur.AwardedAt = fresh[len(fresh)-1].AwardedAt
	}
	return fresh, cur, nil
}

// StreamUserBadgesSSE pushes newly awarded badges to the authenticated user
// as "badge" events. Badges held before the stream opened are not replayed.
func (s *BadgeService) StreamUserBadgesSSE(interval time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")
		c.Set("X-Accel-Buffering", "no") // nginx

		done := c.Context().Done()
		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			cur := BadgeCursor{}
			if held, err := s.UserBadges(ctx, userID); err != nil {
				logging.Warn().Err(err).Str("user_id", userID).Msg("[SSE] cursor init failed")
			} else if len(held) > 0 {
				cur.AwardedAt = held[len(held)-1].AwardedAt
			}

			w.WriteString(":\n\n")
			if err := w.Flush(); err != nil {
				return
			}

			for {
				select {
				case <-ticker.C:
					var (
						fresh []EarnedBadge
						err   error
					)
					fresh, cur, err = s.PollNewBadges(ctx, userID, cur)
					if err != nil {
						logging.Warn().Err(err).Str("user_id", userID).Msg("[SSE] badge poll failed")
						continue
					}
					if len(fresh) == 0 {
						// keepalive so dead clients surface as flush errors
						w.WriteString(":\n\n")
					}
					for _, b := range fresh {
						payload, _ := json.Marshal(b)
						fmt.Fprintf(w, "event: badge\ndata: %s\n\n", payload)
					}
					if err := w.Flush(); err != nil {
						return
					}
				case <-done:
					return
				}
			}
		})
		return nil
	}
}
