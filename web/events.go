package web

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	auth "github.com/goliatone/go-wallet-auth"
	"github.com/goliatone/go-wallet-auth/middleware/guardware"
	"github.com/valyala/fasthttp"
)

const eventBuffer = 8

// SessionEvents streams the session state as server sent events. The
// current state is sent first, then one event per store mutation until the
// client goes away.
//
// The stream writer outlives the handler and the fiber context is recycled
// once the handler returns, so everything the listener and the writer need
// is captured up front.
func (a *Controller) SessionEvents(c *fiber.Ctx) error {
	store, ok := auth.StoreFromContext(c.UserContext())
	if !ok {
		a.Logger.Error("session events", "error", guardware.ErrNoStore)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":     guardware.ErrNoStore.Message,
			"text_code": guardware.ErrNoStore.TextCode,
		})
	}

	logger := a.Logger
	heartbeat := a.Heartbeat
	client := clientKeyOf(c)

	// subscribe before reading the state so no mutation falls in between,
	// updates queued meanwhile are sent after the initial frame
	updates := make(chan auth.State, eventBuffer)
	sub := store.Subscribe(func(state auth.State) {
		// listeners run under the store lock, drop rather than block
		select {
		case updates <- state:
		default:
			logger.Warn("session event dropped", "client", client)
		}
	})

	initial := store.EnsureInitialized(c.UserContext())

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer sub.Cancel()

		if err := writeEvent(w, initial); err != nil {
			return
		}

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		for {
			select {
			case state := <-updates:
				if err := writeEvent(w, state); err != nil {
					logger.Debug("session events closed", "client", client, "error", err)
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					logger.Debug("session events closed", "client", client, "error", err)
					return
				}
			}
		}
	}))

	return nil
}

func writeEvent(w *bufio.Writer, state auth.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: session\ndata: %s\n\n", data); err != nil {
		return err
	}
	return w.Flush()
}
