package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/iudanet/mealsync/pkg/api"
)

// Subscribe opens the realtime changefeed over a websocket.
// Events are delivered in transport order; the channel is closed when
// ctx is cancelled or the stream ends. Reconnection is the caller's
// responsibility - a reconnect is followed by a full sync anyway, which
// supersedes anything missed while disconnected.
func (c *Client) Subscribe(ctx context.Context, householdID string) (<-chan api.ChangeEvent, error) {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) +
		"/api/v1/changes?household_id=" + url.QueryEscape(householdID)

	opts := &websocket.DialOptions{}
	if c.tokenFn != nil {
		token, err := c.tokenFn(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get access token: %w", err)
		}
		opts.HTTPHeader = http.Header{"Authorization": {"Bearer " + token}}
	}

	conn, _, err := websocket.Dial(ctx, wsURL, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to dial changefeed: %w", err)
	}

	ch := make(chan api.ChangeEvent)

	go func() {
		defer close(ch)
		defer conn.Close(websocket.StatusNormalClosure, "")

		for {
			var event api.ChangeEvent
			if err := wsjson.Read(ctx, conn, &event); err != nil {
				// Отмена контекста, закрытие соединения или обрыв сети -
				// в любом случае поток закончился, канал закрывается
				return
			}

			select {
			case ch <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}
