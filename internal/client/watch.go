// internal/client/watch.go
package client

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"booknest/internal/realtime"
)

// Watch subscribes to the user's realtime channel and applies every delta to
// mirror until ctx is done or the server closes the connection. A close
// caused by sign-out returns nil.
func (c *Client) Watch(ctx context.Context, mirror *realtime.Mirror) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	url := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if ctx.Err() != nil || errors.As(err, &closeErr) {
				return nil
			}
			return err
		}

		d, err := realtime.Decode(data)
		if err != nil {
			c.log.Warnw("Dropping malformed delta", "error", err)
			continue
		}
		if err := mirror.Apply(d); err != nil {
			c.log.Warnw("Failed to apply delta", "topic", d.Topic, "op", d.Op, "error", err)
		}
	}
}
