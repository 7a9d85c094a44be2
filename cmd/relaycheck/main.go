// relaycheck probes the chat relay: it hits the health endpoint over HTTP
// and then watches the websocket event stream for a short window.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/relay"
)

func main() {
	baseURL := os.Getenv("RELAY_BASE_URL")
	wsURL := os.Getenv("RELAY_WS_URL")
	userID := os.Getenv("X_USER_ID")
	sessionID := os.Getenv("X_SESSION_ID")

	if baseURL == "" {
		log.Fatal("RELAY_BASE_URL is required")
	}

	headers := func() map[string]string {
		m := map[string]string{}
		if userID != "" {
			m["X-User-Id"] = userID
		}
		if sessionID != "" {
			m["X-Session-Id"] = sessionID
		}
		return m
	}

	client := relay.NewClient(baseURL,
		relay.WithHeaderProvider(headers),
		relay.WithTimeout(8*time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		log.Printf("/health error: %v", err)
	} else {
		log.Println("/health ok")
	}

	if wsURL == "" {
		log.Println("RELAY_WS_URL not set; skipping WS check")
		return
	}

	ws := relay.NewWebSocket(wsURL, 5, time.Second)
	ws.SetHeaderProvider(headers)
	ws.OnStateChange(func(state relay.WebSocketState) {
		log.Printf("WS state: %s", state)
	})
	ws.OnEvent(func(ev *relay.Event) {
		fmt.Printf("WS event room=%s from=%s text=%q\n", ev.Room, ev.SenderName, ev.Text)
	})

	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ccancel()
	if err := ws.Connect(cctx); err != nil {
		log.Printf("WS connect error: %v", err)
		return
	}

	// Observe for a short window
	t := time.NewTimer(10 * time.Second)
	<-t.C

	_ = ws.Close(context.Background())
}
