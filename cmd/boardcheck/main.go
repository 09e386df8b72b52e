package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/park285/Cheese-chess-coach/internal/uiws"
	"github.com/park285/Cheese-chess-coach/pkg/chessdto"
)

// boardcheck connects to a running coach as a board client, asks for the
// position, optionally plays COACH_MOVE (e.g. e2e4) and prints every event
// it sees for a short window.
func main() {
	baseURL := strings.TrimRight(getenvDefault("COACH_BASE_URL", "http://localhost:8080"), "/")
	gameID := getenvDefault("COACH_GAME", "boardcheck")
	move := strings.TrimSpace(os.Getenv("COACH_MOVE"))

	checkHealth(baseURL)

	wsURL, err := websocketURL(baseURL, gameID)
	if err != nil {
		log.Fatalf("bad COACH_BASE_URL: %v", err)
	}
	ws := uiws.NewClient(wsURL, 3, time.Second)
	ws.OnStateChange(func(state uiws.ConnState) {
		log.Printf("WS state: %s", state)
	})
	ws.OnEvent(func(ev *chessdto.Event) {
		b, _ := json.Marshal(ev)
		fmt.Printf("event %s\n", b)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ws.Connect(ctx); err != nil {
		log.Printf("WS connect error: %v", err)
		return
	}
	if err := ws.Send(ctx, chessdto.Command{Command: chessdto.CommandRequestFEN}); err != nil {
		log.Printf("request-fen error: %v", err)
	}
	if len(move) >= 4 {
		cmd := chessdto.Command{Command: chessdto.CommandMove, From: move[:2], To: move[2:4]}
		if len(move) > 4 {
			cmd.Promotion = move[4:5]
		}
		if err := ws.Send(ctx, cmd); err != nil {
			log.Printf("move error: %v", err)
		}
	}

	// Observe for a short window
	t := time.NewTimer(5 * time.Second)
	<-t.C
	closeCtx, closeCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer closeCancel()
	_ = ws.Close(closeCtx)
}

func checkHealth(baseURL string) {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(baseURL + "/healthz")
	if err != nil {
		log.Printf("/healthz error: %v", err)
		return
	}
	defer resp.Body.Close()
	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	log.Printf("/healthz %d: %v", resp.StatusCode, body)
}

func websocketURL(baseURL, gameID string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"game": {gameID}}.Encode()
	return u.String(), nil
}

func getenvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}
