package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/portfolio-server/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Printf("contact_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	base := flag.String("base", "http://localhost:8080", "server base URL")
	name := flag.String("name", "smoke tester", "submitter name")
	email := flag.String("email", "smoke@example.com", "submitter email")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(strings.TrimRight(*base, "/"), "http") + "/ws/submissions"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	body, err := json.Marshal(map[string]string{"name": *name, "email": *email, "message": *text})
	if err != nil {
		return fmt.Errorf("marshal contact: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(*base, "/")+"/api/contact", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("post contact: %w", err)
	}
	defer resp.Body.Close()

	var ack struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	fmt.Printf("POST /api/contact: status=%d success=%t message=%q\n", resp.StatusCode, ack.Success, ack.Message)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, ack.Error)
	}

	// Other visitors may submit concurrently; wait for ours.
	for {
		var sub store.Submission
		if err := wsjson.Read(ctx, conn, &sub); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		fmt.Printf("Feed: id=%s name=%s email=%s ts=%s ip=%s\n", sub.ID, sub.Name, sub.Email, sub.Timestamp, sub.IPAddress)
		if sub.Email == *email && sub.Message == *text {
			return nil
		}
	}
}
