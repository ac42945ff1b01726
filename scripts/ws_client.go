// Package main runs a demo WebSocket client for session events.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type plane struct {
	ID          int     `json:"id"`
	Position    vec     `json:"position"`
	Destination vec     `json:"destination"`
	Heading     float64 `json:"heading"`
	Departure   int     `json:"departure"`
}

func post(base, path string, body any, out any) {
	b, _ := json.Marshal(body)
	resp, err := http.Post(base+path, "application/json", bytes.NewReader(b))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		log.Fatalf("%s: HTTP %d", path, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			log.Fatal(err)
		}
	}
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	fleet := []plane{
		{ID: 0, Position: vec{0, 0}, Destination: vec{300, 0}, Heading: -1, Departure: 0},
		{ID: 1, Position: vec{100, 100}, Destination: vec{100, -200}, Heading: -1, Departure: 2},
		{ID: 2, Position: vec{-50, 40}, Destination: vec{-50, 400}, Heading: -1, Departure: 1},
	}

	var sess struct {
		ID string `json:"id"`
	}
	post(base, "/v1/sessions", map[string]any{"planes": fleet}, &sess)
	log.Printf("Session ID: %s", sess.ID)

	// Connect WS
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/sessions/" + sess.ID + "/stream"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var m wsMessage
			if err := c.ReadJSON(&m); err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("WS <- %s: %s", m.Type, string(m.Payload))
		}
	}()

	// Play a few rounds, feeding the returned headings back in.
	headings := make([]float64, len(fleet))
	for i, p := range fleet {
		headings[i] = p.Heading
	}
	for round := 0; round < 4; round++ {
		for i := range fleet {
			fleet[i].Heading = headings[i]
		}
		var out struct {
			Headings []float64 `json:"headings"`
		}
		post(base, fmt.Sprintf("/v1/sessions/%s/rounds", sess.ID), map[string]any{
			"round":    round,
			"planes":   fleet,
			"headings": headings,
		}, &out)
		headings = out.Headings
		time.Sleep(200 * time.Millisecond)
	}

	req, _ := http.NewRequest(http.MethodDelete, base+"/v1/sessions/"+sess.ID, nil)
	_, _ = http.DefaultClient.Do(req)

	select {
	case <-time.After(2 * time.Second):
	case <-done:
	}
}
