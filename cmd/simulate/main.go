// Command simulate drives a running duel service over HTTP: it enqueues a
// population of users, watches rooms form, and terminates a fraction of
// them, which exercises the matchmaking path end to end.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"
)

// Default configuration constants.
const (
	defaultUsers       = 20
	defaultTimeout     = 10 * time.Second
	defaultRunDuration = 30 * time.Second
	pollInterval       = time.Second
)

type roomView struct {
	RoomID string `json:"room_id"`
	User1  int64  `json:"user1"`
	User2  int64  `json:"user2"`
}

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		users    = flag.Int("users", defaultUsers, "Number of users to enqueue")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		duration = flag.Duration("duration", defaultRunDuration, "How long to run the simulation")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()
	client := &http.Client{Timeout: *timeout}

	for i := 1; i <= *users; i++ {
		if err := post(ctx, client, *baseURL+"/queue", map[string]any{"user_id": i}); err != nil {
			os.Stderr.WriteString("enqueue failed: " + err.Error() + "\n")
		}
	}
	fmt.Printf("enqueued %d users\n", *users)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			fmt.Println("simulation finished")
			return
		case <-ticker.C:
			rooms, err := fetchRooms(ctx, client, *baseURL)
			if err != nil {
				os.Stderr.WriteString("fetch rooms failed: " + err.Error() + "\n")
				continue
			}
			fmt.Printf("open rooms: %d\n", len(rooms))
			for _, room := range rooms {
				// End or abandon roughly a third of observed rooms
				// each tick so terminations get exercised too.
				switch rand.Intn(3) { //nolint:gosec // simulation randomness
				case 0:
					score := fmt.Sprintf("%d-%d", rand.Intn(10), rand.Intn(10)) //nolint:gosec // simulation randomness
					_ = post(ctx, client, *baseURL+"/rooms/end", map[string]any{
						"room_id": room.RoomID, "winner_id": room.User1, "score": score,
					})
				case 1:
					_ = post(ctx, client, *baseURL+"/rooms/leave", map[string]any{
						"user_id": room.User2,
					})
				}
			}
		}
	}
}

func post(ctx context.Context, client *http.Client, url string, body map[string]any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return nil
}

func fetchRooms(ctx context.Context, client *http.Client, baseURL string) ([]roomView, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/rooms", nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var rooms []roomView
	if err := json.NewDecoder(resp.Body).Decode(&rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}
