package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"room-annotator/internal/annotation/models"
)

// ============================================================
// Backend client
// ============================================================
//
// Talks to the roomstore and to the external extraction service. Upload
// and extract failures are surfaced to the operator; the auxiliary lookup
// calls degrade to empty results and are never fatal.

type Client struct {
	http         *http.Client
	roomstoreURL string
	extractorURL string
}

func New(roomstoreURL, extractorURL string) *Client {
	return &Client{
		http:         &http.Client{Timeout: 30 * time.Second},
		roomstoreURL: roomstoreURL,
		extractorURL: extractorURL,
	}
}

// Match is one ranked furniture-catalog candidate.
type Match struct {
	Code  string `json:"code"`
	W     int    `json:"W"`
	D     int    `json:"D"`
	H     int    `json:"H"`
	Score int    `json:"score"`
}

// RoomName is one entry of the stored room listing.
type RoomName struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UploadRooms posts the physical-unit payload to the roomstore and
// returns the inserted record identifiers. A non-success response carries
// a detail message which is passed through verbatim.
func (c *Client) UploadRooms(ctx context.Context, rooms []models.Room) ([]string, error) {
	body, err := json.Marshal(rooms)
	if err != nil {
		return nil, fmt.Errorf("marshal rooms: %w", err)
	}

	data, err := c.post(ctx, c.roomstoreURL+"/rooms", body)
	if err != nil {
		return nil, err
	}

	var out struct {
		InsertedIDs []string `json:"inserted_ids"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("invalid upload response: %w", err)
	}
	return out.InsertedIDs, nil
}

// FuzzyFurniture asks the roomstore for ranked catalog matches per code.
// Any failure degrades to an empty result set.
func (c *Client) FuzzyFurniture(ctx context.Context, codes []string) map[string][]Match {
	body, err := json.Marshal(map[string][]string{"codes": codes})
	if err != nil {
		return map[string][]Match{}
	}

	data, err := c.post(ctx, c.roomstoreURL+"/fuzzy_furniture", body)
	if err != nil {
		log.Printf("[BACKEND] Fuzzy lookup failed: %v", err)
		return map[string][]Match{}
	}

	var out map[string][]Match
	if err := json.Unmarshal(data, &out); err != nil {
		log.Printf("[BACKEND] Fuzzy lookup returned invalid JSON: %v", err)
		return map[string][]Match{}
	}
	return out
}

// RoomNames lists the stored rooms. Failures degrade to an empty list.
func (c *Client) RoomNames(ctx context.Context) []RoomName {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.roomstoreURL+"/room_names", nil)
	if err != nil {
		return []RoomName{}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("[BACKEND] Room name lookup failed: %v", err)
		return []RoomName{}
	}
	defer resp.Body.Close()

	var out []RoomName
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Printf("[BACKEND] Room name lookup returned invalid JSON: %v", err)
		return []RoomName{}
	}
	return out
}

// Extract submits selected filenames to the extraction service and
// returns the room records it produced.
func (c *Client) Extract(ctx context.Context, filenames []string) ([]models.Room, error) {
	body, err := json.Marshal(map[string][]string{"filenames": filenames})
	if err != nil {
		return nil, fmt.Errorf("marshal filenames: %w", err)
	}

	data, err := c.post(ctx, c.extractorURL+"/extract", body)
	if err != nil {
		return nil, err
	}

	var rooms []models.Room
	if err := json.Unmarshal(data, &rooms); err != nil {
		return nil, fmt.Errorf("invalid extraction response: %w", err)
	}
	return rooms, nil
}

// post sends a JSON body and returns the response bytes. Non-2xx
// responses become an error carrying the remote detail message when the
// body has one.
func (c *Client) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach backend service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var remote struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(data, &remote) == nil && remote.Detail != "" {
			return nil, fmt.Errorf("%s", remote.Detail)
		}
		return nil, fmt.Errorf("backend returned status %d", resp.StatusCode)
	}
	return data, nil
}
