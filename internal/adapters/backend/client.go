// Package backend implements the core's collaborator ports against the
// internal REST API of the main web application (rooms, users, friendships
// all live there; the signaling core owns none of it).
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tgrenier/huddle/internal/domain"
)

// Client talks to the web application's internal API. It implements
// core.RoomAuthority, core.UserDirectory and core.SocialGraph.
type Client struct {
	base string
	http *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// IsAuthorizedInRoom asks whether the user belongs to the room.
// 404 means no; any other non-200 is an upstream failure.
func (c *Client) IsAuthorizedInRoom(ctx context.Context, roomID domain.RoomID, userID domain.UserID) (bool, error) {
	path := fmt.Sprintf("/internal/rooms/%s/members/%s", url.PathEscape(string(roomID)), url.PathEscape(string(userID)))
	resp, err := c.get(ctx, path)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("room membership check: unexpected status %d", resp.StatusCode)
	}
}

type userRecord struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

func (c *Client) DisplayNameOf(ctx context.Context, userID domain.UserID) (string, error) {
	u, err := c.fetchUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.Username, nil
}

func (c *Client) AvatarOf(ctx context.Context, userID domain.UserID) (string, error) {
	u, err := c.fetchUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.Avatar, nil
}

func (c *Client) fetchUser(ctx context.Context, userID domain.UserID) (*userRecord, error) {
	resp, err := c.get(ctx, "/internal/users/"+url.PathEscape(string(userID)))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user lookup: unexpected status %d", resp.StatusCode)
	}
	var u userRecord
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("user lookup: decode: %w", err)
	}
	return &u, nil
}

func (c *Client) SetLastSeen(ctx context.Context, userID domain.UserID, online bool, at time.Time) error {
	body := fmt.Sprintf(`{"isOnline":%t,"lastSeen":%q}`, online, at.UTC().Format(time.RFC3339))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.base+"/internal/users/"+url.PathEscape(string(userID))+"/presence",
		strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("lastSeen update: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) AcceptedFriendsOf(ctx context.Context, userID domain.UserID) ([]domain.UserID, error) {
	resp, err := c.get(ctx, "/internal/users/"+url.PathEscape(string(userID))+"/friends")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("friends lookup: unexpected status %d", resp.StatusCode)
	}
	var out struct {
		Friends []domain.UserID `json:"friends"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("friends lookup: decode: %w", err)
	}
	return out.Friends, nil
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, err
	}
	return c.http.Do(req)
}
