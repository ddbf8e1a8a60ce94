package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/teymia/habitkit/internal/server"
	"github.com/teymia/habitkit/pkg/habit"
)

// Client talks to the habitkit HTTP API. The CLI and the reminder job are
// its only consumers.
type Client struct {
	BaseURL   string
	AuthToken string
	HTTP      *http.Client
}

func New(base, authToken string) *Client {
	return &Client{
		BaseURL:   base,
		AuthToken: authToken,
		HTTP:      &http.Client{Timeout: 8 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AuthToken)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("%s %s: %s", method, path, res.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func (c *Client) ListHabits(ctx context.Context) ([]*habit.Habit, error) {
	var resp server.HabitListResponse
	if err := c.do(ctx, http.MethodGet, "/habits/", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Habits, nil
}

func (c *Client) CreateHabit(ctx context.Context, req map[string]any) (*habit.Habit, error) {
	var h habit.Habit
	if err := c.do(ctx, http.MethodPost, "/habits/", req, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) GetHabit(ctx context.Context, habitID string) (*server.HabitGetResponse, error) {
	var resp server.HabitGetResponse
	if err := c.do(ctx, http.MethodGet, "/habits/"+habitID+"/", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TodayProgress satisfies the reminder job's querier.
func (c *Client) TodayProgress(ctx context.Context, habitID string) (int, error) {
	resp, err := c.GetHabit(ctx, habitID)
	if err != nil {
		return 0, err
	}
	return resp.Today, nil
}

func (c *Client) LogCompletion(ctx context.Context, habitID string, value int, fill bool) error {
	body := map[string]any{"value": value, "fill": fill}
	return c.do(ctx, http.MethodPost, "/habits/"+habitID+"/completions", body, nil)
}

func (c *Client) GetSummary(ctx context.Context, habitID string) (*habit.Summary, error) {
	var resp server.SummaryResponse
	if err := c.do(ctx, http.MethodGet, "/habits/"+habitID+"/summary", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Summary, nil
}

func (c *Client) GetChart(ctx context.Context, habitID string, gran habit.Granularity, date string) (*server.ChartResponse, error) {
	path := fmt.Sprintf("/habits/%s/chart?granularity=%s", habitID, gran)
	if date != "" {
		path += "&date=" + date
	}
	var resp server.ChartResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
