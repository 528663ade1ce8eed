package lockclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, hc *http.Client) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: baseURL,
		http:    hc,
	}
}

// ---- Wire format (matches the HTTP API) ----

type addLockReq struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

type statusResp struct {
	ResourceID string `json:"resource_id"`
	T          int64  `json:"t"`
	Status     string `json:"status"`
}

type collisionAtResp struct {
	ResourceID string `json:"resource_id"`
	T          int64  `json:"t"`
	Collision  bool   `json:"collision"`
}

type collisionsResp struct {
	ResourceID string `json:"resource_id"`
	Pairs      []Pair `json:"pairs"`
}

type errResp struct {
	Error string `json:"error"`
}

// ---- Operations ----

// AddLock registers the half-open range [start, end) on resourceID.
func (c *Client) AddLock(ctx context.Context, resourceID string, start, end int64) (Lock, error) {
	if resourceID == "" {
		return Lock{}, fmt.Errorf("resourceID required")
	}

	path := fmt.Sprintf("%s/v1/resources/%s/locks", c.baseURL, url.PathEscape(resourceID))
	var out Lock
	code, raw, err := c.doJSON(ctx, http.MethodPost, path, addLockReq{Start: start, End: end}, &out)
	if err != nil {
		return Lock{}, err
	}
	if code == http.StatusCreated {
		return out, nil
	}
	return Lock{}, c.statusErr(http.MethodPost, path, code, raw)
}

// Status answers "LOCKED" or "FREE" for resourceID at time t.
func (c *Client) Status(ctx context.Context, resourceID string, t int64) (string, error) {
	path := fmt.Sprintf("%s/v1/resources/%s/status?t=%d", c.baseURL, url.PathEscape(resourceID), t)
	var out statusResp
	code, raw, err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	if err != nil {
		return "", err
	}
	if code == http.StatusOK {
		return out.Status, nil
	}
	return "", c.statusErr(http.MethodGet, path, code, raw)
}

// HasCollision reports whether two locks on resourceID overlap at t.
func (c *Client) HasCollision(ctx context.Context, resourceID string, t int64) (bool, error) {
	path := fmt.Sprintf("%s/v1/resources/%s/collision?t=%d", c.baseURL, url.PathEscape(resourceID), t)
	var out collisionAtResp
	code, raw, err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	if err != nil {
		return false, err
	}
	if code == http.StatusOK {
		return out.Collision, nil
	}
	return false, c.statusErr(http.MethodGet, path, code, raw)
}

// FirstCollision returns at most one overlapping pair.
func (c *Client) FirstCollision(ctx context.Context, resourceID string) ([]Pair, error) {
	return c.collisions(ctx, resourceID, true)
}

// Collisions returns every overlapping adjacent pair in scan order.
func (c *Client) Collisions(ctx context.Context, resourceID string) ([]Pair, error) {
	return c.collisions(ctx, resourceID, false)
}

func (c *Client) collisions(ctx context.Context, resourceID string, first bool) ([]Pair, error) {
	path := fmt.Sprintf("%s/v1/resources/%s/collisions", c.baseURL, url.PathEscape(resourceID))
	if first {
		path += "?first=1"
	}
	var out collisionsResp
	code, raw, err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	if err != nil {
		return nil, err
	}
	if code == http.StatusOK {
		return out.Pairs, nil
	}
	return nil, c.statusErr(http.MethodGet, path, code, raw)
}

// Load submits a batch of records in order. The server skips malformed
// records and reports counts; a structurally bad batch comes back as
// InvalidInputError with nothing applied.
func (c *Client) Load(ctx context.Context, records []Record) (LoadReport, error) {
	body := make([][]interface{}, 0, len(records))
	for _, r := range records {
		body = append(body, []interface{}{r.ResourceID, r.Start, r.End})
	}

	path := fmt.Sprintf("%s/v1/load", c.baseURL)
	var out LoadReport
	code, raw, err := c.doJSON(ctx, http.MethodPost, path, body, &out)
	if err != nil {
		return LoadReport{}, err
	}
	if code == http.StatusOK {
		return out, nil
	}
	return LoadReport{}, c.statusErr(http.MethodPost, path, code, raw)
}

// statusErr maps a 400 to the typed validation error; anything else is
// unexpected.
func (c *Client) statusErr(method, path string, code int, raw string) error {
	if code == http.StatusBadRequest {
		var er errResp
		_ = json.Unmarshal([]byte(raw), &er)
		return &InvalidInputError{Method: method, Path: path, Message: er.Error}
	}
	return &UnexpectedStatusError{Method: method, Path: path, Code: code, Body: raw}
}

// doJSON sends JSON and optionally decodes JSON response.
// Returns status code and raw body (trimmed) for debugging.
func (c *Client) doJSON(ctx context.Context, method, url string, req any, resp any) (int, string, error) {
	var body io.Reader
	if req != nil {
		b, err := json.Marshal(req)
		if err != nil {
			return 0, "", err
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, "", err
	}
	if req != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	rsp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, "", err
	}
	defer rsp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(rsp.Body, 1<<20))
	raw := strings.TrimSpace(string(data))

	if resp != nil && len(data) > 0 {
		_ = json.Unmarshal(data, resp) // tolerate non-JSON error bodies
	}
	return rsp.StatusCode, raw, nil
}
