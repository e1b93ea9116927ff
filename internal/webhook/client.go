package webhook

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

// Client posts {"payload": ...} to the workflow endpoints under baseURL.
type Client struct {
	baseURL string
	timeout time.Duration
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), timeout: timeout}
}

type response struct {
	status int
	body   []byte
}

func (c *Client) post(ctx context.Context, endpoint string, payload interface{}) (*response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	agent := fiber.Post(c.baseURL + "/" + endpoint)
	agent.JSON(envelope{Payload: payload})
	agent.Timeout(timeout)

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, errors.Wrapf(errs[0], "webhook %s", endpoint)
	}
	return &response{status: status, body: body}, nil
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (c *Client) send(ctx context.Context, endpoint string, payload interface{}) error {
	resp, err := c.post(ctx, endpoint, payload)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return errors.Wrapf(ErrRejected, "webhook %s: status %d", endpoint, resp.status)
	}
	return nil
}

func (c *Client) AddOffer(ctx context.Context, p OfferPayload) error {
	return c.send(ctx, EndpointAddOffer, p)
}

func (c *Client) AddRequest(ctx context.Context, p RequestPayload) error {
	return c.send(ctx, EndpointAddRequest, p)
}

func (c *Client) SaveProfile(ctx context.Context, p ProfilePayload) error {
	return c.send(ctx, EndpointSaveProfile, p)
}

// Register maps a 409 or an "already registered"/"duplicate" message to ErrDuplicate.
func (c *Client) Register(ctx context.Context, p RegisterPayload) error {
	resp, err := c.post(ctx, EndpointRegister, p)
	if err != nil {
		return err
	}
	if resp.ok() {
		return nil
	}
	if isDuplicateResponse(resp.status, resp.body) {
		return ErrDuplicate
	}
	return errors.Wrapf(ErrRejected, "webhook %s: status %d", EndpointRegister, resp.status)
}

func isDuplicateResponse(status int, body []byte) bool {
	if status == fiber.StatusConflict {
		return true
	}
	var msg struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &msg); err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(msg.Message), "already registered") ||
		strings.Contains(strings.ToLower(msg.Error), "duplicate")
}
