package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/agamariel/virtshop/internal/models"
	"github.com/google/uuid"
)

// ErrUpstreamUnavailable возвращается, когда сервис заявок не ответил.
var ErrUpstreamUnavailable = errors.New("order service unavailable")

// degradedHeader совпадает с заголовком, который ставит API.
const degradedHeader = "X-Degraded"

// TokenProvider выдаёт токен для заголовка Authorization.
type TokenProvider interface {
	Token() (string, error)
}

// Client - HTTP-клиент сервиса заявок. Повторных попыток не делает.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenProvider
}

// New создаёт клиент. baseURL указывает на префикс /api.
func New(baseURL string, timeout time.Duration, tokens TokenProvider) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		tokens: tokens,
	}
}

// CreateOrder создаёт заявку.
func (c *Client) CreateOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error) {
	return c.orderCall(ctx, http.MethodPost, "/orders", req)
}

// ListOrders возвращает заявки по фильтру.
func (c *Client) ListOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error) {
	q := url.Values{}
	if filter.UserID != nil {
		q.Set("user_id", strconv.FormatInt(*filter.UserID, 10))
	}
	if filter.OrderType != "" {
		q.Set("order_type", string(filter.OrderType))
	}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	if filter.Project != "" {
		q.Set("project", filter.Project)
	}
	if filter.Source != "" {
		q.Set("source", string(filter.Source))
	}

	var orders []*models.Order
	if _, err := c.do(ctx, http.MethodGet, "/orders", q, nil, &orders, models.ErrOrderNotFound); err != nil {
		return nil, err
	}
	return orders, nil
}

// ApproveOrder одобряет заявку.
func (c *Client) ApproveOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return c.orderCall(ctx, http.MethodPatch, "/orders/"+id.String()+"/approve", nil)
}

// RejectOrder отклоняет заявку.
func (c *Client) RejectOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return c.orderCall(ctx, http.MethodPatch, "/orders/"+id.String()+"/reject", nil)
}

// AmendOrder частично меняет заявку.
func (c *Client) AmendOrder(ctx context.Context, id uuid.UUID, patch models.OrderPatch) (*models.Order, error) {
	return c.orderCall(ctx, http.MethodPatch, "/orders/"+id.String(), patch)
}

// DeleteOrder удаляет заявку и сообщает, существовала ли она.
func (c *Client) DeleteOrder(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := c.do(ctx, http.MethodDelete, "/orders/"+id.String(), nil, nil, nil, models.ErrOrderNotFound)
	if errors.Is(err, models.ErrOrderNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ServerStats возвращает статистику ожидающих продаж по серверам.
func (c *Client) ServerStats(ctx context.Context, project string) (models.StatsResult, error) {
	q := url.Values{}
	if project != "" {
		q.Set("project", project)
	}

	var stats []models.ServerStat
	h, err := c.do(ctx, http.MethodGet, "/orders/stats/servers", q, nil, &stats, models.ErrOrderNotFound)
	if err != nil {
		return models.StatsResult{}, err
	}
	return models.StatsResult{Stats: stats, Degraded: h.Get(degradedHeader) == "true"}, nil
}

// CheckBan проверяет блокировку пользователя.
func (c *Client) CheckBan(ctx context.Context, userID int64) (models.BanStatus, error) {
	var status models.BanStatus
	h, err := c.do(ctx, http.MethodGet, "/banned/"+strconv.FormatInt(userID, 10), nil, nil, &status, models.ErrBanNotFound)
	if err != nil {
		return models.BanStatus{}, err
	}
	status.Degraded = h.Get(degradedHeader) == "true"
	return status, nil
}

// Ban блокирует пользователя.
func (c *Client) Ban(ctx context.Context, req models.BanRequest) (*models.BanRecord, error) {
	var record models.BanRecord
	if _, err := c.do(ctx, http.MethodPost, "/banned", nil, req, &record, models.ErrBanNotFound); err != nil {
		return nil, err
	}
	return &record, nil
}

// Unban снимает блокировку.
func (c *Client) Unban(ctx context.Context, userID int64) (bool, error) {
	var resp struct {
		Success bool `json:"success"`
	}
	if _, err := c.do(ctx, http.MethodDelete, "/banned/"+strconv.FormatInt(userID, 10), nil, nil, &resp, models.ErrBanNotFound); err != nil {
		return false, err
	}
	return resp.Success, nil
}

// ListBans возвращает действующие блокировки.
func (c *Client) ListBans(ctx context.Context) ([]*models.BanRecord, error) {
	var records []*models.BanRecord
	if _, err := c.do(ctx, http.MethodGet, "/banned", nil, nil, &records, models.ErrBanNotFound); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) orderCall(ctx context.Context, method, path string, body interface{}) (*models.Order, error) {
	var order models.Order
	if _, err := c.do(ctx, method, path, nil, body, &order, models.ErrOrderNotFound); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}, notFound error) (http.Header, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			return nil, fmt.Errorf("issue token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %v", method, path, ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return nil, fmt.Errorf("decode response: %w", err)
			}
		}
		return resp.Header, nil
	case resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s", models.ErrValidation, errorMessage(resp.Body))
	case resp.StatusCode == http.StatusNotFound:
		return nil, notFound
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, models.ErrUnauthorized
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: status %d", models.ErrUpstream, resp.StatusCode)
	default:
		return nil, fmt.Errorf("unexpected api status: %d", resp.StatusCode)
	}
}

// errorMessage извлекает поле message из ответа echo.
func errorMessage(r io.Reader) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 4096)).Decode(&payload); err != nil || payload.Message == "" {
		return "bad request"
	}
	return payload.Message
}
