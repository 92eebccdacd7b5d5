package gateway

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

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/models"
	"github.com/angelmondragon/packfinderz-storefront/pkg/pagination"
)

const (
	defaultTimeout             = 15 * time.Second
	responseBodyLimit    int64 = 8 << 20
	errorBodySnippetSize       = 512
)

var errBaseURLRequired = errors.New("gateway base url is required")

// TokenSource supplies the bearer token for authenticated calls. An empty token sends no header.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client talks to the storefront API over HTTP/JSON.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
}

var _ Gateway = (*Client)(nil)

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithTokenSource attaches bearer tokens to every request.
func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) {
		c.tokens = tokens
	}
}

// NewClient builds a gateway client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// envelope is the status part every response carries next to its payload.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Field   string `json:"field"`
}

func (c *Client) ListProducts(ctx context.Context, query ProductQuery) ([]models.Product, error) {
	params := url.Values{}
	if s := strings.TrimSpace(query.Search); s != "" {
		params.Set("search", s)
	}
	if query.Category != "" {
		params.Set("category", query.Category)
	}
	if query.Page > 0 {
		params.Set("page", strconv.Itoa(query.Page))
	}
	if query.PerPage > 0 {
		params.Set("perPage", strconv.Itoa(query.PerPage))
	}
	var out struct {
		Products []models.Product `json:"products"`
	}
	if err := c.do(ctx, http.MethodGet, "/products", params, nil, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

func (c *Client) GetCart(ctx context.Context) (models.Cart, error) {
	var out struct {
		Cart models.Cart `json:"cart"`
	}
	if err := c.do(ctx, http.MethodGet, "/cart", nil, nil, &out); err != nil {
		return models.Cart{}, err
	}
	return out.Cart, nil
}

func (c *Client) AddCartLine(ctx context.Context, input AddCartLineInput) error {
	return c.do(ctx, http.MethodPost, "/cart/items", nil, input, nil)
}

func (c *Client) SetQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error {
	body := map[string]int{"quantity": quantity}
	return c.do(ctx, http.MethodPatch, "/cart/items/"+lineID.String(), nil, body, nil)
}

func (c *Client) RemoveLine(ctx context.Context, lineID uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/cart/items/"+lineID.String(), nil, nil, nil)
}

func (c *Client) ListFavorites(ctx context.Context) ([]models.Favorite, error) {
	var out struct {
		Favorites []models.Favorite `json:"favorites"`
	}
	if err := c.do(ctx, http.MethodGet, "/favorites", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Favorites, nil
}

func (c *Client) AddFavorite(ctx context.Context, productID uuid.UUID) error {
	body := map[string]uuid.UUID{"product_id": productID}
	return c.do(ctx, http.MethodPost, "/favorites", nil, body, nil)
}

func (c *Client) RemoveFavorite(ctx context.Context, productID uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/favorites/"+productID.String(), nil, nil, nil)
}

func (c *Client) ListAddresses(ctx context.Context) ([]models.Address, error) {
	var out struct {
		Addresses []models.Address `json:"addresses"`
	}
	if err := c.do(ctx, http.MethodGet, "/addresses", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Addresses, nil
}

func (c *Client) AddAddress(ctx context.Context, input AddressInput) (models.Address, error) {
	var out struct {
		Address models.Address `json:"address"`
	}
	if err := c.do(ctx, http.MethodPost, "/addresses", nil, input, &out); err != nil {
		return models.Address{}, err
	}
	return out.Address, nil
}

func (c *Client) UpdateAddress(ctx context.Context, id uuid.UUID, input AddressInput) (models.Address, error) {
	var out struct {
		Address models.Address `json:"address"`
	}
	if err := c.do(ctx, http.MethodPut, "/addresses/"+id.String(), nil, input, &out); err != nil {
		return models.Address{}, err
	}
	return out.Address, nil
}

func (c *Client) DeleteAddress(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/addresses/"+id.String(), nil, nil, nil)
}

func (c *Client) ListOrders(ctx context.Context, page, perPage int) (models.OrdersPage, error) {
	params := pagination.Params{Page: page, PerPage: perPage}.Normalize()
	query := url.Values{}
	query.Set("page", strconv.Itoa(params.Page))
	query.Set("perPage", strconv.Itoa(params.PerPage))
	var out models.OrdersPage
	if err := c.do(ctx, http.MethodGet, "/orders", query, nil, &out); err != nil {
		return models.OrdersPage{}, err
	}
	return out, nil
}

func (c *Client) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (PlaceOrderResult, error) {
	var out PlaceOrderResult
	if err := c.do(ctx, http.MethodPost, "/orders", nil, req, &out); err != nil {
		return PlaceOrderResult{}, err
	}
	return out, nil
}

func (c *Client) SubmitReview(ctx context.Context, input ReviewInput) error {
	path := fmt.Sprintf("/orders/%s/items/%s/reviews", input.OrderID, input.ItemID)
	return c.do(ctx, http.MethodPost, path, nil, input, nil)
}

func (c *Client) GetProfile(ctx context.Context) (models.Profile, error) {
	var out struct {
		Profile models.Profile `json:"profile"`
	}
	if err := c.do(ctx, http.MethodGet, "/profile", nil, nil, &out); err != nil {
		return models.Profile{}, err
	}
	return out.Profile, nil
}

func (c *Client) UpdateProfile(ctx context.Context, input ProfileInput) (models.Profile, error) {
	var out struct {
		Profile models.Profile `json:"profile"`
	}
	if err := c.do(ctx, http.MethodPut, "/profile", nil, input, &out); err != nil {
		return models.Profile{}, err
	}
	return out.Profile, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "gateway client not configured")
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal gateway request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build gateway request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "load session token")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not reach the store, check your connection")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read gateway response")
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 || decodeErr != nil || !env.Success {
		return responseError(resp.StatusCode, env, raw, decodeErr)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode gateway response")
	}
	return nil
}

func responseError(status int, env envelope, raw []byte, decodeErr error) error {
	code := pkgerrors.CodeDependency
	switch status {
	case http.StatusUnauthorized:
		code = pkgerrors.CodeUnauthorized
	case http.StatusNotFound:
		code = pkgerrors.CodeNotFound
	}

	message := strings.TrimSpace(env.Message)
	if message == "" {
		message = pkgerrors.MetadataFor(code).PublicMessage
	}

	cause := fmt.Errorf("status %d: %s", status, snippet(raw))
	if decodeErr != nil {
		cause = fmt.Errorf("%w (decode: %v)", cause, decodeErr)
	}
	return pkgerrors.Wrap(code, cause, message).WithField(env.Field)
}

func snippet(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if len(text) > errorBodySnippetSize {
		return text[:errorBodySnippetSize]
	}
	return text
}
