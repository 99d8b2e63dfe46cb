package notion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

const (
	DefaultBaseURL  = "https://api.notion.com/v1"
	APIVersion      = "2022-06-28"
	MaxPageSize     = 100
	DefaultMaxDepth = 32
)

var (
	ErrMissingCredentials = errors.New("notion api key is required")
	ErrMaxDepth           = errors.New("notion block tree exceeds maximum depth")
)

// Block is one Notion block. Raw keeps the full JSON object so the type
// specific payload can be read when rendering.
type Block struct {
	ID          string
	Type        string
	HasChildren bool
	Raw         []byte
}

type blockPage struct {
	Blocks     []Block
	HasMore    bool
	NextCursor string
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	pageSize   int
	maxDepth   int
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithPageSize sets the page_size query parameter; values outside 1..100 are
// clamped to what the API accepts.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n <= 0 || n > MaxPageSize {
			n = MaxPageSize
		}
		c.pageSize = n
	}
}

func WithMaxDepth(n int) Option {
	return func(c *Client) { c.maxDepth = n }
}

func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingCredentials
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		pageSize:   MaxPageSize,
		maxDepth:   DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchBlocks returns every block below rootID in document order, expanding
// blocks that have children. Any failure aborts the whole fetch and no
// blocks are returned.
func (c *Client) FetchBlocks(ctx context.Context, rootID string) ([]Block, error) {
	visited := make(map[string]struct{})
	var blocks []Block
	if err := c.fetchChildren(ctx, rootID, 0, visited, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

func (c *Client) fetchChildren(ctx context.Context, blockID string, depth int, visited map[string]struct{}, out *[]Block) error {
	if depth > c.maxDepth {
		return fmt.Errorf("%w (%d) at block %s", ErrMaxDepth, c.maxDepth, blockID)
	}
	visited[blockID] = struct{}{}

	cursor := ""
	for {
		page, err := c.fetchPage(ctx, blockID, cursor)
		if err != nil {
			return err
		}
		*out = append(*out, page.Blocks...)

		for _, block := range page.Blocks {
			if !block.HasChildren {
				continue
			}
			if _, seen := visited[block.ID]; seen {
				log.Printf("Skipping already visited notion block %s (%s)", block.ID, block.Type)
				continue
			}
			if err := c.fetchChildren(ctx, block.ID, depth+1, visited, out); err != nil {
				return err
			}
		}

		if !page.HasMore || page.NextCursor == "" {
			return nil
		}
		cursor = page.NextCursor
	}
}

func (c *Client) fetchPage(ctx context.Context, blockID, cursor string) (*blockPage, error) {
	params := url.Values{}
	params.Set("page_size", fmt.Sprint(c.pageSize))
	if cursor != "" {
		params.Set("start_cursor", cursor)
	}
	endpoint := fmt.Sprintf("%s/blocks/%s/children?%s", c.baseURL, url.PathEscape(blockID), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build notion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", APIVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("notion request for block %s failed: %w", blockID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read notion response for block %s: %w", blockID, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("notion returned %s for block %s: %s", resp.Status, blockID, gjson.GetBytes(body, "message").String())
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("notion returned invalid JSON for block %s", blockID)
	}

	parsed := gjson.ParseBytes(body)
	page := &blockPage{
		HasMore:    parsed.Get("has_more").Bool(),
		NextCursor: parsed.Get("next_cursor").String(),
	}
	for _, result := range parsed.Get("results").Array() {
		page.Blocks = append(page.Blocks, Block{
			ID:          result.Get("id").String(),
			Type:        result.Get("type").String(),
			HasChildren: result.Get("has_children").Bool(),
			Raw:         []byte(result.Raw),
		})
	}
	return page, nil
}

// Pull fetches the tree below rootID and renders it as Markdown.
func (c *Client) Pull(ctx context.Context, rootID string) (string, error) {
	blocks, err := c.FetchBlocks(ctx, rootID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch notion blocks: %w", err)
	}
	log.Printf("Fetched %d notion blocks below %s", len(blocks), rootID)
	return ExtractMarkdown(blocks), nil
}
