package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/commhub-api/internal/types"
)

const (
	researchAgentPath  = "/research_agent"
	userProfilePath    = "/user_profile"
	editorialQueuePath = "/editorial_queue"
	healthPath         = "/test_simple"

	// DefaultTimeout bounds a single backend round trip.
	DefaultTimeout = 30 * time.Second

	maxErrorBody = 1024
)

// Client talks to the community content backend: the research agent, user
// profile documents and the editorial queue.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type agentMessage struct {
	Content string `json:"content"`
}

type agentChoice struct {
	Message agentMessage `json:"message"`
}

type agentPayload struct {
	Choices             []agentChoice `json:"choices"`
	LocationSpecific    bool          `json:"location_specific"`
	ResearchAgentActive bool          `json:"research_agent_active"`
	DiscoveryStatus     string        `json:"discovery_status"`
	ContentCategories   []string      `json:"content_categories"`
	SourcesCrawled      []string      `json:"sources_crawled"`
}

type agentMetadata struct {
	Timestamp string `json:"timestamp"`
	Location  string `json:"location"`
}

// researchAgentResponse is the body of POST /research_agent.
type researchAgentResponse struct {
	AgentResponse agentPayload  `json:"agent_response"`
	Metadata      agentMetadata `json:"metadata"`
}

// FetchAgentResponse asks the research agent for content about req.Location.
func (c *Client) FetchAgentResponse(ctx context.Context, req types.ContentRequest) (*types.AgentResponse, error) {
	ctx, span := otel.Tracer("BackendClient").Start(ctx, "FetchAgentResponse", trace.WithAttributes(
		attribute.String("content.location", req.Location),
		attribute.String("content.query", req.Query),
	))
	defer span.End()

	if req.Preferences.PastEvents == nil {
		req.Preferences.PastEvents = []string{}
	}

	var body researchAgentResponse
	found, err := c.do(ctx, http.MethodPost, researchAgentPath, req, &body)
	if err == nil && !found {
		err = fmt.Errorf("research agent: %w", types.ErrNotFound)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "research agent request failed")
		return nil, err
	}

	resp := &types.AgentResponse{
		LocationSpecific:    body.AgentResponse.LocationSpecific,
		ResearchAgentActive: body.AgentResponse.ResearchAgentActive,
		DiscoveryStatus:     body.AgentResponse.DiscoveryStatus,
		ContentCategories:   body.AgentResponse.ContentCategories,
		SourcesCrawled:      body.AgentResponse.SourcesCrawled,
		Timestamp:           parseTimestamp(body.Metadata.Timestamp),
	}
	if len(body.AgentResponse.Choices) > 0 {
		resp.Content = body.AgentResponse.Choices[0].Message.Content
	}

	span.SetAttributes(attribute.Int("content.length", len(resp.Content)))
	span.SetStatus(codes.Ok, "research agent responded")
	return resp, nil
}

// GetProfile returns the stored profile, or nil when the user has none yet.
func (c *Client) GetProfile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error) {
	var profile types.UserProfile
	found, err := c.do(ctx, http.MethodGet, userProfilePath+"/"+userID.String(), nil, &profile)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &profile, nil
}

// CreateProfile stores a new profile document.
func (c *Client) CreateProfile(ctx context.Context, profile types.UserProfile) (*types.UserProfile, error) {
	var created types.UserProfile
	if _, err := c.do(ctx, http.MethodPost, userProfilePath, profile, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateProfile replaces the stored profile document.
func (c *Client) UpdateProfile(ctx context.Context, profile types.UserProfile) (*types.UserProfile, error) {
	var updated types.UserProfile
	found, err := c.do(ctx, http.MethodPut, userProfilePath+"/"+profile.UserID.String(), profile, &updated)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("profile %s: %w", profile.UserID, types.ErrNotFound)
	}
	return &updated, nil
}

// SubmitToEditorialQueue forwards a news tip for review.
func (c *Client) SubmitToEditorialQueue(ctx context.Context, tip types.NewsTip) error {
	_, err := c.do(ctx, http.MethodPost, editorialQueuePath, tip, nil)
	return err
}

// Ping checks that the backend answers.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, healthPath, nil, nil)
	return err
}

// do sends one JSON request. It reports found=false on 404 and decodes the
// body into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) (bool, error) {
	var reqBody io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return false, fmt.Errorf("marshal %s body: %w", path, err)
		}
		reqBody = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.ErrorContext(ctx, "Backend request failed",
			slog.String("method", method), slog.String("path", path), slog.Any("error", err))
		return false, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "Backend request completed",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return false, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return false, fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return true, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// parseTimestamp accepts RFC 3339 and zone-less ISO timestamps, the latter
// read as UTC. Unparseable values yield the zero time.
func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
