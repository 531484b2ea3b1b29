package xapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/recenseo/pkg/models"
)

const graphqlBase = "https://x.com/i/api/graphql"

// operationIDs maps query names to the server-assigned identifiers baked
// into the URL path. The ids are opaque hashes bound to a point in time;
// the upstream can rotate them at any moment and there is no self-healing
// for that, the affected call just fails loudly.
var operationIDs = map[string]string{
	"ListMembers":                 "7FPk01hdc1jyzL6Gj8vMZw",
	"ListByRestId":                "Tzkkg-NaBi_y1aAUUb6_eQ",
	"ListsManagementPageTimeline": "FHavhcMS-6NrywtPkWiOHg",
	"ListLatestTweetsTimeline":    "aJxgBm1YveGJCRiWJFx5WA",
}

// PageFetcher issues a GET request through the authenticated browser context.
// browser.Session is the production implementation; tests script their own.
type PageFetcher interface {
	Fetch(ctx context.Context, requestURL string, headers map[string]string, timeout time.Duration) (int, []byte, error)
}

// Client speaks the platform's internal GraphQL contract through an attached
// browser session. All calls are sequential; the shared session is a single
// mutable resource and the pacing discipline depends on it staying that way.
type Client struct {
	fetcher PageFetcher
	auth    *models.AuthBundle
	timeout time.Duration
	logger  arbor.ILogger
}

// NewClient creates an API client over the given fetcher and credentials.
func NewClient(fetcher PageFetcher, auth *models.AuthBundle, requestTimeout time.Duration, logger arbor.ILogger) *Client {
	return &Client{
		fetcher: fetcher,
		auth:    auth,
		timeout: requestTimeout,
		logger:  logger,
	}
}

// Do issues one GraphQL operation and returns the decoded response payload.
// Unregistered operation names fail before any network activity.
func (c *Client) Do(ctx context.Context, operation string, variables map[string]any) (map[string]any, error) {
	operationID, ok := operationIDs[operation]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, operation)
	}

	variablesJSON, err := json.Marshal(variables)
	if err != nil {
		return nil, fmt.Errorf("failed to encode variables for %s: %w", operation, err)
	}
	featuresJSON, err := json.Marshal(defaultFeatures)
	if err != nil {
		return nil, fmt.Errorf("failed to encode feature flags: %w", err)
	}

	params := url.Values{}
	params.Set("variables", string(variablesJSON))
	params.Set("features", string(featuresJSON))

	requestURL := fmt.Sprintf("%s/%s/%s?%s", graphqlBase, operationID, operation, params.Encode())

	c.logger.Debug().
		Str("operation", operation).
		Msg("Issuing GraphQL request through browser session")

	status, body, err := c.fetcher.Fetch(ctx, requestURL, c.auth.Headers(), c.timeout)
	if err != nil {
		return nil, &TransportError{Operation: operation, Err: err}
	}
	if status < 200 || status > 299 {
		return nil, &UpstreamError{Operation: operation, Status: status, Detail: truncate(string(body), 200)}
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &UpstreamError{Operation: operation, Detail: err.Error()}
	}
	return payload, nil
}

// ListMembers fetches one page of list members. The returned cursor is empty
// when the page carried no continuation sentinel.
func (c *Client) ListMembers(ctx context.Context, listID string, count int, cursor string) ([]models.MemberRecord, string, error) {
	variables := map[string]any{
		"listId": listID,
		"count":  count,
	}
	if cursor != "" {
		variables["cursor"] = cursor
	}

	payload, err := c.Do(ctx, "ListMembers", variables)
	if err != nil {
		return nil, "", err
	}

	members, next := ParseMembersPage(payload)
	return members, next, nil
}

// ListInfo fetches and normalizes a single list by its exact id.
func (c *Client) ListInfo(ctx context.Context, listID string) (models.ListRecord, error) {
	payload, err := c.Do(ctx, "ListByRestId", map[string]any{"listId": listID})
	if err != nil {
		return models.ListRecord{}, err
	}

	raw := digMap(payload, "data", "list")
	if raw == nil {
		return models.ListRecord{}, &UpstreamError{Operation: "ListByRestId", Detail: "response carries no list object"}
	}
	return ParseList(raw)
}

// OwnedLists fetches the caller's full list collection. The collection is
// assumed to fit one page; the upstream caps it at the requested count.
func (c *Client) OwnedLists(ctx context.Context) ([]models.ListRecord, error) {
	payload, err := c.Do(ctx, "ListsManagementPageTimeline", map[string]any{"count": 100})
	if err != nil {
		return nil, err
	}
	return ParseListCollection(payload), nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
