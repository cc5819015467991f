// internal/app/clients/entra/client.go
package entra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/confidential"
	"go.uber.org/zap"

	"github.com/acm-uiuc/core-sub001/internal/app/system/timeouts"
)

const graphBaseURL = "https://graph.microsoft.com/v1.0"

var graphScopes = []string{"https://graph.microsoft.com/.default"}

// GroupAction selects the direction of a group membership change.
type GroupAction string

const (
	GroupAdd    GroupAction = "add"
	GroupRemove GroupAction = "remove"
)

// TokenSource yields bearer tokens for the Graph API.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// msalTokenSource acquires app-only tokens with the client credential flow.
// MSAL caches tokens internally, so every call can go through AcquireToken.
type msalTokenSource struct {
	app confidential.Client
}

// NewTokenSource builds a client-credential token source for a tenant.
func NewTokenSource(tenantID, clientID, clientSecret string) (TokenSource, error) {
	cred, err := confidential.NewCredFromSecret(clientSecret)
	if err != nil {
		return nil, fmt.Errorf("build entra credential: %w", err)
	}
	app, err := confidential.New("https://login.microsoftonline.com/"+tenantID, clientID, cred)
	if err != nil {
		return nil, fmt.Errorf("build entra client: %w", err)
	}
	return &msalTokenSource{app: app}, nil
}

func (t *msalTokenSource) Token(ctx context.Context) (string, error) {
	result, err := t.app.AcquireTokenByCredential(ctx, graphScopes)
	if err != nil {
		return "", fmt.Errorf("acquire entra token: %w", err)
	}
	return result.AccessToken, nil
}

// GroupError wraps a failed membership mutation with enough context for the
// caller to decide whether a compensating change is needed.
type GroupError struct {
	Action  GroupAction
	GroupID string
	Email   string
	Status  int
	Detail  string
}

func (e *GroupError) Error() string {
	return fmt.Sprintf("entra group %s %s for %s: status %d: %s", e.Action, e.GroupID, e.Email, e.Status, e.Detail)
}

// Client talks to Microsoft Graph for directory group membership. The base
// URL is overridable for tests.
type Client struct {
	http    *http.Client
	tokens  TokenSource
	baseURL string
	log     *zap.Logger
}

func New(tokens TokenSource, logger *zap.Logger) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeouts.External()},
		tokens:  tokens,
		baseURL: graphBaseURL,
		log:     logger,
	}
}

// NewWithBaseURL is for tests pointed at a local Graph stub.
func NewWithBaseURL(tokens TokenSource, baseURL string, logger *zap.Logger) *Client {
	c := New(tokens, logger)
	c.baseURL = baseURL
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, nil, err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal graph request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("build graph request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("graph %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, nil, fmt.Errorf("read graph response: %w", err)
	}
	return resp, data, nil
}

// ResolveEmailToOID looks up the directory object id for a user by mail.
func (c *Client) ResolveEmailToOID(ctx context.Context, email string) (string, error) {
	filter := url.QueryEscape(fmt.Sprintf("mail eq '%s'", email))
	resp, data, err := c.do(ctx, http.MethodGet, "/users?$filter="+filter+"&$select=id", nil)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("resolve %s: graph status %d: %s", email, resp.StatusCode, string(data))
	}

	var out struct {
		Value []struct {
			ID string `json:"id"`
		} `json:"value"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decode user lookup for %s: %w", email, err)
	}
	if len(out.Value) == 0 {
		return "", fmt.Errorf("no directory user found for %s", email)
	}
	return out.Value[0].ID, nil
}

// ModifyGroup adds or removes a user from a directory group. Changes that
// would be no-ops (member already present on add, already absent on remove)
// succeed, so callers can retry without tracking prior state.
func (c *Client) ModifyGroup(ctx context.Context, email, groupID string, action GroupAction) error {
	oid, err := c.ResolveEmailToOID(ctx, email)
	if err != nil {
		return err
	}

	var (
		resp *http.Response
		data []byte
	)
	switch action {
	case GroupAdd:
		body := map[string]string{
			"@odata.id": "https://graph.microsoft.com/v1.0/directoryObjects/" + oid,
		}
		resp, data, err = c.do(ctx, http.MethodPost, "/groups/"+groupID+"/members/$ref", body)
	case GroupRemove:
		resp, data, err = c.do(ctx, http.MethodDelete, "/groups/"+groupID+"/members/"+oid+"/$ref", nil)
	default:
		return fmt.Errorf("unknown group action %q", action)
	}
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	detail := string(data)
	if action == GroupAdd && strings.Contains(detail, "added object references already exist") {
		c.log.Debug("group add was a no-op", zap.String("group", groupID), zap.String("email", email))
		return nil
	}
	if action == GroupRemove && (resp.StatusCode == http.StatusNotFound || strings.Contains(detail, "does not exist")) {
		c.log.Debug("group remove was a no-op", zap.String("group", groupID), zap.String("email", email))
		return nil
	}
	return &GroupError{
		Action:  action,
		GroupID: groupID,
		Email:   email,
		Status:  resp.StatusCode,
		Detail:  detail,
	}
}
