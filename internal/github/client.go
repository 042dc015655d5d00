// Package github is a thin client for the GitHub REST API.
//
// This is deliberately NOT a full SDK wrapper. The API surface we proxy is
// four endpoints, and the error contract requires classifying the raw
// upstream response — status code, the presence (not value) of a
// rate-limit header, and the transport failure mode — into stable error
// codes. A raw net/http client keeps all of that visible.
//
// CLASSIFICATION TABLE (the contract every method follows):
//
//	200                                → success
//	404                                → *_NOT_FOUND (per endpoint)
//	403 with X-RateLimit-Remaining set → RATE_LIMIT_EXCEEDED
//	403 without it                     → ACCESS_FORBIDDEN
//	422                                → INVALID_SEARCH_QUERY
//	timeout                            → REQUEST_TIMEOUT
//	connection failure                 → CONNECTION_ERROR
//	anything else                      → REQUEST_ERROR
//
// The two 403 causes matter: GitHub uses 403 both for exhausted rate
// limits and for genuinely forbidden resources, and only the header tells
// them apart. Callers get 429 vs 403 accordingly.
//
// No retries, ever — timeouts and connection failures surface immediately
// as typed errors and the decision to retry belongs to the API's client.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"

	"github.com/sakif/doc-generator/internal/apperror"
	"github.com/sakif/doc-generator/internal/config"
)

const userAgent = "doc-generator-app"

// sortKeyMap translates the sort keys this API accepts into the keys the
// GitHub search API understands.
var sortKeyMap = map[string]string{
	"name":       "name",
	"updated_at": "updated",
}

// Client calls the GitHub REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	perPage    int
	logger     *slog.Logger
}

// NewClient builds a Client from configuration.
//
// When a token is configured, requests go through an oauth2 transport that
// attaches "Authorization: Bearer <token>" — raising the rate limit from
// 60 to 5000 requests/hour. Without a token the client still works against
// public data.
func NewClient(cfg config.GitHubConfig, logger *slog.Logger) *Client {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.Token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(context.Background(), src)
		httpClient.Timeout = cfg.Timeout
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.APIURL, "/"),
		perPage:    cfg.PerPage,
		logger:     logger,
	}
}

// SearchOptions are the caller-facing knobs of SearchRepositories.
type SearchOptions struct {
	// Search narrows matches to repositories whose name contains it.
	Search  string
	Page    int
	PerPage int
	Sort    string // "name" or "updated_at"; "" lets GitHub default to best match
	Order   string // "asc" or "desc"
}

// SearchRepositories lists a user's repositories via the search endpoint.
//
// The query is "user:<username>", optionally prefixed with "<search>
// in:name" when a name filter was given — same query GitHub's own UI
// builds.
func (c *Client) SearchRepositories(ctx context.Context, username string, opts SearchOptions) (*SearchResult, error) {
	query := "user:" + username
	if opts.Search != "" {
		query = opts.Search + " user:" + username + " in:name"
	}

	perPage := opts.PerPage
	if perPage <= 0 || perPage > c.perPage {
		perPage = c.perPage
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("page", strconv.Itoa(opts.Page))
	params.Set("per_page", strconv.Itoa(perPage))
	if mapped, ok := sortKeyMap[opts.Sort]; ok {
		params.Set("sort", mapped)
	}
	if opts.Order != "" {
		params.Set("order", opts.Order)
	}

	c.logger.Info("fetching repositories",
		slog.String("username", username),
		slog.String("query", query),
	)

	resp, err := c.get(ctx, "/search/repositories?"+params.Encode())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if appErr := c.classify(resp, apperror.CodeRepositoryNotFound,
		fmt.Sprintf("No repositories found for user %q", username)); appErr != nil {
		return nil, appErr
	}

	var payload struct {
		TotalCount int          `json:"total_count"`
		Items      []Repository `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperror.Wrap(apperror.CodeRequestError,
			"Error decoding repository search response", err)
	}

	return &SearchResult{
		Repositories: payload.Items,
		TotalCount:   payload.TotalCount,
	}, nil
}

// GetContents fetches a file or directory listing from a repository.
//
// GitHub returns a JSON array for directories and a JSON object for
// files, so we sniff the first non-space byte before decoding.
func (c *Client) GetContents(ctx context.Context, owner, repo, path, branch string) (*Contents, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/contents/%s",
		url.PathEscape(owner), url.PathEscape(repo), escapePath(path))
	if branch != "" {
		endpoint += "?ref=" + url.QueryEscape(branch)
	}

	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if appErr := c.classify(resp, apperror.CodePathNotFound,
		fmt.Sprintf("Path %q not found in %s/%s", path, owner, repo)); appErr != nil {
		return nil, appErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeRequestError,
			"Error reading repository contents response", err)
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		// Directory listing
		var entries []ContentEntry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, apperror.Wrap(apperror.CodeRequestError,
				"Error decoding directory listing", err)
		}
		return &Contents{Type: "dir", Entries: entries}, nil
	}

	// Single file with inline base64 content
	var file ContentEntry
	if err := json.Unmarshal(trimmed, &file); err != nil {
		return nil, apperror.Wrap(apperror.CodeRequestError,
			"Error decoding file contents response", err)
	}
	return &Contents{Type: "file", File: &file}, nil
}

// GetBranches lists the branches of a repository.
func (c *Client) GetBranches(ctx context.Context, owner, repo string) ([]Branch, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/branches",
		url.PathEscape(owner), url.PathEscape(repo))

	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if appErr := c.classify(resp, apperror.CodeRepositoryNotFound,
		fmt.Sprintf("Repository %q not found", owner+"/"+repo)); appErr != nil {
		return nil, appErr
	}

	var branches []Branch
	if err := json.NewDecoder(resp.Body).Decode(&branches); err != nil {
		return nil, apperror.Wrap(apperror.CodeRequestError,
			"Error decoding branch list response", err)
	}

	return branches, nil
}

// UserExists checks whether a GitHub account with the given username
// exists. Used for registration-time verification of github_username.
//
// 200 → true, 404 → false; anything else is classified as usual.
func (c *Client) UserExists(ctx context.Context, username string) (bool, error) {
	resp, err := c.get(ctx, "/users/"+url.PathEscape(username))
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if appErr := c.classify(resp, apperror.CodeNotFound, ""); appErr != nil {
		return false, appErr
	}
	return true, nil
}

// get issues a GET request with the standard headers and classifies any
// transport-level failure (the request never reached a response).
func (c *Client) get(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeRequestError, "Error building GitHub request", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classifyTransport(err)
	}
	return resp, nil
}

// classify turns a non-200 response into the matching AppError, or nil
// for 200. notFoundCode/notFoundMsg customize the 404 case per endpoint
// (repository vs path vs user).
func (c *Client) classify(resp *http.Response, notFoundCode, notFoundMsg string) *apperror.AppError {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil

	case http.StatusNotFound:
		return apperror.New(notFoundCode, notFoundMsg)

	case http.StatusForbidden:
		// GitHub uses 403 for two very different things. Only the
		// presence of the rate-limit header distinguishes them.
		if len(resp.Header.Values("X-RateLimit-Remaining")) > 0 {
			return apperror.New(apperror.CodeRateLimitExceeded,
				"GitHub API rate limit exceeded. Please try again later.")
		}
		return apperror.New(apperror.CodeAccessForbidden,
			"Access forbidden. Authentication may be required.")

	case http.StatusUnprocessableEntity:
		return apperror.New(apperror.CodeInvalidSearchQuery,
			"Invalid search query")

	default:
		return apperror.New(apperror.CodeRequestError,
			fmt.Sprintf("GitHub API returned unexpected status %d", resp.StatusCode))
	}
}

// classifyTransport maps a failed round trip to a typed error.
//
// Ordering matters: a timeout is also wrapped in *url.Error/*net.OpError,
// so the timeout check must run before the connection-failure check.
func (c *Client) classifyTransport(err error) *apperror.AppError {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperror.Wrap(apperror.CodeRequestTimeout,
			"Request timeout while contacting GitHub API", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.Wrap(apperror.CodeRequestTimeout,
			"Request timeout while contacting GitHub API", err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return apperror.Wrap(apperror.CodeConnectionError,
			"Connection error while contacting GitHub API", err)
	}

	return apperror.Wrap(apperror.CodeRequestError,
		"Error contacting GitHub API", err)
}

// escapePath escapes each segment of a slash-separated repository path,
// keeping the slashes themselves intact.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
