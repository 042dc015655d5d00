package github

// The structs below are the normalized projections of GitHub API
// responses. They declare exactly the fields this API forwards to its own
// clients — everything else in the (much larger) upstream objects is
// dropped at decode time, since encoding/json ignores unknown fields.
//
// Nothing here is cached or persisted; projections are recomputed on
// every call.

// Owner is the nested repository-owner identity.
type Owner struct {
	Login     string `json:"login"`
	ID        int64  `json:"id"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
	Type      string `json:"type"`
}

// Repository is the projected repository record returned by the search
// proxy.
type Repository struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	FullName        string   `json:"full_name"`
	Description     string   `json:"description"`
	Private         bool     `json:"private"`
	HTMLURL         string   `json:"html_url"`
	CloneURL        string   `json:"clone_url"`
	SSHURL          string   `json:"ssh_url"`
	GitURL          string   `json:"git_url"`
	Language        string   `json:"language"`
	Size            int      `json:"size"`
	StargazersCount int      `json:"stargazers_count"`
	WatchersCount   int      `json:"watchers_count"`
	ForksCount      int      `json:"forks_count"`
	OpenIssuesCount int      `json:"open_issues_count"`
	DefaultBranch   string   `json:"default_branch"`
	Topics          []string `json:"topics"`
	Visibility      string   `json:"visibility"`
	Archived        bool     `json:"archived"`
	Disabled        bool     `json:"disabled"`
	Fork            bool     `json:"fork"`
	// Timestamps are forwarded verbatim (RFC 3339 strings) — this proxy
	// never interprets them.
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
	PushedAt  string  `json:"pushed_at"`
	Score     float64 `json:"score"` // search relevance
	Owner     *Owner  `json:"owner"`
}

// SearchResult is a page of repository search matches plus the total count
// across all pages (needed by the caller to build pagination metadata).
type SearchResult struct {
	Repositories []Repository
	TotalCount   int
}

// ContentEntry is one file or directory from a repository contents
// listing. Content and Encoding are only set when a single file was
// requested — GitHub inlines file bodies as base64.
type ContentEntry struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Type     string `json:"type"` // "file" or "dir"
	Size     int64  `json:"size"`
	SHA      string `json:"sha"`
	HTMLURL  string `json:"html_url"`
	Content  string `json:"content,omitempty"`
	Encoding string `json:"encoding,omitempty"` // "base64" for files
}

// Contents is the result of a contents lookup: either a directory listing
// or a single file, never both.
type Contents struct {
	// Type is "dir" or "file".
	Type    string         `json:"type"`
	Entries []ContentEntry `json:"entries,omitempty"`
	File    *ContentEntry  `json:"file,omitempty"`
}

// Branch is the projected branch record.
type Branch struct {
	Name      string `json:"name"`
	Commit    Commit `json:"commit"`
	Protected bool   `json:"protected"`
}

// Commit carries the tip SHA of a branch.
type Commit struct {
	SHA string `json:"sha"`
}
