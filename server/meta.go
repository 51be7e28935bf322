package server

import (
	"net/http"
	"strings"

	"github.com/cogni-dao/proposal-launcher/proposal"
)

const (
	maxPRLength     = 10
	maxActionLength = 20
	maxRepoLength   = 100

	// MetadataVersion is the version field of documents served by /api/meta.
	MetadataVersion = "1.0.0"
)

// MetaDocument is the pull request metadata served by /api/meta.
type MetaDocument struct {
	Title       string         `json:"title"`
	Summary     string         `json:"summary"`
	Description string         `json:"description"`
	Version     string         `json:"version"`
	Type        string         `json:"type"`
	Created     string         `json:"created"`
	Parameters  MetaParameters `json:"parameters"`
}

// MetaParameters echoes the request that produced a MetaDocument.
type MetaParameters struct {
	Repository  string `json:"repository"`
	PullRequest string `json:"pullRequest"`
	Action      string `json:"action"`
	Target      string `json:"target"`
}

// handleMeta serves the metadata of a signal on a pull request. The repository is taken from repo
// when given, otherwise from the URL encoded repoUrl.
func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var (
		q       = r.URL.Query()
		repo    = q.Get("repo")
		pr      = q.Get("pr")
		action  = q.Get("action")
		repoURL = q.Get("repoUrl")
		target  = valueOr(q.Get("target"), "change")
		version = valueOr(q.Get("v"), "1")
	)

	if pr == "" || action == "" {
		http.Error(w, "Missing required parameters: pr and action are required", http.StatusBadRequest)
		return
	}
	if len(pr) > maxPRLength || len(action) > maxActionLength {
		http.Error(w, "Parameter size limit exceeded", http.StatusBadRequest)
		return
	}

	name, identifier := "repo", ""
	switch {
	case repo != "":
		if len(repo) > maxRepoLength {
			http.Error(w, "Repository parameter too long", http.StatusBadRequest)
			return
		}
		name, identifier = repo, repo
		if i := strings.LastIndex(repo, "/"); i >= 0 && i < len(repo)-1 {
			name = repo[i+1:]
		}
	case repoURL != "":
		identifier = proposal.DecodeRepoURL(repoURL)
		name = proposal.RepoName(identifier)
	}

	in := proposal.SignalMetadata(name, identifier, action, pr)
	doc := MetaDocument{
		Title:       in.Title,
		Summary:     in.Summary,
		Description: in.Description,
		Version:     MetadataVersion,
		Type:        "proposal",
		Created:     s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Parameters: MetaParameters{
			Repository:  identifier,
			PullRequest: pr,
			Action:      action,
			Target:      target,
		},
	}

	h := w.Header()
	h.Set("Cache-Control", "public, max-age=300, s-maxage=300, stale-while-revalidate=600")
	h.Set("X-Metadata-Version", version)
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
	writeJSON(w, http.StatusOK, doc)
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}

	return v
}
