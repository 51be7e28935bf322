package proposal

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cogni-dao/proposal-launcher/deeplink"
	"github.com/cogni-dao/proposal-launcher/metadata"
)

// RepoName returns the last path segment of a repository identifier, or "repo" when there is none.
func RepoName(repo string) string {
	if i := strings.LastIndex(repo, "/"); i >= 0 {
		repo = repo[i+1:]
	}
	if repo == "" {
		return "repo"
	}

	return repo
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}

	return string(unicode.ToUpper(r)) + s[size:]
}

// SignalMetadata returns the texts of a proposal signalling action on pull request pr of repo,
// displayed as name.
func SignalMetadata(name, repo, action, pr string) metadata.Input {
	return metadata.Input{
		Title:       name + "-" + action + "-PR#" + pr,
		Summary:     capitalize(action) + " PR #" + pr + " in " + name,
		Description: "This proposal will signal to " + action + " pull request #" + pr + " in repository " + repo,
	}
}

// MergeMetadata builds the metadata of a merge-change proposal. The title is
// "<repo>-<action>-PR#<pr>" and the pull request is attached as a resource.
func MergeMetadata(p deeplink.Params) metadata.Input {
	var (
		repoURL = DecodeRepoURL(p.Get("repoUrl"))
		name    = RepoName(repoURL)
		action  = p.Get("action")
		pr      = p.Get("pr")
	)

	in := SignalMetadata(name, repoURL, action, pr)
	if strings.HasPrefix(repoURL, "https://") || strings.HasPrefix(repoURL, "http://") {
		in.Resources = []metadata.Resource{{
			Name: "Pull Request #" + pr,
			URL:  strings.TrimSuffix(repoURL, "/") + "/pull/" + pr,
		}}
	}

	return in
}
