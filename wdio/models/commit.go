package models

// MergeBotLogin is the account GitHub uses as committer on merge
// commits it creates on behalf of a human (the "merged via the web UI"
// case). When it shows up we prefer the author's login instead.
const MergeBotLogin = "web-flow"

// CommitAccount is the login half of a commit's author or committer
// record as returned by the commits API.
type CommitAccount struct {
	Login string `json:"login"`
}

// CommitDetail is the subset of the GitHub commit payload identity
// resolution cares about.
type CommitDetail struct {
	SHA       string         `json:"sha"`
	Author    *CommitAccount `json:"author"`
	Committer *CommitAccount `json:"committer"`
}

// SubmitterLogin returns the login a submission should be attributed
// to: the committer, unless the committer is the platform merge bot
// and a distinct author login exists.
func (c *CommitDetail) SubmitterLogin() string {
	committer := ""
	if c.Committer != nil {
		committer = c.Committer.Login
	}
	if c.Author != nil && c.Author.Login != "" {
		if committer == "" || committer == MergeBotLogin {
			return c.Author.Login
		}
	}
	return committer
}
