package models

// CIUsername is the service-account name a run falls back to when no
// local identity is configured. Seeing it means the run is executing
// inside CI and the real submitter has to be recovered from commit
// authorship.
const CIUsername = "webdriverio"

// RevokedToken marks a token slot that holds no usable secret.
const RevokedToken = "revoked"

// Credentials identify the user a submission is attributed to.
type Credentials struct {
	Username string `yaml:"username"`
	Token    string `yaml:"token"`
}

// IsCIAccount reports whether the credentials still carry the CI
// service-account sentinel rather than a resolved user.
func (c Credentials) IsCIAccount() bool {
	return c.Username == CIUsername
}

// SubmissionRequest bundles everything the upload endpoint needs.
// Built once per run and passed by value; stages never mutate it.
type SubmissionRequest struct {
	Credentials Credentials
	ArchivePath string
	EntryPoint  string
	TestsFolder string
}
