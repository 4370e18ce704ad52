package models

// ResultsManifest describes the outcome of a completed test run as
// published by the server once a submission finishes.
type ResultsManifest struct {
	// ExitCode is the exit status of the remote test process. Zero
	// means every test passed; anything else means at least one
	// failure (or a server-side infrastructure fault, which is
	// indistinguishable at this layer).
	ExitCode int `json:"exitCode"`

	// Output is the server-relative path of the result archive. Its
	// basename doubles as the local filename the archive is saved
	// under before extraction.
	Output string `json:"output"`

	// Info is a human-readable summary of the run.
	Info string `json:"info"`
}
