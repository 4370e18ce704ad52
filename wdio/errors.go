package wdio

import (
	"fmt"
	"time"
)

// ConfigError means identity resolution failed: the local config was
// unusable and the CI commit lookup could not produce a username.
type ConfigError struct {
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// SubmissionError means the upload failed or the server answered with
// something that is not a correlation token. Message carries the raw
// response body when the server rejected the submission.
type SubmissionError struct {
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("submission error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("submission error: %s", e.Message)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// PollError is a transport failure during a status check. Status
// checks are not retried; the first failed check aborts the run.
type PollError struct {
	Err error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("poll error: %v", e.Err)
}

func (e *PollError) Unwrap() error {
	return e.Err
}

// TimeoutError means the server never reported the run ready within
// the configured maximum wait. Distinct from PollError: the transport
// was fine, the results just never arrived.
type TimeoutError struct {
	Waited time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for results after %s", e.Waited)
}

// ResultsParseError means the results manifest could not be decoded.
type ResultsParseError struct {
	Err error
}

func (e *ResultsParseError) Error() string {
	return fmt.Sprintf("results parse error: %v", e.Err)
}

func (e *ResultsParseError) Unwrap() error {
	return e.Err
}

// PipelineError wraps a stage failure with the name of the stage that
// produced it.
type PipelineError struct {
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline stage %q failed: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
