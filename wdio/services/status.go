package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pastorsj/webdriverio-client/wdio"
)

// pendingBody is the status endpoint's sentinel while results are not
// yet available. Matched case-insensitively.
const pendingBody = "not found"

// StatusService polls the server until results for a correlation token
// are ready.
type StatusService struct {
	client ClientInterface

	// Sleep is the wait primitive. A blocking sleep is fine here:
	// the process has no other concurrent work. Exposed so tests can
	// substitute a recording fake.
	Sleep func(time.Duration)
}

func NewStatusService(client ClientInterface) *StatusService {
	return &StatusService{
		client: client,
		Sleep:  time.Sleep,
	}
}

// WaitForReady blocks until the server reports results for token.
// It sleeps initialDelay before the first check, then checks every
// pollInterval. The total wait (initial delay plus poll sleeps) is
// bounded by maxWait; exceeding it yields a TimeoutError, which is
// distinct from the PollError a failed status check produces.
func (s *StatusService) WaitForReady(ctx context.Context, token string, initialDelay, pollInterval, maxWait time.Duration) error {
	s.Sleep(initialDelay)
	waited := initialDelay

	for {
		pending, err := s.check(ctx, token)
		if err != nil {
			return err
		}
		if !pending {
			return nil
		}

		if waited+pollInterval > maxWait {
			return &wdio.TimeoutError{Waited: waited}
		}
		s.Sleep(pollInterval)
		waited += pollInterval
	}
}

// check performs one status request. True means still pending.
func (s *StatusService) check(ctx context.Context, token string) (bool, error) {
	req, err := s.client.NewRequest(ctx, "GET", fmt.Sprintf("/status/%s", token), nil)
	if err != nil {
		return false, &wdio.PollError{Err: err}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return false, &wdio.PollError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, &wdio.PollError{Err: err}
	}

	return strings.EqualFold(strings.TrimSpace(string(body)), pendingBody), nil
}
