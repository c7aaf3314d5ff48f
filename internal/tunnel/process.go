// SPDX-License-Identifier: MPL-2.0

package tunnel

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"termhost/internal/clitool"
	"termhost/internal/lifecycle"
)

const (
	startupTimeout  = 45 * time.Second
	shutdownTimeout = 10 * time.Second
)

// process supervises a tunnel client child process. The public endpoint
// is scraped from the client's log output: both cloudflared and ngrok
// print their assigned URL but offer no machine-readable handshake in
// ad-hoc mode.
type process struct {
	*lifecycle.Base

	tool       *clitool.Tool
	urlPattern *regexp.Regexp
	logger     *log.Logger

	mu  sync.Mutex
	url string

	scanDone chan struct{}
}

func newProcess(name string, urlPattern *regexp.Regexp, opts ...clitool.ToolOption) *process {
	return &process{
		Base:       lifecycle.NewBase(),
		tool:       clitool.New(name, opts...),
		urlPattern: urlPattern,
		scanDone:   make(chan struct{}),
		logger: log.NewWithOptions(os.Stderr, log.Options{
			Prefix: name,
		}),
	}
}

func (p *process) available() bool {
	return p.tool.Available()
}

// start launches the child and blocks until the URL appears in its
// output, the process dies, or the startup timeout elapses.
func (p *process) start(ctx context.Context, args ...string) error {
	if !p.tool.Available() {
		err := &clitool.NotAvailableError{Tool: p.tool.Name(), Reason: "binary not found on PATH"}
		p.TransitionToFailed(err)
		return err
	}
	if err := p.TransitionToStarting(ctx); err != nil {
		return err
	}

	// The child is bound to the internal context so Stop kills it.
	cmd := p.tool.CreateCommand(p.Context(), args...)
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		_ = pw.Close()
		p.TransitionToFailed(fmt.Errorf("failed to start %s: %w", p.tool.Name(), err))
		return p.LastError()
	}

	p.AddGoroutine()
	go p.scanOutput(pr)

	p.AddGoroutine()
	go func() {
		defer p.DoneGoroutine()
		err := cmd.Wait()
		_ = pw.Close()
		// Let the scanner drain the remaining output before judging the
		// exit, so a URL printed just before death is not missed.
		<-p.scanDone
		// A clean exit is still fatal for a tunnel: the endpoint is gone.
		if p.State() == lifecycle.StateRunning || p.State() == lifecycle.StateStarting {
			if err == nil {
				err = fmt.Errorf("%s exited unexpectedly", p.tool.Name())
			} else {
				err = fmt.Errorf("%s exited: %w", p.tool.Name(), err)
			}
			p.SendError(err)
		}
	}()

	startupCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	select {
	case <-p.ReadyChannel():
		p.logger.Info("tunnel established", "url", p.URL())
		return nil

	case err := <-p.Err():
		// The endpoint may have appeared in the same burst of output that
		// preceded the exit; if so the tunnel did come up, and the caller
		// learns about the death through Err().
		select {
		case <-p.ReadyChannel():
			p.SendError(err)
			return nil
		default:
		}
		p.TransitionToFailed(err)
		return err

	case <-startupCtx.Done():
		p.TransitionToStopping()
		p.WaitForShutdown()
		p.TransitionToFailed(fmt.Errorf("tunnel endpoint did not appear: %w", startupCtx.Err()))
		return p.LastError()
	}
}

// scanOutput watches the child's log lines for the endpoint URL.
func (p *process) scanOutput(r io.Reader) {
	defer p.DoneGoroutine()
	defer close(p.scanDone)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		p.logger.Debug("output", "line", line)

		if p.State() != lifecycle.StateStarting {
			continue
		}
		if match := p.urlPattern.FindString(line); match != "" {
			p.mu.Lock()
			p.url = match
			p.mu.Unlock()
			p.TransitionToRunning()
		}
	}
}

// URL returns the scraped endpoint, "" until the tunnel is up.
func (p *process) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// stop terminates the child by cancelling its context and waits for the
// supervisor goroutines to drain.
func (p *process) stop() error {
	if !p.TransitionToStopping() {
		p.WaitForShutdown()
		return nil
	}

	done := make(chan struct{})
	go func() {
		p.WaitForShutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		return fmt.Errorf("%s did not exit within %s", p.tool.Name(), shutdownTimeout)
	}

	p.TransitionToStopped()
	p.CloseErrChannel()
	p.logger.Info("tunnel stopped")
	return nil
}
