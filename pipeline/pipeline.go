// Package pipeline runs outgoing HTTP requests through an ordered chain of
// stages before they reach the transport.
package pipeline

import (
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-auth-client/internal/errors"
)

// Next hands a request to the remainder of the pipeline.
type Next func(*http.Request) (*http.Response, error)

// Stage may inspect or replace the request, call next zero or more times, and
// inspect or replace the response.
type Stage func(req *http.Request, next Next) (*http.Response, error)

// Pipeline is an http.RoundTripper applying its stages in order. The first
// stage sees the request first and the response last.
type Pipeline struct {
	transport http.RoundTripper
	stages    []Stage
}

var _ http.RoundTripper = (*Pipeline)(nil)

// Chain builds a pipeline over transport, http.DefaultTransport when nil.
func Chain(transport http.RoundTripper, stages ...Stage) *Pipeline {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Pipeline{transport: transport, stages: stages}
}

func (p *Pipeline) RoundTrip(req *http.Request) (*http.Response, error) {
	return p.at(0)(req)
}

func (p *Pipeline) at(i int) Next {
	if i == len(p.stages) {
		return p.send
	}
	return func(req *http.Request) (*http.Response, error) {
		return p.stages[i](req, p.at(i+1))
	}
}

func (p *Pipeline) send(req *http.Request) (*http.Response, error) {
	resp, err := p.transport.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrTransport, err)
	}
	return resp, nil
}
