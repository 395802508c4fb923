package out

import (
	"net/http"
	"sync/atomic"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hashicorp/go-hclog"

	"todoterm/internal/modules/auth/domain"
	apperrors "todoterm/internal/platform/errors"
	"todoterm/internal/platform/id"
	"todoterm/internal/platform/rest"
)

const (
	headerAuthorization = "Authorization"
	headerRequestID     = "X-Request-ID"
)

// Pipeline is the single path authorized calls take to the server. It attaches
// the currently bound credential and turns forced-logout statuses into a
// revoke of the binding that carried them.
type Pipeline struct {
	client   *http.Client
	statuses mapset.Set[int]
	ids      id.Generator
	log      hclog.Logger
	binding  atomic.Pointer[domain.Binding]
}

func NewPipeline(client *http.Client, statuses []int, ids id.Generator, log hclog.Logger) *Pipeline {
	if client == nil {
		client = http.DefaultClient
	}
	if len(statuses) == 0 {
		statuses = []int{http.StatusUnauthorized, http.StatusForbidden}
	}
	if ids == nil {
		ids = id.UUID{}
	}
	if log == nil {
		log = hclog.NewNullLogger()
	}
	p := &Pipeline{
		client:   client,
		statuses: mapset.NewThreadUnsafeSet(statuses...),
		ids:      ids,
		log:      log.Named("pipeline"),
	}
	p.binding.Store(&domain.Binding{})
	return p
}

func (p *Pipeline) Bind(b domain.Binding) {
	p.binding.Store(&b)
}

func (p *Pipeline) Unbind() {
	p.binding.Store(&domain.Binding{})
}

// Do sends req with the bound credential. A forced-logout status always comes
// back as an error wrapping apperrors.ErrUnauthorized.
func (p *Pipeline) Do(req *http.Request) (*http.Response, error) {
	b := p.binding.Load()
	out := req.Clone(req.Context())
	requestID := p.ids.New()
	out.Header.Set(headerRequestID, requestID)
	if b.Credential.Present() {
		out.Header.Set(headerAuthorization, "Bearer "+string(b.Credential))
	} else {
		out.Header.Del(headerAuthorization)
	}

	resp, err := rest.Send(p.client, out)
	if err != nil {
		p.log.Debug("request failed", "method", out.Method, "path", out.URL.Path, "request_id", requestID, "error", err)
		return nil, err
	}
	if !p.statuses.Contains(resp.StatusCode) {
		return resp, nil
	}

	rest.Drain(resp)
	p.log.Warn("forced logout status", "method", out.Method, "path", out.URL.Path, "status", resp.StatusCode,
		"request_id", requestID, "generation", b.Generation)
	if b.Credential.Present() && b.Revoke != nil {
		b.Revoke(req.Context(), resp.StatusCode)
	}
	return nil, &apperrors.StatusError{Status: resp.StatusCode, Err: apperrors.ErrUnauthorized}
}
