// Package gateway posts surveys to the remote ingest endpoint.
package gateway

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/mbolis/field-survey/httpx"
	"github.com/mbolis/field-survey/model"
)

// Gateway delivers one survey and reports the remote status code. A non-nil
// error means the request never produced a status.
type Gateway interface {
	Post(ctx context.Context, endpoint string, form *model.Form) (int, error)
}

type HTTP struct {
	base   string
	client *http.Client
}

// NewHTTP posts to base + "/" + endpoint.
func NewHTTP(base string, timeout time.Duration) *HTTP {
	return &HTTP{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

func (g *HTTP) Post(ctx context.Context, endpoint string, form *model.Form) (int, error) {
	req, err := newRequest(ctx, g.base+"/"+strings.TrimLeft(endpoint, "/"), form)
	if err != nil {
		return 0, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, errors.Wrapf(err, "gateway.post %s", form.UUID)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

// Handler serves posts straight into an http.Handler without a network hop.
type Handler struct {
	prefix  string
	handler http.Handler
}

// NewHandler routes posts to prefix + "/" + endpoint on h.
func NewHandler(prefix string, h http.Handler) *Handler {
	return &Handler{prefix: strings.TrimRight(prefix, "/"), handler: h}
}

func (g *Handler) Post(ctx context.Context, endpoint string, form *model.Form) (int, error) {
	req, err := newRequest(ctx, g.prefix+"/"+strings.TrimLeft(endpoint, "/"), form)
	if err != nil {
		return 0, err
	}

	resp := httpx.NewResponseBuffer()
	g.handler.ServeHTTP(resp, req)
	if resp.Status() == 0 {
		return http.StatusOK, nil
	}
	return resp.Status(), nil
}

func newRequest(ctx context.Context, url string, form *model.Form) (*http.Request, error) {
	body, err := json.Marshal(form)
	if err != nil {
		return nil, errors.Wrapf(err, "gateway.encode %s", form.UUID)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(err, "gateway.new_request %s", url)
	}
	req.Header.Set("content-type", "application/json")
	return req, nil
}
