// Package network reports whether the remote side is reachable.
package network

import (
	"context"
	"net/http"
	"time"

	"github.com/mbolis/field-survey/log"
)

type Status struct {
	Connected bool `json:"connected"`
}

type Monitor interface {
	Status(ctx context.Context) (Status, error)
}

// Static always reports the same status. Used for --offline and tests.
type Static struct {
	Connected bool
}

func (s Static) Status(context.Context) (Status, error) {
	return Status{Connected: s.Connected}, nil
}

// Probe treats the network as connected when a GET on url answers with any
// status below 500 within the timeout.
type Probe struct {
	url    string
	client *http.Client
}

func NewProbe(url string, timeout time.Duration) *Probe {
	return &Probe{url: url, client: &http.Client{Timeout: timeout}}
}

func (p *Probe) Status(ctx context.Context) (Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return Status{}, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		log.Debugf("network.probe: %s unreachable: %s", p.url, err)
		return Status{Connected: false}, nil
	}
	resp.Body.Close()

	return Status{Connected: resp.StatusCode < http.StatusInternalServerError}, nil
}
