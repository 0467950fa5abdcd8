package connector

import (
	"context"
	"net/http"
	"time"

	"github.com/lumapay/ratefeed/internal/config"
)

// REST is for REST API connection.
// One instance with a shared http client is used across all the providers.
type REST struct {
	Client *http.Client
	Cfg    *config.REST
}

var rest REST

// InitREST initializes REST connection with configured values.
func InitREST(cfg *config.REST) *REST {
	if rest.Client == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.MaxIdleConns = cfg.MaxIdleConns
		t.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
		rest = REST{
			Client: &http.Client{
				Timeout:   time.Duration(cfg.ReqTimeoutSec) * time.Second,
				Transport: t,
			},
			Cfg: cfg,
		}
	}
	return &rest
}

// GetREST returns already prepared REST instance.
func GetREST() *REST {
	return &rest
}

// Request creates a new REST API request with the given context and url.
func (r *REST) Request(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Do sends the REST API request.
// A hung upstream is bounded by the configured client timeout, so one provider
// cannot stall its ingestion tick indefinitely.
func (r *REST) Do(req *http.Request) (*http.Response, error) {
	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
