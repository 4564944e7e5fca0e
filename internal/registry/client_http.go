package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

const defaultClientTimeout = 5 * time.Second

// HTTPVolunteers calls a deployed volunteer registry over HTTP.
type HTTPVolunteers struct {
	baseURL string
	client  HTTPDoer
}

// HTTPClientOption configures the registry HTTP clients.
type HTTPClientOption func(*clientOptions)

type clientOptions struct {
	client HTTPDoer
}

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(client HTTPDoer) HTTPClientOption {
	return func(o *clientOptions) {
		o.client = client
	}
}

func applyClientOptions(opts []HTTPClientOption) clientOptions {
	o := clientOptions{client: &http.Client{Timeout: defaultClientTimeout}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewHTTPVolunteers creates an HTTP-backed volunteer registry client.
func NewHTTPVolunteers(baseURL string, opts ...HTTPClientOption) *HTTPVolunteers {
	o := applyClientOptions(opts)
	return &HTTPVolunteers{baseURL: baseURL, client: o.client}
}

type registeredResponse struct {
	Registered bool `json:"registered"`
}

type subjectResponse struct {
	SubjectID uint64 `json:"subject_id"`
}

func (c *HTTPVolunteers) IsRegistered(ctx context.Context, subjectID domain.SubjectID) (bool, error) {
	var res registeredResponse
	path := fmt.Sprintf("/subjects/%s/registered", subjectID)
	if err := getJSON(ctx, c.client, c.baseURL+path, &res); err != nil {
		return false, fmt.Errorf("volunteer registry: %w", err)
	}
	return res.Registered, nil
}

func (c *HTTPVolunteers) LookupByIdentity(ctx context.Context, identity domain.Identity) (domain.SubjectID, error) {
	var res subjectResponse
	path := "/identities/" + url.PathEscape(string(identity)) + "/subject"
	err := getJSON(ctx, c.client, c.baseURL+path, &res)
	if err != nil {
		if err == errStatusNotFound {
			return 0, sentinel.ErrNotFound
		}
		return 0, fmt.Errorf("volunteer registry: %w", err)
	}
	return domain.SubjectID(res.SubjectID), nil
}

// HTTPProviders calls a deployed provider registry over HTTP.
type HTTPProviders struct {
	baseURL string
	client  HTTPDoer
}

// NewHTTPProviders creates an HTTP-backed provider registry client.
func NewHTTPProviders(baseURL string, opts ...HTTPClientOption) *HTTPProviders {
	o := applyClientOptions(opts)
	return &HTTPProviders{baseURL: baseURL, client: o.client}
}

type verifiedResponse struct {
	Verified bool `json:"verified"`
}

type providerResponse struct {
	ProviderID uint64 `json:"provider_id"`
}

func (c *HTTPProviders) IsVerifiedProvider(ctx context.Context, providerID domain.ProviderID) (bool, error) {
	var res verifiedResponse
	path := fmt.Sprintf("/providers/%s/verified", providerID)
	if err := getJSON(ctx, c.client, c.baseURL+path, &res); err != nil {
		return false, fmt.Errorf("provider registry: %w", err)
	}
	return res.Verified, nil
}

func (c *HTTPProviders) LookupByIdentity(ctx context.Context, identity domain.Identity) (domain.ProviderID, error) {
	var res providerResponse
	path := "/identities/" + url.PathEscape(string(identity)) + "/provider"
	err := getJSON(ctx, c.client, c.baseURL+path, &res)
	if err != nil {
		if err == errStatusNotFound {
			return 0, sentinel.ErrNotFound
		}
		return 0, fmt.Errorf("provider registry: %w", err)
	}
	return domain.ProviderID(res.ProviderID), nil
}

var errStatusNotFound = fmt.Errorf("registry returned 404")

func getJSON(ctx context.Context, client HTTPDoer, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("call registry: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errStatusNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("registry returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode registry response: %w", err)
	}
	return nil
}
