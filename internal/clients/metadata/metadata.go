package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"mediashelf/internal/utils"
)

const (
	ProviderTMDB        = "TMDB"
	ProviderGoogleBooks = "Google Books"

	// MaxPage is the deepest search page TMDB serves.
	MaxPage = 500

	maxBodyBytes  = 10 * 1024 * 1024
	maxErrorBytes = 512
)

var (
	// ErrConfiguration is matched by every *ConfigurationError.
	ErrConfiguration = errors.New("metadata: configuration error")

	ErrUpstreamStatus      = errors.New("upstream: non-success status")
	ErrUpstreamUnreachable = errors.New("upstream: host unreachable or request timed out")
	ErrUpstreamBadResponse = errors.New("upstream: malformed response")

	// ErrMissingTMDBKey is returned by NewTMDBClient when no API key is set.
	ErrMissingTMDBKey = &ConfigurationError{Provider: ProviderTMDB, Setting: "API key"}
)

// ConfigurationError reports a provider that cannot be used because a
// required setting is absent.
type ConfigurationError struct {
	Provider string
	Setting  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s %s not configured", e.Provider, e.Setting)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// UpstreamError wraps one of the upstream sentinels with request context.
type UpstreamError struct {
	Sentinel  error
	Provider  string
	Operation string
	Status    int
	Body      string
	Err       error
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("%s: %s: %v", e.Provider, e.Operation, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *UpstreamError) Unwrap() []error {
	errs := []error{e.Sentinel}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// upstream is the shared GET-and-decode path for both providers.
type upstream struct {
	provider   string
	httpClient *http.Client
	logger     *utils.Logger
}

func newUpstream(provider string, timeout time.Duration, logger *utils.Logger) upstream {
	return upstream{
		provider:   provider,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (u upstream) getJSON(ctx context.Context, operation, endpoint string, params url.Values, target any) error {
	start := time.Now()
	outcome := "ok"
	defer func() {
		observeUpstream(u.provider, operation, outcome, time.Since(start))
	}()

	reqURL := endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	log := u.logger.Ctx(ctx)
	log.Debug().
		Str("operation", operation).
		Str("url", endpoint).
		Str("params", redact(params).Encode()).
		Msg("upstream request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		outcome = "bad_request"
		return fmt.Errorf("%s: building %s request: %w", u.provider, operation, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		outcome = "unreachable"
		return &UpstreamError{
			Sentinel:  ErrUpstreamUnreachable,
			Provider:  u.provider,
			Operation: operation,
			Err:       err,
		}
	}
	defer resp.Body.Close()

	log.Debug().
		Str("operation", operation).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("upstream response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = "status"
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
		log.Warn().
			Str("operation", operation).
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("upstream returned error status")
		return &UpstreamError{
			Sentinel:  ErrUpstreamStatus,
			Provider:  u.provider,
			Operation: operation,
			Status:    resp.StatusCode,
			Body:      string(body),
		}
	}

	reader, err := bodyReader(resp)
	if err == nil {
		err = json.NewDecoder(io.LimitReader(reader, maxBodyBytes)).Decode(target)
	}
	if err != nil {
		outcome = "bad_response"
		return &UpstreamError{
			Sentinel:  ErrUpstreamBadResponse,
			Provider:  u.provider,
			Operation: operation,
			Status:    resp.StatusCode,
			Err:       err,
		}
	}
	return nil
}

// bodyReader returns the response body as UTF-8. JSON is UTF-8 unless the
// Content-Type names another charset explicitly; no content sniffing is done.
func bodyReader(resp *http.Response) (io.Reader, error) {
	_, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return resp.Body, nil
	}
	label := strings.TrimSpace(params["charset"])
	if label == "" || strings.EqualFold(label, "utf-8") || strings.EqualFold(label, "utf8") {
		return resp.Body, nil
	}
	enc, name := charset.Lookup(label)
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	if name == "utf-8" {
		return resp.Body, nil
	}
	return enc.NewDecoder().Reader(resp.Body), nil
}

// redact strips credentials so query parameters can be logged.
func redact(params url.Values) url.Values {
	out := make(url.Values, len(params))
	for k, v := range params {
		if k == "api_key" || k == "key" {
			out[k] = []string{"REDACTED"}
			continue
		}
		out[k] = v
	}
	return out
}
