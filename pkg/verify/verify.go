package verify

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/quayside/deckhand/pkg/certs"
	"github.com/quayside/deckhand/pkg/config"
	"github.com/quayside/deckhand/pkg/log"
)

// DefaultEndpoints are the application paths swept by CheckEndpoints.
var DefaultEndpoints = []string{"/", "/health", "/about"}

// Verifier issues HTTP probes against the running stack.
type Verifier struct {
	// SecureBase is the HTTPS origin, e.g. "https://localhost:8443".
	SecureBase string
	// PlainBase is the HTTP origin, e.g. "http://localhost:8080".
	PlainBase string
	// Endpoints are the paths swept over HTTPS.
	Endpoints []string

	// Client performs HTTPS probes and must trust the local CA.
	Client *http.Client
	// Plain performs the redirect probe and must not follow
	// redirects, otherwise the Location header is consumed.
	Plain *http.Client

	logger zerolog.Logger
}

// New builds a Verifier that trusts the CA certificate in the
// configured certs directory. Fails if the CA has not been generated.
func New(cfg config.Config) (*Verifier, error) {
	caPath := filepath.Join(cfg.CertsDir, certs.CACertFile)
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate %s (generate certificates first): %w", caPath, err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", caPath)
	}

	return &Verifier{
		SecureBase: fmt.Sprintf("https://localhost:%d", cfg.HTTPSPort),
		PlainBase:  fmt.Sprintf("http://localhost:%d", cfg.HTTPPort),
		Endpoints:  DefaultEndpoints,
		Client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{RootCAs: pool},
			},
		},
		Plain: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: log.WithComponent("verify"),
	}, nil
}

func (v *Verifier) get(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return client.Do(req)
}

// CheckSecure probes the health endpoint over HTTPS through the
// CA-trusting client. Any status below 400 passes, matching what a
// fail-on-error curl would accept.
func (v *Verifier) CheckSecure(ctx context.Context) error {
	v.logger.Info().Msg("testing HTTPS endpoint")
	url := v.SecureBase + "/health"
	resp, err := v.get(ctx, v.Client, url)
	if err != nil {
		return fmt.Errorf("HTTPS endpoint test failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTPS endpoint test failed: HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	v.logger.Info().Msg("HTTPS endpoint is working")
	return nil
}

// CheckRedirect probes the health endpoint over plain HTTP and
// requires a redirect whose Location points at HTTPS.
func (v *Verifier) CheckRedirect(ctx context.Context) error {
	v.logger.Info().Msg("testing HTTP redirect")
	url := v.PlainBase + "/health"
	resp, err := v.get(ctx, v.Plain, url)
	if err != nil {
		return fmt.Errorf("HTTP redirect test failed: %w", err)
	}
	defer resp.Body.Close()

	location := resp.Header.Get("Location")
	if !strings.HasPrefix(strings.ToLower(location), "https") {
		return fmt.Errorf("HTTP redirect test failed: expected redirect to HTTPS, got status %d location %q", resp.StatusCode, location)
	}
	v.logger.Info().Msg("HTTP redirects to HTTPS")
	return nil
}

// CheckEndpoints sweeps every application endpoint over HTTPS,
// stopping at the first failure.
func (v *Verifier) CheckEndpoints(ctx context.Context) error {
	v.logger.Info().Msg("testing all endpoints")
	for _, endpoint := range v.Endpoints {
		resp, err := v.get(ctx, v.Client, v.SecureBase+endpoint)
		if err != nil {
			return fmt.Errorf("GET %s failed: %w", endpoint, err)
		}
		resp.Body.Close()

		if resp.StatusCode >= 400 {
			return fmt.Errorf("GET %s failed: HTTP %d", endpoint, resp.StatusCode)
		}
		v.logger.Info().Str("endpoint", endpoint).Msg("endpoint is working")
	}
	return nil
}

// Run executes all probes in order: HTTPS reachability, HTTP-to-HTTPS
// redirect, then the endpoint sweep.
func (v *Verifier) Run(ctx context.Context) error {
	if err := v.CheckSecure(ctx); err != nil {
		return err
	}
	if err := v.CheckRedirect(ctx); err != nil {
		return err
	}
	return v.CheckEndpoints(ctx)
}
