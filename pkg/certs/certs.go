package certs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/quayside/deckhand/pkg/config"
	"github.com/quayside/deckhand/pkg/invoke"
	"github.com/quayside/deckhand/pkg/log"
)

// Certificate file names inside the certs directory.
const (
	CAKeyFile     = "ca.key"
	CACertFile    = "ca.crt"
	ServerKeyFile = "server.key"
	ServerCSRFile = "server.csr"
	ServerExtFile = "server.ext"
	ServerCrtFile = "server.crt"
)

// Generator produces a self-signed CA and a server certificate for a
// single domain. All cryptographic work is delegated to openssl so the
// artifacts match what the rest of the toolchain (nginx, curl) expects.
type Generator struct {
	Dir      string
	Domain   string
	CADays   int
	CertDays int

	// Distinguished name fields. The defaults are deliberately
	// generic: these certificates are for development, not identity.
	Country string
	State   string
	City    string
	Org     string
	OrgUnit string

	runner invoke.Runner
	logger zerolog.Logger
}

// NewGenerator builds a Generator from configuration.
func NewGenerator(runner invoke.Runner, cfg config.Config) *Generator {
	return &Generator{
		Dir:      cfg.CertsDir,
		Domain:   cfg.Domain,
		CADays:   cfg.CADays,
		CertDays: cfg.CertDays,
		Country:  "US",
		State:    "State",
		City:     "City",
		Org:      "Quayside",
		OrgUnit:  "Platform",
		runner:   runner,
		logger:   log.WithComponent("certs"),
	}
}

func (g *Generator) path(name string) string {
	return filepath.Join(g.Dir, name)
}

// Exists reports whether a server certificate is already present.
// Deploy uses this to skip regeneration on repeat runs.
func (g *Generator) Exists() bool {
	_, err := os.Stat(g.path(ServerCrtFile))
	return err == nil
}

// CheckPrerequisites verifies openssl is installed and reachable.
func (g *Generator) CheckPrerequisites(ctx context.Context) error {
	res := g.runner.Run(ctx, invoke.Cmd{
		Path:    "openssl",
		Args:    []string{"version"},
		Capture: true,
	})
	if !res.OK() {
		g.logger.Error().Msg("openssl is not installed")
		g.logger.Info().Msg("install openssl: apt-get install openssl (Debian), yum install openssl (RHEL), brew install openssl (macOS)")
		return fmt.Errorf("openssl is not available")
	}
	g.logger.Info().Str("version", strings.TrimSpace(res.Stdout)).Msg("openssl is installed")
	return nil
}

// EnsureDir creates the certificate directory if needed.
func (g *Generator) EnsureDir() error {
	if _, err := os.Stat(g.Dir); err == nil {
		g.logger.Info().Str("dir", g.Dir).Msg("using existing certificate directory")
		return nil
	}
	if err := os.MkdirAll(g.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create certificate directory: %w", err)
	}
	g.logger.Info().Str("dir", g.Dir).Msg("certificate directory created")
	return nil
}

// GenerateCA produces the CA private key and a self-signed CA
// certificate valid for CADays.
func (g *Generator) GenerateCA(ctx context.Context) error {
	g.logger.Info().Msg("generating CA private key (4096-bit RSA)")
	res := g.runner.Run(ctx, invoke.Cmd{
		Path:    "openssl",
		Args:    []string{"genrsa", "-out", g.path(CAKeyFile), "4096"},
		Capture: true,
	})
	if !res.OK() {
		return fmt.Errorf("failed to generate CA key: %s", strings.TrimSpace(res.Stderr))
	}

	g.logger.Info().Msg("generating self-signed CA certificate")
	subject := fmt.Sprintf("/C=%s/ST=%s/L=%s/O=%s CA/OU=%s/CN=%s Root CA",
		g.Country, g.State, g.City, g.Org, g.OrgUnit, g.Org)
	res = g.runner.Run(ctx, invoke.Cmd{
		Path: "openssl",
		Args: []string{
			"req", "-new", "-x509", "-days", fmt.Sprintf("%d", g.CADays),
			"-key", g.path(CAKeyFile),
			"-out", g.path(CACertFile),
			"-subj", subject,
		},
		Capture: true,
	})
	if !res.OK() {
		return fmt.Errorf("failed to generate CA certificate: %s", strings.TrimSpace(res.Stderr))
	}
	g.logger.Info().Str("cert", g.path(CACertFile)).Int("days", g.CADays).Msg("CA certificate generated")
	return nil
}

// GenerateServer produces the server key, a CSR for the domain, the
// x509v3 extension descriptor, and the CA-signed server certificate.
func (g *Generator) GenerateServer(ctx context.Context) error {
	g.logger.Info().Msg("generating server private key (2048-bit RSA)")
	res := g.runner.Run(ctx, invoke.Cmd{
		Path:    "openssl",
		Args:    []string{"genrsa", "-out", g.path(ServerKeyFile), "2048"},
		Capture: true,
	})
	if !res.OK() {
		return fmt.Errorf("failed to generate server key: %s", strings.TrimSpace(res.Stderr))
	}

	g.logger.Info().Str("domain", g.Domain).Msg("generating certificate signing request")
	subject := fmt.Sprintf("/C=%s/ST=%s/L=%s/O=%s/OU=%s/CN=%s",
		g.Country, g.State, g.City, g.Org, g.OrgUnit, g.Domain)
	res = g.runner.Run(ctx, invoke.Cmd{
		Path: "openssl",
		Args: []string{
			"req", "-new",
			"-key", g.path(ServerKeyFile),
			"-out", g.path(ServerCSRFile),
			"-subj", subject,
		},
		Capture: true,
	})
	if !res.OK() {
		return fmt.Errorf("failed to generate CSR: %s", strings.TrimSpace(res.Stderr))
	}

	g.logger.Info().Msg("writing certificate extensions file")
	if err := os.WriteFile(g.path(ServerExtFile), []byte(g.ExtensionsFile()), 0644); err != nil {
		return fmt.Errorf("failed to write extensions file: %w", err)
	}

	g.logger.Info().Msg("signing server certificate with CA")
	res = g.runner.Run(ctx, invoke.Cmd{
		Path: "openssl",
		Args: []string{
			"x509", "-req",
			"-in", g.path(ServerCSRFile),
			"-CA", g.path(CACertFile),
			"-CAkey", g.path(CAKeyFile),
			"-CAcreateserial",
			"-out", g.path(ServerCrtFile),
			"-days", fmt.Sprintf("%d", g.CertDays),
			"-sha256",
			"-extfile", g.path(ServerExtFile),
		},
		Capture: true,
	})
	if !res.OK() {
		return fmt.Errorf("failed to sign certificate: %s", strings.TrimSpace(res.Stderr))
	}
	g.logger.Info().Str("cert", g.path(ServerCrtFile)).Int("days", g.CertDays).Msg("server certificate signed")
	return nil
}

// ExtensionsFile renders the x509v3 extension descriptor. The SAN set
// covers the domain, its wildcard, localhost, and the loopback address
// so the same certificate works inside the network and from the host.
func (g *Generator) ExtensionsFile() string {
	return fmt.Sprintf(`authorityKeyIdentifier=keyid,issuer
basicConstraints=CA:FALSE
keyUsage = digitalSignature, nonRepudiation, keyEncipherment, dataEncipherment
subjectAltName = @alt_names

[alt_names]
DNS.1 = %s
DNS.2 = *.%s
DNS.3 = localhost
IP.1 = 127.0.0.1
`, g.Domain, g.Domain)
}

// Verify checks the server certificate against the CA. openssl verify
// can exit zero while still printing errors for some failure modes, so
// the stdout must also contain OK.
func (g *Generator) Verify(ctx context.Context) error {
	g.logger.Info().Msg("verifying certificate chain")
	res := g.runner.Run(ctx, invoke.Cmd{
		Path:    "openssl",
		Args:    []string{"verify", "-CAfile", g.path(CACertFile), g.path(ServerCrtFile)},
		Capture: true,
	})
	if !res.OK() || !strings.Contains(res.Stdout, "OK") {
		return fmt.Errorf("certificate verification failed: %s", strings.TrimSpace(res.Stderr))
	}
	g.logger.Info().Msg("certificate chain is valid")
	return nil
}

// SetPermissions restricts private keys to the owner (0600) and makes
// everything else world-readable (0644).
func (g *Generator) SetPermissions() error {
	entries, err := os.ReadDir(g.Dir)
	if err != nil {
		return fmt.Errorf("failed to read certificate directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		mode := os.FileMode(0644)
		if filepath.Ext(entry.Name()) == ".key" {
			mode = 0600
		}
		if err := os.Chmod(filepath.Join(g.Dir, entry.Name()), mode); err != nil {
			return fmt.Errorf("failed to set permissions on %s: %w", entry.Name(), err)
		}
	}
	g.logger.Info().Msg("private keys secured (600), certificates readable (644)")
	return nil
}

// WriteReadme drops a README into the certificate directory explaining
// what the files are and that they are development-only.
func (g *Generator) WriteReadme() error {
	readme := `# SSL/TLS Certificates

This directory contains auto-generated SSL/TLS certificates for development and testing.

## Important

These certificates are **self-signed** and intended for **development/testing only**.

For production, use certificates from a trusted Certificate Authority (e.g., Let's Encrypt, DigiCert).

## Generated Files

- ` + "`ca.key`" + ` - CA private key (**keep secure, excluded from git**)
- ` + "`ca.crt`" + ` - CA certificate
- ` + "`server.key`" + ` - Server private key (**keep secure, excluded from git**)
- ` + "`server.crt`" + ` - Server certificate (signed by CA)
- ` + "`server.csr`" + ` - Certificate Signing Request
- ` + "`server.ext`" + ` - Certificate extensions configuration
- ` + "`ca.srl`" + ` - Serial number file

## Regenerating Certificates

To regenerate certificates, run:

` + "```bash\ndeckhand certs\n```" + `

## Security Notes

- Private keys (` + "`*.key`" + `) are excluded from git via ` + "`.gitignore`" + `
- Never commit private keys to version control
- Certificates should be regenerated periodically
- Use proper certificates from a trusted CA for production
`
	path := g.path("README.md")
	if err := os.WriteFile(path, []byte(readme), 0644); err != nil {
		return fmt.Errorf("failed to write README: %w", err)
	}
	g.logger.Info().Str("path", path).Msg("README created")
	return nil
}

// Generate runs the full certificate workflow: prerequisites, CA,
// server certificate, chain verification, permissions, README.
func (g *Generator) Generate(ctx context.Context) error {
	if err := g.CheckPrerequisites(ctx); err != nil {
		return err
	}
	if err := g.EnsureDir(); err != nil {
		return err
	}
	if err := g.GenerateCA(ctx); err != nil {
		return err
	}
	if err := g.GenerateServer(ctx); err != nil {
		return err
	}
	if err := g.Verify(ctx); err != nil {
		return err
	}
	if err := g.SetPermissions(); err != nil {
		return err
	}
	if err := g.WriteReadme(); err != nil {
		return err
	}

	g.logger.Info().
		Str("domain", g.Domain).
		Int("cert_days", g.CertDays).
		Int("ca_days", g.CADays).
		Str("algorithm", "RSA SHA-256").
		Str("key_sizes", "CA: 4096-bit, Server: 2048-bit").
		Msg("all certificates generated successfully")
	return nil
}
