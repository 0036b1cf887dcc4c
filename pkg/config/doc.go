/*
Package config loads and validates Deckhand's deployment configuration.

Configuration is assembled once at startup from layered sources using
Viper, validated, and then treated as read-only for the rest of the run.
Every pipeline stage receives the same Config value, so a run is fully
described by its configuration plus the stack it deploys.

# Architecture

Sources are merged in precedence order, later wins:

	┌────────────── CONFIGURATION LAYERS ───────────────┐
	│                                                     │
	│  1. Defaults          (compiled in)                 │
	│           │                                         │
	│  2. YAML file         (--config deckhand.yaml)      │
	│           │                                         │
	│  3. Environment       (DECKHAND_DOMAIN=...)         │
	│           │                                         │
	│  4. Flags             (--domain, --log-level)       │
	│           ▼                                         │
	│      Validate() ──► Config (read-only)              │
	└─────────────────────────────────────────────────────┘

Flag overrides are applied by cmd/deckhand after Load returns; this
package handles defaults, file, and environment.

# Configuration Reference

Deployment:
  - domain: Certificate common name and SAN base (webapp.quayside.dev)
  - certs_dir: Directory for the generated certificate bundle (certs)
  - network: Isolated container network name (webapp-network)

Images and containers:
  - webapp_image / nginx_image: Image tags built by the build stage
  - webapp_container / nginx_container: Container names

Ports:
  - http_port: Host port for the HTTP redirect listener (8080)
  - https_port: Host port for the TLS listener (8443)

Certificates:
  - cert_days: Leaf certificate validity in days (825)
  - ca_days: Certificate authority validity in days (3650)

Operational:
  - api_version: Version marker injected into the primary service
  - service_label: Label key identifying managed containers
  - metrics_file: Optional Prometheus textfile-collector output path
  - log.level / log.format: Logging verbosity and format

# Environment Variables

Every key is overridable with a DECKHAND_ prefixed variable, dots
replaced by underscores:

	DECKHAND_DOMAIN=staging.quayside.dev
	DECKHAND_HTTPS_PORT=9443
	DECKHAND_LOG_LEVEL=debug

The port and version keys additionally honor their bare names
(HTTP_PORT, HTTPS_PORT, API_VERSION) because the deployed services
read those same variables; one export configures both sides.

# Usage

Loading:

	cfg, err := config.Load("deckhand.yaml")
	if err != nil {
		return err
	}

A missing file falls back to defaults; a file that exists but does not
parse is an error. Passing an empty path skips the file layer entirely.

Example file:

	domain: webapp.quayside.dev
	https_port: 8443
	cert_days: 825
	log:
	  level: info
	  format: console

# Validation

Load rejects configurations no run can work with: empty domain,
certs_dir or network, ports outside 1-65535, and non-positive
certificate validities. Validation failures abort before any external
tool is invoked.

# Integration Points

  - cmd/deckhand: Loads config, applies flag overrides, re-validates
  - pkg/stack: Default topology is derived from Config values
  - pkg/certs: Domain and validity periods drive certificate generation
  - pkg/verify: Ports and certs_dir locate the endpoints and CA bundle

# See Also

  - Viper documentation: https://github.com/spf13/viper
  - pkg/stack for the service topology built from this configuration
*/
package config
