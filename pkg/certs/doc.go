/*
Package certs generates the self-signed TLS certificate chain for local
HTTPS deployments.

Deckhand drives the openssl command-line toolkit to produce a private
certificate authority and a server certificate signed by it. The chain
lets the nginx proxy terminate TLS locally while the verification stage
(and a developer's browser, once the CA is trusted) validates the
connection against the generated CA instead of ignoring errors.

# Architecture

The generated chain and the openssl invocations that produce it:

	┌──────────────── CERTIFICATE CHAIN ────────────────┐
	│                                                     │
	│  ca.key (RSA 4096)          genrsa                  │
	│     │                                               │
	│     ▼                                               │
	│  ca.crt (self-signed root)  req -new -x509          │
	│     │        CN={org} Root CA, 3650 days            │
	│     │                                               │
	│     │   server.key (RSA 2048)   genrsa              │
	│     │      │                                        │
	│     │      ▼                                        │
	│     │   server.csr              req -new            │
	│     │      │    CN={domain}                         │
	│     ▼      ▼                                        │
	│  server.crt                 x509 -req -CAcreateserial│
	│     SANs: domain, *.domain, localhost, 127.0.0.1    │
	│     825 days, SHA-256                               │
	│                                                     │
	│  verify -CAfile ca.crt server.crt  ──►  "OK"        │
	└─────────────────────────────────────────────────────┘

# Generated Files

All files land in the configured certificates directory:

  - ca.key: CA private key (mode 0600)
  - ca.crt: CA root certificate, import this into the system trust store
  - server.key: Server private key (mode 0600)
  - server.csr: Certificate signing request (intermediate artifact)
  - server.ext: x509v3 extensions used during signing
  - server.crt: The signed server certificate nginx serves
  - README.md: Trust-store import instructions per platform

Private keys get mode 0600, everything else 0644.

# Subject Alternative Names

The server certificate covers the configured domain plus the names a
local deployment is actually reached by:

	DNS.1 = {domain}
	DNS.2 = *.{domain}
	DNS.3 = localhost
	IP.1  = 127.0.0.1

The wildcard entry keeps subdomain experiments working without
regenerating; localhost and 127.0.0.1 cover direct port access.

# Certificate Lifetimes

The leaf certificate defaults to 825 days, the longest lifetime Apple
platforms accept for manually trusted certificates. The CA defaults to
3650 days so the root outlives many leaf renewals. Both are
configurable (cert_days, ca_days).

# Usage

Full generation:

	gen := certs.NewGenerator(runner, cfg)
	if err := gen.Generate(ctx); err != nil {
		return err
	}

Generate runs the whole sequence: prerequisite check, directory
creation, CA generation, server key/CSR/signing, chain verification,
permission tightening, README. It stops at the first failing step.

Presence check (deploy skips generation when the chain exists):

	if gen.Exists() {
		// server.crt already present
	}

Individual steps are exported for reuse and testing: GenerateCA,
GenerateServer, Verify, SetPermissions, WriteReadme.

# Verification

openssl verify must both exit zero and print "OK"; openssl versions
differ on whether certain failures produce a nonzero exit, so the
output is checked as well. A chain that fails verification is treated
as a hard error: serving a broken chain fails later and further from
the cause.

# Failure Modes

Missing openssl:
  - Detected by the prerequisite probe before any file is touched
  - The error message carries install hints (apt, brew)

Signing failure:
  - openssl stderr is wrapped into the returned error
  - Partial artifacts remain on disk for inspection; rerunning
    regenerates the chain from the top

# Integration Points

  - pkg/invoke: All openssl invocations go through the Runner seam
  - pkg/pipeline: The certs stage and the deploy action's presence check
  - pkg/verify: Loads the generated ca.crt as its trust root
  - cmd/deckhand: `deckhand certs` regenerates on demand

# See Also

  - pkg/verify for the HTTPS checks performed against this chain
  - OpenSSL x509 documentation: https://www.openssl.org/docs/man3.0/man1/openssl-x509.html
*/
package certs
