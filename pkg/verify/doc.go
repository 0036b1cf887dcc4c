/*
Package verify performs post-deployment HTTPS verification.

After a stack reports healthy, verification confirms it from the
outside: TLS actually terminates with the generated certificate chain,
plain HTTP redirects to HTTPS, and the application endpoints respond.
This is the difference between "the containers are up" and "the
deployment works".

# Checks

Run executes three checks in order and stops at the first failure:

	1. CheckSecure    GET https://localhost:{https_port}/health
	                  TLS validated against the generated CA,
	                  any status below 400 passes

	2. CheckRedirect  GET http://localhost:{http_port}/health
	                  redirects are NOT followed; the response must
	                  be a redirect whose Location starts with https

	3. CheckEndpoints GET https://.../{endpoint} for each endpoint
	                  defaults: /, /health, /about

The below-400 rule accepts success and redirect responses and rejects
client and server errors, matching what `curl -f` would pass.

# Trust Root

New loads ca.crt from the configured certificates directory into an
x509 pool and builds an HTTP client whose TLS config trusts exactly
that CA, not the system roots, and never InsecureSkipVerify. If the
proxy serves the wrong chain, CheckSecure fails the way a browser
would. A missing CA file is an immediate error telling the operator to
generate certificates first.

The redirect check uses a separate plain-HTTP client with redirect
following disabled (http.ErrUseLastResponse), because the redirect
response itself is the thing under test.

# Usage

	verifier, err := verify.New(cfg)
	if err != nil {
		return err // no certificates yet
	}
	if err := verifier.Run(ctx); err != nil {
		return err
	}

Endpoints and both clients are exported fields; tests point them at
httptest servers.

# Integration Points

  - pkg/certs: Produces the ca.crt this package trusts
  - pkg/config: Ports and certificate directory
  - pkg/pipeline: The test stage, also run automatically after deploy

# See Also

  - pkg/certs for the chain being validated
  - pkg/health for the in-container view of the same readiness question
*/
package verify
