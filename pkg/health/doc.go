/*
Package health waits for containers to pass their health checks.

Starting a container is not the same as the service inside it being
ready. The health waiter polls docker's health state until every
service reports healthy, turning "docker run returned" into "the stack
is actually serving" before verification or success is reported.

# Architecture

	┌─────────────── HEALTH WAIT LOOP ───────────────┐
	│                                                  │
	│   for attempt := 1..Attempts (default 30)        │
	│       status = prober.HealthStatus(name)         │
	│       status == "healthy" ──► done               │
	│       sleep Interval (default 2s, ctx-aware)     │
	│                                                  │
	│   timeout ──► prober.DumpLogs(name), error       │
	│   ctx cancel ──► ctx.Err(), no log dump          │
	└──────────────────────────────────────────────────┘

With the defaults the waiter allows roughly one minute per service,
which covers the start period plus a few health intervals of the
default stack.

# Status Matching

Health status is compared to "healthy" with string equality, never
substring containment: "unhealthy" contains "healthy", so a containment
check would wave through exactly the containers the wait exists to
catch. The probe returns docker's state string trimmed but otherwise
untouched ("starting", "unhealthy", "healthy", or empty when the
container is gone).

# Failure Behavior

On timeout the waiter dumps the container's logs before returning an
error; at that point the logs are the diagnostic, and fetching them
later usually means the container has been torn down. On context
cancellation (Ctrl-C) it returns ctx.Err() immediately and skips the
log dump; an interrupted run is not a failed container.

WaitAll probes services in stack order and stops at the first failure:
when the application is down, waiting out the proxy's timeout adds a
minute and no information.

# Usage

	waiter := health.NewWaiter(client) // docker client satisfies Prober

	// Single service
	if err := waiter.Wait(ctx, "webapp"); err != nil {
		return err
	}

	// Every health-checked service, in start order
	if err := waiter.WaitAll(ctx, topo.HealthCheckedNames()); err != nil {
		return err
	}

Attempts and Interval are exported fields; tests shrink the interval
to keep timeout paths fast.

# Integration Points

  - pkg/docker: Client satisfies the Prober interface
  - pkg/pipeline: The start stage waits on the stack after launching it

# See Also

  - pkg/docker for HealthStatus and the --health-cmd flags that feed it
*/
package health
