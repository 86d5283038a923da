// Package config - defaults.go centralizes magic numbers and default values.
//
// DESIGN: All default values that appear in multiple places should be defined
// here. This makes configuration more maintainable and auditable.
package config

import "time"

// =============================================================================
// HTTP SERVER
// =============================================================================

// DefaultListenAddr is the address the gateway binds when none is configured.
const DefaultListenAddr = ":8080"

// DefaultServerReadTimeout bounds how long the server waits for a full request.
const DefaultServerReadTimeout = 30 * time.Second

// DefaultServerWriteTimeout bounds how long the server spends writing a response.
const DefaultServerWriteTimeout = 60 * time.Second

// MaxRequestBodySize is the maximum allowed inbound request body (1 MiB).
// Proxy bodies are small JSON documents; anything larger is abuse.
const MaxRequestBodySize = 1 * 1024 * 1024

// MaxResponseSize is the maximum upstream response body the gateway relays (10 MiB).
const MaxResponseSize = 10 * 1024 * 1024

// MaxErrorBodyLogLen limits upstream error bodies in logs to prevent bloat.
const MaxErrorBodyLogLen = 500

// =============================================================================
// UPSTREAM DISPATCH
// =============================================================================

// DefaultUpstreamTimeout is the deadline for a proxied upstream call when the
// route does not declare its own.
const DefaultUpstreamTimeout = 15 * time.Second

// DefaultHealthzTimeout is the liveness-probe deadline. Kept short so the
// probe answers quickly when the upstream is down.
const DefaultHealthzTimeout = 3 * time.Second

// DefaultRequeueTimeout is the deadline for the notification-job requeue
// action, which can be slow when the job queue is backed up.
const DefaultRequeueTimeout = 10 * time.Second

// =============================================================================
// AUTH PROVIDER
// =============================================================================

// DefaultSessionCookie is the cookie the auth provider stores the access
// token in.
const DefaultSessionCookie = "sb-access-token"

// DefaultAuthTimeout bounds the session-validation call to the auth provider.
const DefaultAuthTimeout = 5 * time.Second

// =============================================================================
// BILLING
// =============================================================================

// DefaultPlanCacheEntries bounds the in-memory plan-status cache.
const DefaultPlanCacheEntries = 256

// =============================================================================
// EVIDENCE UPLOADS
// =============================================================================

// DefaultEvidenceURLExpiry is how long a presigned evidence upload URL stays valid.
const DefaultEvidenceURLExpiry = 15 * time.Minute

// DefaultEvidenceKeyPrefix namespaces evidence objects inside the bucket.
const DefaultEvidenceKeyPrefix = "evidence"

// =============================================================================
// LOCAL STORE
// =============================================================================

// DefaultStorePath is the SQLite database holding org memberships and
// billing customer mappings.
const DefaultStorePath = "gateway.db"
