// Package gateway types - route descriptors and wire shapes.
//
// DESIGN: Every proxy endpoint is data, not code: a Route describes the
// inbound pattern, the upstream path template, and the validation schema.
// One parameterized handler (proxy.go) interprets the descriptor, so the
// session -> validate -> forward -> normalize sequence exists exactly once.
package gateway

import "time"

// FieldKind is the primitive type a body field must have. There is no
// coercion: a number sent as a string is a validation error.
type FieldKind int

const (
	FieldString FieldKind = iota
	FieldNumber
	FieldEnum
	FieldObject
)

// BodyField is one validated field of a JSON request body.
type BodyField struct {
	Name     string
	Kind     FieldKind
	Enum     []string // allowed values when Kind == FieldEnum
	Required bool
}

// QueryParam is one validated query-string parameter.
type QueryParam struct {
	Name     string
	Required bool
}

// Route describes one proxied endpoint.
type Route struct {
	// Name identifies the route in logs and metrics.
	Name string

	// Method and Pattern form the inbound ServeMux registration,
	// e.g. PATCH /api/tasks/{id}/status.
	Method  string
	Pattern string

	// Upstream is the upstream path template. Placeholders use the same
	// {name} syntax as Pattern and are substituted from path values.
	Upstream string

	// PathParams lists the placeholders shared by Pattern and Upstream.
	// Values are trimmed; empty-after-trim is a 400.
	PathParams []string

	Query []QueryParam
	Body  []BodyField

	// Timeout overrides the default upstream deadline when non-zero.
	Timeout time.Duration
}

// ErrorEnvelope is the uniform client-facing error shape. Message is always
// human-readable prose, never a raw upstream error object.
type ErrorEnvelope struct {
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// Canonical enum sets for body fields. These must match the upstream API
// exactly; the gateway rejects anything else before forwarding.
var (
	taskStatuses   = []string{"open", "in_progress", "blocked", "done"}
	sourceCadences = []string{"manual", "hourly", "daily", "weekly"}
	inviteRoles    = []string{"admin", "member"}
	exportFormats  = []string{"csv", "pdf"}
)
