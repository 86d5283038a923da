package gateway

// Route names referenced outside the table.
const (
	routeEvidenceUploadURL    = "tasks-evidence-upload-url"
	routeNotificationsRequeue = "notifications-requeue"
)

// Routes returns the proxy route table. Inbound /api paths map to the
// upstream's /api/v1 equivalents; placeholders are shared between the two.
func Routes() []Route {
	return []Route{
		{
			Name:     "alerts-list",
			Method:   "GET",
			Pattern:  "/api/alerts",
			Upstream: "/api/v1/alerts",
			Query:    []QueryParam{{Name: "org_id", Required: true}, {Name: "status"}},
		},
		{
			Name:       "alerts-create-task-now",
			Method:     "POST",
			Pattern:    "/api/alerts/{alertId}/create-task-now",
			Upstream:   "/api/v1/alerts/{alertId}/create-task-now",
			PathParams: []string{"alertId"},
			Body:       []BodyField{{Name: "org_id", Kind: FieldString, Required: true}},
		},
		{
			Name:     "controls-list",
			Method:   "GET",
			Pattern:  "/api/controls",
			Upstream: "/api/v1/controls",
			Query:    []QueryParam{{Name: "org_id", Required: true}, {Name: "framework"}},
		},
		{
			Name:       "controls-get",
			Method:     "GET",
			Pattern:    "/api/controls/{id}",
			Upstream:   "/api/v1/controls/{id}",
			PathParams: []string{"id"},
		},
		{
			Name:     "tasks-list",
			Method:   "GET",
			Pattern:  "/api/tasks",
			Upstream: "/api/v1/tasks",
			Query:    []QueryParam{{Name: "org_id", Required: true}, {Name: "status"}, {Name: "assignee"}},
		},
		{
			Name:       "tasks-get",
			Method:     "GET",
			Pattern:    "/api/tasks/{id}",
			Upstream:   "/api/v1/tasks/{id}",
			PathParams: []string{"id"},
		},
		{
			Name:       "tasks-update-status",
			Method:     "PATCH",
			Pattern:    "/api/tasks/{id}/status",
			Upstream:   "/api/v1/tasks/{id}/status",
			PathParams: []string{"id"},
			Body:       []BodyField{{Name: "status", Kind: FieldEnum, Enum: taskStatuses, Required: true}},
		},
		{
			Name:       routeEvidenceUploadURL,
			Method:     "POST",
			Pattern:    "/api/tasks/{id}/evidence/upload-url",
			Upstream:   "/api/v1/tasks/{id}/evidence/upload-url",
			PathParams: []string{"id"},
			Body: []BodyField{
				{Name: "filename", Kind: FieldString, Required: true},
				{Name: "content_type", Kind: FieldString},
			},
		},
		{
			Name:     "sources-list",
			Method:   "GET",
			Pattern:  "/api/sources",
			Upstream: "/api/v1/sources",
			Query:    []QueryParam{{Name: "org_id", Required: true}},
		},
		{
			Name:       "sources-update-schedule",
			Method:     "PATCH",
			Pattern:    "/api/sources/{id}/schedule",
			Upstream:   "/api/v1/sources/{id}/schedule",
			PathParams: []string{"id"},
			Body:       []BodyField{{Name: "cadence", Kind: FieldEnum, Enum: sourceCadences, Required: true}},
		},
		{
			Name:       "sources-run",
			Method:     "POST",
			Pattern:    "/api/sources/{id}/run",
			Upstream:   "/api/v1/sources/{id}/run",
			PathParams: []string{"id"},
		},
		{
			Name:     "findings-list",
			Method:   "GET",
			Pattern:  "/api/findings",
			Upstream: "/api/v1/findings",
			Query:    []QueryParam{{Name: "org_id", Required: true}, {Name: "severity"}},
		},
		{
			Name:       "findings-resolve",
			Method:     "POST",
			Pattern:    "/api/findings/{id}/resolve",
			Upstream:   "/api/v1/findings/{id}/resolve",
			PathParams: []string{"id"},
			Body:       []BodyField{{Name: "resolution", Kind: FieldString}},
		},
		{
			Name:     "templates-list",
			Method:   "GET",
			Pattern:  "/api/templates",
			Upstream: "/api/v1/templates",
		},
		{
			Name:     "templates-apply",
			Method:   "POST",
			Pattern:  "/api/templates/apply",
			Upstream: "/api/v1/templates/apply",
			Body: []BodyField{
				{Name: "org_id", Kind: FieldString, Required: true},
				{Name: "template_slug", Kind: FieldString, Required: true},
				{Name: "overrides", Kind: FieldObject},
			},
		},
		{
			Name:     "slack-connect",
			Method:   "POST",
			Pattern:  "/api/integrations/slack/connect",
			Upstream: "/api/v1/integrations/slack/connect",
			Body: []BodyField{
				{Name: "org_id", Kind: FieldString, Required: true},
				{Name: "webhook_url", Kind: FieldString, Required: true},
			},
		},
		{
			Name:     "slack-test",
			Method:   "POST",
			Pattern:  "/api/integrations/slack/test",
			Upstream: "/api/v1/integrations/slack/test",
			Body: []BodyField{
				{Name: "org_id", Kind: FieldString, Required: true},
				{Name: "message", Kind: FieldString},
			},
		},
		{
			Name:     "invites-accept",
			Method:   "POST",
			Pattern:  "/api/invites/accept",
			Upstream: "/api/v1/invites/accept",
			Body:     []BodyField{{Name: "token", Kind: FieldString, Required: true}},
		},
		{
			Name:       "invites-create",
			Method:     "POST",
			Pattern:    "/api/orgs/{orgId}/invites",
			Upstream:   "/api/v1/orgs/{orgId}/invites",
			PathParams: []string{"orgId"},
			Body: []BodyField{
				{Name: "email", Kind: FieldString, Required: true},
				{Name: "role", Kind: FieldEnum, Enum: inviteRoles},
			},
		},
		{
			Name:       "invites-delete",
			Method:     "DELETE",
			Pattern:    "/api/orgs/{orgId}/invites/{inviteId}",
			Upstream:   "/api/v1/orgs/{orgId}/invites/{inviteId}",
			PathParams: []string{"orgId", "inviteId"},
		},
		{
			Name:       "members-list",
			Method:     "GET",
			Pattern:    "/api/orgs/{orgId}/members",
			Upstream:   "/api/v1/orgs/{orgId}/members",
			PathParams: []string{"orgId"},
		},
		{
			Name:     "exports-list",
			Method:   "GET",
			Pattern:  "/api/exports",
			Upstream: "/api/v1/exports",
			Query:    []QueryParam{{Name: "org_id", Required: true}},
		},
		{
			Name:     "exports-create",
			Method:   "POST",
			Pattern:  "/api/exports",
			Upstream: "/api/v1/exports",
			Body: []BodyField{
				{Name: "org_id", Kind: FieldString, Required: true},
				{Name: "format", Kind: FieldEnum, Enum: exportFormats, Required: true},
			},
		},
		{
			Name:       routeNotificationsRequeue,
			Method:     "POST",
			Pattern:    "/api/notifications/jobs/{jobId}/requeue",
			Upstream:   "/api/v1/notifications/jobs/{jobId}/requeue",
			PathParams: []string{"jobId"},
		},
	}
}
