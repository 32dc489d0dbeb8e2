package docs

import (
	"encoding/json"
	"net/http"
	"strings"
)

// OpenAPISpec is the subset of OpenAPI 3.0 the service publishes.
type OpenAPISpec struct {
	OpenAPI    string              `json:"openapi"`
	Info       Info                `json:"info"`
	Servers    []Server            `json:"servers"`
	Paths      map[string]PathItem `json:"paths"`
	Components Components          `json:"components"`
}

type Info struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

type Server struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

type PathItem struct {
	Get    *Operation `json:"get,omitempty"`
	Post   *Operation `json:"post,omitempty"`
	Put    *Operation `json:"put,omitempty"`
	Delete *Operation `json:"delete,omitempty"`
}

// Operation returns the operation for an HTTP method, or nil.
func (p PathItem) Operation(method string) *Operation {
	switch strings.ToUpper(method) {
	case http.MethodGet:
		return p.Get
	case http.MethodPost:
		return p.Post
	case http.MethodPut:
		return p.Put
	case http.MethodDelete:
		return p.Delete
	}
	return nil
}

type Operation struct {
	Summary     string                `json:"summary"`
	Description string                `json:"description,omitempty"`
	OperationID string                `json:"operationId"`
	Tags        []string              `json:"tags"`
	Parameters  []Parameter           `json:"parameters,omitempty"`
	RequestBody *RequestBody          `json:"requestBody,omitempty"`
	Responses   map[string]Response   `json:"responses"`
	Security    []map[string][]string `json:"security,omitempty"`
}

type Parameter struct {
	Name        string  `json:"name"`
	In          string  `json:"in"`
	Required    bool    `json:"required"`
	Description string  `json:"description,omitempty"`
	Schema      *Schema `json:"schema"`
}

type RequestBody struct {
	Required bool                 `json:"required"`
	Content  map[string]MediaType `json:"content"`
}

type Response struct {
	Description string               `json:"description"`
	Headers     map[string]Header    `json:"headers,omitempty"`
	Content     map[string]MediaType `json:"content,omitempty"`
}

type Header struct {
	Description string  `json:"description,omitempty"`
	Schema      *Schema `json:"schema"`
}

type MediaType struct {
	Schema *Schema `json:"schema"`
}

type Schema struct {
	Ref         string             `json:"$ref,omitempty"`
	Type        string             `json:"type,omitempty"`
	Format      string             `json:"format,omitempty"`
	Description string             `json:"description,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	MaxLength   int                `json:"maxLength,omitempty"`
	Example     any                `json:"example,omitempty"`

	// AdditionalProperties describes map values (error meta).
	AdditionalProperties *Schema `json:"additionalProperties,omitempty"`
}

type Components struct {
	Schemas         map[string]*Schema        `json:"schemas"`
	SecuritySchemes map[string]SecurityScheme `json:"securitySchemes"`
}

type SecurityScheme struct {
	Type        string `json:"type"`
	In          string `json:"in"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

const (
	jsonType   = "application/json"
	cookieAuth = "cookieAuth"

	tagAuth    = "Authentication"
	tagReports = "Reports"
	tagOps     = "Operations"
)

func ref(name string) *Schema { return &Schema{Ref: "#/components/schemas/" + name} }

func str(desc string, example any) *Schema {
	return &Schema{Type: "string", Description: desc, Example: example}
}

func jsonBody(s *Schema) map[string]MediaType {
	return map[string]MediaType{jsonType: {Schema: s}}
}

func body(name string) *RequestBody {
	return &RequestBody{Required: true, Content: jsonBody(ref(name))}
}

func ok(desc, schema string) Response {
	return Response{Description: desc, Content: jsonBody(ref(schema))}
}

func fail(desc string) Response {
	return Response{Description: desc, Content: jsonBody(ref("ErrorResponse"))}
}

func tokenQuery(desc string) []Parameter {
	return []Parameter{{Name: "token", In: "query", Required: true, Description: desc, Schema: &Schema{Type: "string"}}}
}

var reportID = Parameter{Name: "id", In: "path", Required: true, Description: "report id", Schema: &Schema{Type: "string"}}

var session = []map[string][]string{{cookieAuth: {}}}

func schemas() map[string]*Schema {
	return map[string]*Schema{
		"Report": {
			Type:     "object",
			Required: []string{"content"},
			Properties: map[string]*Schema{
				"id":       str("report id; generated when empty", "9b2f6c1e-2d7a-4c55-9a43-0d6f1f0f5e21"),
				"userId":   str("author id", "u-123"),
				"userName": str("author display name", "山田太郎"),
				"team":     str("author team", "開発"),
				"date":     str("calendar date of the report", "2025-04-25"),
				"tags":     {Type: "array", Items: &Schema{Type: "string"}, Example: []string{"backend"}},
				"content":  str("report body", "API の実装を進めた"),
			},
		},
		"UserResponse": {
			Type: "object",
			Properties: map[string]*Schema{
				"id":    str("", "u-123"),
				"name":  str("", "Alice"),
				"email": {Type: "string", Format: "email", Example: "alice@example.com"},
				"team":  str("", "dev"),
			},
		},
		"MessageResponse": {
			Type:       "object",
			Properties: map[string]*Schema{"message": {Type: "string"}},
		},
		"ValidResponse": {
			Type:       "object",
			Properties: map[string]*Schema{"valid": {Type: "boolean", Example: true}},
		},
		"RegisterRequest": {
			Type:     "object",
			Required: []string{"email", "password"},
			Properties: map[string]*Schema{
				"email":    {Type: "string", Format: "email", MaxLength: 254, Example: "alice@example.com"},
				"password": {Type: "string", Format: "password", MaxLength: 72},
				"name":     {Type: "string", MaxLength: 100, Example: "Alice"},
				"team":     {Type: "string", MaxLength: 100, Example: "dev"},
			},
		},
		"LoginRequest": {
			Type:     "object",
			Required: []string{"email", "password"},
			Properties: map[string]*Schema{
				"email":    {Type: "string", Format: "email"},
				"password": {Type: "string", Format: "password"},
			},
		},
		"ForgotPasswordRequest": {
			Type:       "object",
			Required:   []string{"email"},
			Properties: map[string]*Schema{"email": {Type: "string", Format: "email"}},
		},
		"ResetPasswordRequest": {
			Type:     "object",
			Required: []string{"token", "newPassword"},
			Properties: map[string]*Schema{
				"token":       {Type: "string"},
				"newPassword": {Type: "string", Format: "password", MaxLength: 72},
			},
		},
		"ErrorResponse": {
			Type:     "object",
			Required: []string{"error"},
			Properties: map[string]*Schema{
				"error": {
					Type:     "object",
					Required: []string{"code", "message"},
					Properties: map[string]*Schema{
						"code":       str("stable machine code", "invalid_credentials"),
						"message":    str("safe summary", "invalid email or password"),
						"meta":       {Type: "object", AdditionalProperties: &Schema{Type: "string"}},
						"request_id": {Type: "string"},
					},
				},
			},
		},
	}
}

func paths() map[string]PathItem {
	return map[string]PathItem{
		"/healthz": {Get: &Operation{
			Summary:     "Liveness",
			OperationID: "healthz",
			Tags:        []string{tagOps},
			Responses:   map[string]Response{"200": {Description: "process is up"}},
		}},
		"/readyz": {Get: &Operation{
			Summary:     "Readiness",
			OperationID: "readyz",
			Tags:        []string{tagOps},
			Description: "Pings the database and redis when configured.",
			Responses: map[string]Response{
				"200": {Description: "dependencies reachable"},
				"503": {Description: "a dependency is unavailable"},
			},
		}},
		"/metrics": {Get: &Operation{
			Summary:     "Prometheus metrics",
			OperationID: "metrics",
			Tags:        []string{tagOps},
			Responses:   map[string]Response{"200": {Description: "text exposition format"}},
		}},
		"/api/docs/openapi.json": {Get: &Operation{
			Summary:     "API document",
			OperationID: "openapi",
			Tags:        []string{tagOps},
			Responses:   map[string]Response{"200": {Description: "this document", Content: jsonBody(&Schema{Type: "object"})}},
		}},

		"/api/auth/register": {Post: &Operation{
			Summary:     "Register",
			OperationID: "register",
			Tags:        []string{tagAuth},
			Description: "Creates an unverified account and mails a verification link.",
			RequestBody: body("RegisterRequest"),
			Responses: map[string]Response{
				"201": ok("verification mail sent", "MessageResponse"),
				"400": fail("invalid input or email already registered"),
				"429": fail("rate limited"),
				"503": fail("mail or store unavailable"),
			},
		}},
		"/api/auth/verify": {Get: &Operation{
			Summary:     "Verify email",
			OperationID: "verifyEmail",
			Tags:        []string{tagAuth},
			Parameters:  tokenQuery("verification token from the mail link"),
			Responses: map[string]Response{
				"200": ok("account verified", "MessageResponse"),
				"400": fail("invalid or used token"),
			},
		}},
		"/api/auth/login": {Post: &Operation{
			Summary:     "Login",
			OperationID: "login",
			Tags:        []string{tagAuth},
			Description: "Sets the auth_token session cookie.",
			RequestBody: body("LoginRequest"),
			Responses: map[string]Response{
				"200": {
					Description: "logged in",
					Headers: map[string]Header{
						"Set-Cookie": {
							Description: "auth_token=<jwt>; Path=/; HttpOnly; SameSite=Lax",
							Schema:      &Schema{Type: "string"},
						},
					},
					Content: jsonBody(ref("UserResponse")),
				},
				"401": fail("invalid email or password"),
				"403": fail("email not verified"),
				"429": fail("rate limited"),
			},
		}},
		"/api/auth/me": {Get: &Operation{
			Summary:     "Current user",
			OperationID: "me",
			Tags:        []string{tagAuth},
			Security:    session,
			Responses: map[string]Response{
				"200": ok("profile", "UserResponse"),
				"401": fail("no valid session"),
			},
		}},
		"/api/auth/logout": {Post: &Operation{
			Summary:     "Logout",
			OperationID: "logout",
			Tags:        []string{tagAuth},
			Description: "Clears the session cookie. Succeeds without a session.",
			Responses:   map[string]Response{"200": ok("logged out", "MessageResponse")},
		}},
		"/api/auth/forgot-password": {Post: &Operation{
			Summary:     "Request password reset",
			OperationID: "forgotPassword",
			Tags:        []string{tagAuth},
			Description: "Answers the same message whether or not the account exists.",
			RequestBody: body("ForgotPasswordRequest"),
			Responses: map[string]Response{
				"200": ok("reset mail sent if the account exists", "MessageResponse"),
				"400": fail("malformed body"),
				"429": fail("rate limited"),
				"503": fail("mail or store unavailable"),
			},
		}},
		"/api/auth/verify-reset-token": {Get: &Operation{
			Summary:     "Check reset token",
			OperationID: "verifyResetToken",
			Tags:        []string{tagAuth},
			Parameters:  tokenQuery("reset token from the mail link"),
			Responses: map[string]Response{
				"200": ok("token is valid", "ValidResponse"),
				"400": fail("invalid or used token"),
			},
		}},
		"/api/auth/reset-password": {Post: &Operation{
			Summary:     "Reset password",
			OperationID: "resetPassword",
			Tags:        []string{tagAuth},
			RequestBody: body("ResetPasswordRequest"),
			Responses: map[string]Response{
				"200": ok("password updated", "MessageResponse"),
				"400": fail("invalid token or input"),
				"429": fail("rate limited"),
			},
		}},

		"/api/reports": {
			Get: &Operation{
				Summary:     "List reports",
				OperationID: "listReports",
				Tags:        []string{tagReports},
				Responses: map[string]Response{
					"200": {Description: "all reports", Content: jsonBody(&Schema{Type: "array", Items: ref("Report")})},
				},
			},
			Post: &Operation{
				Summary:     "Create report",
				OperationID: "createReport",
				Tags:        []string{tagReports},
				Description: "Upserts by id. An empty id is generated.",
				RequestBody: body("Report"),
				Responses: map[string]Response{
					"200": ok("saved report", "Report"),
					"400": fail("invalid input"),
					"401": fail("session required when ownership is enforced"),
				},
			},
		},
		"/api/reports/{id}": {
			Put: &Operation{
				Summary:     "Update report",
				OperationID: "updateReport",
				Tags:        []string{tagReports},
				Description: "An empty body id takes the path id.",
				Parameters:  []Parameter{reportID},
				RequestBody: body("Report"),
				Responses: map[string]Response{
					"200": ok("saved report", "Report"),
					"400": fail("invalid input or id mismatch"),
					"401": fail("session required when ownership is enforced"),
					"403": fail("report belongs to another user"),
				},
			},
			Delete: &Operation{
				Summary:     "Delete report",
				OperationID: "deleteReport",
				Tags:        []string{tagReports},
				Description: "Idempotent; a missing id succeeds.",
				Parameters:  []Parameter{reportID},
				Responses: map[string]Response{
					"200": {Description: "deleted, empty body"},
					"401": fail("session required when ownership is enforced"),
					"403": fail("report belongs to another user"),
				},
			},
		},
	}
}

// Document builds the API document. serverURL is the public base URL; empty falls
// back to the local default.
func Document(serverURL, version string) OpenAPISpec {
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}
	if version == "" {
		version = "dev"
	}
	return OpenAPISpec{
		OpenAPI: "3.0.3",
		Info: Info{
			Title:       "Nippou API",
			Description: "Daily report service: account lifecycle and report CRUD",
			Version:     version,
		},
		Servers: []Server{{URL: serverURL}},
		Paths:   paths(),
		Components: Components{
			Schemas: schemas(),
			SecuritySchemes: map[string]SecurityScheme{
				cookieAuth: {Type: "apiKey", In: "cookie", Name: "auth_token", Description: "session JWT set by login"},
			},
		},
	}
}

// Handler serves the document as JSON. It is encoded once.
func Handler(serverURL, version string) http.HandlerFunc {
	b, err := json.Marshal(Document(serverURL, version))
	return func(w http.ResponseWriter, r *http.Request) {
		if err != nil {
			http.Error(w, "openapi document unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	}
}
