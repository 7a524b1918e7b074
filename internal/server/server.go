package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"newsdesk/internal/config"
	"newsdesk/internal/engine"
	"newsdesk/internal/policy"
	"newsdesk/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	App      *config.Config
	BasePath string
	Auth     AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"forbidden"`
	Message string         `json:"message" example:"role reporter may not publish"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Newsdesk API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/api/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			// Schema/request validation errors should be 400 bad_request
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(basePath, cfg.Auth, cfg.Engine.Repo))
	hcfg := huma.DefaultConfig("Newsdesk API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerArticles(group, cfg.Engine)
	registerWorkflow(group, cfg.Engine)
	registerUsers(group, cfg.Engine, cfg.App)
	registerAPIKeys(group, cfg.Engine)
	registerEvents(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	startWebhookDispatcher(cfg.Engine, cfg.App)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// handleError maps engine errors onto the API envelope. Policy denials
// carry a machine reason that picks the status.
func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var denied engine.DeniedError
	if errors.As(err, &denied) {
		return deniedAPIError(denied.Decision)
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	if strings.Contains(lowered, "invalid") || strings.Contains(lowered, "missing") || strings.Contains(lowered, "required") {
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
}

func deniedAPIError(d policy.Decision) huma.StatusError {
	status := http.StatusForbidden
	switch d.Reason {
	case policy.ReasonUnauthenticated:
		status = http.StatusUnauthorized
	case policy.ReasonForbidden, policy.ReasonIntegrityError:
		status = http.StatusForbidden
	case policy.ReasonNotFound:
		status = http.StatusNotFound
	case policy.ReasonInvalidRequest, policy.ReasonInvalidStatusValue:
		status = http.StatusBadRequest
	case policy.ReasonInvalidTransition:
		status = http.StatusUnprocessableEntity
	case policy.ReasonMisconfigured, policy.ReasonInternal:
		status = http.StatusInternalServerError
	}
	return newAPIError(status, string(d.Reason), d.Message, nil)
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

// requestCredential resolves the caller into an engine credential. JWTs
// without a role claim and legacy-header callers fall back to the stored
// user record.
func requestCredential(ctx context.Context, e engine.Engine) (policy.Credential, huma.StatusError) {
	cred, authErr := credentialFromContext(ctx)
	if authErr != nil {
		return policy.Credential{}, authErr
	}
	if cred.Kind == policy.CredentialUser && cred.Principal.Role == policy.RoleUnknown {
		resolved, err := e.UserCredential(ctx, cred.Principal.ID)
		if err != nil {
			return policy.Credential{}, handleError(err)
		}
		return resolved, nil
	}
	return cred, nil
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerArticles(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-article",
		Method:        http.MethodPost,
		Path:          "/articles",
		Summary:       "Create article",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusForbidden,
			http.StatusUnprocessableEntity,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateArticleRequest `json:"body"`
	}) (*struct {
		Body ArticleResponse `json:"body"`
	}, error) {
		if input.Body.Title == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "title is required", nil)
		}
		cred, authErr := requestCredential(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		opts := engine.ArticleCreateOptions{Title: input.Body.Title}
		if input.Body.ID != nil {
			opts.ID = *input.Body.ID
		}
		if input.Body.Slug != nil {
			opts.Slug = *input.Body.Slug
		}
		if input.Body.Body != nil {
			opts.Body = *input.Body.Body
		}
		if input.Body.Status != nil {
			opts.Status = *input.Body.Status
		}
		a, err := e.CreateArticle(ctx, cred, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ArticleResponse `json:"body"`
		}{Body: articleResponse(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-articles",
		Method:      http.MethodGet,
		Path:        "/articles",
		Summary:     "List articles",
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		Status    string `query:"status"`
		CreatorID string `query:"creator_id"`
	}) (*struct {
		Body []ArticleResponse `json:"body"`
	}, error) {
		cred, authErr := requestCredential(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		items, err := e.ListArticles(ctx, cred, input.Status, input.CreatorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []ArticleResponse `json:"body"`
		}{Body: mapArticles(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-article",
		Method:      http.MethodGet,
		Path:        "/articles/{id}",
		Summary:     "Get article",
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body ArticleResponse `json:"body"`
	}, error) {
		cred, authErr := requestCredential(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		a, err := e.GetArticle(ctx, cred, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ArticleResponse `json:"body"`
		}{Body: articleResponse(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-article",
		Method:      http.MethodPatch,
		Path:        "/articles/{id}",
		Summary:     "Update article",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusUnprocessableEntity,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		ID   string               `path:"id"`
		Body UpdateArticleRequest `json:"body"`
	}) (*struct {
		Body ArticleResponse `json:"body"`
	}, error) {
		cred, authErr := requestCredential(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		opts := engine.ArticleUpdateOptions{
			ID:    input.ID,
			Title: input.Body.Title,
			Slug:  input.Body.Slug,
			Body:  input.Body.Body,
		}
		if input.Body.Status != nil {
			opts.Status = *input.Body.Status
		}
		a, err := e.UpdateArticle(ctx, cred, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ArticleResponse `json:"body"`
		}{Body: articleResponse(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-article",
		Method:      http.MethodDelete,
		Path:        "/articles/{id}",
		Summary:     "Delete article",
		Errors: []int{
			http.StatusUnauthorized,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct{}, error) {
		cred, authErr := requestCredential(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteArticle(ctx, cred, input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerWorkflow(api huma.API, e engine.Engine) {
	type articlePath struct {
		ID string `path:"id"`
	}
	type articleOut struct {
		Body ArticleResponse `json:"body"`
	}
	workflowErrors := []int{
		http.StatusUnauthorized,
		http.StatusForbidden,
		http.StatusNotFound,
		http.StatusUnprocessableEntity,
		http.StatusInternalServerError,
	}

	huma.Register(api, huma.Operation{
		OperationID: "submit-article",
		Method:      http.MethodPost,
		Path:        "/articles/{id}/submit",
		Summary:     "Submit article for review",
		Errors:      workflowErrors,
	}, func(ctx context.Context, input *articlePath) (*articleOut, error) {
		cred, authErr := requestCredential(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		a, err := e.SubmitForReview(ctx, cred, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &articleOut{Body: articleResponse(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "approve-article",
		Method:      http.MethodPost,
		Path:        "/articles/{id}/approve",
		Summary:     "Approve article in review",
		Errors:      workflowErrors,
	}, func(ctx context.Context, input *struct {
		ID   string        `path:"id"`
		Body ReviewRequest `json:"body"`
	}) (*articleOut, error) {
		cred, authErr := requestCredential(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		a, err := e.Approve(ctx, cred, input.ID, input.Body.Notes)
		if err != nil {
			return nil, handleError(err)
		}
		return &articleOut{Body: articleResponse(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reject-article",
		Method:      http.MethodPost,
		Path:        "/articles/{id}/reject",
		Summary:     "Reject article back to draft",
		Errors:      workflowErrors,
	}, func(ctx context.Context, input *struct {
		ID   string        `path:"id"`
		Body ReviewRequest `json:"body"`
	}) (*articleOut, error) {
		cred, authErr := requestCredential(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		a, err := e.Reject(ctx, cred, input.ID, input.Body.Notes)
		if err != nil {
			return nil, handleError(err)
		}
		return &articleOut{Body: articleResponse(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "publish-article",
		Method:      http.MethodPost,
		Path:        "/articles/{id}/publish",
		Summary:     "Publish article",
		Errors:      workflowErrors,
	}, func(ctx context.Context, input *articlePath) (*articleOut, error) {
		cred, authErr := requestCredential(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		a, err := e.Publish(ctx, cred, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &articleOut{Body: articleResponse(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "unpublish-article",
		Method:      http.MethodPost,
		Path:        "/articles/{id}/unpublish",
		Summary:     "Unpublish article",
		Errors:      workflowErrors,
	}, func(ctx context.Context, input *articlePath) (*articleOut, error) {
		cred, authErr := requestCredential(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		a, err := e.Unpublish(ctx, cred, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &articleOut{Body: articleResponse(a)}, nil
	})
}

func registerUsers(api huma.API, e engine.Engine, app *config.Config) {
	huma.Register(api, huma.Operation{
		OperationID: "whoami",
		Method:      http.MethodGet,
		Path:        "/me",
		Summary:     "Current principal",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body MeResponse `json:"body"`
	}, error) {
		p, ok := principalFromContext(ctx)
		if !ok {
			return nil, newAPIError(http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		}
		cred, authErr := requestCredential(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		return &struct {
			Body MeResponse `json:"body"`
		}{Body: MeResponse{
			ActorID:  p.ActorID,
			RoleType: string(cred.Principal.Role),
			RoleName: p.RoleName,
			Source:   p.Source,
			Trusted:  cred.Trusted(),
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-user-role",
		Method:      http.MethodPut,
		Path:        "/users/{id}/role",
		Summary:     "Assign a role to a user",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusForbidden,
		},
	}, func(ctx context.Context, input *struct {
		ID   string         `path:"id"`
		Body SetRoleRequest `json:"body"`
	}) (*struct {
		Body UserResponse `json:"body"`
	}, error) {
		cred, authErr := requestCredential(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		if denied := requireAdmin(cred); denied != nil {
			return nil, denied
		}
		roleType, err := app.ResolveRole(input.Body.Type, input.Body.Name)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
		}
		if roleType == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "type is required", nil)
		}
		u, err := e.SetUserRole(ctx, input.ID, roleType, input.Body.Name)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body UserResponse `json:"body"`
		}{Body: userResponse(u)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-user",
		Method:      http.MethodGet,
		Path:        "/users/{id}",
		Summary:     "Get user",
		Errors:      []int{http.StatusUnauthorized, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body UserResponse `json:"body"`
	}, error) {
		if _, authErr := requestCredential(ctx, e); authErr != nil {
			return nil, authErr
		}
		u, err := e.Repo.GetUser(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body UserResponse `json:"body"`
		}{Body: userResponse(u)}, nil
	})
}

// requireAdmin gates account administration. Service credentials pass,
// matching the policy bypass rule.
func requireAdmin(cred policy.Credential) huma.StatusError {
	if cred.Trusted() {
		return nil
	}
	if cred.Principal.Role == policy.RoleAdmin {
		return nil
	}
	return newAPIError(http.StatusForbidden, "forbidden", "role admin required", nil)
}

func registerAPIKeys(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-api-key",
		Method:        http.MethodPost,
		Path:          "/apikeys",
		Summary:       "Create API key",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusForbidden,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateAPIKeyRequest `json:"body"`
	}) (*struct {
		Body APIKeyResponse `json:"body"`
	}, error) {
		cred, authErr := requestCredential(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		if denied := requireAdmin(cred); denied != nil {
			return nil, denied
		}
		if input.Body.ActorID == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "actor_id is required", nil)
		}
		raw := fmt.Sprintf("ndk_%s", uuid.New().String())
		key, err := e.CreateAPIKey(ctx, input.Body.ActorID, input.Body.Name, raw)
		if err != nil {
			return nil, handleError(err)
		}
		resp := apiKeyResponse(key)
		resp.Key = raw
		return &struct {
			Body APIKeyResponse `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-api-keys",
		Method:      http.MethodGet,
		Path:        "/apikeys",
		Summary:     "List API keys",
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		ActorID string `query:"actor_id"`
	}) (*struct {
		Body []APIKeyResponse `json:"body"`
	}, error) {
		cred, authErr := requestCredential(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		if denied := requireAdmin(cred); denied != nil {
			return nil, denied
		}
		keys, err := e.Repo.ListAPIKeys(ctx, input.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		res := make([]APIKeyResponse, 0, len(keys))
		for _, k := range keys {
			res = append(res, apiKeyResponse(k))
		}
		return &struct {
			Body []APIKeyResponse `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "revoke-api-key",
		Method:      http.MethodDelete,
		Path:        "/apikeys/{id}",
		Summary:     "Revoke API key",
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct{}, error) {
		cred, authErr := requestCredential(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		if denied := requireAdmin(cred); denied != nil {
			return nil, denied
		}
		if err := e.Repo.DeleteAPIKey(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List audit events",
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		Limit int `query:"limit" default:"50"`
	}) (*struct {
		Body []EventResponse `json:"body"`
	}, error) {
		cred, authErr := requestCredential(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		if denied := requireAdmin(cred); denied != nil {
			return nil, denied
		}
		items, err := e.Repo.ListEvents(ctx, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []EventResponse `json:"body"`
		}{Body: mapEvents(items)}, nil
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			oas := api.OpenAPI()
			applyAuthSecurity(oas, basePath)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func applyAuthSecurity(oas *huma.OpenAPI, basePath string) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	oas.Components.SecuritySchemes["apiKeyAuth"] = &huma.SecurityScheme{
		Type: "apiKey",
		In:   "header",
		Name: "X-Api-Key",
	}
	security := []map[string][]string{
		{"bearerAuth": {}},
		{"apiKeyAuth": {}},
	}
	oas.Security = security
	healthPath := path.Join(basePath, "health")
	if !strings.HasPrefix(healthPath, "/") {
		healthPath = "/" + healthPath
	}
	for route, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if route == healthPath {
				op.Security = []map[string][]string{}
				continue
			}
			op.Security = security
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Newsdesk API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
    <p style="padding: 1rem; font-family: sans-serif; color: #444;">
      Authenticate with Authorization: Bearer &lt;token&gt; or X-Api-Key.
    </p>
  </body>
</html>`, specURL)
}
