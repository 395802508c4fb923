package out

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"todoterm/internal/modules/auth/domain"
	authout "todoterm/internal/modules/auth/port/out"
	apperrors "todoterm/internal/platform/errors"
	"todoterm/internal/platform/rest"
)

type HTTPAuthAPI struct {
	baseURL    string
	public     rest.Doer
	authorized rest.Doer
}

// NewHTTPAuthAPI talks to the /api/auth endpoints. Login and register go out
// through public, validate through the authorizing pipeline.
func NewHTTPAuthAPI(baseURL string, public, authorized rest.Doer) authout.AuthAPI {
	return &HTTPAuthAPI{baseURL: strings.TrimRight(baseURL, "/"), public: public, authorized: authorized}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *HTTPAuthAPI) Login(ctx context.Context, username, password string) (domain.Credential, error) {
	req, err := rest.NewJSONRequest(ctx, http.MethodPost, a.baseURL+"/api/auth/login", loginRequest{Username: username, Password: password})
	if err != nil {
		return "", err
	}
	resp, err := rest.Send(a.public, req)
	if err != nil {
		return "", err
	}
	if err := credentialStatus(resp); err != nil {
		return "", err
	}
	var body loginResponse
	if err := rest.DecodeJSON(resp, &body); err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrRejected, err)
	}
	return domain.Credential(body.Token), nil
}

func (a *HTTPAuthAPI) Register(ctx context.Context, username, email, password string) error {
	req, err := rest.NewJSONRequest(ctx, http.MethodPost, a.baseURL+"/api/auth/register", registerRequest{Username: username, Email: email, Password: password})
	if err != nil {
		return err
	}
	resp, err := rest.Send(a.public, req)
	if err != nil {
		return err
	}
	if err := credentialStatus(resp); err != nil {
		return err
	}
	// a token in the body is ignored; registering never starts a session
	rest.Drain(resp)
	return nil
}

func (a *HTTPAuthAPI) Validate(ctx context.Context) error {
	req, err := rest.NewJSONRequest(ctx, http.MethodGet, a.baseURL+"/api/auth/validate", nil)
	if err != nil {
		return err
	}
	resp, err := rest.Send(a.authorized, req)
	if err != nil {
		return err
	}
	if err := rest.CheckStatus(resp); err != nil {
		return err
	}
	rest.Drain(resp)
	return nil
}

// credentialStatus maps the unauthenticated endpoints: any 4xx is a rejection
// of the submitted credentials, anything else non-2xx is a server failure.
func credentialStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return rest.Failure(resp, apperrors.ErrRejected)
	default:
		return rest.Failure(resp, apperrors.ErrNetwork)
	}
}

