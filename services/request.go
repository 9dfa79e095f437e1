package services

import (
	"strings"

	"go.pilab.hu/oauth2/domain"
	"go.pilab.hu/oauth2/errors"
)

// Request gives read access to the parameters of an inbound request.
type Request interface {
	// Param returns the named parameter and whether it was present.
	Param(name string) (string, bool)
}

// ParamNotNull returns the named parameter or a MissingParam fault when it
// is absent or empty.
func ParamNotNull(req Request, name string) (string, error) {
	v, ok := req.Param(name)
	if !ok || v == "" {
		return "", errors.Newf(errors.KindMissingParam, errors.CodeMissingParam, "missing required parameter: %s", name)
	}

	return v, nil
}

// ParamOrDefault returns the named parameter or def when it is absent.
func ParamOrDefault(req Request, name, def string) string {
	if v, ok := req.Param(name); ok {
		return v
	}

	return def
}

// GenerateRequestAuth reads an authorization request for subjectID.
// client_id, response_type and redirect_uri are required.
func GenerateRequestAuth(req Request, subjectID domain.SubjectID) (*domain.RequestAuth, error) {
	clientID, err := ParamNotNull(req, domain.ParamClientID)
	if err != nil {
		return nil, err
	}

	responseType, err := ParamNotNull(req, domain.ParamResponseType)
	if err != nil {
		return nil, err
	}

	redirectURI, err := ParamNotNull(req, domain.ParamRedirectURI)
	if err != nil {
		return nil, err
	}

	return &domain.RequestAuth{
		ClientID:     clientID,
		ResponseType: responseType,
		RedirectURI:  redirectURI,
		State:        ParamOrDefault(req, domain.ParamState, ""),
		Scope:        NormalizeScope(ParamOrDefault(req, domain.ParamScope, "")),
		SubjectID:    subjectID,
	}, nil
}

// MapRequest is a Request over a plain map.
type MapRequest map[string]string

func (m MapRequest) Param(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}

// AccessTokenFrom returns the bearer token from authorization, falling back
// to the access_token parameter of req.
func AccessTokenFrom(req Request, authorization string) (string, error) {
	if token, ok := BearerToken(authorization); ok {
		return token, nil
	}

	if token, ok := req.Param(domain.ParamAccessToken); ok && token != "" {
		return token, nil
	}

	return "", errors.New(errors.KindInvalidAccessToken, errors.CodeInvalidAccessToken, "missing access token")
}
