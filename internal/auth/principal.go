package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"basegraph.app/suggestbox/core/config"
	"basegraph.app/suggestbox/internal/model"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Long-form claim types sent by the edge proxy when the short names are absent.
const (
	claimName       = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name"
	claimGivenName  = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/givenname"
	claimSurname    = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/surname"
	claimRole       = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"
	claimObjectID   = "http://schemas.microsoft.com/identity/claims/objectidentifier"
	claimEmail      = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/emailaddress"
	claimPreferred  = "preferred_username"
	claimShortName  = "name"
	claimShortGiven = "given_name"
	claimShortFam   = "family_name"
	claimShortRoles = "roles"
)

type headerPayload struct {
	UserID      string   `json:"userId"`
	UserDetails string   `json:"userDetails"`
	UserRoles   []string `json:"userRoles"`
	FullName    string   `json:"fullName"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Claims      []claim  `json:"claims"`
}

type claim struct {
	Typ string `json:"typ"`
	Val string `json:"val"`
}

// Extractor decodes the edge proxy's identity header into a Principal.
type Extractor struct {
	header         string
	adminRoles     map[string]struct{}
	overrideHeader string
	overrideValue  string
	trustOverride  bool
}

func NewExtractor(cfg config.AuthConfig) *Extractor {
	roles := make(map[string]struct{}, len(cfg.AdminRoles))
	for _, r := range cfg.AdminRoles {
		roles[strings.ToLower(r)] = struct{}{}
	}
	header := cfg.PrincipalHeader
	if header == "" {
		header = "X-MS-CLIENT-PRINCIPAL"
	}
	return &Extractor{
		header:         header,
		adminRoles:     roles,
		overrideHeader: cfg.AdminOverrideHeader,
		overrideValue:  cfg.AdminOverrideValue,
		trustOverride:  cfg.TrustAdminOverride,
	}
}

// Extract returns ErrUnauthenticated when the header is missing,
// undecodable or carries no user id.
func (e *Extractor) Extract(h http.Header) (model.Principal, error) {
	raw := strings.TrimSpace(h.Get(e.header))
	if raw == "" {
		return model.Principal{}, fmt.Errorf("%w: missing %s header", ErrUnauthenticated, e.header)
	}

	decoded, err := decodeBase64(raw)
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: decoding principal header: %v", ErrUnauthenticated, err)
	}

	var payload headerPayload
	if err := json.Unmarshal(decoded, &payload); err != nil {
		return model.Principal{}, fmt.Errorf("%w: parsing principal header: %v", ErrUnauthenticated, err)
	}
	payload.fillFromClaims()

	if payload.UserID == "" {
		return model.Principal{}, fmt.Errorf("%w: principal has no user id", ErrUnauthenticated)
	}

	p := model.Principal{
		UserID:      payload.UserID,
		UserDetails: payload.UserDetails,
		UserRoles:   payload.UserRoles,
		FullName:    payload.FullName,
		FirstName:   payload.FirstName,
		LastName:    payload.LastName,
	}
	if p.UserRoles == nil {
		p.UserRoles = []string{}
	}
	p.IsAdmin = e.isAdmin(p, h)
	p.DisplayName = DisplayName(p)
	return p, nil
}

func (e *Extractor) isAdmin(p model.Principal, h http.Header) bool {
	for _, r := range p.UserRoles {
		if _, ok := e.adminRoles[strings.ToLower(r)]; ok {
			return true
		}
	}
	if e.trustOverride && e.overrideHeader != "" {
		return h.Get(e.overrideHeader) == e.overrideValue
	}
	return false
}

func (p *headerPayload) fillFromClaims() {
	for _, c := range p.Claims {
		switch c.Typ {
		case claimObjectID:
			if p.UserID == "" {
				p.UserID = c.Val
			}
		case claimEmail, claimPreferred:
			if p.UserDetails == "" {
				p.UserDetails = c.Val
			}
		case claimName, claimShortName:
			if p.FullName == "" {
				p.FullName = c.Val
			}
		case claimGivenName, claimShortGiven:
			if p.FirstName == "" {
				p.FirstName = c.Val
			}
		case claimSurname, claimShortFam:
			if p.LastName == "" {
				p.LastName = c.Val
			}
		case claimRole, claimShortRoles:
			p.UserRoles = append(p.UserRoles, c.Val)
		}
	}
}

func decodeBase64(s string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
	var lastErr error
	for _, enc := range encodings {
		b, err := enc.DecodeString(s)
		if err == nil {
			return b, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
