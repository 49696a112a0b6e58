package dto

import "basegraph.app/suggestbox/internal/model"

// ErrorResponse is the body of every non-2xx response. Error carries the
// raw cause and is omitted in production.
type ErrorResponse struct {
	Message string          `json:"message"`
	Code    model.ErrorKind `json:"code"`
	Error   string          `json:"error,omitempty"`
}

type UploadRequest struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
	Base64Data  string `json:"base64data"`
}

type MeResponse struct {
	UserID      string   `json:"userId"`
	UserDetails string   `json:"userDetails"`
	UserRoles   []string `json:"userRoles"`
	DisplayName string   `json:"displayName"`
	IsAdmin     bool     `json:"isAdmin"`
}

func ToMeResponse(p model.Principal) MeResponse {
	roles := p.UserRoles
	if roles == nil {
		roles = []string{}
	}
	return MeResponse{
		UserID:      p.UserID,
		UserDetails: p.UserDetails,
		UserRoles:   roles,
		DisplayName: p.DisplayName,
		IsAdmin:     p.IsAdmin,
	}
}

