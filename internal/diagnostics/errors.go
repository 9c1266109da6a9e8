package diagnostics

import (
	"net/http"

	"github.com/go-chi/render"
)

// ErrResponse is the standard error envelope for the diagnostics API,
// grounded on go-chi/render's documented ErrResponse pattern (the
// teacher's auth.go calls these constructors but never defines them —
// the package that would have held them was not part of the retrieval).
type ErrResponse struct {
	Err            error `json:"-"`
	HTTPStatusCode int   `json:"-"`

	StatusText string `json:"status"`
	AppCode    int64  `json:"code,omitempty"`
	ErrorText  string `json:"error,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{Err: err, HTTPStatusCode: http.StatusBadRequest, StatusText: "invalid request", ErrorText: err.Error()}
}

func ErrRender(err error) render.Renderer {
	return &ErrResponse{Err: err, HTTPStatusCode: http.StatusUnprocessableEntity, StatusText: "error rendering response", ErrorText: err.Error()}
}

func ErrUnauthorized(err error) render.Renderer {
	return &ErrResponse{Err: err, HTTPStatusCode: http.StatusUnauthorized, StatusText: "unauthorized", ErrorText: err.Error()}
}

func ErrPermissionDenied(err error) render.Renderer {
	return &ErrResponse{Err: err, HTTPStatusCode: http.StatusForbidden, StatusText: "permission denied", ErrorText: err.Error()}
}

var ErrNotFound = &ErrResponse{HTTPStatusCode: http.StatusNotFound, StatusText: "resource not found"}
