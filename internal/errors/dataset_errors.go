package errors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/render"
)

// Dataset-specific sentinel errors. Services return these; ErrorHandler
// maps them to problem responses through the sentinel table.
var (
	ErrSnapshotNotReady = errors.New("snapshot not ready")
	ErrCountyNotFound   = errors.New("county not found")
	ErrInvalidYearRange = errors.New("invalid year range")
	ErrSourceMissing    = errors.New("source file missing")
	ErrReloadInProgress = errors.New("reload already in progress")
)

// ProblemDetails is an RFC 7807 problem document. Extensions are flattened
// into the top-level JSON object, which is why marshaling is hand-rolled.
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	Extensions map[string]interface{} `json:"-"`
}

// Render sets the response status so render.Render can emit the body.
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, pd.Status)
	return nil
}

// MarshalJSON merges the extension fields into the problem object itself.
func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	doc := map[string]interface{}{
		"type":   pd.Type,
		"title":  pd.Title,
		"status": pd.Status,
	}
	if pd.Detail != "" {
		doc["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		doc["instance"] = pd.Instance
	}
	for k, v := range pd.Extensions {
		doc[k] = v
	}
	return json.Marshal(doc)
}

// NewProblemDetails builds a problem document with an empty extension set.
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: make(map[string]interface{}),
	}
}

// WithExtension records an extension member and returns pd for chaining.
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	pd.Extensions[key] = value
	return pd
}
