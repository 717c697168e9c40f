package http

import (
	"fmt"
	"net/http"
	"strconv"

	apierrors "firedays/internal/errors"
)

// ImpactQuery binds the optional year bounds of an impact request.
// Zero means unbounded on that side.
type ImpactQuery struct {
	From int `json:"from" validate:"omitempty,gte=1900,lte=2200"`
	To   int `json:"to" validate:"omitempty,gte=1900,lte=2200"`
}

// IncidentsQuery binds the limit of an incidents request.
type IncidentsQuery struct {
	Limit int `json:"limit" validate:"gte=1,lte=100"`
}

const defaultIncidentLimit = 10

func (h *DashboardHandler) bindImpactQuery(r *http.Request) (ImpactQuery, error) {
	var q ImpactQuery
	var err error

	if q.From, err = queryInt(r, "from", 0); err != nil {
		return q, err
	}
	if q.To, err = queryInt(r, "to", 0); err != nil {
		return q, err
	}
	if err := h.validate.ValidateStruct(q); err != nil {
		return q, err
	}
	if q.From != 0 && q.To != 0 && q.From > q.To {
		return q, apierrors.ErrValidation("from", "from must not be after to")
	}
	return q, nil
}

func (h *DashboardHandler) bindIncidentsQuery(r *http.Request) (IncidentsQuery, error) {
	var q IncidentsQuery
	var err error

	if q.Limit, err = queryInt(r, "limit", defaultIncidentLimit); err != nil {
		return q, err
	}
	if err := h.validate.ValidateStruct(q); err != nil {
		return q, err
	}
	return q, nil
}

func queryInt(r *http.Request, name string, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierrors.ErrValidation(name, fmt.Sprintf("%s must be an integer", name))
	}
	return value, nil
}
