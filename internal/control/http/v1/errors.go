// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package v1

import (
	"net/http"
	"strings"

	"github.com/ManuGH/skillswap/internal/control/http/problem"
	"github.com/ManuGH/skillswap/internal/domain/exchange/lifecycle"
	"github.com/ManuGH/skillswap/internal/log"
)

const (
	CodeInvalidInput = "INVALID_INPUT"
	CodeInternal     = "INTERNAL"
)

type errorSpec struct {
	status int
	title  string
}

var kindSpecs = map[lifecycle.Kind]errorSpec{
	lifecycle.KindValidation:    {status: http.StatusBadRequest, title: "Bad Request"},
	lifecycle.KindAuthorization: {status: http.StatusForbidden, title: "Forbidden"},
	lifecycle.KindStateConflict: {status: http.StatusConflict, title: "Conflict"},
	lifecycle.KindNotFound:      {status: http.StatusNotFound, title: "Not Found"},
}

// respondError maps a workflow error onto its problem document. Anything that
// is not a workflow error is logged and reported as 500 without detail.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	werr, ok := lifecycle.As(err)
	if !ok {
		log.FromContext(r.Context()).Error().
			Err(err).
			Str(log.FieldPath, r.URL.Path).
			Msg("request failed")
		problem.Write(w, r, http.StatusInternalServerError, "swap/internal", "Internal Server Error",
			CodeInternal, "An unexpected error occurred. Please try again later.", nil)
		return
	}

	spec, ok := kindSpecs[werr.Kind]
	if !ok {
		spec = errorSpec{status: http.StatusInternalServerError, title: "Internal Server Error"}
	}
	var extra map[string]any
	if werr.Field != "" {
		extra = map[string]any{"field": werr.Field}
	}
	problem.Write(w, r, spec.status, "swap/"+werr.Kind.String(), spec.title,
		strings.ToUpper(werr.Code), werr.Detail, extra)
}

// respondInvalidBody reports a body that could not be decoded.
func respondInvalidBody(w http.ResponseWriter, r *http.Request, err error) {
	problem.Write(w, r, http.StatusBadRequest, "swap/invalid_input", "Bad Request",
		CodeInvalidInput, err.Error(), nil)
}
