package api

import (
	"errors"
	"net/http"

	"github.com/thisisjab/defscript/fault"
)

func (s *server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var f fault.Fault
	if errors.As(err, &f) {
		if f.Code().Phase() != fault.PhaseNone {
			// The request was well formed but the source it carried was not.
			s.writeError(w, r, http.StatusUnprocessableEntity, languageErrorResponse(f))
			return
		}

		switch f.Code() {
		case fault.BadInputCode:
			if md, ok := f.Metadata().(fault.FieldErrorsMetadata); ok {
				// This is a 422 error since it's related to specific field
				s.writeError(w, r, http.StatusUnprocessableEntity, apiResponse{
					Success: false,
					Message: f.Message(),
					Metadata: map[string]any{
						"fields": md,
					},
				})
			} else {
				// This is a 400 as it's a bad request with no metadata or unknown metadata
				res := apiResponse{Success: false, Message: f.Message()}
				if f.Metadata() != nil {
					res.Metadata = map[string]any{"context": f.Metadata()}
				}
				s.writeError(w, r, http.StatusBadRequest, res)
			}

		case fault.NotFoundCode:
			m := f.Message()
			if m == "" {
				m = "Requested resource not found."
			}

			res := apiResponse{Success: false, Message: m}

			if f.Metadata() != nil {
				res.Metadata = map[string]any{"context": f.Metadata()}
			}

			s.writeError(w, r, http.StatusNotFound, res)

		default:
			s.internalServerError(w, r, f)
		}

		return
	}

	s.internalServerError(w, r, err)
}

// languageErrorResponse describes a lex, parse or evaluation fault.
func languageErrorResponse(f fault.Fault) apiResponse {
	metadata := map[string]any{
		"code":  f.Code(),
		"phase": f.Code().Phase(),
	}
	if pos, ok := f.Metadata().(fault.PositionMetadata); ok {
		metadata["position"] = pos
	}

	return apiResponse{
		Success:  false,
		Message:  f.Error(),
		Metadata: metadata,
	}
}

// returnOnError writes the error response for err and reports whether there was one.
func (s *server) returnOnError(w http.ResponseWriter, r *http.Request, err error) bool {
	if err == nil {
		return false
	}

	s.handleError(w, r, err)
	return true
}

func (s *server) logError(r *http.Request, err error) {
	s.logger.Error("internal server error", "method", r.Method, "path", r.RequestURI, "remote-addr", r.RemoteAddr, "error", err)
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, status int, response apiResponse) {
	s.writeJson(w, status, response, nil) //nolint:errcheck
}

func (s *server) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	s.logError(r, err)
	s.writeError(w, r, http.StatusInternalServerError, apiResponse{Success: false, Message: "Internal server error"})
}
