package api

import (
	"errors"
	"net/http"

	"github.com/thisisjab/defscript/fault"
	"github.com/thisisjab/defscript/lang/value"
)

type evalRequest struct {
	Source string `json:"source"`
}

type resultView struct {
	Kind    string `json:"kind"`
	Value   any    `json:"value"`
	Display string `json:"display"`
}

func newResultView(v value.Value) resultView {
	return resultView{
		Kind:    v.Kind().String(),
		Value:   value.Native(v),
		Display: v.String(),
	}
}

func (s *server) listSessionsHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJson(w, http.StatusOK, apiResponse{ //nolint:errcheck
		Success: true,
		Data:    map[string]any{"sessions": s.sessions.names()},
	}, nil)
}

// evalSessionHandler evaluates the statements in the request body in the named
// session, creating the session on first use.
func (s *server) evalSessionHandler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req evalRequest
	if s.returnOnError(w, r, s.readJson(w, r, &req)) {
		return
	}

	if req.Source == "" {
		s.handleError(w, r, fault.New(fault.BadInputCode, "").WithMetadata(fault.FieldErrorsMetadata{
			"source": []string{"Must not be empty."},
		}))
		return
	}

	entry, err := s.sessions.get(name, true)
	if s.returnOnError(w, r, err) {
		return
	}

	values, err := entry.exec(req.Source)
	results := make([]resultView, len(values))
	for i, v := range values {
		results[i] = newResultView(v)
	}

	if err != nil {
		// Statements before the failing one have taken effect, so report their values too.
		var f fault.Fault
		if errors.As(err, &f) && f.Code().Phase() != fault.PhaseNone {
			res := languageErrorResponse(f)
			res.Metadata["results"] = results
			s.writeError(w, r, http.StatusUnprocessableEntity, res)
			return
		}

		s.handleError(w, r, err)
		return
	}

	s.writeJson(w, http.StatusOK, apiResponse{ //nolint:errcheck
		Success: true,
		Data: map[string]any{
			"session": name,
			"results": results,
		},
	}, nil)
}

func (s *server) sessionBindingsHandler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	entry, err := s.sessions.get(name, false)
	if s.returnOnError(w, r, err) {
		return
	}

	bindings := make(map[string]resultView)
	for k, v := range entry.bindings() {
		bindings[k] = newResultView(v)
	}

	s.writeJson(w, http.StatusOK, apiResponse{ //nolint:errcheck
		Success: true,
		Data: map[string]any{
			"session":  name,
			"bindings": bindings,
		},
	}, nil)
}

func (s *server) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	if s.returnOnError(w, r, s.sessions.delete(r.PathValue("name"))) {
		return
	}

	s.writeJson(w, http.StatusOK, apiResponse{ //nolint:errcheck
		Success: true,
		Message: "Session deleted.",
	}, nil)
}
