package api

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/thisisjab/defscript/fault"
	"github.com/thisisjab/defscript/lang"
	"github.com/thisisjab/defscript/lang/value"
)

const maxSessionNameLength = 64

// sessionStore keeps named sessions alive between requests.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	maxCount int
	logger   *slog.Logger
}

// sessionEntry serialises access to a session; sessions are not safe for concurrent use.
type sessionEntry struct {
	mu      sync.Mutex
	session *lang.Session
}

func newSessionStore(logger *slog.Logger, maxCount int) *sessionStore {
	return &sessionStore{
		sessions: make(map[string]*sessionEntry),
		maxCount: maxCount,
		logger:   logger,
	}
}

func validateSessionName(name string) error {
	valid := name != "" && len(name) <= maxSessionNameLength
	for _, c := range name {
		if !valid {
			break
		}
		valid = c == '-' || c == '_' || c == '.' ||
			(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
	}

	if !valid {
		return fault.New(fault.BadInputCode, "").WithMetadata(fault.FieldErrorsMetadata{
			"name": []string{fmt.Sprintf("Must be 1 to %d letters, digits, '-', '_' or '.'.", maxSessionNameLength)},
		})
	}

	return nil
}

// get returns the named session, creating it when create is set.
func (st *sessionStore) get(name string, create bool) (*sessionEntry, error) {
	if err := validateSessionName(name); err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if e, ok := st.sessions[name]; ok {
		return e, nil
	}

	if !create {
		return nil, fault.Newf(fault.NotFoundCode, "Session %q not found.", name)
	}

	if st.maxCount > 0 && len(st.sessions) >= st.maxCount {
		return nil, fault.Newf(fault.BadInputCode, "Cannot create more than %d sessions.", st.maxCount)
	}

	e := &sessionEntry{session: lang.NewSession(st.logger.With("session", name))}
	st.sessions[name] = e
	st.logger.Debug("created session", "session", name)

	return e, nil
}

func (st *sessionStore) delete(name string) error {
	if err := validateSessionName(name); err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sessions[name]; !ok {
		return fault.Newf(fault.NotFoundCode, "Session %q not found.", name)
	}

	delete(st.sessions, name)
	return nil
}

func (st *sessionStore) names() []string {
	st.mu.Lock()
	defer st.mu.Unlock()

	names := make([]string, 0, len(st.sessions))
	for name := range st.sessions {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

func (e *sessionEntry) exec(src string) ([]value.Value, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.session.Exec(src)
}

func (e *sessionEntry) bindings() map[string]value.Value {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.session.Bindings()
}
