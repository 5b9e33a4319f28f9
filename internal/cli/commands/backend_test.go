package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/trialdesk-dev/trialdesk/internal/cli/auth"
	"github.com/trialdesk-dev/trialdesk/internal/cli/client"
)

// memTokenStore is an in-memory credential store
type memTokenStore struct {
	mu      sync.Mutex
	tokens  map[string]string
	readErr error // returned by every LoadToken when set
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{tokens: make(map[string]string)}
}

func (m *memTokenStore) SaveToken(server, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[server] = token
	return nil
}

func (m *memTokenStore) LoadToken(server string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return "", m.readErr
	}
	token, ok := m.tokens[server]
	if !ok {
		return "", auth.ErrNoToken
	}
	return token, nil
}

func (m *memTokenStore) DeleteToken(server string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, server)
	return nil
}

func (m *memTokenStore) get(server string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[server]
}

type fakeAccount struct {
	client.User
	password string
}

// fakeBackend is a small in-memory trialdesk API
type fakeBackend struct {
	mu          sync.Mutex
	accounts    map[string]*fakeAccount // by email
	sessions    map[string]string       // token -> email
	projects    []client.Project
	trials      []client.Trial
	schemas     []client.Schema
	documents   []client.Document
	invitations map[string]string // token -> email
	calls       map[string]int

	// tokens rejected by every endpoint except /user/me
	revokedAfterMe map[string]bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		accounts:       make(map[string]*fakeAccount),
		sessions:       make(map[string]string),
		invitations:    make(map[string]string),
		calls:          make(map[string]int),
		revokedAfterMe: make(map[string]bool),
	}
}

func (b *fakeBackend) addAccount(email, password, role string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[email] = &fakeAccount{
		User: client.User{
			ID:       fmt.Sprintf("u%d", len(b.accounts)+1),
			Email:    email,
			FullName: strings.Split(email, "@")[0],
			Role:     role,
			IsActive: true,
		},
		password: password,
	}
}

// issue creates a session token for email
func (b *fakeBackend) issue(email string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	token := fmt.Sprintf("token-%s-%d", email, len(b.sessions))
	b.sessions[token] = email
	return token
}

func (b *fakeBackend) callCount(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

func (b *fakeBackend) adminExists() bool {
	for _, a := range b.accounts {
		if a.Role == client.RoleAdmin {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *fakeBackend) tokenResponse(a *fakeAccount) client.TokenResponse {
	token := fmt.Sprintf("token-%s-%d", a.Email, len(b.sessions))
	b.sessions[token] = a.Email
	u := a.User
	return client.TokenResponse{AccessToken: token, TokenType: "bearer", User: &u}
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	// authed resolves the bearer token, writing 401 when it is unusable
	authed := func(w http.ResponseWriter, r *http.Request, meEndpoint bool) (*fakeAccount, bool) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		email, ok := b.sessions[token]
		if !ok || (!meEndpoint && b.revokedAfterMe[token]) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid or expired token"})
			return nil, false
		}
		return b.accounts[email], true
	}

	route := func(pattern string, h func(w http.ResponseWriter, r *http.Request)) {
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.calls[pattern]++
			h(w, r)
		})
	}

	route("GET /api/user/first-admin-check", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"allow_first_admin_setup": !b.adminExists()})
	})

	route("POST /api/user/first-admin", func(w http.ResponseWriter, r *http.Request) {
		if b.adminExists() {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "An admin already exists"})
			return
		}
		var req client.FirstAdminRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		a := &fakeAccount{
			User:     client.User{ID: "admin1", Email: req.Email, FullName: req.FullName, Role: client.RoleAdmin, IsActive: true},
			password: req.Password,
		}
		b.accounts[req.Email] = a
		writeJSON(w, http.StatusCreated, b.tokenResponse(a))
	})

	route("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req client.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		a, ok := b.accounts[req.Email]
		if !ok || a.password != req.Password {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Incorrect email or password"})
			return
		}
		writeJSON(w, http.StatusOK, b.tokenResponse(a))
	})

	route("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var req client.RegisterRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if _, exists := b.accounts[req.Email]; exists {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Email already registered"})
			return
		}
		if req.InvitationToken != "" {
			delete(b.invitations, req.InvitationToken)
		}
		a := &fakeAccount{
			User:     client.User{ID: fmt.Sprintf("u%d", len(b.accounts)+1), Email: req.Email, FullName: req.FullName, Role: client.RoleUser, IsActive: true},
			password: req.Password,
		}
		b.accounts[req.Email] = a
		writeJSON(w, http.StatusCreated, a.User)
	})

	route("GET /api/invitations/{token}", func(w http.ResponseWriter, r *http.Request) {
		email, ok := b.invitations[r.PathValue("token")]
		writeJSON(w, http.StatusOK, client.InvitationInfo{Valid: ok, Email: email})
	})

	route("GET /api/user/me", func(w http.ResponseWriter, r *http.Request) {
		a, ok := authed(w, r, true)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, a.User)
	})

	route("GET /api/project", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authed(w, r, false); !ok {
			return
		}
		writeJSON(w, http.StatusOK, b.projects)
	})

	route("POST /api/project", func(w http.ResponseWriter, r *http.Request) {
		a, ok := authed(w, r, false)
		if !ok {
			return
		}
		var in client.ProjectInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		p := client.Project{
			ID:          fmt.Sprintf("p%d", len(b.projects)+1),
			Name:        in.Name,
			Description: in.Description,
			Status:      client.ProjectActive,
			OwnerID:     a.ID,
			CreatedAt:   time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC),
		}
		b.projects = append(b.projects, p)
		writeJSON(w, http.StatusCreated, p)
	})

	route("GET /api/project/{id}", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authed(w, r, false); !ok {
			return
		}
		for _, p := range b.projects {
			if p.ID == r.PathValue("id") {
				writeJSON(w, http.StatusOK, p)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Project not found"})
	})

	route("DELETE /api/project/{id}", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authed(w, r, false); !ok {
			return
		}
		for i, p := range b.projects {
			if p.ID == r.PathValue("id") {
				b.projects = append(b.projects[:i], b.projects[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Project not found"})
	})

	route("POST /api/project/{id}/trials", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authed(w, r, false); !ok {
			return
		}
		var req client.CreateTrialRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		t := client.Trial{
			ID:        fmt.Sprintf("t%d", len(b.trials)+1),
			ProjectID: r.PathValue("id"),
			Name:      req.Name,
			Status:    client.TrialPending,
		}
		b.trials = append(b.trials, t)
		writeJSON(w, http.StatusCreated, t)
	})

	route("GET /api/project/{id}/trials/{trialId}", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authed(w, r, false); !ok {
			return
		}
		for _, t := range b.trials {
			if t.ProjectID == r.PathValue("id") && t.ID == r.PathValue("trialId") {
				writeJSON(w, http.StatusOK, t)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Trial not found"})
	})

	route("GET /api/project/{id}/schemas", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authed(w, r, false); !ok {
			return
		}
		list := []client.Schema{}
		for _, sc := range b.schemas {
			if sc.ProjectID == r.PathValue("id") {
				list = append(list, sc)
			}
		}
		writeJSON(w, http.StatusOK, list)
	})

	route("POST /api/project/{id}/schema", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authed(w, r, false); !ok {
			return
		}
		var req client.CreateSchemaRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Definition) == 0 || req.Definition[0] != '{' {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Validation failed"})
			return
		}
		sc := client.Schema{
			ID:         fmt.Sprintf("s%d", len(b.schemas)+1),
			ProjectID:  r.PathValue("id"),
			Name:       req.Name,
			Definition: req.Definition,
		}
		b.schemas = append(b.schemas, sc)
		writeJSON(w, http.StatusCreated, sc)
	})

	route("GET /api/project/{id}/schema/{schemaId}", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authed(w, r, false); !ok {
			return
		}
		for _, sc := range b.schemas {
			if sc.ProjectID == r.PathValue("id") && sc.ID == r.PathValue("schemaId") {
				writeJSON(w, http.StatusOK, sc)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "schema not found"})
	})

	route("DELETE /api/project/{id}/schema/{schemaId}", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authed(w, r, false); !ok {
			return
		}
		for i, sc := range b.schemas {
			if sc.ProjectID == r.PathValue("id") && sc.ID == r.PathValue("schemaId") {
				b.schemas = append(b.schemas[:i], b.schemas[i+1:]...)
				writeJSON(w, http.StatusOK, map[string]string{"message": "Schema deleted successfully"})
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "schema not found"})
	})

	route("GET /api/project/{id}/documents", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authed(w, r, false); !ok {
			return
		}
		list := []client.Document{}
		for _, d := range b.documents {
			if d.ProjectID == r.PathValue("id") {
				d.Text = ""
				list = append(list, d)
			}
		}
		writeJSON(w, http.StatusOK, list)
	})

	route("POST /api/project/{id}/documents", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authed(w, r, false); !ok {
			return
		}
		var req client.CreateDocumentRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		d := client.Document{
			ID:        fmt.Sprintf("d%d", len(b.documents)+1),
			ProjectID: r.PathValue("id"),
			Name:      req.Name,
			Text:      req.Text,
			Metadata:  req.Metadata,
		}
		b.documents = append(b.documents, d)
		writeJSON(w, http.StatusCreated, d)
	})

	route("GET /api/project/{id}/document/{documentId}", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authed(w, r, false); !ok {
			return
		}
		for _, d := range b.documents {
			if d.ProjectID == r.PathValue("id") && d.ID == r.PathValue("documentId") {
				writeJSON(w, http.StatusOK, d)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "document not found"})
	})

	route("GET /api/users", func(w http.ResponseWriter, r *http.Request) {
		a, ok := authed(w, r, false)
		if !ok {
			return
		}
		if a.Role != client.RoleAdmin {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Admin access required"})
			return
		}
		var users []client.User
		for _, acc := range b.accounts {
			users = append(users, acc.User)
		}
		writeJSON(w, http.StatusOK, users)
	})

	route("POST /api/invitations", func(w http.ResponseWriter, r *http.Request) {
		a, ok := authed(w, r, false)
		if !ok {
			return
		}
		if a.Role != client.RoleAdmin {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Admin access required"})
			return
		}
		var req struct {
			Email string `json:"email"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		token := fmt.Sprintf("inv%d", len(b.invitations)+1)
		b.invitations[token] = req.Email
		writeJSON(w, http.StatusCreated, client.Invitation{
			ID:        token,
			Email:     req.Email,
			Token:     token,
			ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
		})
	})

	return mux
}

// harness runs CLI invocations against one backend, sharing a credential
// store the way separate runs share the OS keyring
type harness struct {
	t       *testing.T
	backend *fakeBackend
	server  *httptest.Server
	tokens  *memTokenStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TRIALDESK_SERVER", "")
	t.Setenv("TRIALDESK_EMAIL", "")
	t.Setenv("TRIALDESK_PASSWORD", "")

	backend := newFakeBackend()
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	return &harness{t: t, backend: backend, server: server, tokens: newMemTokenStore()}
}

// host is the key the CLI stores the server's credential under
func (h *harness) host() string {
	return strings.TrimPrefix(h.server.URL, "http://")
}

// loginAs stores a valid credential for email, as a previous login would
func (h *harness) loginAs(email string) string {
	token := h.backend.issue(email)
	_ = h.tokens.SaveToken(h.host(), token)
	return token
}

type result struct {
	out    string
	errOut string
	err    error
}

func (h *harness) run(stdin string, args ...string) result {
	h.t.Helper()

	var out, errOut bytes.Buffer
	env := NewEnv(
		WithServer(h.server.URL),
		WithTokenStore(h.tokens),
		WithOutput(&out),
		WithErrorOutput(&errOut),
		WithInput(strings.NewReader(stdin)),
		WithLogger(zerolog.Nop()),
	)

	root := &cobra.Command{Use: "trialdesk", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().StringVarP(&env.Output, "output", "o", OutputTable, "")
	root.AddCommand(
		NewSetupCmd(env),
		NewLoginCmd(env),
		NewLogoutCmd(env),
		NewRegisterCmd(env),
		NewWhoamiCmd(env),
		NewOpenCmd(env),
		NewProjectsCmd(env),
		NewTrialsCmd(env),
		NewSchemasCmd(env),
		NewDocumentsCmd(env),
		NewUsersCmd(env),
	)
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)

	err := root.ExecuteContext(context.Background())
	return result{out: out.String(), errOut: errOut.String(), err: err}
}
