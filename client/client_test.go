package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, token string) *MemoryStore {
	t.Helper()
	store := &MemoryStore{}
	if token != "" {
		require.NoError(t, store.SetToken(token))
	}
	return store
}

func TestClientAttachesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]interface{}{"teams": []interface{}{}})
	}))
	defer srv.Close()

	c := New(srv.URL, newTestStore(t, "abc123"))
	_, err := c.Teams(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Bearer abc123", gotAuth)
}

func TestClientLeaveTeamUsesDelete(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]string{"message": "left"})
	}))
	defer srv.Close()

	c := New(srv.URL, newTestStore(t, "abc123"))
	require.NoError(t, c.LeaveTeam(context.Background(), 5))

	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/teams/5/leave", gotPath)
}

func TestClientUnauthorizedClearsEveryTokenKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	// Tokens under both legacy keys and the canonical one must all go.
	store := &MemoryStore{}
	store.Seed("token", "legacy-one")
	store.Seed("authToken", "legacy-two")
	store.Seed(CanonicalTokenKey, "current")

	c := New(srv.URL, store)
	_, err := c.Profile(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReauthRequired)

	_, tokenErr := store.Token()
	assert.ErrorIs(t, tokenErr, ErrNoToken)
}

func TestClientDecodesStructuredErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "violations body",
			status: http.StatusUnprocessableEntity,
			body:   `{"message":"team composition is invalid","violations":["too many innovation members","departments must be unique"]}`,
			check: func(t *testing.T, err error) {
				var verr *ViolationsError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, "team composition is invalid", verr.Message)
				assert.Len(t, verr.Violations, 2)
			},
		},
		{
			name:   "department body",
			status: http.StatusUnprocessableEntity,
			body:   `{"message":"Department already represented","department":"Physics"}`,
			check: func(t *testing.T, err error) {
				var derr *DepartmentError
				require.ErrorAs(t, err, &derr)
				assert.Equal(t, "Physics", derr.Department)
			},
		},
		{
			name:   "plain error envelope",
			status: http.StatusConflict,
			body:   `{"error":"team with this name already exists"}`,
			check: func(t *testing.T, err error) {
				var aerr *APIError
				require.ErrorAs(t, err, &aerr)
				assert.Equal(t, http.StatusConflict, aerr.StatusCode)
				assert.Equal(t, "team with this name already exists", aerr.Message)
			},
		},
		{
			name:   "unparseable body falls back to status text",
			status: http.StatusBadGateway,
			body:   `<html>nope</html>`,
			check: func(t *testing.T, err error) {
				var aerr *APIError
				require.ErrorAs(t, err, &aerr)
				assert.Equal(t, http.StatusBadGateway, aerr.StatusCode)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := New(srv.URL, newTestStore(t, "tok"))
			_, err := c.CreateTeam(context.Background(), CreateTeamInput{Name: "x"})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestClientLoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"token": "issued-token",
			"user":  map[string]interface{}{"id": 7, "email": "a@b.edu"},
		})
	}))
	defer srv.Close()

	store := &MemoryStore{}
	c := New(srv.URL, store)

	user, err := c.Login(context.Background(), "a@b.edu", "secret")
	require.NoError(t, err)
	assert.Equal(t, 7, user.ID)

	token, err := store.Token()
	require.NoError(t, err)
	assert.Equal(t, "issued-token", token)
}

func TestMemoryStoreMigratesLegacyKeys(t *testing.T) {
	store := &MemoryStore{}
	store.Seed("authToken", "old-token")

	token, err := store.Token()
	require.NoError(t, err)
	assert.Equal(t, "old-token", token)

	// A second read must hit the canonical key; legacy keys are gone.
	token, err = store.Token()
	require.NoError(t, err)
	assert.Equal(t, "old-token", token)
}

func TestMemoryStorePrefersCanonicalKey(t *testing.T) {
	store := &MemoryStore{}
	store.Seed("token", "stale")
	store.Seed(CanonicalTokenKey, "fresh")

	token, err := store.Token()
	require.NoError(t, err)
	assert.Equal(t, "fresh", token)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	store := NewFileStore(path)

	_, err := store.Token()
	assert.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, store.SetToken("persisted"))

	// A new store over the same file sees the token.
	reopened := NewFileStore(path)
	token, err := reopened.Token()
	require.NoError(t, err)
	assert.Equal(t, "persisted", token)

	require.NoError(t, reopened.Clear())
	_, err = store.Token()
	assert.ErrorIs(t, err, ErrNoToken)
}
