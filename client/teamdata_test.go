package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonUnmarshal(s string, v interface{}) error {
	return json.Unmarshal([]byte(s), v)
}

func jsonWrite(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

const teamDataFixture = `{
	"profile": {"user": {"id": 7, "first_name": "Asha", "last_name": "Rao", "department": "Physics"}},
	"teams": {"teams": [
		{"id": 1, "name": "Alpha", "leader_id": 2, "members": [{"id": 2}, {"id": 3}]},
		{"id": 2, "name": "Beta", "leader_id": 4, "members": [{"id": 4}, {"id": 7}]}
	]},
	"available": {"users": [{"id": 9}, {"id": 10}]},
	"invitations": {"invitations": [{"id": 31, "team_id": 1, "recipient_id": 7, "status": "pending"}]}
}`

func newTeamDataServer(t *testing.T, failInvitations bool) *httptest.Server {
	t.Helper()

	var fixture map[string]interface{}
	require.NoError(t, jsonUnmarshal(teamDataFixture, &fixture))

	mux := http.NewServeMux()
	mux.HandleFunc("/user/profile", func(w http.ResponseWriter, r *http.Request) {
		jsonWrite(w, fixture["profile"])
	})
	mux.HandleFunc("/teams", func(w http.ResponseWriter, r *http.Request) {
		jsonWrite(w, fixture["teams"])
	})
	mux.HandleFunc("/user/available", func(w http.ResponseWriter, r *http.Request) {
		jsonWrite(w, fixture["available"])
	})
	mux.HandleFunc("/user/invitations", func(w http.ResponseWriter, r *http.Request) {
		if failInvitations {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"boom"}`))
			return
		}
		jsonWrite(w, fixture["invitations"])
	})
	return httptest.NewServer(mux)
}

func TestFetchTeamData(t *testing.T) {
	srv := newTeamDataServer(t, false)
	defer srv.Close()

	c := New(srv.URL, newTestStore(t, "tok"))
	data, err := c.FetchTeamData(context.Background(), nil)

	require.NoError(t, err)
	require.NotNil(t, data.Profile)
	assert.Equal(t, 7, data.Profile.ID)
	assert.Len(t, data.Teams, 2)
	assert.Len(t, data.Available, 2)

	// User 7 sits on Beta's roster, so that is "my team".
	require.NotNil(t, data.MyTeam)
	assert.Equal(t, "Beta", data.MyTeam.Name)

	require.Len(t, data.Invitations, 1)
	assert.Equal(t, 31, data.Invitations[0].ID)
}

func TestFetchTeamDataInvitationsAreBestEffort(t *testing.T) {
	srv := newTeamDataServer(t, true)
	defer srv.Close()

	c := New(srv.URL, newTestStore(t, "tok"))
	data, err := c.FetchTeamData(context.Background(), nil)

	require.NoError(t, err)
	assert.NotNil(t, data.Profile)
	assert.Empty(t, data.Invitations)
}

func TestFetchTeamDataFailsWhenPrimaryFetchFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"down"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, newTestStore(t, "tok"))
	_, err := c.FetchTeamData(context.Background(), nil)

	require.Error(t, err)
	var aerr *APIError
	assert.ErrorAs(t, err, &aerr)
}

func TestFindTeamOfMatchesLeader(t *testing.T) {
	srv := newTeamDataServer(t, false)
	defer srv.Close()

	// Leader-only membership: user 4 leads Beta but is also in members;
	// user 2 leads Alpha and appears in its members list.
	c := New(srv.URL, newTestStore(t, "tok"))
	data, err := c.FetchTeamData(context.Background(), nil)
	require.NoError(t, err)

	team := findTeamOf(data.Teams, 2)
	require.NotNil(t, team)
	assert.Equal(t, "Alpha", team.Name)

	assert.Nil(t, findTeamOf(data.Teams, 99))
}
