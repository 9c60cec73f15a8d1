package lichess

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "test-client", "http://localhost/login", nil)
}

func TestCreateArenaTournament(t *testing.T) {
	var gotPath string
	var gotForm url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		gotForm = r.PostForm
		w.Write([]byte(`{"id":"abc123","fullName":"Weekly Blitz Arena"}`))
	})

	fields := map[string]any{
		"name":           "Weekly Blitz",
		"clockTime":      "1.5",
		"clockIncrement": 0,
		"minutes":        60,
		"rated":          true,
		"startDate":      int64(1787250600000),
	}
	created, err := client.CreateTournament(context.Background(), "tok", "arena", fields)
	if err != nil {
		t.Fatalf("CreateTournament returned error: %v", err)
	}

	if gotPath != "/api/tournament" {
		t.Errorf("path = %q, want \"/api/tournament\"", gotPath)
	}
	if got := gotForm.Get("clockTime"); got != "1.5" {
		t.Errorf("clockTime = %q, want \"1.5\"", got)
	}
	if got := gotForm.Get("rated"); got != "true" {
		t.Errorf("rated = %q, want \"true\"", got)
	}
	if got := gotForm.Get("startDate"); got != "1787250600000" {
		t.Errorf("startDate = %q, want the epoch milliseconds", got)
	}
	if created["id"] != "abc123" {
		t.Errorf("created id = %v, want \"abc123\"", created["id"])
	}
}

func TestCreateSwissTournament(t *testing.T) {
	var gotPath string
	var gotForm url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		gotForm = r.PostForm
		w.Write([]byte(`{"id":"sw1"}`))
	})

	fields := map[string]any{
		"name":                         "Team Swiss",
		"nbRounds":                     7,
		"clock":                        map[string]any{"limit": 300, "increment": 2},
		"startsAt":                     int64(1787250600000),
		"conditions.teamMember.teamId": "my-team",
	}
	if _, err := client.CreateTournament(context.Background(), "tok", "swiss", fields); err != nil {
		t.Fatalf("CreateTournament returned error: %v", err)
	}

	if gotPath != "/api/swiss/new/my-team" {
		t.Errorf("path = %q, want the team in the URL", gotPath)
	}
	if _, ok := gotForm["conditions.teamMember.teamId"]; ok {
		t.Error("team id must not travel in the form body")
	}
	// The nested clock flattens to dotted form keys.
	if got := gotForm.Get("clock.limit"); got != "300" {
		t.Errorf("clock.limit = %q, want \"300\"", got)
	}
	if got := gotForm.Get("clock.increment"); got != "2" {
		t.Errorf("clock.increment = %q, want \"2\"", got)
	}
}

func TestCreateSwissTournamentWithoutTeam(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should reach the host")
	})

	_, err := client.CreateTournament(context.Background(), "tok", "swiss", map[string]any{"name": "x"})
	var le *Error
	if !errors.As(err, &le) || le.Code != http.StatusBadRequest {
		t.Errorf("err = %v, want a 400 *Error", err)
	}
}

func TestCreateTournamentUnknownKind(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should reach the host")
	})

	_, err := client.CreateTournament(context.Background(), "tok", "roundrobin", nil)
	var le *Error
	if !errors.As(err, &le) || le.Code != http.StatusBadRequest {
		t.Errorf("err = %v, want a 400 *Error", err)
	}
}

func TestGetSwissStandings(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("nb"); got != "10" {
			t.Errorf("nb = %q, want \"10\"", got)
		}
		w.Write([]byte(
			`{"rank":1,"points":8.5,"username":"alice"}` + "\n" +
				`{"rank":2,"points":7,"username":"bob"}` + "\n"))
	})

	standings, err := client.GetSwissStandings(context.Background(), "tok", "sw1", 10)
	if err != nil {
		t.Fatalf("GetSwissStandings returned error: %v", err)
	}

	if len(standings) != 2 {
		t.Fatalf("got %d standings, want 2", len(standings))
	}
	if standings[0].Name != "alice" || standings[0].Rank != 1 || standings[0].Score != 8.5 {
		t.Errorf("first standing = %+v", standings[0])
	}
	if standings[1].Name != "bob" || standings[1].Score != 7 {
		t.Errorf("second standing = %+v", standings[1])
	}
}

func TestGetArenaStandings(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tournament/abc123" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"id":"abc123","standing":{"players":[` +
			`{"name":"alice","rank":1,"score":10},{"name":"bob","rank":2,"score":8}]}}`))
	})

	standings, err := client.GetArenaStandings(context.Background(), "tok", "abc123")
	if err != nil {
		t.Fatalf("GetArenaStandings returned error: %v", err)
	}
	if len(standings) != 2 || standings[0].Name != "alice" || standings[0].Score != 10 {
		t.Errorf("standings = %+v", standings)
	}
}

func TestErrorMapping(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"This user cannot create tournaments"}`))
	})

	_, err := client.GetTournament(context.Background(), "tok", "arena", "abc123")
	var le *Error
	if !errors.As(err, &le) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if le.Code != http.StatusBadRequest {
		t.Errorf("Code = %d, want 400", le.Code)
	}
	if le.Message != "This user cannot create tournaments" {
		t.Errorf("Message = %q", le.Message)
	}
}

func TestErrorMappingObjectBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"clockTime":["Invalid value"]}}`))
	})

	_, err := client.GetTournament(context.Background(), "tok", "arena", "abc123")
	var le *Error
	if !errors.As(err, &le) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if le.Message != `{"clockTime":["Invalid value"]}` {
		t.Errorf("Message = %q", le.Message)
	}
}

func TestIsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := client.GetTournament(context.Background(), "tok", "swiss", "gone")
	if !IsNotFound(err) {
		t.Errorf("IsNotFound(%v) = false, want true", err)
	}
	if IsNotFound(errors.New("plain")) {
		t.Error("IsNotFound(plain error) = true, want false")
	}
}

func TestBearerToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q, want \"Bearer tok\"", got)
		}
		w.Write([]byte(`{}`))
	})

	if _, err := client.GetUser(context.Background(), "tok", "alice"); err != nil {
		t.Fatalf("GetUser returned error: %v", err)
	}
}
