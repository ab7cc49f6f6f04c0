package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/mindmesh/mindmesh-client/internal/backend"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu         sync.Mutex
	meStatus   int
	decisions  []backend.DecisionRequest
	dailyLogs  []backend.DailyLogRequest
	advanced   string
	authHeader string
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	f := &fakeBackend{meStatus: http.StatusOK, advanced: `{"status":"no_data"}`}
	server := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(server.Close)
	return f, server
}

func (f *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authHeader = r.Header.Get("Authorization")

	switch r.URL.Path {
	case "/api/auth/login":
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"Invalid credentials"}`))
			return
		}
		w.Write([]byte(`{"token":"tok-cli","user":{"id":1,"username":"ada","email":"ada@example.com"}}`))
	case "/api/auth/me":
		w.WriteHeader(f.meStatus)
		w.Write([]byte(`{"user":{"id":1,"username":"ada","email":"ada@example.com"}}`))
	case "/api/analyze-journal":
		w.Write([]byte(`{"mood":2,"stress":4}`))
	case "/api/daily-log":
		var req backend.DailyLogRequest
		json.NewDecoder(r.Body).Decode(&req)
		f.dailyLogs = append(f.dailyLogs, req)
		w.Write([]byte(`{"message":"Take it slow today.",
			"suggestions":["Short walk after lunch",{"title":"Breathing","description":"4-7-8 before bed"}],
			"safety_alert":{"title":"You are not alone","message":"Talk to someone you trust.","helpline":"988"}}`))
	case "/api/analyze-decision":
		var req backend.DecisionRequest
		json.NewDecoder(r.Body).Decode(&req)
		f.decisions = append(f.decisions, req)
		if len(f.decisions) == 1 {
			w.Write([]byte(`{"needs_more_context":true,"questions":[
				{"id":"start","question":"When does it start?"},
				{"id":"pay","question":"Is the pay better?"}]}`))
			return
		}
		w.Write([]byte(`{"verdict":"Go For It","score":8.2,"confidence":77}`))
	case "/api/history":
		w.Write([]byte(`[]`))
	case "/api/analytics/advanced":
		w.Write([]byte(f.advanced))
	case "/api/insights":
		w.Write([]byte(`[{"id":1,"insight_type":"trend","title":"Mood rising","message":"Up 12% this week"},
			{"id":2,"insight_type":"warning","title":"Short sleep","message":"Under 6h three nights"}]`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeBackend) snapshot() (decisions []backend.DecisionRequest, logs []backend.DailyLogRequest, auth string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append(decisions, f.decisions...), append(logs, f.dailyLogs...), f.authHeader
}

// setupCLI points HOME at a temp dir and writes a config for server.
func setupCLI(t *testing.T, server *httptest.Server) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("MINDMESH_API_URL", "")

	dir := filepath.Join(home, ".mindmesh")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	cfg := "api_url: " + server.URL + "/api\ntimeout: 5s\nquestion_threshold: 2\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte(cfg), 0o600))
	return home
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(strings.NewReader(stdin), &out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func login(t *testing.T) {
	t.Helper()
	out, err := runCLI(t, "", "login", "--email", "ada@example.com", "--password", "secret")
	require.NoError(t, err)
	require.Contains(t, out, "Logged in as ada")
}

func TestLoadSettings(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MINDMESH_API_URL", "")

	t.Run("defaults without a config file", func(t *testing.T) {
		s, err := LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"), nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultAPIURL, s.APIURL)
		assert.Equal(t, backend.DefaultTimeout, s.Timeout)
		assert.Equal(t, 2, s.QuestionThreshold)
		assert.Equal(t, filepath.Join(Dir(), credsFileName), s.CredentialsPath)
	})

	t.Run("file then flag", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("api_url: https://api.example.com/api/\ntimeout: 5s\nquestion_threshold: 3\n"), 0o600))

		s, err := LoadSettings(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "https://api.example.com/api", s.APIURL)
		assert.Equal(t, "5s", s.Timeout.String())
		assert.Equal(t, 3, s.QuestionThreshold)

		cmd := &cobra.Command{}
		cmd.Flags().String("api-url", "", "")
		require.NoError(t, cmd.Flags().Set("api-url", "http://localhost:9000/api"))
		s, err = LoadSettings(path, cmd)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9000/api", s.APIURL)
	})

	t.Run("rejects zero threshold", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("question_threshold: 0\n"), 0o600))
		_, err := LoadSettings(path, nil)
		assert.Error(t, err)
	})
}

func TestCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", credsFileName)
	creds := NewCredentials(path)

	token, err := creds.Token()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, creds.Save("tok-1"))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), TokenKey+": tok-1")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	token, err = creds.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	require.NoError(t, creds.Clear())
	require.NoError(t, creds.Clear())
	token, err = creds.Token()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestLoginAndWhoami(t *testing.T) {
	fake, server := newFakeBackend(t)
	home := setupCLI(t, server)

	_, err := runCLI(t, "", "login", "--email", "ada@example.com", "--password", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email or password")

	out, err := runCLI(t, "ada@example.com\nsecret\n", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Email: ")
	assert.Contains(t, out, "Logged in as ada")

	raw, err := os.ReadFile(filepath.Join(home, ".mindmesh", credsFileName))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "tok-cli")

	out, err = runCLI(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "ada <ada@example.com>")
	_, _, auth := fake.snapshot()
	assert.Equal(t, "Bearer tok-cli", auth)

	out, err = runCLI(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	_, err = runCLI(t, "", "whoami")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestExpiredTokenIsCleared(t *testing.T) {
	fake, server := newFakeBackend(t)
	home := setupCLI(t, server)
	login(t)

	fake.mu.Lock()
	fake.meStatus = http.StatusUnauthorized
	fake.mu.Unlock()

	_, err := runCLI(t, "", "whoami")
	require.Error(t, err)
	assert.True(t, backend.IsAuthError(err))
	assert.Contains(t, err.Error(), "session expired")

	_, statErr := os.Stat(filepath.Join(home, ".mindmesh", credsFileName))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLog_AnalyzeAndSubmit(t *testing.T) {
	fake, server := newFakeBackend(t)
	setupCLI(t, server)
	login(t)

	out, err := runCLI(t, "", "log", "--journal", "long day, a bit anxious", "--sleep", "6.5", "--analyze")
	require.NoError(t, err)

	assert.Contains(t, out, "mood    2  Negative")
	assert.Contains(t, out, "energy  3  Moderate")
	assert.Contains(t, out, "stress  4  High")
	assert.Contains(t, out, "!! You are not alone")
	assert.Contains(t, out, "Helpline: 988")
	assert.Contains(t, out, "Take it slow today.")
	assert.Contains(t, out, "- Short walk after lunch")
	assert.Contains(t, out, "- Breathing: 4-7-8 before bed")

	_, logs, _ := fake.snapshot()
	require.Len(t, logs, 1)
	assert.Equal(t, backend.DailyLogRequest{Mood: 2, Energy: 3, Stress: 4, Sleep: 6.5, Text: "long day, a bit anxious"}, logs[0])
}

func TestLog_AnalyzeNeedsJournal(t *testing.T) {
	fake, server := newFakeBackend(t)
	setupCLI(t, server)
	login(t)

	_, err := runCLI(t, "", "log", "--analyze")
	require.Error(t, err)
	_, logs, _ := fake.snapshot()
	assert.Empty(t, logs)
}

func TestDecide_AnswersQuestions(t *testing.T) {
	fake, server := newFakeBackend(t)
	setupCLI(t, server)
	login(t)

	out, err := runCLI(t, "Next month\nYes, 20% more\n", "decide", "Switch jobs?", "--category", "Career")
	require.NoError(t, err)

	assert.Contains(t, out, "[1/2] When does it start?")
	assert.Contains(t, out, "[2/2] Is the pay better?")
	assert.Contains(t, out, "Verdict: Go For It")
	assert.Contains(t, out, "Score: 8.2/10")
	assert.Contains(t, out, "Confidence: 77%")
	assert.Contains(t, out, "Strong recommendation to proceed")

	decisions, _, _ := fake.snapshot()
	require.Len(t, decisions, 2)
	first, second := decisions[0], decisions[1]
	assert.Equal(t, "Switch jobs?", first.Title)
	assert.Equal(t, "Career", first.Category)
	assert.Empty(t, first.ConversationHistory)
	assert.False(t, second.SkipQuestions)
	assert.Equal(t, []backend.ConversationEntry{
		{QuestionID: "start", Question: "When does it start?", Answer: "Next month"},
		{QuestionID: "pay", Question: "Is the pay better?", Answer: "Yes, 20% more"},
	}, second.ConversationHistory)
}

func TestDecide_SkipFlag(t *testing.T) {
	fake, server := newFakeBackend(t)
	setupCLI(t, server)
	login(t)

	out, err := runCLI(t, "", "decide", "--title", "Adopt a dog?", "--skip")
	require.NoError(t, err)
	assert.Contains(t, out, "Verdict: Go For It")

	decisions, _, _ := fake.snapshot()
	require.Len(t, decisions, 2)
	assert.True(t, decisions[1].SkipQuestions)
	assert.Empty(t, decisions[1].ConversationHistory)
}

func TestDecide_EmptyTitleMakesNoCall(t *testing.T) {
	fake, server := newFakeBackend(t)
	setupCLI(t, server)
	login(t)

	_, err := runCLI(t, "\n", "decide")
	require.Error(t, err)
	decisions, _, _ := fake.snapshot()
	assert.Empty(t, decisions)
}

func TestAnalyticsAndInsights(t *testing.T) {
	fake, server := newFakeBackend(t)
	setupCLI(t, server)

	_, err := runCLI(t, "", "analytics")
	assert.ErrorIs(t, err, errNotLoggedIn)

	login(t)

	out, err := runCLI(t, "", "analytics", "--days", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "No data yet. Start logging daily to see analytics.")

	_, err = runCLI(t, "", "analytics", "--days", "12")
	assert.Error(t, err)

	fake.mu.Lock()
	fake.advanced = `{"status":"success","data_points":4,"health_score":{"score":82,"trend":"improving"}}`
	fake.mu.Unlock()

	out, err = runCLI(t, "", "analytics")
	require.NoError(t, err)
	assert.Contains(t, out, "Health score: 82 (excellent), trend improving")

	out, err = runCLI(t, "", "insights", "--type", "warning")
	require.NoError(t, err)
	assert.Contains(t, out, "[warning] Short sleep")
	assert.NotContains(t, out, "Mood rising")

	out, err = runCLI(t, "", "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No data yet")
}
