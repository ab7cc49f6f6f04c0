package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mindmesh/mindmesh-client/internal/auth"
	"github.com/mindmesh/mindmesh-client/internal/backend"
	"github.com/mindmesh/mindmesh-client/internal/decision/domain"
	"github.com/mindmesh/mindmesh-client/internal/decision/service"
	"github.com/mindmesh/mindmesh-client/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decisionFixture struct {
	router *gin.Engine
	bodies []string
}

func newDecisionFixture(t *testing.T, upstream http.HandlerFunc) *decisionFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := &decisionFixture{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		f.bodies = append(f.bodies, string(raw))
		upstream(w, r)
	}))
	t.Cleanup(server.Close)

	store, err := session.NewMemoryStore(16, time.Hour)
	require.NoError(t, err)
	svc := service.NewConversationService(store, domain.DefaultPolicy())
	client := backend.NewClient(server.URL, backend.Options{}).WithToken("tok")

	r := gin.New()
	rg := r.Group("/decisions", func(c *gin.Context) {
		c.Set(auth.CtxSession, &session.Session{ID: "s1", Token: "tok"})
		c.Set(auth.CtxBackendClient, client)
		c.Next()
	})
	New(svc).Register(rg)
	f.router = r
	return f
}

func (f *decisionFixture) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func conversation(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	conv, ok := body["conversation"].(map[string]any)
	require.True(t, ok, "response has no conversation: %v", body)
	return conv
}

func TestDecisionFlow(t *testing.T) {
	round := 0
	f := newDecisionFixture(t, func(w http.ResponseWriter, r *http.Request) {
		round++
		if round == 1 {
			w.Write([]byte(`{"needs_more_context":true,"capacity":{"score":70},"questions":["When does it start?","Is the pay better?"]}`))
			return
		}
		w.Write([]byte(`{"verdict":"Proceed with Caution","score":6.1,"confidence":64}`))
	})

	code, body := f.do(t, http.MethodPatch, "/decisions/conversation/form", `{"title":"Switch jobs?","urgency":9}`)
	require.Equal(t, http.StatusOK, code)
	form := conversation(t, body)["form"].(map[string]any)
	assert.Equal(t, float64(5), form["urgency"])

	code, body = f.do(t, http.MethodPost, "/decisions/conversation/submit", "")
	require.Equal(t, http.StatusOK, code)
	conv := conversation(t, body)
	assert.Equal(t, "gathering", conv["state"])
	assert.Equal(t, float64(2), conv["question_threshold"])
	current := conv["current_question"].(map[string]any)
	assert.Equal(t, "q1", current["id"])

	code, body = f.do(t, http.MethodPost, "/decisions/conversation/answer", `{"question_id":"q1","answer":"In two weeks"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "gathering", conversation(t, body)["state"])

	code, _ = f.do(t, http.MethodPost, "/decisions/conversation/answer", `{"question_id":"q1","answer":"again"}`)
	assert.Equal(t, http.StatusConflict, code)

	code, body = f.do(t, http.MethodPost, "/decisions/conversation/answer", `{"question_id":"q2","answer":"Yes"}`)
	require.Equal(t, http.StatusOK, code)
	conv = conversation(t, body)
	assert.Equal(t, "complete", conv["state"])
	assert.Equal(t, "caution", conv["verdict_style"].(map[string]any)["tone"])

	require.Len(t, f.bodies, 2)
	assert.Contains(t, f.bodies[1], `"question":"When does it start?"`)
	assert.Contains(t, f.bodies[1], `"answer":"Yes"`)

	code, _ = f.do(t, http.MethodPatch, "/decisions/conversation/form", `{"title":"x"}`)
	assert.Equal(t, http.StatusConflict, code)

	code, body = f.do(t, http.MethodPost, "/decisions/conversation/reset", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "initial", conversation(t, body)["state"])
}

func TestSubmit_EmptyTitle(t *testing.T) {
	f := newDecisionFixture(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be called")
	})

	code, body := f.do(t, http.MethodPost, "/decisions/conversation/submit", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "title", body["field"])
}

func TestSubmit_BackendDown(t *testing.T) {
	f := newDecisionFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"model not loaded"}`))
	})

	f.do(t, http.MethodPatch, "/decisions/conversation/form", `{"title":"t"}`)
	code, body := f.do(t, http.MethodPost, "/decisions/conversation/submit", "")
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "model not loaded", body["error"])
	conv := conversation(t, body)
	assert.Equal(t, "initial", conv["state"])
	assert.Equal(t, "t", conv["form"].(map[string]any)["title"])
}

func TestSubmit_AuthErrorRejectsSession(t *testing.T) {
	f := newDecisionFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	f.do(t, http.MethodPatch, "/decisions/conversation/form", `{"title":"t"}`)
	code, _ := f.do(t, http.MethodPost, "/decisions/conversation/submit", "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestHistory(t *testing.T) {
	f := newDecisionFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/decisions/history", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Write([]byte(`[{"id":1,"title":"Switch jobs?","verdict":"Go For It"}]`))
	})

	code, body := f.do(t, http.MethodGet, "/decisions/history?limit=5", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["decisions"], 1)

	code, _ = f.do(t, http.MethodGet, "/decisions/history?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRetryAfterFailure(t *testing.T) {
	calls := 0
	f := newDecisionFixture(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"verdict":"Go For It","score":8.2}`))
	})

	code, _ := f.do(t, http.MethodPost, "/decisions/conversation/retry", "")
	assert.Equal(t, http.StatusConflict, code)

	f.do(t, http.MethodPatch, "/decisions/conversation/form", `{"title":"Take the course?"}`)
	code, _ = f.do(t, http.MethodPost, "/decisions/conversation/submit", "")
	require.Equal(t, http.StatusBadGateway, code)

	code, body := f.do(t, http.MethodPost, "/decisions/conversation/retry", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "complete", conversation(t, body)["state"])
	require.Len(t, f.bodies, 2)
	assert.Equal(t, f.bodies[0], f.bodies[1])
}

func TestConversationReportsEffectiveThreshold(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, err := session.NewMemoryStore(4, time.Hour)
	require.NoError(t, err)

	r := gin.New()
	rg := r.Group("/decisions", func(c *gin.Context) {
		c.Set(auth.CtxSession, &session.Session{ID: "s1", Token: "tok"})
		c.Next()
	})
	New(service.NewConversationService(store, domain.Policy{})).Register(rg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/decisions/conversation", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(domain.DefaultQuestionLimit), conversation(t, body)["question_threshold"])
}
