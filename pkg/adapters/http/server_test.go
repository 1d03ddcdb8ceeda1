package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/policydesk"
	"github.com/aretw0/policydesk/pkg/session"
	"github.com/aretw0/policydesk/pkg/wizard"
)

const policyJSON = `{"kind":"all","children":[
	{"kind":"add-header","data":{"name":"X-Trace","operation":"add"}},
	{"kind":"include","data":{"policy_name":"shared"},"children":[{"kind":"add-header","data":{"name":"X-Inner","operation":"add"}}]}
]}`

const wizardYAML = `
title: New header
steps:
  - id: header
    label: Header
    description: Pick the header to add.
    fields:
      - name: name
        label: Name
        required: true
  - id: mode
    label: Mode
    fields:
      - name: operation
        label: Operation
        choices: [add, replace, remove]
        default: add
`

func newTestHandler(t *testing.T) (http.Handler, *session.Manager) {
	t.Helper()
	console, err := policydesk.New()
	require.NoError(t, err)
	runs := session.NewManager()
	return NewHandler(console, runs), runs
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestListKinds(t *testing.T) {
	h, _ := newTestHandler(t)
	w := do(t, h, "GET", "/kinds", "")
	require.Equal(t, http.StatusOK, w.Code)

	kinds := decode[[]KindView](t, w)
	require.NotEmpty(t, kinds)
	byKind := map[string]KindView{}
	for _, k := range kinds {
		byKind[string(k.Kind)] = k
	}
	assert.True(t, byKind["all"].Composite)
	assert.True(t, byKind["add-header"].Editable)
}

func TestResolveActions(t *testing.T) {
	h, _ := newTestHandler(t)

	w := do(t, h, "POST", "/actions", `{"path":"0.0","policy":`+policyJSON+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	list := decode[[]ActionView](t, w)
	require.NotEmpty(t, list)
	assert.Equal(t, "properties", string(list[0].ID))
	assert.Equal(t, "Add Header Properties", list[0].Name)

	w = do(t, h, "POST", "/actions", `{"path":"0.1.0","policy":`+policyJSON+`}`)
	require.Equal(t, http.StatusOK, w.Code)
	for _, a := range decode[[]ActionView](t, w) {
		assert.False(t, a.Editing, "no editing action inside an include: %s", a.ID)
	}

	w = do(t, h, "POST", "/actions", `{"path":"0.7","policy":`+policyJSON+`}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, "POST", "/actions", `{"path":"0","policy":{"kind":"add-header"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvokeAction(t *testing.T) {
	h, _ := newTestHandler(t)

	w := do(t, h, "POST", "/actions/invoke", `{"path":"0.1","action":"move-up","policy":`+policyJSON+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"children":[{"kind":"include"`)

	w = do(t, h, "POST", "/actions/invoke", `{"path":"0.1.0","action":"delete","policy":`+policyJSON+`}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestWizardLifecycle(t *testing.T) {
	h, runs := newTestHandler(t)

	w := do(t, h, "POST", "/wizards", wizardYAML)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	view := decode[session.View](t, w)
	assert.Equal(t, "New header", view.Title)
	assert.Equal(t, 2, view.Steps)
	assert.Equal(t, []string{view.ID}, runs.List())
	base := "/wizards/" + view.ID

	// Guard refusal is reported, not an HTTP error.
	w = do(t, h, "POST", base+"/next", "")
	require.Equal(t, http.StatusOK, w.Code)
	view = decode[session.View](t, w)
	assert.Equal(t, 0, view.Index)
	require.Len(t, view.Notifications, 1)
	assert.Contains(t, view.Notifications[0].Message, "Name may not be empty")

	w = do(t, h, "POST", base+"/input", `{"name":"X-Trace"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, "POST", base+"/input", `{"name":"X-Partial","missing":"x"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	w = do(t, h, "GET", base, "")
	view = decode[session.View](t, w)
	assert.Equal(t, "X-Trace", view.Fields[0].Value, "rejected input must not be applied")

	w = do(t, h, "POST", base+"/next", "")
	view = decode[session.View](t, w)
	assert.Equal(t, 1, view.Index)
	assert.Equal(t, "add", view.Fields[0].Value)

	w = do(t, h, "POST", base+"/back", "")
	view = decode[session.View](t, w)
	assert.Equal(t, 0, view.Index)
	assert.Equal(t, "X-Trace", view.Fields[0].Value)

	do(t, h, "POST", base+"/next", "")
	w = do(t, h, "POST", base+"/finish", "")
	require.Equal(t, http.StatusOK, w.Code)
	view = decode[session.View](t, w)
	assert.Equal(t, wizard.StatusFinished, view.Status)
	assert.Equal(t, "X-Trace", view.Settings["name"])

	w = do(t, h, "POST", base+"/next", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, "POST", base+"/jump", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, "DELETE", base, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, h, "GET", base, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWizardHelp(t *testing.T) {
	h, _ := newTestHandler(t)

	w := do(t, h, "POST", "/wizards", wizardYAML)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	view := decode[session.View](t, w)
	assert.Nil(t, view.Help)
	base := "/wizards/" + view.ID

	w = do(t, h, "POST", base+"/help", "")
	require.Equal(t, http.StatusOK, w.Code)
	view = decode[session.View](t, w)
	require.NotNil(t, view.Help)
	assert.Equal(t, "Header", view.Help.Topic)
	assert.Equal(t, "Pick the header to add.", view.Help.Text)

	// Help is shown once.
	w = do(t, h, "GET", base, "")
	view = decode[session.View](t, w)
	assert.Nil(t, view.Help)
}

func TestStartWizard_InvalidDefinition(t *testing.T) {
	h, _ := newTestHandler(t)
	w := do(t, h, "POST", "/wizards", "title: x\nsteps: []\n")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, "POST", "/wizards", "title: x\nbogus: 1\n")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubscribeEvents(t *testing.T) {
	console, err := policydesk.New()
	require.NoError(t, err)
	runs := session.NewManager()
	srv := httptest.NewServer(NewHandler(console, runs))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/wizards", "application/yaml", strings.NewReader(wizardYAML))
	require.NoError(t, err)
	var view session.View
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, "GET", srv.URL+"/wizards/"+view.ID+"/events?watch=cancel", nil)
	stream, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer stream.Body.Close()
	require.Equal(t, http.StatusOK, stream.StatusCode)

	reader := bufio.NewReader(stream.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", line)

	// The back event is filtered out, the cancel event comes through.
	for _, action := range []string{"back", "cancel"} {
		r, err := http.Post(srv.URL+"/wizards/"+view.ID+"/"+action, "", nil)
		require.NoError(t, err)
		r.Body.Close()
	}

	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: {") {
			break
		}
	}
	var ev TransitionEvent
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
	assert.Equal(t, "cancel", ev.Action)
	assert.True(t, ev.Moved)
	assert.Equal(t, wizard.StatusCancelled, ev.Status)
}

func TestSubscribeEvents_UnknownRun(t *testing.T) {
	h, _ := newTestHandler(t)
	w := do(t, h, "GET", "/wizards/nope/events", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORS(t *testing.T) {
	h, _ := newTestHandler(t)
	w := do(t, h, "OPTIONS", "/kinds", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
