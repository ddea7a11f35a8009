package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bsr/internal/project"
	"bsr/internal/protocol"
	"bsr/internal/recorder"
	"bsr/internal/session"
	"bsr/internal/step"
	"bsr/internal/uiauto"
)

func newTestServer(t *testing.T) (*Server, *session.Session) {
	t.Helper()
	sess := session.New()
	t.Cleanup(sess.Close)
	path := filepath.Join(t.TempDir(), "walkthrough"+project.Extension)
	require.NoError(t, sess.NewProject(path))

	rec := recorder.New(uiauto.System(), nil, sess)
	return NewServer(sess, rec), sess
}

func addStep(t *testing.T, sess *session.Session, text string, shot []byte) *step.Step {
	t.Helper()
	st := step.New()
	st.Text = text
	st.Screenshot = shot
	require.True(t, sess.TryEnqueueStep(st))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, got := range sess.Snapshot() {
			if got.ID == st.ID {
				return st
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("step never landed in the ledger")
	return nil
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestHandleStepsListsLedger(t *testing.T) {
	srv, sess := newTestServer(t)
	addStep(t, sess, "a", nil)
	addStep(t, sess, "b", []byte{1})

	w := httptest.NewRecorder()
	srv.handleSteps(w, httptest.NewRequest(http.MethodGet, "/api/steps", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var list protocol.StepListPayload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Steps, 2)
	assert.Equal(t, "a", list.Steps[0].Text)
	assert.False(t, list.Steps[0].HasScreenshot)
	assert.True(t, list.Steps[1].HasScreenshot)
}

func TestHandleMove(t *testing.T) {
	srv, sess := newTestServer(t)
	a := addStep(t, sess, "a", nil)
	addStep(t, sess, "b", nil)

	w := postJSON(t, srv.handleMove, `{"ids":["`+a.ID.String()+`"],"direction":"down"}`)
	require.Equal(t, http.StatusOK, w.Code)

	snap := sess.Snapshot()
	assert.Equal(t, "b", snap[0].Text)
	assert.Equal(t, "a", snap[1].Text)
}

func TestHandleMoveUnknownID(t *testing.T) {
	srv, _ := newTestServer(t)
	w := postJSON(t, srv.handleMove, `{"ids":["`+step.New().ID.String()+`"],"direction":"up"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleMoveBadDirection(t *testing.T) {
	srv, sess := newTestServer(t)
	a := addStep(t, sess, "a", nil)
	w := postJSON(t, srv.handleMove, `{"ids":["`+a.ID.String()+`"],"direction":"sideways"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleRemove(t *testing.T) {
	srv, sess := newTestServer(t)
	a := addStep(t, sess, "a", nil)
	addStep(t, sess, "b", nil)

	w := postJSON(t, srv.handleRemove, `{"ids":["`+a.ID.String()+`"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	snap := sess.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "b", snap[0].Text)
	assert.Equal(t, 1, snap[0].Number)
}

func TestHandleText(t *testing.T) {
	srv, sess := newTestServer(t)
	a := addStep(t, sess, "a", nil)

	w := postJSON(t, srv.handleText, `{"id":"`+a.ID.String()+`","text":"edited"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "edited", sess.Snapshot()[0].Text)
}

func TestHandleReorder(t *testing.T) {
	srv, sess := newTestServer(t)
	a := addStep(t, sess, "a", nil)
	addStep(t, sess, "b", nil)
	addStep(t, sess, "c", nil)

	w := postJSON(t, srv.handleReorder, `{"id":"`+a.ID.String()+`","index":2}`)
	require.Equal(t, http.StatusOK, w.Code)

	snap := sess.Snapshot()
	assert.Equal(t, "a", snap[2].Text)
}

func TestHandleScreenshot(t *testing.T) {
	srv, sess := newTestServer(t)
	shot := []byte{0x89, 'P', 'N', 'G'}
	a := addStep(t, sess, "a", shot)
	b := addStep(t, sess, "b", nil)

	w := httptest.NewRecorder()
	srv.handleScreenshot(w, httptest.NewRequest(http.MethodGet, "/api/screenshot?id="+a.ID.String(), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, shot, w.Body.Bytes())

	w = httptest.NewRecorder()
	srv.handleScreenshot(w, httptest.NewRequest(http.MethodGet, "/api/screenshot?id="+b.ID.String(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	srv.handleScreenshot(w, httptest.NewRequest(http.MethodGet, "/api/screenshot?id=garbage", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleStatus(t *testing.T) {
	srv, sess := newTestServer(t)
	addStep(t, sess, "a", nil)

	w := httptest.NewRecorder()
	srv.handleStatus(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var status struct {
		Project   string `json:"project"`
		Recording bool   `json:"recording"`
		Steps     int    `json:"steps"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, sess.ProjectPath(), status.Project)
	assert.False(t, status.Recording)
	assert.Equal(t, 1, status.Steps)
}

func TestHandleSavePersists(t *testing.T) {
	srv, sess := newTestServer(t)
	addStep(t, sess, "a", nil)

	w := postJSON(t, srv.handleSave, `{}`)
	require.Equal(t, http.StatusOK, w.Code)

	res, err := project.New(sess.ProjectPath()).Open()
	require.NoError(t, err)
	assert.Len(t, res.Steps, 1)
}

func TestHandleSaveAs(t *testing.T) {
	srv, sess := newTestServer(t)
	addStep(t, sess, "a", nil)

	newPath := filepath.Join(t.TempDir(), "copy"+project.Extension)
	w := postJSON(t, srv.handleSaveAs, `{"path":`+strconv.Quote(newPath)+`}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, newPath, sess.ProjectPath())

	res, err := project.New(newPath).Open()
	require.NoError(t, err)
	assert.Len(t, res.Steps, 1)
}

func TestMutationsRejectGet(t *testing.T) {
	srv, _ := newTestServer(t)
	for name, h := range map[string]http.HandlerFunc{
		"move":    srv.handleMove,
		"remove":  srv.handleRemove,
		"reorder": srv.handleReorder,
		"text":    srv.handleText,
		"save":    srv.handleSave,
		"saveas":  srv.handleSaveAs,
		"export":  srv.handleExport,
	} {
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, name)
	}
}
