package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"bsr/internal/export"
	"bsr/internal/protocol"
	"bsr/internal/recorder"
	"bsr/internal/session"
	"bsr/internal/step"
	"bsr/internal/ui"
)

// Server exposes the step ledger to the local editor page over HTTP and
// pushes change notifications over a websocket. It binds loopback only.
type Server struct {
	session  *session.Session
	recorder *recorder.Recorder
	wsMgr    *WSManager

	listener net.Listener
	httpSrv  *http.Server
}

func NewServer(sess *session.Session, rec *recorder.Recorder) *Server {
	return &Server{
		session:  sess,
		recorder: rec,
		wsMgr:    newWSManager(),
	}
}

// Start binds 127.0.0.1:port and serves until Stop. Port 0 picks a free
// port; Addr reports the bound address either way.
func (s *Server) Start(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = ln

	go s.wsMgr.start()

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/ws", s.wsMgr.handleWebSocket)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/steps", s.handleSteps)
	mux.HandleFunc("/api/steps/move", s.handleMove)
	mux.HandleFunc("/api/steps/reorder", s.handleReorder)
	mux.HandleFunc("/api/steps/remove", s.handleRemove)
	mux.HandleFunc("/api/steps/text", s.handleText)
	mux.HandleFunc("/api/screenshot", s.handleScreenshot)
	mux.HandleFunc("/api/recording", s.handleRecording)
	mux.HandleFunc("/api/save", s.handleSave)
	mux.HandleFunc("/api/saveas", s.handleSaveAs)
	mux.HandleFunc("/api/export", s.handleExport)

	s.httpSrv = &http.Server{
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("[ERROR] api server: %v", err)
		}
	}()

	log.Printf("api server listening on http://%s", s.Addr())
	return nil
}

func (s *Server) Stop() {
	if s.httpSrv != nil {
		s.httpSrv.Close()
	}
	close(s.wsMgr.shutdown)
}

// Addr returns the bound address, e.g. "127.0.0.1:53211".
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// session.Listener implementation: fan ledger changes out to the editor.

func (s *Server) StepAdded(st *step.Step) {
	s.wsMgr.Broadcast(protocol.Message{Type: protocol.TypeStepAdded, Payload: protocol.PayloadFor(st)})
}

func (s *Server) StepsReplaced(steps []*step.Step) {
	s.wsMgr.Broadcast(protocol.Message{Type: protocol.TypeStepsReplaced, Payload: protocol.PayloadsFor(steps)})
}

func (s *Server) RecordingChanged(recording bool) {
	s.wsMgr.Broadcast(protocol.Message{Type: protocol.TypeRecordingState, Payload: protocol.RecordingStatePayload{Recording: recording}})
}

func (s *Server) SyncError(err error) {
	s.wsMgr.Broadcast(protocol.Message{Type: protocol.TypeSyncError, Payload: protocol.SyncErrorPayload{Error: err.Error()}})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	ui.ServeEditor(w, s.session.ProjectPath())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"project":   s.session.ProjectPath(),
		"recording": s.session.Recording(),
		"steps":     len(s.session.Snapshot()),
	})
}

func (s *Server) handleSteps(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, protocol.PayloadsFor(s.session.Snapshot()))
}

type moveRequest struct {
	IDs       []string `json:"ids"`
	Direction string   `json:"direction"`
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	ids, err := parseIDs(req.IDs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	var missing []uuid.UUID
	switch req.Direction {
	case "up":
		missing = s.session.MoveUpByID(ids...)
	case "down":
		missing = s.session.MoveDownByID(ids...)
	default:
		http.Error(w, "direction must be up or down", http.StatusBadRequest)
		return
	}
	if len(missing) > 0 {
		http.Error(w, fmt.Sprintf("no step with id %s", missing[0]), http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

// The editor sends ids rather than indices; the session resolves them to
// positions inside the loop command that applies the mutation, so a
// concurrent capture or a second client cannot shift the targets.
func parseIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", r)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

type reorderRequest struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	s.session.Reorder(id, req.Index)
	writeJSON(w, map[string]bool{"ok": true})
}

type removeRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req removeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}
		ids = append(ids, id)
	}
	missing := s.session.Remove(ids...)
	writeJSON(w, map[string]any{"ok": true, "missing": len(missing)})
}

type textRequest struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	s.session.EditText(id, req.Text)
	writeJSON(w, map[string]bool{"ok": true})
}

// handleScreenshot serves one step's PNG. Screenshots are served on
// demand rather than pushed over the socket.
func (s *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	for _, st := range s.session.Snapshot() {
		if st.ID == id {
			if len(st.Screenshot) == 0 {
				http.Error(w, "step has no screenshot", http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "image/png")
			w.Header().Set("Content-Length", strconv.Itoa(len(st.Screenshot)))
			w.Write(st.Screenshot)
			return
		}
	}
	http.NotFound(w, r)
}

type recordingRequest struct {
	Recording bool `json:"recording"`
}

func (s *Server) handleRecording(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req recordingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	var err error
	if req.Recording {
		err = s.recorder.Start()
	} else {
		s.recorder.Stop()
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.session.SetRecording(req.Recording)
	writeJSON(w, map[string]bool{"recording": req.Recording})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.session.SaveNow(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

type saveAsRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleSaveAs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req saveAsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if err := s.session.SaveAs(req.Path); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"project": s.session.ProjectPath()})
}

type exportRequest struct {
	Format string `json:"format"`
	Target string `json:"target"`
	Title  string `json:"title"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	exp, err := export.ForFormat(req.Format, req.Title)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// Persist first so the document never gets ahead of the archive.
	if err := s.session.SaveNow(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := exp.Render(s.session.Snapshot(), req.Target); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[ERROR] writing response: %v", err)
	}
}
