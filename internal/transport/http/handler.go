package http

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"

	"mathtoys-quiz/internal/app"
	"mathtoys-quiz/internal/domain"
)

const (
	defaultResultsLimit = 10
	maxResultsLimit     = 100
)

// Handler serves the quiz REST API, the data directory of the standalone
// client and the websocket progress stream.
type Handler struct {
	service    *app.QuizService
	cookieName string
	data       fs.FS
	ws         *WSHandler
}

// HandlerOption customizes a Handler.
type HandlerOption func(*Handler)

func WithCookieName(name string) HandlerOption {
	return func(h *Handler) {
		if name != "" {
			h.cookieName = name
		}
	}
}

// WithDataFS serves fsys under /data/ for the standalone client.
func WithDataFS(fsys fs.FS) HandlerOption {
	return func(h *Handler) { h.data = fsys }
}

func NewHandler(service *app.QuizService, opts ...HandlerOption) *Handler {
	h := &Handler{service: service, cookieName: DefaultCookieName}
	for _, opt := range opts {
		opt(h)
	}
	h.ws = NewWSHandler(service, h.cookieName)
	return h
}

// Routes returns the full router wrapped in request logging.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /api/quizzes", h.listQuizzes)
	mux.HandleFunc("POST /api/quiz/{quiz_id}/start", h.start)
	mux.HandleFunc("GET /api/quiz/{quiz_id}/next", h.next)
	mux.HandleFunc("POST /api/quiz/{quiz_id}/check", h.check)
	mux.HandleFunc("GET /api/quiz/{quiz_id}/progress", h.progress)
	mux.HandleFunc("GET /api/quiz/{quiz_id}/results", h.results)
	mux.HandleFunc("GET /ws", h.ws.ServeWS)
	if h.data != nil {
		mux.Handle("GET /data/", http.StripPrefix("/data/", http.FileServerFS(h.data)))
	}
	return logRequests(mux)
}

type quizzesResponse struct {
	Success bool                `json:"success"`
	Quizzes []domain.QuizConfig `json:"quizzes"`
}

func (h *Handler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	configs, err := h.service.Catalog(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if configs == nil {
		configs = []domain.QuizConfig{}
	}
	writeJSON(w, http.StatusOK, quizzesResponse{Success: true, Quizzes: configs})
}

type startResponse struct {
	Success        bool `json:"success"`
	TotalQuestions int  `json:"total_questions"`
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	sessionID := h.ensureSession(w, r)
	total, err := h.service.Start(r.Context(), sessionID, r.PathValue("quiz_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, startResponse{Success: true, TotalQuestions: total})
}

type questionPayload struct {
	ID       domain.QuestionID `json:"id"`
	Question string            `json:"question"`
	Options  []domain.Option   `json:"options,omitempty"`
	Number   int               `json:"number"`
	Total    int               `json:"total"`
}

type nextResponse struct {
	Success   bool             `json:"success"`
	Finished  bool             `json:"finished"`
	Question  *questionPayload `json:"question,omitempty"`
	Remaining *int             `json:"remaining,omitempty"` // excludes the question on display
	Message   string           `json:"message,omitempty"`
	Progress  domain.Progress  `json:"progress"`
}

func newNextResponse(result domain.NextResult) nextResponse {
	resp := nextResponse{Success: true, Finished: result.Finished, Progress: result.Progress}
	if result.Finished || result.Question == nil {
		resp.Message = fmt.Sprintf("Finished: %d of %d correct.", result.Progress.Correct, result.Progress.Answered)
		return resp
	}
	q := result.Question
	remaining := q.Remaining
	resp.Question = &questionPayload{
		ID:       q.ID,
		Question: q.Question,
		Options:  q.Options,
		Number:   q.Number,
		Total:    q.Total,
	}
	resp.Remaining = &remaining
	return resp
}

func (h *Handler) next(w http.ResponseWriter, r *http.Request) {
	sessionID, err := h.sessionID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.service.Next(r.Context(), sessionID, r.PathValue("quiz_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newNextResponse(result))
}

type checkRequest struct {
	QuestionID domain.QuestionID `json:"question_id"`
	Answer     *string           `json:"answer"`
}

type questionData struct {
	ID       domain.QuestionID `json:"id"`
	Question string            `json:"question"`
}

type checkResponse struct {
	Success       bool            `json:"success"`
	Correct       bool            `json:"correct"`
	CorrectAnswer string          `json:"correct_answer"`
	Explanation   string          `json:"explanation"`
	Replayed      bool            `json:"replayed,omitempty"`
	QuestionData  *questionData   `json:"question_data,omitempty"`
	Progress      domain.Progress `json:"progress"`
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	sessionID, err := h.sessionID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}
	if req.QuestionID == "" || req.Answer == nil {
		writeError(w, r, fmt.Errorf("%w: question_id and answer are required", domain.ErrInvalidRequest))
		return
	}

	quizID := r.PathValue("quiz_id")
	var data *questionData
	if current, ok, err := h.service.Current(r.Context(), sessionID, quizID); err == nil && ok {
		data = &questionData{ID: current.ID, Question: current.Question}
	}

	result, progress, err := h.service.Check(r.Context(), sessionID, quizID, req.QuestionID, *req.Answer)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, checkResponse{
		Success:       true,
		Correct:       result.Correct,
		CorrectAnswer: result.CorrectAnswer,
		Explanation:   result.Explanation,
		Replayed:      result.Replayed,
		QuestionData:  data,
		Progress:      progress,
	})
}

type progressResponse struct {
	Success  bool            `json:"success"`
	Progress domain.Progress `json:"progress"`
}

func (h *Handler) progress(w http.ResponseWriter, r *http.Request) {
	sessionID, err := h.sessionID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	progress, err := h.service.Progress(r.Context(), sessionID, r.PathValue("quiz_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progressResponse{Success: true, Progress: progress})
}

type resultsResponse struct {
	Success bool            `json:"success"`
	Results []domain.Result `json:"results"`
}

func (h *Handler) results(w http.ResponseWriter, r *http.Request) {
	limit := defaultResultsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, r, fmt.Errorf("%w: limit must be a positive integer", domain.ErrInvalidRequest))
			return
		}
		limit = min(n, maxResultsLimit)
	}
	results, err := h.service.Results(r.Context(), r.PathValue("quiz_id"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resultsResponse{Success: true, Results: results})
}
