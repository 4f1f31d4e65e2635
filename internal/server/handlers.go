package server

import (
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sant0-9/memomate/internal/document"
	"github.com/sant0-9/memomate/internal/intent"
	"github.com/sant0-9/memomate/internal/pipeline"
	"github.com/sant0-9/memomate/internal/session"
	"github.com/sant0-9/memomate/internal/writer"
)

var templateFuncs = template.FuncMap{
	"clock": func(t time.Time) string { return t.Format("15:04") },
}

type taskOption struct {
	Value    string
	Label    string
	Selected bool
}

type pageData struct {
	ProviderName string
	Tasks        []taskOption
	Topic        string
	Notice       string
	NoticeErr    bool
	History      []session.Record
	Topics       []string
	Document     *document.Metadata
}

type recordResponse struct {
	Query    string    `json:"query"`
	Response string    `json:"response"`
	Task     string    `json:"task"`
	Failed   bool      `json:"failed"`
	At       time.Time `json:"at"`
}

type sessionResponse struct {
	SessionID string           `json:"session_id"`
	History   []recordResponse `json:"history"`
	Topics    []string         `json:"topics"`
}

type outcomeResponse struct {
	recordResponse
	Topic     string             `json:"topic,omitempty"`
	Truncated bool               `json:"truncated,omitempty"`
	Document  *document.Metadata `json:"document,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toRecordResponse(r session.Record) recordResponse {
	return recordResponse{
		Query:    r.Query,
		Response: r.Response,
		Task:     r.Task.String(),
		Failed:   r.Failed,
		At:       r.At,
	}
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, s.newPage(r, intent.TaskQuiz))
}

// askHandler answers the topic form. A file attached to the same form takes
// precedence over the topic.
func (s *Server) askHandler(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, ok := s.formFile(w, r)
		if !ok {
			return
		}
		if file != nil {
			defer file.Close()
			s.upload(w, r, file, header)
			return
		}
	} else if err := r.ParseForm(); err != nil {
		s.fail(w, r, http.StatusBadRequest, goerr.Wrap(err, "invalid form"), "Invalid form.", intent.TaskQuiz)
		return
	}

	task, ok := intent.ParseTask(r.PostFormValue("task"))
	if !ok {
		s.fail(w, r, http.StatusBadRequest,
			goerr.New("unknown task", goerr.V("task", r.PostFormValue("task"))),
			"Choose Quiz, Summary, Explanation or Auto.", intent.TaskQuiz)
		return
	}

	sess := sessionFrom(r.Context())
	sess.Lock()
	out, err := s.pipeline.Ask(r.Context(), sess.Ledger, pipeline.Request{
		Topic: r.PostFormValue("topic"),
		Task:  task,
	})
	sess.Unlock()

	if err != nil {
		s.fail(w, r, statusFor(err), err, userMessage(err), task)
		return
	}
	s.respond(w, r, out, task)
}

func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	file, header, ok := s.formFile(w, r)
	if !ok {
		return
	}
	if file == nil {
		s.fail(w, r, http.StatusUnprocessableEntity, pipeline.ErrEmptyInput, userMessage(pipeline.ErrEmptyInput), intent.TaskQuiz)
		return
	}
	defer file.Close()

	s.upload(w, r, file, header)
}

// formFile parses a multipart body and returns the "file" part, or nil when
// none was sent. ok is false once an error response has been written.
func (s *Server) formFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, bool) {
	if r.ContentLength > s.maxUploadBytes {
		s.fail(w, r, http.StatusRequestEntityTooLarge,
			goerr.New("upload too large", goerr.V("length", r.ContentLength)), "The file is too large.", intent.TaskQuiz)
		return nil, nil, false
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, r, http.StatusRequestEntityTooLarge, goerr.Wrap(err, "upload too large"), "The file is too large.", intent.TaskQuiz)
			return nil, nil, false
		}
		s.fail(w, r, http.StatusBadRequest, goerr.Wrap(err, "invalid multipart form"), "Invalid upload.", intent.TaskQuiz)
		return nil, nil, false
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || (err == nil && header.Filename == "") {
		if file != nil {
			file.Close()
		}
		return nil, nil, true
	}
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, goerr.Wrap(err, "cannot read upload"), "Invalid upload.", intent.TaskQuiz)
		return nil, nil, false
	}
	return file, header, true
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request, file multipart.File, header *multipart.FileHeader) {
	data, err := io.ReadAll(file)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, goerr.Wrap(err, "cannot read upload"), "Invalid upload.", intent.TaskExplanation)
		return
	}

	sess := sessionFrom(r.Context())
	sess.Lock()
	out, err := s.pipeline.Upload(r.Context(), sess.Ledger, header.Filename, data)
	sess.Unlock()

	if err != nil {
		s.fail(w, r, statusFor(err), err, userMessage(err), intent.TaskExplanation)
		return
	}
	s.respond(w, r, out, intent.TaskExplanation)
}

func (s *Server) sessionHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	records := sess.Ledger.Queries()
	resp := sessionResponse{
		SessionID: sess.ID,
		History:   make([]recordResponse, len(records)),
		Topics:    sess.Ledger.Topics(),
	}
	for i, rec := range records {
		resp.History[i] = toRecordResponse(rec)
	}

	s.writeJSON(w, r, http.StatusOK, resp)
}

// exportHandler downloads the session as Markdown notes.
func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	notes := writer.FromLedger("", sess.Ledger)

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+writer.DefaultFileName(notes.Created)+`"`)
	io.WriteString(w, notes.Markdown()) //nolint:errcheck // header already committed
}

// respond writes a finished outcome. Failed completions are still 200: the
// inline error is part of the session history.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, out *pipeline.Outcome, task intent.Task) {
	if wantsJSON(r) {
		resp := outcomeResponse{
			recordResponse: toRecordResponse(out.Record),
			Topic:          out.Topic,
			Truncated:      out.Truncated,
		}
		if out.Document != nil {
			resp.Document = &out.Document.Metadata
		}
		s.writeJSON(w, r, http.StatusOK, resp)
		return
	}

	page := s.newPage(r, task)
	if out.Document != nil {
		page.Document = &out.Document.Metadata
		page.Notice = "File uploaded: " + out.Document.Metadata.FileName
	}
	if out.Failed {
		page.Notice = "The request failed, see the history below."
		page.NoticeErr = true
	}
	s.renderPage(w, r, http.StatusOK, page)
}

// fail logs err and shows msg to the user, as JSON or on the page.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, err error, msg string, task intent.Task) {
	var ge *goerr.Error
	if errors.As(err, &ge) {
		s.logger.Warn("request rejected", "status", status, "error", err.Error(), "values", ge.Values())
	} else {
		s.logger.Warn("request rejected", "status", status, "error", err.Error())
	}

	if wantsJSON(r) {
		s.writeJSON(w, r, status, errorResponse{Error: msg})
		return
	}

	page := s.newPage(r, task)
	page.Topic = r.PostForm.Get("topic")
	page.Notice = msg
	page.NoticeErr = true
	s.renderPage(w, r, status, page)
}

func (s *Server) newPage(r *http.Request, selected intent.Task) pageData {
	page := pageData{ProviderName: s.providerName}
	for _, t := range intent.Selectable {
		page.Tasks = append(page.Tasks, taskOption{
			Value:    t.String(),
			Label:    t.Label(),
			Selected: t == selected,
		})
	}
	if sess := sessionFrom(r.Context()); sess != nil {
		page.History = sess.Ledger.Queries()
		page.Topics = sess.Ledger.Topics()
	}
	return page
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, page pageData) {
	var buf strings.Builder
	if err := s.page.Execute(&buf, page); err != nil {
		s.logger.Error("failed to render page", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, buf.String()) //nolint:errcheck // header already committed
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to marshal response", "error", err, "path", r.URL.Path)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) //nolint:errcheck // header already committed
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrEmptyInput), errors.Is(err, pipeline.ErrNoText):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, pipeline.ErrEmptyInput):
		return "Please enter a topic or upload a file."
	case errors.Is(err, pipeline.ErrNoText):
		return "Could not extract text from the uploaded file."
	default:
		return "Something went wrong."
	}
}
