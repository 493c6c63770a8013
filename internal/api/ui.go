package api

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/bull/legal-rag/internal/rag"
	"github.com/bull/legal-rag/internal/registry"
)

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Legal Document Assistant</title>
<style>
  *, *::before, *::after { box-sizing: border-box; margin: 0; padding: 0; }
  body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; background: #0f172a; color: #e2e8f0; min-height: 100vh; display: flex; justify-content: center; padding: 2rem 0; }
  .card { max-width: 760px; width: 92%; background: #1e293b; border-radius: 12px; padding: 2.5rem; box-shadow: 0 25px 50px rgba(0,0,0,0.4); }
  h1 { font-size: 1.75rem; margin-bottom: 0.5rem; color: #f8fafc; }
  .subtitle { color: #94a3b8; margin-bottom: 1.75rem; }
  .section { margin-bottom: 1.5rem; }
  .section-title { font-size: 0.75rem; text-transform: uppercase; letter-spacing: 0.1em; color: #64748b; margin-bottom: 0.5rem; }
  label { display: block; font-size: 0.85rem; color: #94a3b8; margin: 0.75rem 0 0.25rem; }
  textarea, select, input { width: 100%; background: #0f172a; color: #e2e8f0; border: 1px solid #334155; border-radius: 8px; padding: 0.6rem; font: inherit; }
  button { margin-top: 1rem; background: #38bdf8; color: #0f172a; border: 0; border-radius: 8px; padding: 0.6rem 1.2rem; font-weight: 600; cursor: pointer; }
  .answer { background: #0f172a; border: 1px solid #334155; border-radius: 8px; padding: 1rem; line-height: 1.6; }
  .answer p + p { margin-top: 0.75rem; }
  .error { color: #f87171; }
  .source { border-left: 3px solid #334155; padding-left: 0.75rem; margin-bottom: 0.75rem; font-size: 0.9rem; color: #cbd5e1; }
  .meta { font-family: "SF Mono", monospace; font-size: 0.8rem; color: #a5b4fc; }
  .warn { color: #fbbf24; font-size: 0.85rem; }
</style>
</head>
<body>
<div class="card">
  <h1>Legal Document Assistant</h1>
  <p class="subtitle">Ask questions about uploaded contracts. Answers cite the document and page they come from.</p>

  <form class="section" method="post" action="/ui/ask">
    <label for="question">Question</label>
    <textarea id="question" name="question" rows="3" required>{{.Question}}</textarea>
    <label for="file_id">Document</label>
    <select id="file_id" name="file_id">
      <option value="">All documents</option>
      {{range .Documents}}<option value="{{.FileID}}"{{if eq .FileID $.FileID}} selected{{end}}>{{.Filename}} ({{.Status}})</option>
      {{end}}
    </select>
    <label for="top_k">Excerpts to retrieve</label>
    <input id="top_k" name="top_k" type="number" min="1" max="30" value="{{.TopK}}">
    <button type="submit">Ask</button>
  </form>

  {{if .Error}}<p class="section error">{{.Error}}</p>{{end}}

  {{with .Result}}
  <div class="section">
    <div class="section-title">Answer</div>
    <div class="answer">{{$.AnswerHTML}}</div>
    {{if .UnverifiedCitations}}<p class="warn">Citations not backed by retrieved excerpts: {{range .UnverifiedCitations}}{{.}} {{end}}</p>{{end}}
  </div>
  <div class="section">
    <div class="section-title">Sources ({{.Retrieved}})</div>
    {{range .Sources}}
    <div class="source">
      <div class="meta">{{.Source}} | page {{.Page}}{{with .Score}} | score {{score .}}{{end}}</div>
      {{.Text}}
    </div>
    {{end}}
  </div>
  {{end}}
</div>
</body>
</html>`

type pageData struct {
	Question   string
	FileID     string
	TopK       int
	Documents  []registry.Document
	Result     *rag.AnswerResult
	AnswerHTML template.HTML
	Error      string
}

type ui struct {
	lib    Library
	logger *slog.Logger
	tmpl   *template.Template
	md     goldmark.Markdown
}

func newUI(lib Library, logger *slog.Logger) *ui {
	return &ui{
		lib:    lib,
		logger: logger,
		tmpl:   template.Must(template.New("page").Funcs(template.FuncMap{"score": formatScore}).Parse(pageHTML)),
		// raw HTML in model output is not rendered (goldmark default)
		md: goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Table)),
	}
}

func formatScore(s *float64) string {
	return strconv.FormatFloat(*s, 'f', 3, 64)
}

func (u *ui) handleIndex(w http.ResponseWriter, r *http.Request) {
	u.render(w, r, http.StatusOK, &pageData{TopK: 10})
}

func (u *ui) handleAsk(w http.ResponseWriter, r *http.Request) {
	data := &pageData{
		Question: r.FormValue("question"),
		FileID:   r.FormValue("file_id"),
	}
	data.TopK, _ = strconv.Atoi(r.FormValue("top_k"))

	res, err := u.lib.Answer(r.Context(), data.Question, data.FileID, data.TopK)
	if err != nil {
		status := statusFor(err)
		data.Error = err.Error()
		if status == http.StatusInternalServerError {
			u.logger.Error("UI question failed", "error", err)
			data.Error = "Something went wrong while answering."
		}
		u.render(w, r, status, data)
		return
	}

	var buf bytes.Buffer
	if err := u.md.Convert([]byte(res.Answer), &buf); err != nil {
		u.logger.Warn("Failed to render answer markdown", "error", err)
		buf.Reset()
		template.HTMLEscape(&buf, []byte(res.Answer))
	}
	data.Result = res
	data.AnswerHTML = template.HTML(buf.String())
	u.render(w, r, http.StatusOK, data)
}

func (u *ui) render(w http.ResponseWriter, r *http.Request, status int, data *pageData) {
	if data.TopK <= 0 {
		data.TopK = 10
	}
	docs, err := u.lib.Documents(r.Context())
	if err != nil {
		u.logger.Warn("Failed to list documents", "error", err)
	}
	data.Documents = docs

	var buf bytes.Buffer
	if err := u.tmpl.Execute(&buf, data); err != nil {
		u.logger.Error("Failed to render page", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
