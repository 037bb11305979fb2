package web

import (
	"database/sql"
	stderrors "errors"
	"html/template"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hpungsan/scribe/internal/config"
	"github.com/hpungsan/scribe/internal/errors"
	"github.com/hpungsan/scribe/internal/ops"
)

// Handlers contains HTTP route handlers for the web UI and API.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	renderer *Renderer
	logger   *zap.Logger
}

// HandleConvertForm handles GET /convert: the conversion form.
func (h *Handlers) HandleConvertForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, "convert", ConvertPageData{
		PageData: PageData{
			Title:   "Convert",
			Version: h.renderer.version,
			Nav:     "convert",
		},
		Date:        h.cfg.Date,
		Meeting:     h.cfg.Meeting,
		Jekyll:      h.cfg.Jekyll,
		JekyllModes: []string{"none", "md", "kd"},
		Final:       h.cfg.Final,
		Auto:        h.cfg.Auto,
	})
}

// HandleConvert handles POST /convert. The log comes from the "log" or
// "log_source" form fields, or is the raw request body for non-form
// requests. The response is rendered minutes, markdown or JSON depending on
// the "format" parameter and the Accept header.
func (h *Handlers) HandleConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, ops.MaxSourceBytes)

	var input ops.ConvertInput
	if isForm(r) {
		if err := r.ParseMultipartForm(ops.MaxSourceBytes); err != nil && !stderrors.Is(err, http.ErrNotMultipart) {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form: "+err.Error()))
			return
		}
		input.Log = r.FormValue("log")
		input.LogSource = strings.TrimSpace(r.FormValue("log_source"))
	} else {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("cannot read request body: "+err.Error()))
			return
		}
		input.Log = string(body)
	}
	input.Nicknames = strings.TrimSpace(r.FormValue("nicknames"))
	input.Date = strings.TrimSpace(r.FormValue("date"))
	input.Meeting = strings.TrimSpace(r.FormValue("meeting"))
	input.Logger = h.logger

	format := outputFormat(r)
	input.HTML = format == "html"

	// Request options overlay the configuration; path settings stay with the config.
	cfg := config.Merge(h.cfg, &config.Config{
		Jekyll:       r.FormValue("jekyll"),
		IRCFormat:    r.FormValue("irc_format"),
		GHRepo:       r.FormValue("ghrepo"),
		IssueRepo:    r.FormValue("issuerepo"),
		ACRepo:       r.FormValue("acrepo"),
		ACURLPattern: r.FormValue("acurlpattern"),
		Agenda:       r.FormValue("agenda"),
		Final:        parseBool(r.FormValue("final")),
		Pandoc:       parseBool(r.FormValue("pandoc")),
		Auto:         parseBool(r.FormValue("auto")),
	})

	loader := ops.NewLoader(cfg, h.logger)
	loader.Stdin = nil
	loader.Restricted = true

	result, err := ops.Convert(r.Context(), h.db, cfg, loader, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	switch format {
	case "json":
		renderJSON(w, http.StatusOK, result)
	case "markdown":
		renderMarkdown(w, result.Markdown)
	default:
		h.renderer.renderPage(w, "minutes", MinutesPageData{
			PageData: PageData{
				Title:   result.Meeting + " · " + result.Date,
				Version: h.renderer.version,
				Nav:     "convert",
			},
			Result:       result,
			RenderedHTML: template.HTML(result.HTML),
		})
	}
}

// HandleActions handles GET /actions: recorded action items.
func (h *Handlers) HandleActions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	input := ops.ListActionsInput{
		Date:          q.Get("date"),
		Meeting:       q.Get("meeting"),
		Assignee:      q.Get("assignee"),
		IncludeClosed: parseBool(q.Get("include_closed")),
		Limit:         parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:        parseIntParam(r, "offset", 0),
	}

	result, err := ops.ListActions(h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	// Filters without the offset, for the pagination links
	filters := url.Values{}
	for _, key := range []string{"date", "meeting", "assignee", "include_closed", "limit"} {
		if v := q.Get(key); v != "" {
			filters.Set(key, v)
		}
	}

	h.renderer.renderPage(w, "actions", ActionsPageData{
		PageData: PageData{
			Title:   "Actions",
			Version: h.renderer.version,
			Nav:     "actions",
		},
		Items:      result.Items,
		Pagination: result.Pagination,
		Date:       input.Date,
		Meeting:    input.Meeting,
		Assignee:   input.Assignee,
		Closed:     input.IncludeClosed,
		Query:      template.URL(filters.Encode()),
	})
}

// HandleCloseAction handles POST /actions/{id}/close.
func (h *Handlers) HandleCloseAction(w http.ResponseWriter, r *http.Request) {
	result, err := ops.CloseAction(h.db, ops.CloseActionInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	http.Redirect(w, r, "/actions", http.StatusSeeOther)
}

// outputFormat picks "json", "markdown" or "html" from the format
// parameter, then the Accept header.
func outputFormat(r *http.Request) string {
	switch f := r.FormValue("format"); f {
	case "json", "markdown", "html":
		return f
	case "md":
		return "markdown"
	}
	accept := r.Header.Get("Accept")
	switch {
	case strings.Contains(accept, "application/json"):
		return "json"
	case strings.Contains(accept, "text/markdown"):
		return "markdown"
	}
	return "html"
}

// isForm reports whether the request body is an HTML form.
func isForm(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data"
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBool parses a checkbox or query flag.
func parseBool(s string) bool {
	return s == "true" || s == "1" || s == "on"
}
