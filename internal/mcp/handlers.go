package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/hpungsan/scribe/internal/config"
	"github.com/hpungsan/scribe/internal/errors"
	"github.com/hpungsan/scribe/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db     *sql.DB
	cfg    *config.Config
	logger *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config, logger *zap.Logger) *Handlers {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{db: db, cfg: cfg, logger: logger}
}

// ConvertRequest represents the arguments for minutes_convert.
type ConvertRequest struct {
	Log          string `json:"log,omitempty"`
	LogSource    string `json:"log_source,omitempty"`
	Nicknames    string `json:"nicknames,omitempty"`
	Date         string `json:"date,omitempty"`
	Meeting      string `json:"meeting,omitempty"`
	Jekyll       string `json:"jekyll,omitempty"`
	IRCFormat    string `json:"irc_format,omitempty"`
	GHRepo       string `json:"ghrepo,omitempty"`
	IssueRepo    string `json:"issuerepo,omitempty"`
	ACRepo       string `json:"acrepo,omitempty"`
	ACURLPattern string `json:"acurlpattern,omitempty"`
	Agenda       string `json:"agenda,omitempty"`
	Final        bool   `json:"final,omitempty"`
	Pandoc       bool   `json:"pandoc,omitempty"`
	Auto         bool   `json:"auto,omitempty"`
	HTML         bool   `json:"html,omitempty"`
	Write        bool   `json:"write,omitempty"`
	OutputPath   string `json:"output_path,omitempty"`
}

// ConvertResponse is the minutes_convert result.
type ConvertResponse struct {
	*ops.ConvertOutput
	Written *ops.WriteOutput `json:"written,omitempty"`
}

// ActionsListRequest represents the arguments for actions_list.
type ActionsListRequest struct {
	Date          string `json:"date,omitempty"`
	Meeting       string `json:"meeting,omitempty"`
	Assignee      string `json:"assignee,omitempty"`
	IncludeClosed bool   `json:"include_closed,omitempty"`
	Limit         int    `json:"limit,omitempty"`
	Offset        int    `json:"offset,omitempty"`
}

// ActionsCloseRequest represents the arguments for actions_close.
type ActionsCloseRequest struct {
	ID string `json:"id"`
}

// HandleConvert handles the minutes_convert tool call.
func (h *Handlers) HandleConvert(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ConvertRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	// Request options overlay the configuration; path settings stay with the config.
	cfg := config.Merge(h.cfg, &config.Config{
		Jekyll:       input.Jekyll,
		IRCFormat:    input.IRCFormat,
		GHRepo:       input.GHRepo,
		IssueRepo:    input.IssueRepo,
		ACRepo:       input.ACRepo,
		ACURLPattern: input.ACURLPattern,
		Agenda:       input.Agenda,
		Final:        input.Final,
		Pandoc:       input.Pandoc,
		Auto:         input.Auto,
	})

	loader := ops.NewLoader(cfg, h.logger)
	loader.Stdin = nil
	loader.Restricted = true

	result, err := ops.Convert(ctx, h.db, cfg, loader, ops.ConvertInput{
		Log:       input.Log,
		LogSource: input.LogSource,
		Nicknames: input.Nicknames,
		Date:      input.Date,
		Meeting:   input.Meeting,
		HTML:      input.HTML,
		Logger:    h.logger,
	})
	if err != nil {
		return errorResult(err), nil
	}

	resp := ConvertResponse{ConvertOutput: result}
	if input.Write || input.OutputPath != "" {
		html := isHTMLPath(input.OutputPath) || (input.OutputPath == "" && input.HTML)
		content := result.Markdown
		if html {
			if result.HTML == "" {
				if result.HTML, err = ops.RenderHTML(result.Markdown); err != nil {
					return errorResult(err), nil
				}
			}
			content = result.HTML
		}
		written, err := ops.WriteMinutes(ctx, cfg, ops.WriteInput{
			Path:    input.OutputPath,
			Content: content,
			Date:    result.Date,
			Meeting: result.Meeting,
			HTML:    html,
		})
		if err != nil {
			return errorResult(err), nil
		}
		resp.Written = written
	}

	return successResult(resp)
}

// HandleActionsList handles the actions_list tool call.
func (h *Handlers) HandleActionsList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ActionsListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ListActions(h.db, ops.ListActionsInput{
		Date:          input.Date,
		Meeting:       input.Meeting,
		Assignee:      input.Assignee,
		IncludeClosed: input.IncludeClosed,
		Limit:         input.Limit,
		Offset:        input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleActionsClose handles the actions_close tool call.
func (h *Handlers) HandleActionsClose(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ActionsCloseRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.CloseAction(h.db, ops.CloseActionInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// errorResult creates an MCP error result. INTERNAL errors carry no details
// so file paths and SQL errors are not leaked to the client.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var sErr *errors.ScribeError
	if stderrors.As(err, &sErr) {
		// Keep wrapping context such as "nicknames: ..." in the message.
		message := sErr.Message
		if err != error(sErr) {
			message = err.Error()
		}
		errorObj := map[string]any{
			"code":    sErr.Code,
			"message": message,
			"status":  sErr.Status,
		}
		if sErr.Code == errors.ErrInternal {
			errorObj["message"] = "an internal error occurred"
		} else if sErr.Details != nil {
			errorObj["details"] = sErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}

func isHTMLPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".html")
}
