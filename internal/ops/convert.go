package ops

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hpungsan/scribe/internal/config"
	"github.com/hpungsan/scribe/internal/db"
	"github.com/hpungsan/scribe/internal/errors"
	"github.com/hpungsan/scribe/internal/minutes"
	"github.com/hpungsan/scribe/internal/nick"
)

// ConvertInput contains parameters for the Convert operation.
type ConvertInput struct {
	Log        string // inline transcript; takes precedence over LogSource
	LogSource  string // path, "-" or URL
	Nicknames  string // nickname table source; overrides the configured one
	Date       string // default: config date, then today
	Meeting    string // fallback meeting name; overrides the configured one
	OrigIRCLog string // link to the raw log; defaults to LogSource when it is a URL
	HTML       bool   // also render the minutes to HTML
	Logger     *zap.Logger
}

// ConvertOutput contains the result of the Convert operation.
type ConvertOutput struct {
	Markdown    string               `json:"markdown"`
	HTML        string               `json:"html,omitempty"`
	Format      minutes.Format       `json:"format"`
	Meeting     string               `json:"meeting"`
	Date        string               `json:"date"`
	Headers     *minutes.Headers     `json:"headers"`
	TOC         []minutes.TOCEntry   `json:"toc"`
	Resolutions []minutes.Resolution `json:"resolutions"`
	Actions     []minutes.Action     `json:"actions"`
	Recorded    []*db.ActionItem     `json:"recorded,omitempty"`
}

// Convert loads a transcript and its nickname table, converts it to minutes
// and, when auto is configured and an action store is available, records the
// actions raised in it.
func Convert(ctx context.Context, database *sql.DB, cfg *config.Config, loader *Loader, input ConvertInput) (*ConvertOutput, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if loader == nil {
		loader = NewLoader(cfg, input.Logger)
	}
	logger := input.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	date, err := resolveDate(input.Date, cfg.Date)
	if err != nil {
		return nil, err
	}

	if input.Log == "" && strings.TrimSpace(input.LogSource) == "" {
		return nil, errors.NewMissingInput("IRC log")
	}

	raw := input.Log
	var table []nick.Identity

	g, gctx := errgroup.WithContext(ctx)
	if raw == "" {
		g.Go(func() error {
			var err error
			raw, err = loader.LoadLog(gctx, input.LogSource)
			return err
		})
	}
	if source := firstNonEmpty(input.Nicknames, cfg.Nicknames); source != "" {
		nickLoader := loader
		if input.Nicknames == "" && loader.Restricted {
			// The configured table is trusted even for restricted callers.
			trusted := *loader
			trusted.Restricted = false
			nickLoader = &trusted
		}
		g.Go(func() error {
			var err error
			table, err = nickLoader.LoadNicknames(gctx, source)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, errors.NewCancelled("convert")
	}

	origLog := input.OrigIRCLog
	if origLog == "" && IsURL(input.LogSource) {
		origLog = input.LogSource
	}

	opts := minutes.Options{
		Date:         date,
		Jekyll:       minutes.JekyllMode(cfg.Jekyll),
		Pandoc:       cfg.Pandoc,
		Final:        cfg.Final,
		Auto:         cfg.Auto,
		IRCFormat:    minutes.Format(cfg.IRCFormat),
		GHRepo:       cfg.GHRepo,
		IssueRepo:    cfg.IssueRepo,
		ACRepo:       cfg.ACRepo,
		ACURLPattern: cfg.ACURLPattern,
		Agenda:       cfg.Agenda,
		OrigIRCLog:   origLog,
		Meeting:      firstNonEmpty(input.Meeting, cfg.Meeting),
		Logger:       logger,
	}

	var recorder *ActionRecorder
	var tracker minutes.ActionTracker
	if cfg.Auto {
		if database != nil {
			recorder = NewActionRecorder(cfg.ACRepo, firstNonEmpty(origLog, input.LogSource))
			tracker = recorder
		} else {
			logger.Warn("action recording skipped: no action store")
		}
	}

	res := minutes.NewConverter(opts, table, tracker).Convert(raw)

	out := &ConvertOutput{
		Markdown:    res.Markdown,
		Format:      res.Format,
		Meeting:     res.Meeting,
		Date:        res.Headers.Date,
		Headers:     res.Headers,
		TOC:         res.TOC,
		Resolutions: res.Resolutions,
		Actions:     res.Actions,
	}

	if recorder != nil {
		recorded, err := recorder.Commit(ctx, database, res.Meeting)
		if err != nil {
			return nil, err
		}
		out.Recorded = recorded
		logger.Info("actions recorded", zap.String("meeting", res.Meeting), zap.Int("count", len(recorded)))
	}

	if input.HTML {
		rendered, err := RenderHTML(res.Markdown)
		if err != nil {
			return nil, err
		}
		out.HTML = rendered
	}

	return out, nil
}

// resolveDate picks the explicit date, then the configured one, then today.
func resolveDate(explicit, configured string) (string, error) {
	date := firstNonEmpty(strings.TrimSpace(explicit), configured)
	if date == "" {
		return time.Now().Format(time.DateOnly), nil
	}
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return "", errors.NewInvalidRequest("date must be YYYY-MM-DD")
	}
	return date, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
