package sheets

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/config"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/logger"
	"google.golang.org/api/option"
)

const defaultCallTimeout = 15 * time.Second

var (
	spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)
	bareIDPattern        = regexp.MustCompile(`^[a-zA-Z0-9_-]{10,}$`)

	errClientNotInitialized = errors.New("sheets client not initialized")
)

// Observer receives one callback per provider call.
type Observer interface {
	ObserveSheetCall(op string, took time.Duration, kind Kind)
}

// Pinger is satisfied by *Client for readiness checks.
type Pinger interface {
	Ping(context.Context) error
}

// Client is an open handle on one spreadsheet.
type Client struct {
	api           API
	spreadsheetID string
	title         string
	timeout       time.Duration
	idColumn      string
	observer      Observer
	now           func() time.Time
}

// Options tune a Client. Zero values fall back to defaults.
type Options struct {
	CallTimeout time.Duration
	IDColumn    string
	Observer    Observer
	Now         func() time.Time
}

// ParseSpreadsheetID extracts the document id from a sheet URL. A bare id is
// accepted as-is.
func ParseSpreadsheetID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &Error{Kind: KindConnection, Op: "connect", Err: errors.New("spreadsheet url is required")}
	}
	if m := spreadsheetIDPattern.FindStringSubmatch(raw); len(m) == 2 {
		return m[1], nil
	}
	if bareIDPattern.MatchString(raw) {
		return raw, nil
	}
	return "", &Error{Kind: KindConnection, Op: "connect", Err: fmt.Errorf("no spreadsheet id in %q", raw)}
}

// NewClient builds the production API from the sheets config and connects.
func NewClient(ctx context.Context, cfg config.SheetsConfig, observer Observer, logg *logger.Logger) (*Client, error) {
	api, err := NewGoogleAPI(ctx, clientOptions(cfg)...)
	if err != nil {
		return nil, &Error{Kind: KindConnection, Op: "connect", Err: err}
	}
	client, err := Connect(ctx, api, cfg.SpreadsheetURL, Options{
		CallTimeout: cfg.CallTimeout,
		IDColumn:    cfg.IDColumn,
		Observer:    observer,
	})
	if err != nil {
		return nil, err
	}
	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{
			"spreadsheet_id": client.spreadsheetID,
			"title":          client.title,
		})
		logg.Info(ctx, "sheets client initialized")
	}
	return client, nil
}

func clientOptions(cfg config.SheetsConfig) []option.ClientOption {
	var opts []option.ClientOption
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	return opts
}

// Connect resolves the spreadsheet behind url and verifies it is reachable.
func Connect(ctx context.Context, api API, url string, opts Options) (*Client, error) {
	if api == nil {
		return nil, &Error{Kind: KindConnection, Op: "connect", Err: errClientNotInitialized}
	}
	id, err := ParseSpreadsheetID(url)
	if err != nil {
		return nil, err
	}
	c := &Client{
		api:           api,
		spreadsheetID: id,
		timeout:       opts.CallTimeout,
		idColumn:      opts.IDColumn,
		observer:      opts.Observer,
		now:           opts.Now,
	}
	if c.timeout <= 0 {
		c.timeout = defaultCallTimeout
	}
	if c.now == nil {
		c.now = time.Now
	}

	meta, err := c.metadata(ctx, "connect")
	if err != nil {
		if typed := (*Error)(nil); errors.As(err, &typed) && typed.Kind != KindTimeout {
			typed.Kind = KindConnection
		}
		return nil, err
	}
	c.title = meta.Title
	return c, nil
}

// SpreadsheetID returns the resolved document id.
func (c *Client) SpreadsheetID() string {
	if c == nil {
		return ""
	}
	return c.spreadsheetID
}

// Title returns the spreadsheet title captured at connect time.
func (c *Client) Title() string {
	if c == nil {
		return ""
	}
	return c.title
}

// Ping re-reads the spreadsheet metadata.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.api == nil {
		return errClientNotInitialized
	}
	_, err := c.metadata(ctx, "ping")
	return err
}

// OpenTab returns a handle on the named worksheet.
func (c *Client) OpenTab(ctx context.Context, name string) (*Tab, error) {
	if c == nil || c.api == nil {
		return nil, errClientNotInitialized
	}
	if strings.TrimSpace(name) == "" {
		return nil, invalid("open_tab", name, "tab name is required")
	}
	meta, err := c.metadata(ctx, "open_tab")
	if err != nil {
		return nil, err
	}
	tabMeta, ok := meta.Lookup(name)
	if !ok {
		return nil, &Error{Kind: KindNotFound, Op: "open_tab", Tab: name, Err: fmt.Errorf("no tab named %q", name)}
	}
	return &Tab{client: c, meta: tabMeta}, nil
}

// Tabs lists the worksheet titles in display order.
func (c *Client) Tabs(ctx context.Context) ([]string, error) {
	if c == nil || c.api == nil {
		return nil, errClientNotInitialized
	}
	meta, err := c.metadata(ctx, "list_tabs")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(meta.Tabs))
	for _, tab := range meta.Tabs {
		out = append(out, tab.Title)
	}
	return out, nil
}

func (c *Client) metadata(ctx context.Context, op string) (*Metadata, error) {
	var meta *Metadata
	err := c.call(ctx, op, "", KindConnection, func(ctx context.Context) error {
		var err error
		meta, err = c.api.Metadata(ctx, c.spreadsheetID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return meta, nil
}

// call runs fn under the per-call deadline and converts its error.
func (c *Client) call(ctx context.Context, op, tab string, kind Kind, fn func(context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := c.now()
	err := fn(callCtx)
	var typed *Error
	if err != nil {
		typed = classify(kind, op, tab, err)
	}
	if c.observer != nil {
		var observed Kind
		if typed != nil {
			observed = typed.Kind
		}
		c.observer.ObserveSheetCall(op, c.now().Sub(start), observed)
	}
	if typed != nil {
		return typed
	}
	return nil
}
