package schedule

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gustavosantosASA/Florestal-App-PPR/internal/audit"
	"github.com/gustavosantosASA/Florestal-App-PPR/internal/filters"
	pkgerrors "github.com/gustavosantosASA/Florestal-App-PPR/pkg/errors"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/logger"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/sheets"
)

// Service is the caller-facing contract over the schedule tab.
type Service interface {
	LoadVisibleRows(ctx context.Context, actor Actor) (*View, error)
	ParseSelection(values map[string]string) (filters.Selection, error)
	FilterOptions(ctx context.Context, actor Actor, sel filters.Selection) ([]filters.Options, error)
	ApplyFilters(ctx context.Context, actor Actor, sel filters.Selection) (*View, error)

	GetSelection(ctx context.Context, actor Actor, sessionID string) (*FilterResult, error)
	ChangeSelection(ctx context.Context, actor Actor, sessionID, column, value string) (*FilterResult, error)
	ResetSelection(ctx context.Context, sessionID string) error
	MoveSelection(ctx context.Context, fromSessionID, toSessionID string) error

	GetRow(ctx context.Context, actor Actor, ref RowRef) (*sheets.Row, error)
	AddRow(ctx context.Context, actor Actor, rec sheets.Record) (*sheets.Row, error)
	EditRow(ctx context.Context, actor Actor, ref RowRef, patch sheets.Record) (*sheets.Row, error)
	DeleteRow(ctx context.Context, actor Actor, ref RowRef) error

	Export(ctx context.Context, actor Actor, sel filters.Selection, w io.Writer) error
}

type tabOpener interface {
	OpenTab(ctx context.Context, name string) (*sheets.Tab, error)
}

// ServiceParams bundles the dependencies required to build a schedule service.
type ServiceParams struct {
	Sheets       tabOpener
	Cache        cacheStore
	CacheMetrics cacheObserver
	Engine       *filters.Engine
	Publisher    audit.Publisher
	Logger       *logger.Logger
	Tab          string
	IDColumn     string
	CacheTTL     time.Duration
	// SessionTTL bounds how long a persisted filter selection lives.
	SessionTTL time.Duration
}

type service struct {
	sheets     tabOpener
	cache      *viewCache
	sessions   cacheStore
	engine     *filters.Engine
	publisher  audit.Publisher
	logg       *logger.Logger
	tab        string
	idColumn   string
	sessionTTL time.Duration
	now        func() time.Time
}

// NewService constructs the schedule service. Cache may be nil, in which case
// every read goes to the sheet and filter sessions are not persisted.
func NewService(params ServiceParams) (Service, error) {
	if params.Sheets == nil {
		return nil, fmt.Errorf("sheets client is required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("filter engine is required")
	}
	if strings.TrimSpace(params.Tab) == "" {
		return nil, fmt.Errorf("schedule tab is required")
	}
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	var observer cacheObserver = noopCacheObserver{}
	if params.CacheMetrics != nil {
		observer = params.CacheMetrics
	}
	var publisher audit.Publisher = audit.NoopPublisher{}
	if params.Publisher != nil {
		publisher = params.Publisher
	}

	svc := &service{
		sheets:     params.Sheets,
		sessions:   params.Cache,
		engine:     params.Engine,
		publisher:  publisher,
		logg:       params.Logger,
		tab:        params.Tab,
		idColumn:   params.IDColumn,
		sessionTTL: params.SessionTTL,
		now:        time.Now,
	}
	if params.Cache != nil {
		svc.cache = &viewCache{store: params.Cache, ttl: ttl, metrics: observer, logg: params.Logger}
	}
	return svc, nil
}

func (s *service) LoadVisibleRows(ctx context.Context, actor Actor) (*View, error) {
	scope := actor.cacheScope()
	// The generation is read before the sheet so that a write landing during
	// the read leaves this entry under a stale generation.
	cached, gen, ok := s.cache.lookup(ctx, s.tab, scope)
	if ok {
		return cached.withRows(cached.Rows), nil
	}

	snap, err := s.readFresh(ctx)
	if err != nil {
		return nil, err
	}

	rows, missing := s.engine.ScopeByOwner(snap.Header, snap.Rows, actor.ownerEmail())
	if missing && s.logg != nil {
		logCtx := s.logg.WithTab(s.logg.WithLogin(ctx, actor.Login), s.tab)
		s.logg.Warn(logCtx, fmt.Sprintf("owner column %q missing; showing unscoped rows", s.engine.OwnerColumn()))
	}

	view := (&View{
		Header:             snap.Header,
		OwnerColumnMissing: missing,
		LoadedAt:           snap.LoadedAt,
	}).withRows(rows)
	s.cache.save(ctx, s.tab, gen, scope, view)
	return view, nil
}

func (s *service) ParseSelection(values map[string]string) (filters.Selection, error) {
	sel, err := s.engine.ParseSelection(values)
	if err != nil {
		return filters.Selection{}, selectionErr(err)
	}
	return sel, nil
}

func (s *service) FilterOptions(ctx context.Context, actor Actor, sel filters.Selection) ([]filters.Options, error) {
	view, err := s.LoadVisibleRows(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.engine.AllOptions(view.Header, view.Rows, sel), nil
}

func (s *service) ApplyFilters(ctx context.Context, actor Actor, sel filters.Selection) (*View, error) {
	view, err := s.LoadVisibleRows(ctx, actor)
	if err != nil {
		return nil, err
	}
	return view.withRows(filters.ApplySelection(view.Header, view.Rows, sel)), nil
}

func (s *service) readFresh(ctx context.Context) (*sheets.Snapshot, error) {
	tab, err := s.openTab(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := tab.ReadAll(ctx)
	if err != nil {
		return nil, sheets.AsAPIError(err, "loading schedule")
	}
	return snap, nil
}

func (s *service) openTab(ctx context.Context) (*sheets.Tab, error) {
	tab, err := s.sheets.OpenTab(ctx, s.tab)
	if err != nil {
		return nil, sheets.AsAPIError(err, fmt.Sprintf("tab %q unavailable", s.tab))
	}
	return tab, nil
}

func selectionErr(err error) error {
	if errors.Is(err, filters.ErrUnknownColumn) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "applying selection")
}
