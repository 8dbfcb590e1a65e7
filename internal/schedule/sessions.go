package schedule

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/gustavosantosASA/Florestal-App-PPR/internal/filters"
	pkgerrors "github.com/gustavosantosASA/Florestal-App-PPR/pkg/errors"
	redisclient "github.com/gustavosantosASA/Florestal-App-PPR/pkg/redis"
)

func (s *service) GetSelection(ctx context.Context, actor Actor, sessionID string) (*FilterResult, error) {
	sel := s.loadSelection(ctx, sessionID)
	return s.evaluate(ctx, actor, sel)
}

// ChangeSelection sets one column, resets every later column and persists the
// result for the session.
func (s *service) ChangeSelection(ctx context.Context, actor Actor, sessionID, column, value string) (*FilterResult, error) {
	sel := s.loadSelection(ctx, sessionID)
	next, err := s.engine.OnSelectionChanged(sel, column, value)
	if err != nil {
		return nil, selectionErr(err)
	}
	if err := s.saveSelection(ctx, sessionID, next); err != nil {
		return nil, err
	}
	return s.evaluate(ctx, actor, next)
}

// ResetSelection forgets the persisted selection of a session.
func (s *service) ResetSelection(ctx context.Context, sessionID string) error {
	if s.sessions == nil || strings.TrimSpace(sessionID) == "" {
		return nil
	}
	if err := s.sessions.Del(ctx, s.sessions.FilterSessionKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clearing filter session")
	}
	return nil
}

// MoveSelection carries the persisted selection of one session over to
// another. A session with nothing stored moves nothing.
func (s *service) MoveSelection(ctx context.Context, fromSessionID, toSessionID string) error {
	if s.sessions == nil || strings.TrimSpace(fromSessionID) == "" || strings.TrimSpace(toSessionID) == "" || fromSessionID == toSessionID {
		return nil
	}
	fromKey := s.sessions.FilterSessionKey(fromSessionID)
	raw, err := s.sessions.Get(ctx, fromKey)
	if err != nil {
		if redisclient.IsMiss(err) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading filter session")
	}
	if err := s.sessions.Set(ctx, s.sessions.FilterSessionKey(toSessionID), raw, s.sessionTTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving filter session")
	}
	if err := s.sessions.Del(ctx, fromKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clearing filter session")
	}
	return nil
}

func (s *service) evaluate(ctx context.Context, actor Actor, sel filters.Selection) (*FilterResult, error) {
	view, err := s.LoadVisibleRows(ctx, actor)
	if err != nil {
		return nil, err
	}
	rows := filters.ApplySelection(view.Header, view.Rows, sel)
	filtered := view.withRows(rows)
	return &FilterResult{
		Selection:          sel,
		Options:            s.engine.AllOptions(view.Header, view.Rows, sel),
		Header:             view.Header,
		Rows:               filtered.Rows,
		Count:              filtered.Count(),
		OwnerColumnMissing: view.OwnerColumnMissing,
	}, nil
}

// loadSelection falls back to an all-"Todos" selection when nothing usable is
// stored.
func (s *service) loadSelection(ctx context.Context, sessionID string) filters.Selection {
	fresh := s.engine.NewSelection()
	if s.sessions == nil || strings.TrimSpace(sessionID) == "" {
		return fresh
	}
	raw, err := s.sessions.Get(ctx, s.sessions.FilterSessionKey(sessionID))
	if err != nil {
		if !redisclient.IsMiss(err) && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "filter session unavailable; starting fresh")
		}
		return fresh
	}
	var stored filters.Selection
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return fresh
	}
	sel, err := s.engine.ParseSelection(stored.Map())
	if err != nil {
		return fresh
	}
	return sel
}

func (s *service) saveSelection(ctx context.Context, sessionID string, sel filters.Selection) error {
	if s.sessions == nil || strings.TrimSpace(sessionID) == "" {
		return nil
	}
	data, err := json.Marshal(sel)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding filter session")
	}
	if err := s.sessions.Set(ctx, s.sessions.FilterSessionKey(sessionID), string(data), s.sessionTTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving filter session")
	}
	return nil
}
