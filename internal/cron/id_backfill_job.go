package cron

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/logger"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/sheets"
	"go.uber.org/multierr"
)

// IDBackfillJobName is the job label used in logs and metrics.
const IDBackfillJobName = "id-backfill"

type tabOpener interface {
	OpenTab(ctx context.Context, name string) (*sheets.Tab, error)
}

type generationBumper interface {
	BumpGeneration(ctx context.Context, tab string) (int64, error)
}

// IDBackfillJobParams configures the synthetic ID backfill.
type IDBackfillJobParams struct {
	Logger   *logger.Logger
	Sheets   tabOpener
	Cache    generationBumper
	Tab      string
	IDColumn string
}

// NewIDBackfillJob constructs the job that gives every row without an ID a
// fresh UUID.
func NewIDBackfillJob(params IDBackfillJobParams) (*IDBackfillJob, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sheets == nil {
		return nil, fmt.Errorf("sheets client required")
	}
	if strings.TrimSpace(params.Tab) == "" {
		return nil, fmt.Errorf("tab required")
	}
	return &IDBackfillJob{
		logg:     params.Logger,
		sheets:   params.Sheets,
		cache:    params.Cache,
		tab:      params.Tab,
		idColumn: strings.TrimSpace(params.IDColumn),
		newID:    uuid.NewString,
	}, nil
}

// IDBackfillJob writes UUIDs into empty ID cells. Tabs without the ID column
// are left alone.
type IDBackfillJob struct {
	logg     *logger.Logger
	sheets   tabOpener
	cache    generationBumper
	tab      string
	idColumn string
	newID    func() string
}

func (j *IDBackfillJob) Name() string { return IDBackfillJobName }

func (j *IDBackfillJob) Run(ctx context.Context) error {
	_, err := j.Backfill(ctx)
	return err
}

// Backfill runs the job and reports how many rows received an ID.
func (j *IDBackfillJob) Backfill(ctx context.Context) (int, error) {
	logCtx := j.logg.WithTab(ctx, j.tab)
	if j.idColumn == "" {
		j.logg.Info(logCtx, "no id column configured; backfill skipped")
		return 0, nil
	}

	tab, err := j.sheets.OpenTab(ctx, j.tab)
	if err != nil {
		return 0, fmt.Errorf("open tab: %w", err)
	}
	snap, err := tab.ReadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("read tab: %w", err)
	}
	if !snap.HasColumn(j.idColumn) {
		j.logg.Info(j.logg.WithField(logCtx, "id_column", j.idColumn), "tab has no id column; backfill skipped")
		return 0, nil
	}

	filled := 0
	var errs error
	for _, row := range snap.Rows {
		if row.ID != "" || blank(row.Values) {
			continue
		}
		patch := sheets.Patch{Values: sheets.Record{j.idColumn: j.newID()}}
		if err := tab.UpdateRow(ctx, row.Number, patch); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("row %d: %w", row.Number, err))
			break
		}
		filled++
	}

	if filled > 0 && j.cache != nil {
		if _, err := j.cache.BumpGeneration(ctx, j.tab); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("invalidate cache: %w", err))
		}
	}
	j.logg.Info(j.logg.WithField(logCtx, "filled", filled), "id backfill complete")
	return filled, errs
}

func blank(rec sheets.Record) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
