package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spigell/greenskills/internal/report"
	"github.com/spigell/greenskills/internal/store"
	"github.com/spigell/greenskills/internal/table"

	"go.uber.org/zap"
)

// outputs writes result tables as CSV into the output directory and,
// depending on the config, into a workbook and a SQLite file.
type outputs struct {
	ctx      context.Context
	dir      string
	workbook string
	sheets   []report.Sheet
	store    *store.Store
	logger   *zap.Logger
}

// openOutputs prepares the sinks. workbook is the file name used with --xlsx.
func openOutputs(ctx context.Context, config *Config, workbook string, logger *zap.Logger) (*outputs, error) {
	o := &outputs{
		ctx:    ctx,
		dir:    config.Output,
		logger: logger,
	}
	if config.XLSX {
		o.workbook = workbook
	}

	if config.SQLite != "" {
		s, err := store.Open(ctx, config.SQLite, logger)
		if err != nil {
			return nil, err
		}
		o.store = s
	}

	return o, nil
}

func (o *outputs) path(file string) string {
	return filepath.Join(o.dir, file)
}

// write stores t as file under the output directory. name labels the table
// in the workbook and the SQLite file.
func (o *outputs) write(name, file string, t *table.Table) error {
	path := o.path(file)
	if err := t.WriteCSV(path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	o.logger.Info("table written", zap.String("table", name), zap.String("path", path), zap.Int("rows", t.Len()))

	if o.store != nil {
		if err := o.store.WriteTable(o.ctx, name, t); err != nil {
			return err
		}
	}
	if o.workbook != "" {
		o.sheets = append(o.sheets, report.Sheet{Name: name, Table: t})
	}
	return nil
}

// close saves the workbook and closes the SQLite file.
func (o *outputs) close() error {
	if o.store != nil {
		if err := o.store.Close(); err != nil {
			return fmt.Errorf("closing sqlite: %w", err)
		}
	}

	if o.workbook == "" || len(o.sheets) == 0 {
		return nil
	}

	path := o.path(o.workbook)
	if err := report.WriteWorkbook(path, o.sheets...); err != nil {
		return err
	}
	o.logger.Info("workbook written", zap.String("path", path), zap.Int("sheets", len(o.sheets)))
	return nil
}
