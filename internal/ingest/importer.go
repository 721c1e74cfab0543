package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/i474232898/energy-climate-stats/internal/common"
	"github.com/i474232898/energy-climate-stats/internal/energy"
	"github.com/i474232898/energy-climate-stats/internal/temperature"
)

// Kind identifies which table a CSV file feeds.
type Kind string

const (
	KindEnergy      Kind = "energy"
	KindForecast    Kind = "forecast"
	KindTemperature Kind = "temperature"
)

// DoneSuffix is appended to files that were imported by ImportDir.
const DoneSuffix = ".done"

// Sink is the write side of the store.
type Sink interface {
	UpsertEnergy(ctx context.Context, records []energy.Record) (int, error)
	UpsertForecast(ctx context.Context, forecasts []energy.Forecast) (int, error)
	UpsertTemperature(ctx context.Context, records []temperature.Record) (int, error)
}

// Result summarizes one imported file.
type Result struct {
	RunID    string `json:"runId"`
	File     string `json:"file,omitempty"`
	Kind     Kind   `json:"kind"`
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
}

// Importer loads CSV exports into a Sink.
type Importer struct {
	sink Sink
}

// NewImporter creates a new Importer.
func NewImporter(sink Sink) *Importer {
	return &Importer{sink: sink}
}

// KindOf infers the kind of a CSV file from its name.
func KindOf(name string) (Kind, bool) {
	base := strings.ToLower(filepath.Base(name))
	if filepath.Ext(base) != ".csv" {
		return "", false
	}
	switch {
	case common.HasAny(base, "forecast", "predict", "예측"):
		return KindForecast, true
	case common.HasAny(base, "temperature", "temp", "기온"):
		return KindTemperature, true
	case common.HasAny(base, "energy", "에너지"):
		return KindEnergy, true
	default:
		return "", false
	}
}

// Import parses r as kind and writes every valid row.
func (im *Importer) Import(ctx context.Context, kind Kind, r io.Reader) (Result, error) {
	res := Result{RunID: uuid.NewString(), Kind: kind}

	var err error
	switch kind {
	case KindEnergy:
		var records []energy.Record
		if records, res.Skipped, err = ParseEnergy(r); err == nil {
			res.Imported, err = im.sink.UpsertEnergy(ctx, records)
		}
	case KindForecast:
		var forecasts []energy.Forecast
		if forecasts, res.Skipped, err = ParseForecast(r); err == nil {
			res.Imported, err = im.sink.UpsertForecast(ctx, forecasts)
		}
	case KindTemperature:
		var records []temperature.Record
		if records, res.Skipped, err = ParseTemperature(r); err == nil {
			res.Imported, err = im.sink.UpsertTemperature(ctx, records)
		}
	default:
		return res, fmt.Errorf("unknown import kind %q", kind)
	}
	if err != nil {
		return res, fmt.Errorf("import %s: %w", kind, err)
	}

	log.Info().
		Str("run_id", res.RunID).
		Str("kind", string(kind)).
		Int("imported", res.Imported).
		Int("skipped", res.Skipped).
		Msg("csv import finished")
	return res, nil
}

// ImportFile imports a single file, inferring its kind from the name.
func (im *Importer) ImportFile(ctx context.Context, path string) (Result, error) {
	kind, ok := KindOf(path)
	if !ok {
		return Result{File: path}, fmt.Errorf("cannot infer import kind from %q", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return Result{File: path, Kind: kind}, err
	}
	defer f.Close()

	res, err := im.Import(ctx, kind, f)
	res.File = path
	return res, err
}

// ImportDir imports every recognised CSV file in dir in name order and marks
// each imported file by renaming it with DoneSuffix. A failing file is left in
// place and does not stop the others.
func (im *Importer) ImportDir(ctx context.Context, dir string) ([]Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read import dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if _, ok := KindOf(e.Name()); ok {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var (
		results []Result
		errs    []error
	)
	for _, name := range names {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		path := filepath.Join(dir, name)
		res, err := im.ImportFile(ctx, path)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("csv import failed")
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if err := os.Rename(path, path+DoneSuffix); err != nil {
			errs = append(errs, fmt.Errorf("mark %s imported: %w", name, err))
		}
		results = append(results, res)
	}

	return results, errors.Join(errs...)
}
