package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/i474232898/energy-climate-stats/internal/energy"
	"github.com/i474232898/energy-climate-stats/internal/store"
	"github.com/i474232898/energy-climate-stats/internal/temperature"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestKindOf(t *testing.T) {
	cases := map[string]Kind{
		"energy_2023.csv":          KindEnergy,
		"/data/ENERGY.CSV":         KindEnergy,
		"energy_forecast_2024.csv": KindForecast,
		"monthly_temperature.csv":  KindTemperature,
		"시군구_에너지사용량.csv":           KindEnergy,
	}
	for name, want := range cases {
		got, ok := KindOf(name)
		if !ok || got != want {
			t.Errorf("KindOf(%q) = %q, %v; want %q", name, got, ok, want)
		}
	}

	for _, name := range []string{"energy.txt", "readme.csv", "energy.csv.done"} {
		if _, ok := KindOf(name); ok {
			t.Errorf("KindOf(%q) should not match", name)
		}
	}
}

func TestImportWritesToSink(t *testing.T) {
	mem := store.NewMemoryStore()
	im := NewImporter(mem)
	ctx := context.Background()

	data := "year_month,county_id,use_elect,use_gas\n202301,11010,100,10\n202301,,1,1\n"
	res, err := im.Import(ctx, KindEnergy, strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Imported != 1 || res.Skipped != 1 {
		t.Errorf("expected 1 imported and 1 skipped, got %+v", res)
	}
	if res.RunID == "" {
		t.Error("expected a run id")
	}

	got, err := mem.CountyEnergy(ctx, &energy.Filter{CountyID: 11010})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].CityID != 11 || got[0].UseElect != 100 {
		t.Errorf("unexpected stored rows: %+v", got)
	}
}

func TestImportUnknownKind(t *testing.T) {
	im := NewImporter(store.NewMemoryStore())
	if _, err := im.Import(context.Background(), Kind("wind"), strings.NewReader("")); err == nil {
		t.Fatal("expected an error for an unknown kind")
	}
}

func TestImportDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "energy_2023.csv", "year_month,county_id,use_elect,use_gas\n202301,11010,100,10\n")
	writeFile(t, dir, "temperature_2023.csv", "year_month,city_id,avg_temp\n202301,11,-2.5\n")
	writeFile(t, dir, "energy_broken.csv", "foo,bar\n1,2\n")
	writeFile(t, dir, "notes.txt", "ignored")

	mem := store.NewMemoryStore()
	results, err := NewImporter(mem).ImportDir(context.Background(), dir)
	if err == nil {
		t.Fatal("expected the broken file to be reported")
	}
	if !errors.Is(err, ErrUnknownLayout) {
		t.Errorf("expected ErrUnknownLayout in joined error, got %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	for _, name := range []string{"energy_2023.csv", "temperature_2023.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name+DoneSuffix)); err != nil {
			t.Errorf("expected %s to be marked done: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "energy_broken.csv")); err != nil {
		t.Errorf("expected broken file to stay in place: %v", err)
	}

	temps, err := mem.CityTemperature(context.Background(), &temperature.Filter{CityID: 11})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(temps) != 1 || temps[0].AvgTemp != -2.5 {
		t.Errorf("unexpected temperatures: %+v", temps)
	}
}

func TestImportDirSkipsDoneFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "energy_2023.csv", "year_month,county_id,use_elect\n202301,11010,100\n")

	im := NewImporter(store.NewMemoryStore())
	if _, err := im.ImportDir(context.Background(), dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results, err := im.ImportDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected nothing to import on the second run, got %d results", len(results))
	}
}

func TestImportDirMissing(t *testing.T) {
	im := NewImporter(store.NewMemoryStore())
	if _, err := im.ImportDir(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}

func TestImportTemperatureKeepsNationalRowComputed(t *testing.T) {
	mem := store.NewMemoryStore()
	ctx := context.Background()

	data := "year_month,city_id,avg_temp,min_temp,max_temp\n" +
		"202307,,25,10,35\n" +
		"202307,11,26,20,33\n" +
		"202307,26,24,21,31\n"
	res, err := NewImporter(mem).Import(ctx, KindTemperature, strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Imported != 2 || res.Skipped != 1 {
		t.Fatalf("expected 2 imported and 1 skipped, got %+v", res)
	}

	country, err := mem.CountryTemperature(ctx, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(country) != 1 || country[0].MinTemp != 20 || country[0].MaxTemp != 33 {
		t.Fatalf("unexpected national aggregate: %+v", country)
	}

	cities, err := mem.CityTemperature(ctx, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range cities {
		if c.CityID == 0 {
			t.Fatalf("unexpected stored national row: %+v", c)
		}
	}
}
