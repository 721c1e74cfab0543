package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/i474232898/energy-climate-stats/internal/common"
	"github.com/i474232898/energy-climate-stats/internal/energy"
	"github.com/i474232898/energy-climate-stats/internal/temperature"
)

// ErrUnknownLayout is returned when required columns cannot be found in the header.
var ErrUnknownLayout = errors.New("csv headers do not match a known layout")

type column int

const (
	colYearMonth column = iota
	colCity
	colCounty
	colElect
	colGas
	colPreElect
	colPreGas
	colAvgTemp
	colMinTemp
	colMaxTemp
)

// candidates lists accepted header spellings per column, already normalized.
var candidates = map[column][]string{
	colYearMonth: {"yearmonth", "ym", "사용년월", "기준년월", "년월"},
	colCity:      {"cityid", "sidocd", "sidocode", "시도코드"},
	colCounty:    {"countyid", "sigcd", "sggcd", "sigungucd", "시군구코드"},
	colElect:     {"useelect", "elec", "eleckwh", "전력사용량", "전기사용량"},
	colGas:       {"usegas", "gas", "gasm3", "가스사용량"},
	colPreElect:  {"preelect", "predictelect"},
	colPreGas:    {"pregas", "predictgas"},
	colAvgTemp:   {"avgtemp", "avgta", "평균기온"},
	colMinTemp:   {"mintemp", "minta", "최저기온"},
	colMaxTemp:   {"maxtemp", "maxta", "최고기온"},
}

// layout maps columns to their index in a CSV row.
type layout map[column]int

func detectLayout(headers []string) layout {
	l := make(layout)
	for i, h := range headers {
		key := common.NormalizeHeader(h)
		for col, names := range candidates {
			if _, seen := l[col]; seen {
				continue
			}
			for _, name := range names {
				if key == name {
					l[col] = i
				}
			}
		}
	}
	return l
}

func (l layout) has(cols ...column) bool {
	for _, c := range cols {
		if _, ok := l[c]; !ok {
			return false
		}
	}
	return true
}

func (l layout) hasAny(cols ...column) bool {
	for _, c := range cols {
		if _, ok := l[c]; ok {
			return true
		}
	}
	return false
}

// cell returns the trimmed value of col in row, or "" when absent.
func (l layout) cell(row []string, col column) string {
	i, ok := l[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

var errBadRow = errors.New("malformed row")

// parseYearMonth accepts "202304", "2023-04", "2023.04.01" and similar.
func parseYearMonth(s string) (int, error) {
	d := common.OnlyDigits(s)
	if len(d) < 6 {
		return 0, errBadRow
	}
	ym, err := strconv.Atoi(d[:6])
	if err != nil {
		return 0, errBadRow
	}
	if m := ym % 100; m < 1 || m > 12 {
		return 0, errBadRow
	}
	return ym, nil
}

// parseCounty reduces a district code to its 5-digit form; 10-digit legal
// dong codes carry the district in their first five digits.
func parseCounty(s string) (int, error) {
	d := common.OnlyDigits(s)
	if d == "" {
		return 0, nil
	}
	if len(d) > 5 {
		d = d[:5]
	}
	return strconv.Atoi(d)
}

func parseID(s string) (int, error) {
	d := common.OnlyDigits(s)
	if d == "" {
		return 0, nil
	}
	return strconv.Atoi(d)
}

// parseAmount parses a number that may carry thousands separators.
// The second result is false for an empty cell.
func parseAmount(s string) (float64, bool, error) {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "-" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, errBadRow
	}
	return v, true, nil
}

// rows reads the header and yields every data row to fn. A row that fn
// rejects with errBadRow is counted as skipped.
func rows(r io.Reader, fn func(l layout, row []string) error, required func(layout) bool) (skipped int, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	l := detectLayout(headers)
	if !required(l) {
		return 0, fmt.Errorf("%w: %v", ErrUnknownLayout, headers)
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped++
				continue
			}
			return skipped, fmt.Errorf("failed to read CSV row: %w", err)
		}
		if err := fn(l, row); err != nil {
			if errors.Is(err, errBadRow) {
				skipped++
				continue
			}
			return skipped, err
		}
	}
	return skipped, nil
}

// ParseEnergy reads county-level usage rows. Rows without a county code are skipped.
func ParseEnergy(r io.Reader) ([]energy.Record, int, error) {
	var out []energy.Record
	skipped, err := rows(r, func(l layout, row []string) error {
		ym, err := parseYearMonth(l.cell(row, colYearMonth))
		if err != nil {
			return err
		}
		county, err := parseCounty(l.cell(row, colCounty))
		if err != nil || county == 0 {
			return errBadRow
		}
		city, err := parseID(l.cell(row, colCity))
		if err != nil {
			return errBadRow
		}
		if city == 0 {
			city = county / 1000
		}

		elect, hasElect, err := parseAmount(l.cell(row, colElect))
		if err != nil {
			return err
		}
		gas, hasGas, err := parseAmount(l.cell(row, colGas))
		if err != nil {
			return err
		}
		if !hasElect && !hasGas {
			return errBadRow
		}

		out = append(out, energy.Record{
			CityID:    city,
			CountyID:  county,
			YearMonth: ym,
			UseElect:  elect,
			UseGas:    gas,
		})
		return nil
	}, func(l layout) bool {
		return l.has(colYearMonth, colCounty) && l.hasAny(colElect, colGas)
	})
	return out, skipped, err
}

// ParseForecast reads predicted usage rows. Missing ids denote aggregate rows.
func ParseForecast(r io.Reader) ([]energy.Forecast, int, error) {
	var out []energy.Forecast
	skipped, err := rows(r, func(l layout, row []string) error {
		ym, err := parseYearMonth(l.cell(row, colYearMonth))
		if err != nil {
			return err
		}
		county, err := parseCounty(l.cell(row, colCounty))
		if err != nil {
			return errBadRow
		}
		city, err := parseID(l.cell(row, colCity))
		if err != nil {
			return errBadRow
		}
		if city == 0 && county != 0 {
			city = county / 1000
		}

		elect, hasElect, err := parseAmount(l.cell(row, colPreElect))
		if err != nil {
			return err
		}
		gas, hasGas, err := parseAmount(l.cell(row, colPreGas))
		if err != nil {
			return err
		}
		if !hasElect && !hasGas {
			return errBadRow
		}

		out = append(out, energy.Forecast{
			CityID:    city,
			CountyID:  county,
			YearMonth: ym,
			PreElect:  elect,
			PreGas:    gas,
		})
		return nil
	}, func(l layout) bool {
		return l.has(colYearMonth) && l.hasAny(colPreElect, colPreGas)
	})
	return out, skipped, err
}

// ParseTemperature reads monthly temperature rows. Rows without a city are
// skipped. Min and max default to the average when their columns are missing.
func ParseTemperature(r io.Reader) ([]temperature.Record, int, error) {
	var out []temperature.Record
	skipped, err := rows(r, func(l layout, row []string) error {
		ym, err := parseYearMonth(l.cell(row, colYearMonth))
		if err != nil {
			return err
		}
		city, err := parseID(l.cell(row, colCity))
		if err != nil || city == 0 {
			return errBadRow
		}

		avg, ok, err := parseAmount(l.cell(row, colAvgTemp))
		if err != nil || !ok {
			return errBadRow
		}
		lo, ok, err := parseAmount(l.cell(row, colMinTemp))
		if err != nil {
			return err
		}
		if !ok {
			lo = avg
		}
		hi, ok, err := parseAmount(l.cell(row, colMaxTemp))
		if err != nil {
			return err
		}
		if !ok {
			hi = avg
		}

		out = append(out, temperature.Record{
			CityID:    city,
			YearMonth: ym,
			AvgTemp:   avg,
			MinTemp:   lo,
			MaxTemp:   hi,
		})
		return nil
	}, func(l layout) bool {
		return l.has(colYearMonth, colCity, colAvgTemp)
	})
	return out, skipped, err
}
