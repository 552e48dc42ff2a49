package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"igrelations/pkg/models"
	"igrelations/pkg/normalize"
)

// ReadCSV parses a file written by CSVSink. Columns are matched by header
// name, so extra or reordered columns are fine; pk is required.
func ReadCSV(r io.Reader) ([]models.EnrichedRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	if _, ok := index["pk"]; !ok {
		return nil, errors.New("csv has no pk column")
	}

	records := []models.EnrichedRecord{}
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rec, err := parseRow(index, row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if rec.ID == 0 {
			rec.ID = len(records) + 1
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(index map[string]int, row []string) (models.EnrichedRecord, error) {
	get := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var rec models.EnrichedRecord
	pk, err := models.ParseAccountID(strings.TrimSpace(get("pk")))
	if err != nil {
		return rec, err
	}
	rec.PK = pk

	var errs []error
	atoi := func(col string) int {
		v := strings.TrimSpace(get(col))
		if v == "" {
			return 0
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", col, err))
			return 0
		}
		return int(f)
	}

	rec.ID = atoi("id")
	rec.MediaCount = atoi("media_count")
	rec.FollowerCount = atoi("follower_count")
	rec.FollowingCount = atoi("following_count")
	if v := strings.TrimSpace(get("is_private")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("is_private: %w", err))
		}
		rec.IsPrivate = b
	}

	rec.Username = normalize.Text(get("username"))
	rec.FullName = normalize.Text(get("full_name"))
	rec.ProfilePicURLHD = normalize.Text(get("profile_pic_url_hd"))
	rec.Biography = normalize.Text(get("biography"))

	return rec, errors.Join(errs...)
}
