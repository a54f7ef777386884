// Package export renders an event's evaluation results as CSV and archives
// them to S3 compatible object storage.
package export

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strconv"

	"github.com/okian/jury/internal/domain/model"
)

// Row is one application in a results export.
type Row struct {
	ApplicationID string
	Status        string
	FinalScore    *float64
	Scores        model.Scores
	Comment       string
}

// CSV renders rows with one column per criterion. Reviewed rows come first,
// highest final score first; ties and unreviewed rows are ordered by id.
func CSV(criteria []model.Criterion, rows []Row) ([]byte, error) {
	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		switch {
		case a.FinalScore != nil && b.FinalScore == nil:
			return true
		case a.FinalScore == nil && b.FinalScore != nil:
			return false
		case a.FinalScore != nil && *a.FinalScore != *b.FinalScore:
			return *a.FinalScore > *b.FinalScore
		}
		return a.ApplicationID < b.ApplicationID
	})

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, 0, len(criteria)+4)
	header = append(header, "application_id", "status", "final_score")
	for _, c := range criteria {
		header = append(header, c.Name)
	}
	header = append(header, "judge_comment")
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, r := range sorted {
		rec := make([]string, 0, len(header))
		final := ""
		if r.FinalScore != nil {
			final = strconv.FormatFloat(*r.FinalScore, 'f', 2, 64)
		}
		rec = append(rec, r.ApplicationID, r.Status, final)
		for _, c := range criteria {
			if v, ok := r.Scores[c.Name]; ok {
				rec = append(rec, strconv.Itoa(v))
			} else {
				rec = append(rec, "")
			}
		}
		rec = append(rec, r.Comment)
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
