package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/pavelanni/profquiz/internal/model"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export test sessions and answers as JSON or XLSX",
		RunE:  runExport,
	}
	f := cmd.Flags()
	addCommonFlags(f)
	f.String("format", "json", "Output format (json, xlsx)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	format := strings.ToLower(v.GetString("format"))
	if format != "json" && format != "xlsx" {
		return fmt.Errorf("unknown format %q (want json or xlsx)", format)
	}

	db, err := openStore(v)
	if err != nil {
		return err
	}
	defer db.Close()

	sessions, err := db.ExportAllSessions(cmd.Context())
	if err != nil {
		return fmt.Errorf("export sessions: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = cmd.OutOrStdout()
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if format == "xlsx" {
		return writeXLSX(w, sessions)
	}
	return writeJSON(w, model.ResultsExport{ExportedAt: time.Now().UTC(), Sessions: sessions})
}

func writeJSON(w io.Writer, export model.ResultsExport) error {
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)
	return nil
}

const (
	sessionsSheet = "Sessions"
	answersSheet  = "Answers"
)

// writeXLSX writes one row per session and one row per answer slot on a
// second sheet.
func writeXLSX(w io.Writer, sessions []model.SessionExport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sessionsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(answersSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	sessionRows := [][]any{{"Session", "Profession", "Status", "Questions", "Correct", "Score %", "Started", "Completed"}}
	var answerRows [][]any
	answerRows = append(answerRows, []any{"Session", "Question ID", "Question", "Difficulty", "Answer", "Correct answer", "Result", "Answered"})
	for _, s := range sessions {
		correct, score := "", ""
		if s.CorrectAnswers != nil {
			correct = strconv.Itoa(*s.CorrectAnswers)
		}
		if s.ScorePercentage != nil {
			score = strconv.FormatFloat(*s.ScorePercentage, 'f', 2, 64)
		}
		sessionRows = append(sessionRows, []any{
			s.SessionID, sanitizeForExcel(s.ProfessionSlug), string(s.Status), s.QuestionsCount,
			correct, score, formatTime(&s.StartedAt), formatTime(s.CompletedAt),
		})
		for _, a := range s.Answers {
			answer, result := "", "skipped"
			if a.UserAnswer != nil {
				answer = string(*a.UserAnswer)
			}
			if a.IsCorrect != nil {
				result = "incorrect"
				if *a.IsCorrect {
					result = "correct"
				}
			}
			answerRows = append(answerRows, []any{
				s.SessionID, a.QuestionID, sanitizeForExcel(a.QuestionEN), string(a.Difficulty),
				answer, string(a.CorrectAnswer), result, formatTime(a.AnsweredAt),
			})
		}
	}

	if err := streamRows(f, sessionsSheet, sessionRows); err != nil {
		return err
	}
	if err := streamRows(f, answersSheet, answerRows); err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func streamRows(f *excelize.File, sheet string, rows [][]any) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("stream writer for %s: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", sheet, err)
	}
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// sanitizeForExcel prefixes values that spreadsheet applications would
// evaluate as formulas.
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
