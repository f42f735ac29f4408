package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/kenala/internal/client/models"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func checkOutput(format string) error {
	switch format {
	case outputTable, outputJSON, outputYAML:
		return nil
	}
	return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
}

// encode writes v as JSON or YAML. It reports false for the table format,
// which the caller renders itself.
func encode(w io.Writer, format string, v any) (bool, error) {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	}
	return false, nil
}

func status(j models.Journal) string {
	if j.Synced {
		return "synced"
	}
	return "pending"
}

func printJournals(w io.Writer, format string, list []models.Journal) error {
	if list == nil {
		list = []models.Journal{}
	}
	if done, err := encode(w, format, list); done {
		return err
	}
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No journal entries yet.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCREATED\tSTATUS")
	for _, j := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", j.ID, truncate(j.Title, 40), j.CreatedAt.Local().Format(time.DateTime), status(j))
	}
	return tw.Flush()
}

func printJournal(w io.Writer, format string, j models.Journal) error {
	if done, err := encode(w, format, j); done {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", j.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", j.Title)
	fmt.Fprintf(tw, "Created:\t%s\n", j.CreatedAt.Local().Format(time.DateTime))
	fmt.Fprintf(tw, "Status:\t%s\n", status(j))
	if j.ImageURL != "" {
		fmt.Fprintf(tw, "Image:\t%s\n", j.ImageURL)
	}
	if j.Location != nil {
		fmt.Fprintf(tw, "Location:\t%.6f, %.6f\n", j.Location.Latitude, j.Location.Longitude)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if j.Story != "" {
		_, err := fmt.Fprintf(w, "\n%s\n", j.Story)
		return err
	}
	return nil
}

func printNotifications(w io.Writer, format string, list []models.Notification) error {
	if list == nil {
		list = []models.Notification{}
	}
	if done, err := encode(w, format, list); done {
		return err
	}
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "Inbox is empty.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\t\tRECEIVED\tTITLE\tBODY")
	for _, n := range list {
		mark := " "
		if !n.Read {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", n.ID, mark, n.ReceivedAt.Local().Format(time.DateTime), truncate(n.Title, 30), truncate(n.Body, 50))
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
