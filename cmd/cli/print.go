package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	apiv1 "github.com/SanjoDeundiak/build-runner/api/v1"
)

func printStatusTable(w io.Writer, st *apiv1.Status) {
	id, state, cmd, exit := "-", "Idle", "", ""
	if st != nil {
		if st.RunID != "" {
			id = st.RunID
		}
		switch st.GetState() {
		case apiv1.RunStateRunning:
			state = "Running"
		case apiv1.RunStateIdle:
			state = "Idle"
		default:
			state = "Unknown"
		}
		if st.Command != nil {
			all := append([]string{st.Command.Command}, st.Command.Args...)
			cmd = strings.TrimSpace(strings.Join(all, " "))
			if st.Command.Task != "" {
				cmd = st.Command.Task + ": " + cmd
			}
		}
		exit = formatExit(st)
	}

	printTable(w, []string{"ID", "STATE", "COMMAND", "EXIT"}, [][]string{{id, state, cmd, exit}})
}

func formatExit(st *apiv1.Status) string {
	e := st.GetExit()
	if e == nil {
		if st.StartTime != nil {
			return "running for " + time.Since(*st.StartTime).Round(time.Second).String()
		}
		return ""
	}
	var out string
	switch {
	case e.Signal != "":
		out = "signal " + e.Signal
	default:
		out = fmt.Sprintf("%d", e.Code)
	}
	if e.Stopped {
		out += " (stopped)"
	}
	if e.Error != "" && e.Signal == "" && e.Code == -1 {
		out += " " + e.Error
	}
	return out
}

func printTasksTable(w io.Writer, tasks []*apiv1.Task) {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		all := append([]string{t.Command}, t.Args...)
		rows = append(rows, []string{t.Name, strings.TrimSpace(strings.Join(all, " ")), t.Description})
	}
	printTable(w, []string{"TASK", "COMMAND", "DESCRIPTION"}, rows)
}

func printTable(w io.Writer, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}

	parts := make([]string, len(widths))
	for i, width := range widths {
		parts[i] = strings.Repeat("-", width)
	}
	sep := "+-" + strings.Join(parts, "-+-") + "-+\n"

	line := func(cells []string) {
		padded := make([]string, len(cells))
		for i, cell := range cells {
			padded[i] = pad(cell, widths[i])
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(padded, " | "))
	}

	_, _ = fmt.Fprint(w, sep)
	line(header)
	_, _ = fmt.Fprint(w, sep)
	for _, row := range rows {
		line(row)
	}
	_, _ = fmt.Fprint(w, sep)
}

func pad(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}
