package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/feitianbubu/styleai"
)

var errInvalidConfiguration = errors.New("configuration is invalid")

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the active provider of every category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(func(m *styleai.Manager) error {
				renderInfo(cmd.OutOrStdout(), m.ServiceInfo())
				return nil
			})
		},
	}
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe the active provider of every category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(func(m *styleai.Manager) error {
				health := m.CheckServiceHealth(cmd.Context())
				renderHealth(cmd.OutOrStdout(), m.ActiveProviders(), health)
				return nil
			})
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration of the active providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(func(m *styleai.Manager) error {
				report := m.ValidateConfiguration()
				renderReport(cmd.OutOrStdout(), m.ActiveProviders(), report)
				if !report.Valid {
					return errInvalidConfiguration
				}
				return nil
			})
		},
	}
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	return t
}

func renderInfo(out io.Writer, info styleai.ServiceInfo) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Category", "Provider", "Adapter", "Version"})
	for _, category := range styleai.Categories {
		svc := info.Services[category]
		name := svc.Name
		if svc.Error != "" {
			name = text.FgRed.Sprint(svc.Error)
		}
		t.AppendRow(table.Row{category, svc.Provider, name, svc.Version})
	}
	t.Render()
}

func renderHealth(out io.Writer, active map[styleai.Category]styleai.ProviderID, health map[styleai.Category]bool) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Category", "Provider", "Status"})
	for _, category := range styleai.Categories {
		status := text.FgRed.Sprint("Unavailable")
		if health[category] {
			status = text.FgGreen.Sprint("Available")
		}
		t.AppendRow(table.Row{category, active[category], status})
	}
	t.Render()
}

func renderReport(out io.Writer, active map[styleai.Category]styleai.ProviderID, report styleai.ConfigReport) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Category", "Provider", "Configuration"})
	for _, category := range styleai.Categories {
		status := text.FgGreen.Sprint("OK")
		if errs := report.Errors[category]; len(errs) > 0 {
			status = text.FgRed.Sprint(strings.Join(errs, "\n"))
		}
		t.AppendRow(table.Row{category, active[category], status})
	}
	t.Render()

	for _, w := range report.Warnings {
		fmt.Fprintf(out, "%s %s\n", text.FgYellow.Sprint("warning:"), w)
	}
}
