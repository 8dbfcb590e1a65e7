package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gustavosantosASA/Florestal-App-PPR/internal/cron"
	"github.com/gustavosantosASA/Florestal-App-PPR/internal/filters"
	"github.com/gustavosantosASA/Florestal-App-PPR/internal/schedule"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/config"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/enums"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/logger"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/security"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/sheets"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// operatorActor is the identity used by offline commands; it sees every row.
var operatorActor = schedule.Actor{Login: "sheetctl", Role: enums.UserRoleAdmin}

func newRootCmd(logg *logger.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "sheetctl",
		Short: "Operator tooling for the schedule spreadsheet",
		Long: `sheetctl runs maintenance tasks against the configured spreadsheet
without going through the HTTP API.

Available subcommands:
  hash-password - Print the stored digest for a password
  tabs          - List the tabs of the spreadsheet
  export        - Write the schedule, optionally filtered, as XLSX
  backfill-ids  - Give every row without an ID a fresh one`,
		SilenceUsage: true,
	}
	root.AddCommand(
		newHashPasswordCmd(),
		newTabsCmd(logg),
		newExportCmd(logg),
		newBackfillCmd(logg),
	)
	return root
}

func newHashPasswordCmd() *cobra.Command {
	var generate int
	cmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print the digest to store in the users tab",
		Args: func(cmd *cobra.Command, args []string) error {
			if generate > 0 {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			password := ""
			if generate > 0 {
				generated, err := security.GenerateTempPassword(generate)
				if err != nil {
					return err
				}
				password = generated
				fmt.Fprintf(out, "password: %s\n", password)
			} else {
				password = args[0]
			}
			digest, err := security.HashPassword(password)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, digest)
			return err
		},
	}
	cmd.Flags().IntVarP(&generate, "generate", "g", 0, "generate a random password of this length instead of reading one")
	return cmd
}

func newTabsCmd(logg *logger.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "tabs",
		Short: "List the tabs of the spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, client, err := connect(cmd.Context(), logg)
			if err != nil {
				return err
			}
			tabs, err := client.Tabs(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", client.Title(), client.SpreadsheetID())
			for _, tab := range tabs {
				marker := ""
				switch tab {
				case cfg.Sheets.DataTab:
					marker = " [schedule]"
				case cfg.Sheets.UsersTab:
					marker = " [users]"
				}
				fmt.Fprintf(out, "  %s%s\n", tab, marker)
			}
			return nil
		},
	}
}

func newExportCmd(logg *logger.Logger) *cobra.Command {
	var (
		outPath string
		rawSel  []string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the schedule as an XLSX workbook",
		Long: `Export reads the schedule tab and writes it as XLSX. Each --filter
narrows one column, for example:

  sheetctl export --out cronograma.xlsx --filter Setor=Viveiro --filter Status=Pendente`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			values, err := parseFilters(rawSel)
			if err != nil {
				return err
			}
			cfg, client, err := connect(cmd.Context(), logg)
			if err != nil {
				return err
			}
			svc, err := schedule.NewService(schedule.ServiceParams{
				Sheets:   client,
				Engine:   filters.New(cfg.Schedule.FilterColumns, cfg.Schedule.OwnerColumn),
				Logger:   logg,
				Tab:      cfg.Sheets.DataTab,
				IDColumn: cfg.Sheets.IDColumn,
			})
			if err != nil {
				return err
			}
			sel, err := svc.ParseSelection(values)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if outPath != "" && outPath != "-" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create %s: %w", outPath, err)
				}
				defer f.Close()
				w = f
			}
			return svc.Export(cmd.Context(), operatorActor, sel, w)
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (stdout when empty or -)")
	cmd.Flags().StringArrayVarP(&rawSel, "filter", "f", nil, "column=value filter, repeatable")
	return cmd
}

func newBackfillCmd(logg *logger.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "backfill-ids",
		Short: "Give every row without an ID a fresh one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, client, err := connect(cmd.Context(), logg)
			if err != nil {
				return err
			}
			job, err := cron.NewIDBackfillJob(cron.IDBackfillJobParams{
				Logger:   logg,
				Sheets:   client,
				Tab:      cfg.Sheets.DataTab,
				IDColumn: cfg.Sheets.IDColumn,
			})
			if err != nil {
				return err
			}
			filled, err := job.Backfill(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "%d rows received an id\n", filled)
			return err
		},
	}
}

// parseFilters turns repeated column=value flags into a selection map.
func parseFilters(raw []string) (map[string]string, error) {
	values := make(map[string]string, len(raw))
	for _, item := range raw {
		column, value, ok := strings.Cut(item, "=")
		column = strings.TrimSpace(column)
		if !ok || column == "" {
			return nil, fmt.Errorf("filter %q must look like column=value", item)
		}
		if _, dup := values[column]; dup {
			return nil, fmt.Errorf("filter column %q given twice", column)
		}
		values[column] = value
	}
	return values, nil
}

func connect(ctx context.Context, logg *logger.Logger) (*config.Config, *sheets.Client, error) {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	client, err := sheets.NewClient(ctx, cfg.Sheets, nil, logg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, client, nil
}
