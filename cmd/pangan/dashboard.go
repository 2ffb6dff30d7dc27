package main

import (
	"fmt"
	"time"

	"github.com/pasar-banyumas/pangan-forecaster/dashboard"
	"github.com/spf13/cobra"
)

func parseDateFlag(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be a YYYY-MM-DD date, %w", name, err)
	}
	return t, nil
}

func dashboardCmd() *cobra.Command {
	var outDir, startFlag, endFlag string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Render the saved forecasts as static HTML pages and PNG plots",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseDateFlag("start", startFlag)
			if err != nil {
				return err
			}
			end, err := parseDateFlag("end", endFlag)
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = cfg.Dashboard.OutDir
			}

			cal, err := newCalendar()
			if err != nil {
				return err
			}
			views := make([]*dashboard.View, 0, len(cfg.Commodities))
			for _, cm := range cfg.Commodities {
				v, err := dashboard.LoadView(cfg, cm, cal, start, end)
				if err != nil {
					return fmt.Errorf("unable to load %s, run forecast first, %w", cm.Key, err)
				}
				views = append(views, v)
			}

			written, err := dashboard.Render(outDir, views)
			for _, path := range written {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory, defaults to dashboard.out_dir")
	cmd.Flags().StringVar(&startFlag, "start", "", "first date to show (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endFlag, "end", "", "last date to show (YYYY-MM-DD)")
	return cmd
}
