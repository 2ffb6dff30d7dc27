package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	forecaster "github.com/pasar-banyumas/pangan-forecaster"
	"github.com/pasar-banyumas/pangan-forecaster/storage"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
)

var ErrInvalidAnswer = errors.New("answer is not a whole number of days")

func forecastCmd() *cobra.Command {
	var (
		horizon     int
		profileMode string
	)

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast every commodity and save the merged tables",
		Long: `Forecasts the requested number of days past the end of each history and writes one
spreadsheet per commodity. Without --horizon the number of days is asked interactively; zero
or a negative number does nothing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch profileMode {
			case "":
			case "cpu":
				defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet).Stop()
			case "mem":
				defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet).Stop()
			default:
				return fmt.Errorf("unknown profile mode %q, want cpu or mem", profileMode)
			}

			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			if !cmd.Flags().Changed("horizon") {
				var err error
				horizon, err = promptHorizon(in, out)
				if err != nil {
					return err
				}
			}
			if horizon <= 0 {
				return nil
			}
			return runForecast(cmd.Context(), in, out, horizon)
		},
	}

	cmd.Flags().IntVarP(&horizon, "horizon", "n", 0, "number of days to forecast")
	cmd.Flags().StringVar(&profileMode, "profile", "", "write a cpu or mem profile to the working directory")
	return cmd
}

func runForecast(ctx context.Context, in *bufio.Reader, out io.Writer, horizon int) error {
	if ctx == nil {
		ctx = context.Background()
	}

	f, err := forecaster.New(cfg, nil)
	if err != nil {
		return err
	}
	res, err := f.Run(ctx, horizon)
	if errors.Is(err, forecaster.ErrNonPositiveHorizon) {
		return nil
	}
	if err != nil {
		return err
	}

	saved := f.Save(res)
	for {
		report(out, saved)
		failed := forecaster.Failed(saved)
		if len(failed) == 0 {
			return nil
		}

		retry, err := confirm(in, out, "Coba simpan ulang? [y/N]: ")
		if err != nil {
			return err
		}
		if !retry {
			return fmt.Errorf("%d of %d forecasts were not saved", len(failed), len(res.Commodities))
		}
		saved = f.Save(res, failed...)
	}
}

func report(out io.Writer, saved []forecaster.SaveResult) {
	for _, sr := range saved {
		if sr.Err == nil {
			fmt.Fprintf(out, "Data %s berhasil disimpan ke %s\n", sr.Key, sr.Path)
			continue
		}
		fmt.Fprintf(out, "Data %s gagal disimpan: %s\n", sr.Key, describeSaveError(sr.Err))
	}
}

// describeSaveError turns a storage failure into a message the operator can act on.
func describeSaveError(err error) string {
	switch {
	case errors.Is(err, storage.ErrDirNotFound):
		return "jalur direktori tidak ditemukan, periksa kembali base_path atau lokasi penyimpanan"
	case errors.Is(err, storage.ErrPermission):
		return "tidak memiliki izin untuk menulis ke file, tutup file jika sedang terbuka atau periksa izin direktori"
	default:
		return fmt.Sprintf("error I/O terjadi: %v", err)
	}
}

// promptHorizon asks for the number of days to forecast. An empty answer means zero.
func promptHorizon(in *bufio.Reader, out io.Writer) (int, error) {
	fmt.Fprint(out, "Masukkan angka sesuai kebutuhan Anda untuk meramalkan jumlah hari [0]: ")
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		return 0, fmt.Errorf("%q, %w", line, ErrInvalidAnswer)
	}
	return n, nil
}

// confirm asks a yes/no question. Anything but y or yes, including end of input, is no.
func confirm(in *bufio.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprint(out, question)
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "ya":
		return true, nil
	default:
		return false, nil
	}
}
