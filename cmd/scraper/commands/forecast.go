package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/cristian-franco-ml/Hotel-v2/forecast"
	"github.com/cristian-franco-ml/Hotel-v2/models"
	"github.com/cristian-franco-ml/Hotel-v2/storage"
)

var forecastOpts struct {
	user  string
	hotel string
	out   string
}

func init() {
	f := forecastCmd.Flags()
	f.StringVar(&forecastOpts.user, "user", "", "User whose stored prices are read.")
	f.StringVar(&forecastOpts.hotel, "hotel", "", "Hotel name as stored.")
	f.StringVar(&forecastOpts.out, "out", "", "Write the series to this .json file.")
	_ = forecastCmd.MarkFlagRequired("user")
	_ = forecastCmd.MarkFlagRequired("hotel")
	rootCmd.AddCommand(forecastCmd)
}

var forecastCmd = &cobra.Command{
	Use:   "forecast --user <id> --hotel <name>",
	Short: "Projects stored daily prices to the end of next month.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.Open(cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		rows, err := store.ListRoomPrices(cmd.Context(), forecastOpts.user)
		if err != nil {
			return err
		}
		var mine []models.RoomPriceRecord
		for _, r := range rows {
			if strings.EqualFold(r.HotelName, forecastOpts.hotel) {
				mine = append(mine, r)
			}
		}

		series, err := forecast.Build(forecastOpts.hotel, mine, time.Now())
		if err != nil {
			return fmt.Errorf("%s: %w", forecastOpts.hotel, err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetTitle(fmt.Sprintf("%s  avg %.2f over %d nights", series.Hotel, series.Average, series.Nights))
		t.AppendHeader(table.Row{"Date", "Price", "Kind"})
		for _, p := range series.Points {
			t.AppendRow(table.Row{p.Date, fmt.Sprintf("%.2f", p.Price), p.Kind})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()

		return writeOutput(forecastOpts.out, series, nil)
	},
}
