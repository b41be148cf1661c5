package commands

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/cristian-franco-ml/Hotel-v2/events"
	"github.com/cristian-franco-ml/Hotel-v2/models"
	"github.com/cristian-franco-ml/Hotel-v2/storage"
	"github.com/cristian-franco-ml/Hotel-v2/utils"
)

var eventsOpts struct {
	hotel  string
	city   string
	radius float64
	days   int
	user   string
	out    string
}

func init() {
	f := eventsCmd.Flags()
	f.StringVar(&eventsOpts.hotel, "hotel", "", "Hotel whose surroundings are searched.")
	f.StringVar(&eventsOpts.city, "city", "", "Metro area to scrape as well, e.g. Tijuana.")
	f.Float64Var(&eventsOpts.radius, "radius", 0, "Search radius in km; defaults to EVENT_RADIUS_KM.")
	f.IntVar(&eventsOpts.days, "days", 0, "Days ahead to search; defaults to EVENT_DAYS.")
	f.StringVar(&eventsOpts.user, "user", "", "Replace this user's stored events with the result.")
	f.StringVar(&eventsOpts.out, "out", "", "Write the events to this .json file.")
	_ = eventsCmd.MarkFlagRequired("hotel")
	rootCmd.AddCommand(eventsCmd)
}

var eventsCmd = &cobra.Command{
	Use:   "events --hotel <name> [--city <metro>] [--radius km]",
	Short: "Finds events near a hotel from Ticketmaster and Songkick.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if eventsOpts.user != "" {
			if _, err := uuid.Parse(eventsOpts.user); err != nil {
				return fmt.Errorf("--user %q is not a UUID", eventsOpts.user)
			}
		}

		req := models.EventsRequest{
			UserID:    eventsOpts.user,
			HotelName: eventsOpts.hotel,
			City:      eventsOpts.city,
			RadiusKm:  eventsOpts.radius,
			Days:      eventsOpts.days,
		}
		list, err := events.NewCollector(cfg, logger).Collect(ctx, req)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetTitle(fmt.Sprintf("Events near %s", eventsOpts.hotel))
		t.AppendHeader(table.Row{"Date", "Time", "Event", "Venue", "Source"})
		for _, e := range list {
			t.AppendRow(table.Row{e.Date, e.Time, utils.Truncate(e.Name, 50), utils.Truncate(e.Venue, 30), e.Source})
		}
		t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d events", len(list))})
		t.SetStyle(table.StyleRounded)
		t.Render()

		if err := writeOutput(eventsOpts.out, list, nil); err != nil {
			return err
		}

		if eventsOpts.user == "" {
			return nil
		}
		store, err := storage.Open(cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		saved, err := store.ReplaceEvents(ctx, eventsOpts.user, list)
		logger.Info("events saved", "saved", saved, "total", len(list))
		return err
	},
}
