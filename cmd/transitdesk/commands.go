package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/transitdesk/transitdesk/internal/search"
)

var presets = map[string]search.Preset{
	"now":              search.PresetNow,
	"tonight":          search.PresetTonight,
	"tomorrow-morning": search.PresetTomorrowMorning,
	"tomorrow-evening": search.PresetTomorrowEvening,
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "search connections between two stations",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Aliases: []string{"f"}, Usage: "departure station"},
			&cli.StringFlag{Name: "to", Aliases: []string{"t"}, Usage: "destination station"},
			&cli.StringSliceFlag{Name: "via", Usage: "intermediate station, repeatable"},
			&cli.StringFlag{Name: "date", Usage: "travel date, YYYY-MM-DD"},
			&cli.StringFlag{Name: "time", Usage: "travel time, HH:MM"},
			&cli.StringFlag{Name: "preset", Usage: "now, tonight, tomorrow-morning or tomorrow-evening"},
			&cli.BoolFlag{Name: "arrival", Usage: "treat the time as arrival time"},
			&cli.BoolFlag{Name: "favorites", Usage: "fill missing stations from favorites"},
		},
		Action: func(c *cli.Context) error {
			app, err := newApplication(c)
			if err != nil {
				return err
			}
			defer app.close()

			form := app.form
			form.From().SetText(c.String("from"))
			form.To().SetText(c.String("to"))
			if c.Bool("favorites") {
				for _, name := range form.Favorites() {
					form.SelectFavorite(name)
				}
			}
			for _, via := range c.StringSlice("via") {
				form.Vias().Insert(via)
			}
			if err := applyTime(form.Time(), c.String("preset"), c.String("date"), c.String("time")); err != nil {
				return err
			}
			form.Time().SetArrival(c.Bool("arrival"))

			if _, err := form.Submit(c.Context); err != nil {
				return err
			}
			if err := app.await(c.Context); err != nil {
				return err
			}
			if err := form.Err(); err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			fmt.Fprintf(os.Stdout, "%s → %s, %s\n\n", form.From().Text(), form.To().Text(), form.Time().Summary())
			return renderConnections(os.Stdout, form.Results())
		},
	}
}

func applyTime(sel *search.DateTimeSelector, preset, date, clock string) error {
	if preset != "" {
		p, ok := presets[preset]
		if !ok {
			return fmt.Errorf("unknown preset %q", preset)
		}
		sel.SelectPreset(p)
	}

	if date != "" {
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			return fmt.Errorf("invalid date: %w", err)
		}
		sel.SetField(search.FieldYear, d.Year())
		sel.SetField(search.FieldMonth, int(d.Month()))
		sel.SetField(search.FieldDay, d.Day())
	}
	if clock != "" {
		t, err := time.Parse("15:04", clock)
		if err != nil {
			return fmt.Errorf("invalid time: %w", err)
		}
		sel.SetField(search.FieldHour, t.Hour())
		sel.SetField(search.FieldMinute, t.Minute())
	}
	return nil
}

func locationsCommand() *cli.Command {
	return &cli.Command{
		Name:      "locations",
		Usage:     "suggest station names",
		ArgsUsage: "QUERY",
		Action: func(c *cli.Context) error {
			query := strings.Join(c.Args().Slice(), " ")
			if query == "" {
				return errors.New("missing query")
			}

			app, err := newApplication(c)
			if err != nil {
				return err
			}
			defer app.close()

			field := app.form.From()
			field.SetText(query)
			if err := app.await(c.Context); err != nil {
				return err
			}
			for _, name := range field.Suggestions() {
				star := " "
				if app.favorites.Contains(name) {
					star = "*"
				}
				fmt.Fprintf(os.Stdout, "%s %s\n", star, name)
			}
			return nil
		},
	}
}

func favoritesCommand() *cli.Command {
	return &cli.Command{
		Name:  "favorites",
		Usage: "manage favorite stations",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list favorites",
				Action: func(c *cli.Context) error {
					app, err := newApplication(c)
					if err != nil {
						return err
					}
					defer app.close()

					for _, name := range app.favorites.Get() {
						fmt.Fprintln(os.Stdout, name)
					}
					return app.favorites.Err()
				},
			},
			{
				Name:      "add",
				Usage:     "add a favorite",
				ArgsUsage: "NAME",
				Action: func(c *cli.Context) error {
					return editFavorite(c, true)
				},
			},
			{
				Name:      "remove",
				Usage:     "remove a favorite",
				ArgsUsage: "NAME",
				Action: func(c *cli.Context) error {
					return editFavorite(c, false)
				},
			},
		},
	}
}

func editFavorite(c *cli.Context, add bool) error {
	name := strings.Join(c.Args().Slice(), " ")
	if name == "" {
		return errors.New("missing name")
	}

	app, err := newApplication(c)
	if err != nil {
		return err
	}
	defer app.close()

	if add {
		app.favorites.Add(name)
	} else {
		app.favorites.Remove(name)
	}
	if err := app.favorites.Err(); err != nil {
		return fmt.Errorf("favorites not saved: %w", err)
	}
	return nil
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "probe the transport API and report client health",
		Action: func(c *cli.Context) error {
			app, err := newApplication(c)
			if err != nil {
				return err
			}
			defer app.close()

			if _, err := app.service.SearchLocation(c.Context, "Bern"); err != nil {
				app.logger.Warn().Err(err).Msg("probe failed")
			}

			stats := app.service.CacheStats()
			fmt.Fprintf(os.Stdout, "provider:  %s\n", stats.Provider)
			fmt.Fprintf(os.Stdout, "cache:     %d entries (%d fresh)\n", stats.LocationEntries, stats.FreshEntries)
			fmt.Fprintf(os.Stdout, "favorites: %d (%s)\n", len(app.favorites.Get()), app.favorites.Path())
			return renderHealth(os.Stdout, app.registry.All())
		},
	}
}
