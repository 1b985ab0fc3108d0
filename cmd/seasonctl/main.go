// Command seasonctl inspects save codes offline.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	seasonservice "github.com/Black-And-White-Club/pitwall/app/modules/season/application"
	seasondomain "github.com/Black-And-White-Club/pitwall/app/modules/season/domain"
	"github.com/Black-And-White-Club/pitwall/config"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(out io.Writer) *cli.App {
	seasonFlags := []cli.Flag{
		&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "configuration file with the season section"},
		&cli.StringFlag{Name: "roster", Usage: "override the configured roster"},
		&cli.StringFlag{Name: "rules", Usage: "override the configured rules preset"},
	}

	return &cli.App{
		Name:      "seasonctl",
		Usage:     "replay and check season save codes",
		Writer:    out,
		ErrWriter: out,
		Commands: []*cli.Command{
			{
				Name:      "replay",
				Usage:     "print the standings rebuilt from a save code",
				ArgsUsage: "<file>",
				Flags: append(append([]cli.Flag{}, seasonFlags...),
					&cli.BoolFlag{Name: "json", Usage: "print standings as JSON"},
					&cli.BoolFlag{Name: "teams", Usage: "print the team table as well"},
				),
				Action: func(c *cli.Context) error {
					ledger, err := replayFile(c)
					if err != nil {
						return err
					}
					st := ledger.Standings()
					if c.Bool("json") {
						enc := json.NewEncoder(c.App.Writer)
						enc.SetIndent("", "  ")
						return enc.Encode(st)
					}
					return printStandings(c.App.Writer, st, c.Bool("teams"))
				},
			},
			{
				Name:      "validate",
				Usage:     "check that a save code replays cleanly",
				ArgsUsage: "<file>",
				Flags:     seasonFlags,
				Action: func(c *cli.Context) error {
					ledger, err := replayFile(c)
					if err != nil {
						return fmt.Errorf("invalid save code: %w", err)
					}
					fp, err := seasondomain.Fingerprint(ledger.SaveCode())
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "ok: race %d, %d events, rules %s, fingerprint %s\n",
						ledger.RaceNo(), ledger.Len(), ledger.Rules().Version, fp)
					return nil
				},
			},
			{
				Name:      "export",
				Usage:     "write the standings rebuilt from a save code to an XLSX workbook",
				ArgsUsage: "<file>",
				Flags: append(append([]cli.Flag{}, seasonFlags...),
					&cli.StringFlag{Name: "out", Value: "standings.xlsx", Usage: "workbook path"},
				),
				Action: func(c *cli.Context) error {
					ledger, err := replayFile(c)
					if err != nil {
						return err
					}
					book, err := seasonservice.StandingsWorkbook(ledger.Standings())
					if err != nil {
						return err
					}
					if err := os.WriteFile(c.String("out"), book, 0o644); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "wrote %s\n", c.String("out"))
					return nil
				},
			},
		},
	}
}

func replayFile(c *cli.Context) (*seasondomain.Ledger, error) {
	path := c.Args().First()
	if path == "" {
		return nil, errors.New("missing save code file")
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if v := c.String("roster"); v != "" {
		cfg.Season.Roster = v
	}
	if v := c.String("rules"); v != "" {
		cfg.Season.Rules = v
	}

	roster, rules, err := seasonservice.BuildSeason(cfg.Season)
	if err != nil {
		return nil, err
	}
	code, err := seasondomain.DecodeSaveCode(blob)
	if err != nil {
		return nil, err
	}
	return seasondomain.Replay(roster, rules, code)
}

func printStandings(w io.Writer, st seasondomain.Standings, teams bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Race %d\n", st.RaceNo)
	fmt.Fprintln(tw, "POS\tDRIVER\tTEAM\tPTS\tP1\tP2\tP3\tDNF\tAVG\tRATING\t")
	for _, s := range st.Competitors {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\t%s\t%s\n",
			s.Position, s.Name, s.Team, s.Points, s.P1, s.P2, s.P3, s.DNFs,
			formatAverage(s.AveragePosition), s.Rating.StringFixed(2), s.TrendGlyph())
	}
	if teams {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "POS\tTEAM\tPTS\tP1\tP2\tP3\tDNF\tAVG\tRATING\t")
		for _, t := range st.Teams {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\t%d\t%s\t%s\t\n",
				t.Position, t.Name, t.Points, t.P1, t.P2, t.P3, t.DNFs,
				formatAverage(t.AveragePosition), t.AverageRating.StringFixed(2))
		}
	}
	return tw.Flush()
}

func formatAverage(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}
