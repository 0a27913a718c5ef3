package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/alanbriolat/streamdl/internal/history"
)

func historyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "history-db",
			Usage:   "keep download history in `FILE` (default: <user config dir>/streamdl/history.db)",
			EnvVars: []string{"STREAMDL_HISTORY_DB"},
		},
		&cli.BoolFlag{
			Name:    "no-history",
			Usage:   "don't record this download",
			EnvVars: []string{"STREAMDL_NO_HISTORY"},
		},
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "list previously completed downloads",
		Flags: []cli.Flag{
			historyFlags()[0],
			&cli.StringSliceFlag{
				Name:  "delete",
				Usage: "forget the entries with these `ID`s instead of listing",
			},
		},
		Action: func(c *cli.Context) error {
			store, err := openHistory(c.String("history-db"))
			if err != nil {
				return err
			}
			defer store.Close()
			if ids := c.StringSlice("delete"); len(ids) > 0 {
				for _, id := range ids {
					if err := store.Delete(id); err != nil {
						return err
					}
				}
				return nil
			}
			entries, err := store.List()
			if err != nil {
				return err
			}
			return printHistory(c, entries)
		},
	}
}

func openHistory(path string) (*history.Store, error) {
	if path == "" {
		var err error
		if path, err = history.DefaultPath(); err != nil {
			return nil, fmt.Errorf("can't locate history database: %w", err)
		}
	}
	return history.Open(path)
}

func printHistory(c *cli.Context, entries []history.Entry) error {
	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSAVED\tVIDEO\tITAG\tFORMAT\tTARGET\tTITLE")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s/%s\t%s\t%s\n",
			e.ID, e.SavedAt.Local().Format(time.DateTime), e.VideoID, e.Itag, e.Container, e.Quality, e.Target, e.Title)
	}
	return w.Flush()
}
