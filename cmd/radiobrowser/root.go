package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/samvad-hq/radiodir/internal/app"
	"github.com/samvad-hq/radiodir/internal/config"
	"github.com/samvad-hq/radiodir/internal/logger"
	"github.com/samvad-hq/radiodir/pkg/radiobrowser"
)

// cli holds the flag values shared by every subcommand.
type cli struct {
	out     io.Writer
	client  *radiobrowser.Client
	host    string
	verbose bool
	offset  int
	limit   int
}

func newRootCmd(out io.Writer, client *radiobrowser.Client) *cobra.Command {
	c := &cli{out: out, client: client}

	root := &cobra.Command{
		Use:   "radiobrowser",
		Short: "Query the radio-browser station directory",
		Long: `radiobrowser lists countries, tags, languages and stations from the
radio-browser directory and prints the results as JSON.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.initialize,
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&c.host, "host", "", "directory server host (default from RADIO_HOST or the built-in server)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log requests to stderr")

	pageFlags := func(cmd *cobra.Command) *cobra.Command {
		cmd.Flags().IntVar(&c.offset, "offset", radiobrowser.DefaultPage.Offset, "number of entries to skip")
		cmd.Flags().IntVar(&c.limit, "limit", radiobrowser.DefaultPage.Limit, "maximum number of entries")
		return cmd
	}

	root.AddCommand(
		pageFlags(&cobra.Command{
			Use:   "countries",
			Short: "List countries with their station counts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.print(c.client.Countries(cmd.Context(), c.page()))
			},
		}),
		pageFlags(&cobra.Command{
			Use:   "tags",
			Short: "List station tags",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.print(c.client.Tags(cmd.Context(), c.page()))
			},
		}),
		pageFlags(&cobra.Command{
			Use:   "languages",
			Short: "List stream languages",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.print(c.client.Languages(cmd.Context(), c.page()))
			},
		}),
		pageFlags(&cobra.Command{
			Use:   "stations",
			Short: "List working stations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.print(c.client.AllStations(cmd.Context(), c.page()))
			},
		}),
		pageFlags(&cobra.Command{
			Use:   "top",
			Short: "List the most voted stations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.print(c.client.TopVoteStations(cmd.Context(), c.page()))
			},
		}),
		pageFlags(&cobra.Command{
			Use:   "search NAME",
			Short: "Search stations by name",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.print(c.client.SearchStations(cmd.Context(), args[0], c.page()))
			},
		}),
		&cobra.Command{
			Use:   "station UUID",
			Short: "Show a single station",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ids, err := parseUUIDs(args)
				if err != nil {
					return err
				}
				st, err := c.client.Station(cmd.Context(), ids[0])
				if err != nil {
					return err
				}
				if st == nil {
					return fmt.Errorf("station %s not found", ids[0])
				}
				return c.print(st, nil)
			},
		},
		&cobra.Command{
			Use:   "lookup UUID...",
			Short: "Fetch several stations by UUID",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ids, err := parseUUIDs(args)
				if err != nil {
					return err
				}
				return c.print(c.client.StationsByIDs(cmd.Context(), ids))
			},
		},
		&cobra.Command{
			Use:   "vote UUID",
			Short: "Vote for a station",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ids, err := parseUUIDs(args)
				if err != nil {
					return err
				}
				return c.print(c.client.Vote(cmd.Context(), ids[0]))
			},
		},
		&cobra.Command{
			Use:   "click UUID",
			Short: "Count a click and print the stream URL",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ids, err := parseUUIDs(args)
				if err != nil {
					return err
				}
				return c.print(c.client.Click(cmd.Context(), ids[0]))
			},
		},
	)

	return root
}

// initialize builds the directory client from config unless one was injected.
func (c *cli) initialize(cmd *cobra.Command, _ []string) error {
	if cmd.Context() == nil {
		cmd.SetContext(context.Background())
	}
	if c.client != nil {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("host") {
		cfg.RadioHost = strings.TrimSpace(c.host)
		if err := radiobrowser.ValidateHost(cfg.RadioHost); err != nil {
			return err
		}
	}

	base := zap.NewNop()
	if c.verbose {
		if base, err = zap.NewDevelopment(); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
	}

	c.client = app.NewRadioClient(cfg, nil, logger.NewZapLogger(base))
	return nil
}

func (c *cli) page() radiobrowser.Page {
	return radiobrowser.Page{Offset: c.offset, Limit: c.limit}
}

func (c *cli) print(v any, err error) error {
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseUUIDs(args []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(args))
	for _, raw := range args {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid station uuid %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
