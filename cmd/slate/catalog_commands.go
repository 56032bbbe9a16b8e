package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"slate/internal/catalog"
)

func newPendingCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List scheduled series and episodes awaiting release",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *catalog.Store) error {
				series, err := store.ListPendingSeries(cmd.Context())
				if err != nil {
					return err
				}
				episodes, err := store.ListPendingEpisodes(cmd.Context())
				if err != nil {
					return err
				}

				if jsonOutput {
					return writeJSON(cmd, map[string]any{
						"series":   series,
						"episodes": episodes,
					})
				}

				stdout := cmd.OutOrStdout()
				if len(series) == 0 && len(episodes) == 0 {
					fmt.Fprintln(stdout, "Nothing scheduled")
					return nil
				}

				if len(series) > 0 {
					rows := make([][]string, 0, len(series))
					for _, s := range series {
						rows = append(rows, []string{
							s.ID.String(),
							truncate(s.Title, 40),
							strconv.Itoa(s.EpisodeCount),
							string(s.Status),
							formatTimestamp(s.ReleaseAt),
						})
					}
					fmt.Fprintln(stdout, "Pending series:")
					fmt.Fprintln(stdout, renderTable(
						[]string{"ID", "Title", "Episodes", "Status", "Release At"},
						rows,
						[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
					))
				}

				if len(episodes) > 0 {
					rows := make([][]string, 0, len(episodes))
					for _, e := range episodes {
						parent := e.SeriesID.String()
						if parent == "" {
							parent = e.PendingSeriesID.String() + " (pending)"
						}
						rows = append(rows, []string{
							e.ID.String(),
							parent,
							strconv.Itoa(e.EpisodeNumber),
							truncate(e.Title, 40),
							formatTimestamp(e.ReleaseAt),
						})
					}
					fmt.Fprintln(stdout, "Pending episodes:")
					fmt.Fprintln(stdout, renderTable(
						[]string{"ID", "Series", "Ep", "Title", "Release At"},
						rows,
						[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
					))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of tables")
	return cmd
}

func newLiveCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var showEpisodes string

	cmd := &cobra.Command{
		Use:   "live",
		Short: "List the live catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *catalog.Store) error {
				if showEpisodes != "" {
					id, err := catalog.ParseID(showEpisodes)
					if err != nil {
						return fmt.Errorf("invalid series id: %w", err)
					}
					episodes, err := store.ListLiveEpisodes(cmd.Context(), id)
					if err != nil {
						return err
					}
					if jsonOutput {
						return writeJSON(cmd, episodes)
					}
					stdout := cmd.OutOrStdout()
					if len(episodes) == 0 {
						fmt.Fprintln(stdout, "No live episodes for that series")
						return nil
					}
					rows := make([][]string, 0, len(episodes))
					for _, e := range episodes {
						rows = append(rows, []string{
							strconv.Itoa(e.EpisodeNumber),
							truncate(e.Title, 40),
							strconv.Itoa(e.CoinCost),
							strconv.FormatInt(e.ViewCount, 10),
							formatTimestamp(e.ReleasedAt),
						})
					}
					fmt.Fprintln(stdout, renderTable(
						[]string{"Ep", "Title", "Coins", "Views", "Released At"},
						rows,
						[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft},
					))
					return nil
				}

				series, err := store.ListLiveSeries(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, series)
				}

				stdout := cmd.OutOrStdout()
				if len(series) == 0 {
					fmt.Fprintln(stdout, "Live catalog is empty")
					return nil
				}

				sortLiveSeriesByTitle(series)
				rows := make([][]string, 0, len(series))
				for _, s := range series {
					rows = append(rows, []string{
						s.ID.String(),
						truncate(s.Title, 40),
						strconv.Itoa(s.EpisodeCount),
						yesNo(s.Active),
						joinOrDash(s.Categories),
						formatTimestamp(s.ReleasedAt),
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"ID", "Title", "Episodes", "Active", "Categories", "Released At"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of tables")
	cmd.Flags().StringVar(&showEpisodes, "episodes", "", "Show episodes of one live series by id")
	return cmd
}

func newTransfersCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var limit int

	cmd := &cobra.Command{
		Use:   "transfers",
		Short: "Show the release transfer log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *catalog.Store) error {
				transfers, err := store.ListTransfers(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, transfers)
				}

				stdout := cmd.OutOrStdout()
				if len(transfers) == 0 {
					fmt.Fprintln(stdout, "Transfer log is empty")
					return nil
				}

				rows := make([][]string, 0, len(transfers))
				for _, t := range transfers {
					rows = append(rows, []string{
						strconv.FormatInt(t.ID, 10),
						truncate(t.Title, 40),
						t.PendingSeriesID.String(),
						t.LiveSeriesID.String(),
						formatTimestamp(t.TransferredAt),
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"#", "Title", "Pending ID", "Live ID", "Transferred At"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of tables")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show (0 for all)")
	return cmd
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show catalog record counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *catalog.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, stats)
				}

				rows := [][]string{
					{"Pending series", strconv.Itoa(stats.PendingSeries)},
					{"Pending episodes", strconv.Itoa(stats.PendingEpisodes)},
					{"Live series", strconv.Itoa(stats.LiveSeries)},
					{"Live episodes", strconv.Itoa(stats.LiveEpisodes)},
					{"Transfers", strconv.Itoa(stats.Transfers)},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Collection", "Count"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of tables")
	return cmd
}
