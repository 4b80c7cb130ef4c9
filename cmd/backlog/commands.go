package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/backlog/internal/domain"
	"github.com/mmcdole/backlog/internal/service"
	"github.com/mmcdole/backlog/internal/ui"
	"github.com/spf13/cobra"
)

// clearSpinnerLine clears the spinner line from the terminal
const clearSpinnerLine = "\r                                    \r"

var localOnly bool

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search [term]",
	Short: "Search the catalog, falling back to the local cache",
	Long: `Search the provider for a title. Results are cached locally; when the provider
cannot be reached the cached matches are shown instead. With no term (or --local)
only the local cache is searched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		term := strings.Join(args, " ")
		return withService(cmd, func(ctx context.Context, svc *service.CatalogService, r *ui.Renderer) {
			label := "search"
			if useFilms {
				res := withSpinner("Searching films...", func() domain.Result[*domain.Film] {
					if localOnly {
						return svc.Films.Cached(ctx, term)
					}
					return svc.Films.Search(ctx, term)
				})
				r.Films(label, res)
				return
			}
			res := withSpinner("Searching games...", func() domain.Result[*domain.Game] {
				if localOnly {
					return svc.Games.Cached(ctx, term)
				}
				return svc.Games.Search(ctx, term)
			})
			r.Games(label, res)
		})
	},
}

// popularCmd represents the popular command
var popularCmd = &cobra.Command{
	Use:   "popular",
	Short: "List the most popular titles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *service.CatalogService, r *ui.Renderer) {
			if useFilms {
				r.Films("popular", withSpinner("Fetching popular films...", func() domain.Result[*domain.Film] {
					return svc.Films.Popular(ctx)
				}))
				return
			}
			r.Games("popular", withSpinner("Fetching popular games...", func() domain.Result[*domain.Game] {
				return svc.Games.Popular(ctx)
			}))
		})
	},
}

// topCmd represents the top command
var topCmd = &cobra.Command{
	Use:   "top",
	Short: "List the best rated titles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *service.CatalogService, r *ui.Renderer) {
			if useFilms {
				r.Films("top rated", withSpinner("Fetching top rated films...", func() domain.Result[*domain.Film] {
					return svc.Films.TopRated(ctx)
				}))
				return
			}
			r.Games("top rated", withSpinner("Fetching top rated games...", func() domain.Result[*domain.Game] {
				return svc.Games.TopRated(ctx)
			}))
		})
	},
}

// cachedCmd represents the cached command
var cachedCmd = &cobra.Command{
	Use:   "cached",
	Short: "List everything in the local cache, best rated first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *service.CatalogService, r *ui.Renderer) {
			if useFilms {
				r.Films("cache", svc.Films.Ranked(ctx))
				return
			}
			r.Games("cache", svc.Games.Ranked(ctx))
		})
	},
}

// detailsCmd represents the details command
var detailsCmd = &cobra.Command{
	Use:   "details <provider-id>",
	Short: "Show full details for a provider ID (IGDB or TMDB)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *service.CatalogService, r *ui.Renderer) {
			if useFilms {
				res := withSpinner("Fetching film...", func() domain.Result[*domain.Film] {
					return svc.Films.Details(ctx, id)
				})
				if f, ok := res.First(); ok {
					r.Film(f, res.Source)
					return
				}
				r.NotFound("film "+args[0], res.Err)
				return
			}
			res := withSpinner("Fetching game...", func() domain.Result[*domain.Game] {
				return svc.Games.Details(ctx, id)
			})
			if g, ok := res.First(); ok {
				r.Game(g, res.Source)
				return
			}
			r.NotFound("game "+args[0], res.Err)
		})
	},
}

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <local-id>",
	Short: "Show a cached entry by its local ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		svc, err := openService()
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx := cmd.Context()
		r := newRenderer(os.Stdout)

		if useFilms {
			f, ok, err := svc.Films.Get(ctx, id)
			if err != nil {
				return err
			}
			if !ok {
				r.NotFound("film #"+args[0], nil)
				return nil
			}
			r.Film(f, domain.SourceCache)
			return nil
		}

		g, ok, err := svc.Games.Get(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			r.NotFound("game #"+args[0], nil)
			return nil
		}
		r.Game(g, domain.SourceCache)
		return nil
	},
}

// wipeCmd represents the wipe command
var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete cached entries (games by default, --films for films, --all for both)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")

		svc, err := openService()
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx := cmd.Context()
		r := newRenderer(os.Stdout)

		switch {
		case all:
			if err := svc.WipeAll(ctx); err != nil {
				return err
			}
			r.Message("Cleared cached games and films")
		case useFilms:
			if err := svc.Films.Wipe(ctx); err != nil {
				return err
			}
			r.Message("Cleared cached films")
		default:
			if err := svc.Games.Wipe(ctx); err != nil {
				return err
			}
			r.Message("Cleared cached games")
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().BoolVarP(&localOnly, "local", "l", false, "search the local cache only")
	wipeCmd.Flags().Bool("all", false, "wipe both catalogs")

	rootCmd.AddCommand(searchCmd, popularCmd, topCmd, cachedCmd, detailsCmd, getCmd, wipeCmd)
}

// withService opens the service, runs fn and closes it.
// Fetches never fail, so fn has no error to return.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *service.CatalogService, r *ui.Renderer)) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	fn(cmd.Context(), svc, newRenderer(os.Stdout))
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", s)
	}
	return id, nil
}

// withSpinner runs fn, animating a spinner on stderr while it works
func withSpinner[T any](label string, fn func() T) T {
	if !isTerminal() {
		return fn()
	}

	resultCh := make(chan T, 1)
	go func() {
		resultCh <- fn()
	}()

	frame := 0
	fmt.Fprintf(os.Stderr, "\r%s %s", ui.SpinnerFrames[frame], label)

	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case res := <-resultCh:
			fmt.Fprint(os.Stderr, clearSpinnerLine)
			return res
		case <-ticker.C:
			frame++
			fmt.Fprintf(os.Stderr, "\r%s %s", ui.SpinnerFrames[frame%len(ui.SpinnerFrames)], label)
		}
	}
}
