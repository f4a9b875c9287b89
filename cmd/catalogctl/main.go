// Command catalogctl queries the catalog from the command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rrautos/catalog-client/pkg/catalog"
	"github.com/rrautos/catalog-client/pkg/config"
	"github.com/rrautos/catalog-client/pkg/logging"
	"github.com/rrautos/catalog-client/pkg/pagination"
	"github.com/rrautos/catalog-client/pkg/sitemap"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	configPath string
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "catalogctl",
		Short: "Query the vehicle catalog",
		Long: `catalogctl reads brands and items from the upstream commerce API
with the same retries, slug resolution and pagination as the proxy.

Configuration comes from --config (YAML), a .env file and the
environment (CATALOG_API_BASE_URL, CATALOG_PAGE_SIZE, REDIS_URL, ...).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logging.ParseLevel(opts.logLevel)
			if err != nil {
				return err
			}
			logging.Setup(logging.Config{Level: level, Pretty: true, Output: stderr})
			return nil
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newBrandsCmd(opts),
		newItemsCmd(opts),
		newItemCmd(opts),
		newPagesCmd(),
		newSitemapCmd(opts),
	)

	return rootCmd
}

// session is a loaded configuration and a client built from it.
type session struct {
	cfg    config.Config
	client *catalog.Client
	close  func() error
}

func openSession(opts *options) (*session, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	clientCfg, closeCache, err := cfg.CatalogConfig()
	if err != nil {
		return nil, err
	}

	client, err := catalog.New(clientCfg)
	if err != nil {
		closeCache()
		return nil, err
	}

	logger := logging.NewLogger(logging.ComponentCLI)
	logger.Debug().
		Str("upstream", clientCfg.BaseURL).
		Bool("redis_cache", cfg.Cache.RedisURL != "").
		Msg("Catalog client ready")

	return &session{
		cfg:    cfg,
		client: client,
		close: func() error {
			client.Close()
			return closeCache()
		},
	}, nil
}

func newBrandsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "brands",
		Short: "List brands sorted by title",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			defer s.close()

			brands, err := s.client.ListBrands(cmd.Context())
			if err != nil {
				return fmt.Errorf("list brands: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), brands)
		},
	}
}

func newItemsCmd(opts *options) *cobra.Command {
	var (
		page     int
		pageSize int
		brand    string
	)

	cmd := &cobra.Command{
		Use:   "items",
		Short: "List one page of items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			defer s.close()

			if pageSize <= 0 {
				pageSize = s.cfg.API.PageSize
			}

			result, err := s.client.ListItems(cmd.Context(), catalog.PageRequest{
				Page:     page,
				PageSize: pageSize,
				Brand:    brand,
			})
			if err != nil {
				return fmt.Errorf("list items: %w", err)
			}

			totalPages := pagination.TotalPages(result.Total, pageSize)
			seq := pagination.BuildSequence(totalPages, page)
			if seq == nil {
				seq = []pagination.Token{}
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"items":       result.Items,
				"total":       result.Total,
				"page":        max(page, 1),
				"total_pages": totalPages,
				"pagination":  seq,
			})
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page number (1-based)")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Items per page (default from configuration)")
	cmd.Flags().StringVarP(&brand, "brand", "b", "", "Brand (collection) identifier")

	return cmd
}

func newItemCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "item <slug>",
		Short: "Show the item with the given slug",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			defer s.close()

			item, ok := s.client.FetchItemBySlug(cmd.Context(), args[0])
			if !ok {
				return fmt.Errorf("no item with slug %q", args[0])
			}
			return printJSON(cmd.OutOrStdout(), item.Detail())
		},
	}
}

func newPagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pages <total-pages> <current-page>",
		Short: "Print the pagination control for a page",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			total, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("total pages: %w", err)
			}
			current, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("current page: %w", err)
			}

			seq := pagination.BuildSequence(total, current)
			if seq == nil {
				seq = []pagination.Token{}
			}
			return printJSON(cmd.OutOrStdout(), seq)
		},
	}
}

func newSitemapCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sitemap",
		Short: "Write the sitemap XML to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			defer s.close()

			builder, err := sitemap.NewBuilder(s.client, sitemap.Config{
				SiteURL:   s.cfg.Sitemap.SiteURL,
				ItemsPath: s.cfg.Sitemap.ItemsPath,
			})
			if err != nil {
				return err
			}

			entries, err := builder.Build(cmd.Context())
			if err != nil {
				return fmt.Errorf("build sitemap: %w", err)
			}
			return sitemap.Render(cmd.OutOrStdout(), entries)
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
