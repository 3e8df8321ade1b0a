package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/amaironohi/shop/internal/app"
	"github.com/amaironohi/shop/internal/catalog"
	"github.com/amaironohi/shop/internal/cli/ui"
)

// confirm asks a yes/no question on the terminal
var confirm = func(message string) (bool, error) {
	ok := false
	err := survey.AskOne(&survey.Confirm{Message: message, Default: false}, &ok)
	return ok, err
}

// NewSeedCommand creates the seed command
func NewSeedCommand() *cobra.Command {
	var (
		defaults bool
		yes      bool
	)

	cmd := &cobra.Command{
		Use:   "seed [products.json]",
		Short: "Bulk-register products",
		Long: `Register products from a JSON array of {id, name, category, price, image}
objects, or the built-in starter catalog with --defaults. Products whose id is
already registered are skipped.`,
		Example: `  shop seed products.json
  shop seed --defaults --yes`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var products []catalog.ProductInput
			switch {
			case defaults && len(args) == 1:
				return errors.New("pass either a file or --defaults, not both")
			case defaults:
				products = catalog.DefaultProducts()
			case len(args) == 1:
				var err error
				if products, err = readProducts(args[0]); err != nil {
					return err
				}
			default:
				return errors.New("a products file or --defaults is required")
			}

			out := cmd.OutOrStdout()
			if len(products) == 0 {
				ui.Warn(out, "nothing to register")
				return nil
			}

			if !yes {
				ok, err := confirm(fmt.Sprintf("Register %d products?", len(products)))
				if err != nil {
					return err
				}
				if !ok {
					ui.Warn(out, "aborted")
					return nil
				}
			}

			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx := cmd.Context()
			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			if err := a.Store.Migrate(ctx); err != nil {
				return err
			}
			res, err := a.Catalog.BulkRegisterProducts(ctx, products)
			if err != nil {
				return err
			}

			printSeedResult(cmd, products, res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&defaults, "defaults", false, "register the built-in starter catalog")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func readProducts(path string) ([]catalog.ProductInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read products file: %w", err)
	}
	var products []catalog.ProductInput
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return products, nil
}

func printSeedResult(cmd *cobra.Command, products []catalog.ProductInput, res catalog.BulkResult) {
	out := cmd.OutOrStdout()
	registered := make(map[string]bool, len(res.RegisteredIDs))
	for _, id := range res.RegisteredIDs {
		registered[id] = true
	}

	tbl := ui.NewTable(out, "ID", "NAME", "PRICE", "STATUS")
	for _, p := range products {
		status := "skipped"
		if registered[p.ID] {
			status = "registered"
		}
		tbl.AddRow(p.ID, p.Name, strconv.FormatInt(p.Price, 10), status)
	}
	tbl.Render()

	ui.Success(out, "%d 件の商品を登録しました", res.RegisteredCount)
}
