package command

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"foodgram/internal/http-api/dto"
)

var loadIngredientsCmd = &cobra.Command{
	Use:   "load-ingredients [file.json]",
	Short: "Import ingredients from a JSON fixture",
	Long: `Import ingredients from a JSON array of {"name", "measurement_unit"} objects.
Rows that already exist are skipped, so the command can be re-run safely.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := readFixture[dto.IngredientRequest](args[0])
		if err != nil {
			return err
		}

		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		created, err := a.Services.Ingredients.Import(cmd.Context(), items)
		if err != nil {
			return fmt.Errorf("failed to import ingredients: %w", err)
		}
		color.Green("✓ Loaded %d new ingredients (%d in file)", created, len(items))
		return nil
	},
}

var loadTagsCmd = &cobra.Command{
	Use:   "load-tags [file.json]",
	Short: "Import tags from a JSON fixture",
	Long:  `Import tags from a JSON array of {"name", "color", "slug"} objects. Existing slugs are skipped.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tags, err := readFixture[dto.TagRequest](args[0])
		if err != nil {
			return err
		}

		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		created, err := a.Services.Tags.Import(cmd.Context(), tags)
		if err != nil {
			return fmt.Errorf("failed to import tags: %w", err)
		}
		color.Green("✓ Loaded %d new tags (%d in file)", created, len(tags))
		return nil
	},
}

func readFixture[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()
	return decodeFixture[T](f)
}

func decodeFixture[T any](r io.Reader) ([]T, error) {
	var rows []T
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("fixture is empty")
	}
	return rows, nil
}

func init() {
	rootCmd.AddCommand(loadIngredientsCmd)
	rootCmd.AddCommand(loadTagsCmd)
}
