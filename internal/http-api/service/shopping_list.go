package service

import (
	"context"
	"fmt"
	"strings"

	"foodgram/internal/http-api/repository"
	"foodgram/internal/metrics"
	"foodgram/internal/shared"
)

// ShoppingList is the rendered plain-text export of a user's cart.
type ShoppingList struct {
	FileName string
	Content  string
	Lines    int
}

const shoppingListColumns = "Ingredient - Amount/Unit"

// ShoppingList aggregates the viewer's cart. An empty cart yields the
// header only.
func (s *recipeService) ShoppingList(ctx context.Context, viewer shared.Identity) (*ShoppingList, error) {
	if err := requireIdentity(viewer); err != nil {
		return nil, err
	}
	lines, err := s.shopping.Aggregate(ctx, viewer.UserID)
	if err != nil {
		return nil, err
	}
	metrics.ShoppingListLines.Observe(float64(len(lines)))
	return &ShoppingList{
		FileName: viewer.Username + "_shopping_list.txt",
		Content:  RenderShoppingList(viewer.Username, lines),
		Lines:    len(lines),
	}, nil
}

// RenderShoppingList formats aggregated lines as "<name> - <amount>/<unit>"
// under a two-line header and a blank separator.
func RenderShoppingList(username string, lines []repository.ShoppingLine) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Shopping list for %s:\n", username)
	b.WriteString(shoppingListColumns + "\n\n")
	for _, l := range lines {
		fmt.Fprintf(&b, "%s - %d/%s\n", l.Name, l.Amount, l.MeasurementUnit)
	}
	return b.String()
}
