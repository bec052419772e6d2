// Package report runs term extraction over one or more shops and renders
// the results as a table.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Sternrassler/etsy-terms/pkg/listing"
	"github.com/Sternrassler/etsy-terms/pkg/logging"
	"github.com/Sternrassler/etsy-terms/pkg/terms"
)

// ListingSource fetches all active listings of a shop.
// *client.Client implements it.
type ListingSource interface {
	GetShopListings(ctx context.Context, shopID string) ([]listing.Listing, error)
}

// Result is the outcome for one shop.
type Result struct {
	ShopID   string
	Listings int
	Terms    []string
}

// Runner extracts top terms per shop.
type Runner struct {
	source      ListingSource
	numTerms    int
	concurrency int
	logger      zerolog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithNumTerms sets how many terms are reported per shop.
func WithNumTerms(n int) Option {
	return func(r *Runner) { r.numTerms = n }
}

// WithConcurrency sets how many shops are fetched at once.
func WithConcurrency(n int) Option {
	return func(r *Runner) { r.concurrency = n }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// NewRunner creates a Runner reading listings from source.
func NewRunner(source ListingSource, opts ...Option) *Runner {
	r := &Runner{
		source:      source,
		numTerms:    terms.DefaultNumTerms,
		concurrency: 1,
		logger:      logging.NewLogger("report"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.concurrency < 1 {
		r.concurrency = 1
	}
	return r
}

// Run processes shops and returns one Result per shop in input order.
// The first failing shop cancels the others and its error is returned.
func (r *Runner) Run(ctx context.Context, shopIDs []string) ([]Result, error) {
	results := make([]Result, len(shopIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, shopID := range shopIDs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.RunShop(gctx, shopID)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// RunShop fetches one shop's listings and extracts its top terms.
// A shop without usable text yields an empty term list.
func (r *Runner) RunShop(ctx context.Context, shopID string) (Result, error) {
	listings, err := r.source.GetShopListings(ctx, shopID)
	if err != nil {
		return Result{}, fmt.Errorf("shop %s: %w", shopID, err)
	}

	docs := make([]string, len(listings))
	for i, l := range listings {
		docs[i] = l.Document()
	}

	found, err := terms.Extract(docs, terms.Options{
		NumTerms:            r.numTerms,
		AdditionalStopWords: []string{shopID},
	})
	switch {
	case errors.Is(err, terms.ErrNoTerms):
		r.logger.Warn().Str("shop_id", shopID).Int("listings", len(listings)).Msg("No terms found")
		found = []string{}
	case err != nil:
		return Result{}, fmt.Errorf("shop %s: extract terms: %w", shopID, err)
	}

	r.logger.Debug().
		Str("shop_id", shopID).
		Int("listings", len(listings)).
		Strs("terms", found).
		Msg("Shop processed")

	return Result{ShopID: shopID, Listings: len(listings), Terms: found}, nil
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// Render writes results as a "Shop ID | Top Terms" table.
func Render(w io.Writer, results []Result) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Shop ID", "Top Terms").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, res := range results {
		t.Row(res.ShopID, strings.Join(res.Terms, ", "))
	}

	_, err := fmt.Fprintln(w, t.String())
	return err
}
