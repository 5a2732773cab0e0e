package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/siteindex/internal/content"
	"github.com/Aman-CERP/siteindex/internal/index"
	"github.com/Aman-CERP/siteindex/internal/output"
	"github.com/Aman-CERP/siteindex/internal/store"
)

type seedOptions struct {
	pages    int
	products int
	users    int
}

func newSeedCmd(a *app) *cobra.Command {
	var opts seedOptions

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Add sample content to the store and index it",
		Long: `Add sample webpages, products and users to the entity store and index
each one as it is created. The site selected with --site is created when
it does not exist yet.`,
		Example: `  siteindex seed
  siteindex seed --site 2 --pages 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.openEnv()
			if err != nil {
				return err
			}
			defer func() { _ = e.Close() }()
			return runSeed(cmd, e, opts)
		},
	}

	cmd.Flags().IntVar(&opts.pages, "pages", 5, "Number of webpages to add")
	cmd.Flags().IntVar(&opts.products, "products", 3, "Number of products to add")
	cmd.Flags().IntVar(&opts.users, "users", 2, "Number of users to add")
	return cmd
}

func runSeed(cmd *cobra.Command, e *env, opts seedOptions) error {
	ctx := cmd.Context()
	out := output.New(cmd.OutOrStdout())

	site, err := ensureSite(ctx, e.store, e.app.siteID)
	if err != nil {
		return err
	}
	svc := e.service(site)

	entities, err := seedEntities(ctx, e.store, site, opts)
	if err != nil {
		return err
	}

	var errs []error
	for _, entity := range entities {
		for _, r := range svc.Dispatch(index.Event{Kind: index.EntityCreated, Entity: entity}) {
			if !r.Success {
				errs = append(errs, r.Err)
			}
		}
	}

	out.Successf("Seeded site %d (%s): %d pages, %d products, %d users",
		site.ID, site.Name, opts.pages, opts.products, opts.users)
	if len(errs) > 0 {
		out.Warningf("%d entities could not be indexed", len(errs))
	}
	return errors.Join(errs...)
}

// ensureSite returns the site with the given ID, creating it when missing.
func ensureSite(ctx context.Context, st *store.Store, id int64) (content.Site, error) {
	site, err := st.GetSite(ctx, id)
	if err == nil {
		return *site, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return content.Site{}, err
	}

	created := content.Site{
		ID:      id,
		Name:    fmt.Sprintf("Site %d", id),
		BaseURL: fmt.Sprintf("https://site%d.example.com", id),
	}
	if err := st.SaveSite(ctx, &created); err != nil {
		return content.Site{}, err
	}
	return created, nil
}

var (
	sampleTopics = []string{"About us", "Opening hours", "Delivery", "Returns policy", "Contact", "Careers", "Press"}
	sampleNames  = [][2]string{{"Ada", "Lovelace"}, {"Grace", "Hopper"}, {"Alan", "Turing"}, {"Edsger", "Dijkstra"}}
)

// seedEntities saves sample content for site and returns it in save order.
func seedEntities(ctx context.Context, st *store.Store, site content.Site, opts seedOptions) ([]content.Entity, error) {
	now := time.Now().UTC()
	batch := uuid.NewString()[:8]
	var entities []content.Entity

	for i := range opts.pages {
		topic := sampleTopics[i%len(sampleTopics)]
		publish := now
		page := &content.Webpage{
			SiteID:       site.ID,
			Title:        fmt.Sprintf("%s %d", topic, i+1),
			URLSegment:   fmt.Sprintf("page-%s-%d", batch, i+1),
			BodyContent:  fmt.Sprintf("<p>%s for <b>%s</b>.</p>", topic, site.Name),
			DocumentType: "TextPage",
			PublishOn:    &publish,
		}
		if err := st.SaveWebpage(ctx, page); err != nil {
			return nil, err
		}
		entities = append(entities, page)
	}

	for i := range opts.products {
		product := &content.Product{
			SiteID:      site.ID,
			Name:        fmt.Sprintf("Sample product %d", i+1),
			SKU:         fmt.Sprintf("SKU-%s-%03d", batch, i+1),
			Description: fmt.Sprintf("A sample product sold on %s.", site.Name),
			Price:       float64(10*(i+1)) - 0.01,
		}
		if err := st.SaveProduct(ctx, product); err != nil {
			return nil, err
		}
		entities = append(entities, product)
	}

	for i := range opts.users {
		name := sampleNames[i%len(sampleNames)]
		user := &content.User{
			Email:     fmt.Sprintf("user-%s-%d@example.com", batch, i+1),
			FirstName: name[0],
			LastName:  name[1],
			IsActive:  true,
		}
		if err := st.SaveUser(ctx, user); err != nil {
			return nil, err
		}
		entities = append(entities, user)
	}

	return entities, nil
}
