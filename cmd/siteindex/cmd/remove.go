package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/siteindex/internal/content"
	sierrors "github.com/Aman-CERP/siteindex/internal/errors"
	"github.com/Aman-CERP/siteindex/internal/index"
	"github.com/Aman-CERP/siteindex/internal/output"
	"github.com/Aman-CERP/siteindex/internal/store"
)

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <webpage|product|user> <id>",
		Short: "Soft-delete an entity and drop it from its index",
		Example: `  siteindex remove webpage 12
  siteindex remove user 3`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"webpage", "product", "user"},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return sierrors.ValidationError(fmt.Sprintf("invalid id %q", args[1]), err)
			}

			e, err := a.openEnv()
			if err != nil {
				return err
			}
			defer func() { _ = e.Close() }()

			ctx := cmd.Context()
			site, err := e.site(ctx)
			if err != nil {
				return err
			}

			entity, err := softDelete(ctx, e.store, args[0], id)
			if err != nil {
				return err
			}

			var errs []error
			for _, r := range e.service(site).Dispatch(index.Event{Kind: index.EntityUpdated, Entity: entity}) {
				if !r.Success {
					errs = append(errs, r.Err)
				}
			}
			if err := errors.Join(errs...); err != nil {
				return err
			}

			output.New(cmd.OutOrStdout()).Successf("Removed %s %d", args[0], id)
			return nil
		},
	}
}

// softDelete marks the entity deleted in the store and returns its new state.
func softDelete(ctx context.Context, st *store.Store, kind string, id int64) (content.Entity, error) {
	var (
		entity content.Entity
		err    error
	)
	switch kind {
	case "webpage":
		if err = st.DeleteWebpage(ctx, id); err == nil {
			entity, err = st.GetWebpage(ctx, id)
		}
	case "product":
		if err = st.DeleteProduct(ctx, id); err == nil {
			entity, err = st.GetProduct(ctx, id)
		}
	case "user":
		if err = st.DeleteUser(ctx, id); err == nil {
			entity, err = st.GetUser(ctx, id)
		}
	default:
		return nil, sierrors.ValidationError(
			fmt.Sprintf("unknown entity kind %q", kind), nil).
			WithSuggestion("Use one of: webpage, product, user")
	}

	if errors.Is(err, store.ErrNotFound) {
		return nil, sierrors.ValidationError(fmt.Sprintf("%s %d does not exist", kind, id), err)
	}
	return entity, err
}
