package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"clipshare/internal/domain"
	"clipshare/internal/gallery"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List items with your like/save/bookmark/favorite state",
	Long: `List one page of items.

Examples:
  clipctl list
  clipctl list --scope category --category fps --limit 10
  clipctl list --scope relation --relation saved`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, _ := cmd.Flags().GetString("scope")
		owner, _ := cmd.Flags().GetString("owner")
		category, _ := cmd.Flags().GetString("category")
		relation, _ := cmd.Flags().GetString("relation")
		ids, _ := cmd.Flags().GetStringSlice("ids")
		limit, _ := cmd.Flags().GetInt("limit")
		cursor, _ := cmd.Flags().GetString("cursor")
		return listItems(cmd.Context(), gallery.Query{
			Scope:    gallery.Scope(scope),
			OwnerID:  owner,
			Category: category,
			Relation: domain.Relation(relation),
			IDs:      ids,
			Limit:    limit,
			Cursor:   cursor,
		})
	},
}

func init() {
	listCmd.Flags().String("scope", "all", "all, owner, category, relation or items")
	listCmd.Flags().String("owner", "", "Owner id for --scope owner")
	listCmd.Flags().String("category", "", "Tag or game for --scope category")
	listCmd.Flags().String("relation", "", "liked, saved, bookmarked or favorited for --scope relation")
	listCmd.Flags().StringSlice("ids", nil, "Item ids for --scope items")
	listCmd.Flags().IntP("limit", "l", gallery.DefaultLimit, "Page size")
	listCmd.Flags().String("cursor", "", "next_cursor of the previous page")
}

func listItems(ctx context.Context, q gallery.Query) error {
	client, err := dial()
	if err != nil {
		return err
	}
	defer client.Close()

	session, err := client.CurrentSession(ctx)
	if err != nil {
		return err
	}
	c, err := gallery.NewLoader(client, nil).Load(ctx, session, q)
	if err != nil {
		return err
	}
	page := gallery.Project(c, gallery.LayoutList, 0, time.Now())

	if output == "json" {
		return printJSON(page)
	}
	if len(page.Cards) == 0 {
		fmt.Println("No items.")
		return nil
	}
	for _, card := range page.Cards {
		fmt.Printf("%s  %-40s  %s likes  %s views  %s%s\n",
			card.ID, card.Title, card.LikesLabel, card.ViewsLabel, card.PostedAgo, marks(card))
	}
	if page.NextCursor != "" {
		fmt.Printf("\nMore: --cursor %q\n", page.NextCursor)
	}
	return nil
}

func marks(c gallery.Card) string {
	var m []string
	if c.IsLiked {
		m = append(m, "liked")
	}
	if c.IsSaved {
		m = append(m, "saved")
	}
	if c.IsBookmarked {
		m = append(m, "bookmarked")
	}
	if c.IsFavorited {
		m = append(m, "favorited")
	}
	if len(m) == 0 {
		return ""
	}
	return "  [" + strings.Join(m, ", ") + "]"
}

func toggleCmds() []*cobra.Command {
	verbs := map[domain.Relation]string{
		domain.RelationLiked:      "like",
		domain.RelationSaved:      "save",
		domain.RelationBookmarked: "bookmark",
		domain.RelationFavorited:  "favorite",
	}
	cmds := make([]*cobra.Command, 0, len(verbs))
	for _, rel := range domain.Relations {
		verb := verbs[rel]
		c := &cobra.Command{
			Use:   verb + " <item-id>",
			Short: fmt.Sprintf("Toggle %s on an item", rel),
			Long: fmt.Sprintf(`Flip the %[1]s state of an item, or pin it with --on/--off.

Examples:
  clipctl %[2]s 6f1c...
  clipctl %[2]s 6f1c... --off`, rel, verb),
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				on, _ := cmd.Flags().GetBool("on")
				off, _ := cmd.Flags().GetBool("off")
				if on && off {
					return fmt.Errorf("--on and --off are exclusive")
				}
				var pin *bool
				if on || off {
					pin = &on
				}
				return toggle(cmd.Context(), args[0], rel, pin)
			},
		}
		c.Flags().Bool("on", false, "Set the relation instead of flipping it")
		c.Flags().Bool("off", false, "Clear the relation instead of flipping it")
		cmds = append(cmds, c)
	}
	return cmds
}

func toggle(ctx context.Context, itemID string, rel domain.Relation, pin *bool) error {
	client, err := dial()
	if err != nil {
		return err
	}
	defer client.Close()

	session, err := client.CurrentSession(ctx)
	if err != nil {
		return err
	}
	c, err := gallery.NewLoader(client, nil).LoadItem(ctx, session, itemID)
	if err != nil {
		return err
	}

	notices := gallery.NotifierFunc(func(n gallery.Notice) {
		fmt.Fprintf(os.Stderr, "%s: %s\n", n.Title, n.Message)
	})
	v := gallery.NewView(ctx, session, c, notices)
	defer v.Close()

	rec := gallery.NewReconciler(client, nil, gallery.PolicyFromConfig(cfg.Reconciler), nil)
	defer rec.Wait()

	var res gallery.Result
	if pin != nil {
		res, err = rec.Apply(ctx, v, domain.ToggleIntent{ItemID: itemID, Relation: rel, Target: *pin})
	} else {
		res, err = rec.Toggle(ctx, v, itemID, rel)
	}
	if err != nil {
		return err
	}

	if output == "json" {
		return printJSON(res)
	}
	state := "off"
	if res.Member {
		state = "on"
	}
	fmt.Printf("%s %s: %s", itemID, rel, state)
	if rel.AdjustsCounter() {
		fmt.Printf(" (%s likes)", gallery.FormatCount(res.LikeCount))
	}
	if !res.Changed {
		fmt.Print(" unchanged")
	}
	fmt.Println()
	return nil
}
