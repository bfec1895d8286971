package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pders01/aihub/internal/catalog"
	"github.com/pders01/aihub/internal/content"
	"github.com/pders01/aihub/internal/render"
)

const searchLimit = 20

var (
	listTag    string
	listQuery  string
	listJSON   bool
	listReload bool

	showRaw bool

	likedKind  string
	likedTags  []string
	likedQuery string
	likedJSON  bool

	tagsKind string

	searchRefresh bool
	searchMax     int
)

var listCmd = &cobra.Command{
	Use:   "list <kind>",
	Short: "List tools, documents, news or podcasts",
	Long: `List one kind of content. --tag asks the server for items carrying the
tag; --search narrows the result by title, description and tags.`,
	Example: `  aihub list tools --tag Art
  aihub list news --search agents --json`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"tools", "documents", "news", "podcasts"},
	RunE:      runList,
}

var showCmd = &cobra.Command{
	Use:   "show <kind> <id>",
	Short: "Show one item in full",
	Args:  cobra.ExactArgs(2),
	RunE:  runShow,
}

var likeCmd = &cobra.Command{
	Use:   "like <kind> <id>",
	Short: "Toggle your like on an item",
	Args:  cobra.ExactArgs(2),
	RunE:  runLike,
}

var likedCmd = &cobra.Command{
	Use:   "liked",
	Short: "List everything you liked",
	Long: `List liked items across all kinds. --kind narrows to one kind and
each --tag adds a tag, keeping items that carry any of them.`,
	Args: cobra.NoArgs,
	RunE: runLiked,
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List the tags of one kind",
	Args:  cobra.NoArgs,
	RunE:  runTags,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search everything aihub has loaded",
	Long: `Search the local index of every item loaded so far. The catalog is
fetched first when the index is empty or --refresh is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	listCmd.Flags().StringVarP(&listTag, "tag", "t", "", "only items with this tag")
	listCmd.Flags().StringVarP(&listQuery, "search", "s", "", "filter by text")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print JSON")
	listCmd.Flags().BoolVarP(&listReload, "refresh", "r", false, "ignore cached results")

	showCmd.Flags().BoolVar(&showRaw, "raw", false, "print markdown without styling")

	likedCmd.Flags().StringVarP(&likedKind, "kind", "k", "", "only this kind")
	likedCmd.Flags().StringSliceVarP(&likedTags, "tag", "t", nil, "only items with any of these tags")
	likedCmd.Flags().StringVarP(&likedQuery, "search", "s", "", "filter by text")
	likedCmd.Flags().BoolVar(&likedJSON, "json", false, "print JSON")

	tagsCmd.Flags().StringVarP(&tagsKind, "kind", "k", "tools", "kind whose tags to list")

	searchCmd.Flags().BoolVarP(&searchRefresh, "refresh", "r", false, "fetch the catalog before searching")
	searchCmd.Flags().IntVarP(&searchMax, "limit", "n", searchLimit, "maximum number of results")
}

func runList(cmd *cobra.Command, args []string) error {
	kind, err := content.ParseKind(args[0])
	if err != nil {
		return err
	}
	env, err := openEnv(false)
	if err != nil {
		return err
	}
	defer env.Close()

	ctrl := catalog.NewController(env.hub, kind)
	ctrl.SetTag(listTag)
	ctrl.SetQuery(listQuery)

	var r catalog.Result
	if listReload {
		r = ctrl.Refresh(commandContext(cmd))
	} else {
		r = ctrl.Load(commandContext(cmd))
	}
	if r.Err != nil {
		return fmt.Errorf("loading %s: %w", strings.ToLower(kind.Label()), r.Err)
	}

	if listJSON {
		return printItemsJSON(cmd.OutOrStdout(), ctrl.Visible())
	}
	printItems(cmd.OutOrStdout(), ctrl.Visible(), false)
	return nil
}

// loadItem fetches one item, turning a missing item into a readable error.
func loadItem(cmd *cobra.Command, env *hubEnv, kindArg, id string) (content.Item, error) {
	kind, err := content.ParseKind(kindArg)
	if err != nil {
		return nil, err
	}
	r := env.hub.LoadDetail(commandContext(cmd), content.Key{Kind: kind, ID: id})
	switch {
	case r.NotFound:
		return nil, fmt.Errorf("no %s with id %q", strings.TrimSuffix(strings.ToLower(kind.Label()), "s"), id)
	case r.Err != nil:
		return nil, r.Err
	}
	return r.Item, nil
}

func runShow(cmd *cobra.Command, args []string) error {
	env, err := openEnv(false)
	if err != nil {
		return err
	}
	defer env.Close()

	item, err := loadItem(cmd, env, args[0], args[1])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if showRaw {
		fmt.Fprintln(out, render.Markdown(item))
		return nil
	}
	style := ""
	if terminalWidth(0) == 0 {
		style = "notty"
	}
	rendered, err := newRenderer(style).Item(item, terminalWidth(100))
	if err != nil {
		return err
	}
	fmt.Fprint(out, rendered)
	return nil
}

func runLike(cmd *cobra.Command, args []string) error {
	if !cfg.Features.Likes {
		return errors.New("likes are disabled (features.likes)")
	}
	env, err := openEnv(false)
	if err != nil {
		return err
	}
	defer env.Close()

	if _, err := env.requireSession(); err != nil {
		return err
	}
	item, err := loadItem(cmd, env, args[0], args[1])
	if err != nil {
		return err
	}

	outcome := env.hub.ToggleLike(item).Commit(commandContext(cmd))
	if outcome.Err != nil {
		return fmt.Errorf("toggling like on %s: %w", outcome.Key, outcome.Err)
	}

	verb := "Unliked"
	if outcome.State.IsLiked() {
		verb = "Liked"
	}
	line := fmt.Sprintf("%s %s", verb, item.Common().Title)
	if outcome.State.Counted {
		line += fmt.Sprintf(" (%d likes)", outcome.State.Count)
	}
	fmt.Fprintln(cmd.OutOrStdout(), line)
	return nil
}

func runLiked(cmd *cobra.Command, _ []string) error {
	env, err := openEnv(false)
	if err != nil {
		return err
	}
	defer env.Close()

	if _, err := env.requireSession(); err != nil {
		return err
	}
	liked := catalog.NewLiked(env.hub)
	if likedKind != "" {
		kind, err := content.ParseKind(likedKind)
		if err != nil {
			return err
		}
		liked.SetKind(kind)
	}
	for _, tag := range likedTags {
		liked.ToggleTag(tag)
	}
	liked.SetQuery(likedQuery)

	if r := liked.Load(commandContext(cmd)); r.Err != nil {
		return fmt.Errorf("loading liked content: %w", r.Err)
	}
	if likedJSON {
		return printItemsJSON(cmd.OutOrStdout(), liked.Visible())
	}
	printItems(cmd.OutOrStdout(), liked.Visible(), liked.Kind() == "")
	return nil
}

func runTags(cmd *cobra.Command, _ []string) error {
	kind, err := content.ParseKind(tagsKind)
	if err != nil {
		return err
	}
	env, err := openEnv(false)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := commandContext(cmd)
	var tags []string
	switch kind {
	case content.KindTool:
		tags, err = env.client.Tags(ctx)
	case content.KindDocument:
		tags, err = env.client.DocumentTags(ctx)
	default:
		var items []content.Item
		items, err = env.hub.Fetch(ctx, content.AllOf(kind))
		tags = content.DistinctTags(items)
	}
	if err != nil {
		return fmt.Errorf("loading tags: %w", err)
	}
	for _, tag := range tags {
		fmt.Fprintln(cmd.OutOrStdout(), tag)
	}
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	env, err := openEnv(true)
	if err != nil {
		return err
	}
	defer env.Close()

	count, err := env.index.DocCount()
	if err != nil {
		return err
	}
	if searchRefresh || count == 0 {
		// A partial prefetch still indexes the kinds that loaded.
		if err := env.hub.Prefetch(commandContext(cmd)); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		}
	}

	results, err := env.index.Search(strings.Join(args, " "), searchMax)
	if err != nil {
		return err
	}
	printResults(cmd.OutOrStdout(), results)
	return nil
}
