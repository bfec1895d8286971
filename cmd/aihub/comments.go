package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pders01/aihub/internal/catalog"
)

var errCommentsOff = errors.New("comments are disabled (features.comments)")

var commentsCmd = &cobra.Command{
	Use:   "comments <tool-id>",
	Short: "Show the comments on a tool",
	Args:  cobra.ExactArgs(1),
	RunE:  runComments,
}

var commentCmd = &cobra.Command{
	Use:     "comment <tool-id> <text>",
	Short:   "Comment on a tool",
	Example: `  aihub comment tool1 "Great for drafting emails"`,
	Args:    cobra.MinimumNArgs(2),
	RunE:    runComment,
}

func runComments(cmd *cobra.Command, args []string) error {
	if !cfg.Features.Comments {
		return errCommentsOff
	}
	env, err := openEnv(false)
	if err != nil {
		return err
	}
	defer env.Close()

	r := catalog.NewThread(env.hub, args[0]).Fetch(commandContext(cmd))
	if r.Err != nil {
		return fmt.Errorf("loading comments: %w", r.Err)
	}
	printComments(cmd.OutOrStdout(), r.Comments)
	return nil
}

func runComment(cmd *cobra.Command, args []string) error {
	if !cfg.Features.Comments {
		return errCommentsOff
	}
	env, err := openEnv(false)
	if err != nil {
		return err
	}
	defer env.Close()

	if _, err := env.requireSession(); err != nil {
		return err
	}
	thread := catalog.NewThread(env.hub, args[0])
	r := thread.Post(commandContext(cmd), strings.Join(args[1:], " "))
	if r.Err != nil {
		if catalog.IsEmptyComment(r.Err) {
			return errors.New("comment text is empty")
		}
		return fmt.Errorf("posting comment: %w", r.Err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Comment posted. %d comments on %s.\n", len(r.Comments), args[0])
	return nil
}
