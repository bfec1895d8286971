package tui

import (
	"fmt"
	"strings"

	"github.com/pders01/aihub/internal/content"
)

// Canonical short status messages used across the app.
const (
	MsgRefreshing     = "Refreshing…"
	MsgLoading        = "Loading…"
	MsgLoadingDetail  = "Loading details…"
	MsgSigningIn      = "Signing in…"
	MsgSignedOut      = "Signed out"
	MsgPosting        = "Posting comment…"
	MsgCommentPosted  = "Comment posted"
	MsgEmptyComment   = "Comment cannot be empty"
	MsgSessionExpired = "Your session has expired. Please sign in again."
	MsgSignInToLike   = "Sign in to like content"
	MsgSignInComment  = "Sign in to comment"
	MsgNoResults      = "No results"
	MsgNoLink         = "Nothing to open"
)

func MsgSignedIn(name string) string {
	return fmt.Sprintf("Signed in as %s", strings.TrimSpace(name))
}

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

func MsgItemsCount(kind content.Kind, n int) string {
	label := strings.ToLower(kind.Label())
	return fmt.Sprintf("%d %s", n, label)
}

func MsgTagFilter(tag string) string {
	return fmt.Sprintf("Filtered by #%s", tag)
}

func MsgLikeFailed(err error) string {
	return fmt.Sprintf("Could not update like: %v", err)
}
