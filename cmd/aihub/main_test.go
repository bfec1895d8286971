package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/aihub/internal/config"
	"github.com/pders01/aihub/internal/content"
	"github.com/pders01/aihub/internal/mockapi"
)

func resetFlags() {
	cfgFile, dbPath, baseURL, debug, quiet = "", "", "", false, false
	listTag, listQuery, listJSON, listReload = "", "", false, false
	showRaw = false
	likedKind, likedTags, likedQuery, likedJSON = "", nil, "", false
	tagsKind = "tools"
	searchRefresh, searchMax = false, searchLimit
	loginEmail = ""
}

// withBackend points the package config at a fresh mock backend and a
// temporary database.
func withBackend(t *testing.T) *mockapi.Server {
	t.Helper()
	resetFlags()
	backend := mockapi.New(mockapi.Options{})
	ts := httptest.NewServer(newMockHandler(backend))
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	c := config.TestConfig()
	c.API.BaseURL = ts.URL + "/api"
	c.Database.Path = filepath.Join(dir, "aihub.db")
	c.Database.SearchIndex = filepath.Join(dir, "index.bleve")
	c.Cache.Persist = true
	cfg = c
	t.Cleanup(func() {
		cfg = nil
		resetFlags()
	})
	return backend
}

func run(t *testing.T, fn func(*cobra.Command, []string) error, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetContext(context.Background())
	err := fn(cmd, args)
	return out.String(), err
}

func signIn(t *testing.T) {
	t.Helper()
	out, err := run(t, runLogin, "user1@example.com\npassword\n")
	require.NoError(t, err)
	require.Contains(t, out, "Signed in as Alex Johnson")
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	defer versionCmd.SetOut(nil)

	versionCmd.Run(versionCmd, nil)

	out := buf.String()
	if !strings.Contains(out, "aihub dev") {
		t.Errorf("Expected version output to contain 'aihub dev', got: %s", out)
	}
	if !strings.Contains(out, "AI Tool Hub terminal client") {
		t.Errorf("Expected version output to describe the client, got: %s", out)
	}
	if !strings.Contains(out, "github.com/pders01/aihub") {
		t.Errorf("Expected version output to contain 'github.com/pders01/aihub', got: %s", out)
	}
}

func TestGenerateConfigCommand(t *testing.T) {
	resetFlags()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	configFile := filepath.Join(tmpDir, ".config", "aihub", "config.toml")

	out, err := run(t, runConfigGenerate, "")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		t.Errorf("Config file was not created at %s", configFile)
	}
	if !strings.Contains(out, "Generated default configuration at:") {
		t.Errorf("Expected output to contain 'Generated default configuration at:', got: %s", out)
	}

	loaded, err := config.Load(configFile)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if loaded.Cache.TTL.Minutes() != 5 {
		t.Errorf("expected a 5 minute cache TTL, got %s", loaded.Cache.TTL)
	}
}

func TestLoadConfigAppliesFlags(t *testing.T) {
	resetFlags()
	t.Cleanup(func() {
		cfg = nil
		resetFlags()
	})
	dir := t.TempDir()
	cfgFile = filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("[api]\nbase_url = \"http://localhost:9999/api\"\n"), 0o600))
	dbPath = filepath.Join(dir, "other.db")

	require.NoError(t, loadConfig(listCmd, nil))
	assert.Equal(t, "http://localhost:9999/api", cfg.API.BaseURL)
	assert.Equal(t, dbPath, cfg.Database.Path)

	baseURL = "ftp://example.com"
	assert.Error(t, loadConfig(listCmd, nil))
}

func TestLoadConfigSkippedForConfigCommands(t *testing.T) {
	resetFlags()
	cfg = nil
	cfgFile = filepath.Join(t.TempDir(), "missing", "config.toml")
	t.Cleanup(resetFlags)

	require.NoError(t, loadConfig(configGenCmd, nil))
	require.NoError(t, loadConfig(versionCmd, nil))
	assert.Nil(t, cfg)
}

func TestListCommand(t *testing.T) {
	withBackend(t)

	out, err := run(t, runList, "", "tools")
	require.NoError(t, err)
	assert.Contains(t, out, "ChatGPT")
	assert.Contains(t, out, "Jasper")
	assert.Contains(t, out, "6 items")

	listTag = "Art"
	out, err = run(t, runList, "", "tools")
	require.NoError(t, err)
	assert.Contains(t, out, "DALL-E")
	assert.Contains(t, out, "Midjourney")
	assert.NotContains(t, out, "ChatGPT")

	listTag, listQuery = "", "copilot"
	out, err = run(t, runList, "", "tool")
	require.NoError(t, err)
	assert.Contains(t, out, "GitHub Copilot")
	assert.Contains(t, out, "1 items")

	listQuery, listJSON = "", true
	out, err = run(t, runList, "", "podcasts")
	require.NoError(t, err)
	items, err := content.DecodeMixed([]byte(out))
	require.NoError(t, err)
	require.Len(t, items, 5)
	for _, it := range items {
		assert.Equal(t, content.KindPodcast, it.Kind())
	}

	_, err = run(t, runList, "", "videos")
	assert.Error(t, err)
}

func TestShowCommand(t *testing.T) {
	withBackend(t)
	showRaw = true

	out, err := run(t, runShow, "", "tools", "tool1")
	require.NoError(t, err)
	assert.Contains(t, out, "ChatGPT")
	assert.Contains(t, out, "https://chat.openai.com/")

	_, err = run(t, runShow, "", "tools", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no tool with id "nope"`)
}

func TestSignedInFlow(t *testing.T) {
	withBackend(t)

	_, err := run(t, runWhoami, "")
	assert.ErrorIs(t, err, errSignedOut)
	_, err = run(t, runLike, "", "tools", "tool6")
	assert.ErrorIs(t, err, errSignedOut)

	signIn(t)

	out, err := run(t, runWhoami, "")
	require.NoError(t, err)
	assert.Contains(t, out, "Alex Johnson <user1@example.com>")

	out, err = run(t, runLike, "", "tools", "tool6")
	require.NoError(t, err)
	assert.Equal(t, "Liked Jasper (1 likes)\n", out)

	out, err = run(t, runLiked, "")
	require.NoError(t, err)
	assert.Contains(t, out, "Jasper")
	assert.Contains(t, out, "tool")

	likedKind = "tools"
	likedTags = []string{"Marketing"}
	out, err = run(t, runLiked, "")
	require.NoError(t, err)
	assert.Contains(t, out, "Jasper")
	assert.NotContains(t, out, "GitHub Copilot")

	out, err = run(t, runLike, "", "tool", "tool6")
	require.NoError(t, err)
	assert.Equal(t, "Unliked Jasper (0 likes)\n", out)

	out, err = run(t, runComment, "", "tool1", "Handy", "for", "drafts")
	require.NoError(t, err)
	assert.Contains(t, out, "3 comments on tool1")

	out, err = run(t, runComments, "", "tool1")
	require.NoError(t, err)
	assert.Contains(t, out, "Handy for drafts")
	assert.Contains(t, out, "Alex Johnson")

	_, err = run(t, runComment, "", "tool1", "   ")
	assert.Error(t, err)

	out, err = run(t, runLogout, "")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out")
	_, err = run(t, runWhoami, "")
	assert.ErrorIs(t, err, errSignedOut)
}

func TestLoginWithWrongPassword(t *testing.T) {
	withBackend(t)
	loginEmail = "user1@example.com"

	_, err := run(t, runLogin, "wrong\n")
	assert.Error(t, err)
	_, err = run(t, runWhoami, "")
	assert.ErrorIs(t, err, errSignedOut)
}

func TestLikeFailureIsReported(t *testing.T) {
	backend := withBackend(t)
	signIn(t)

	// The detail read passes; the toggle fails.
	backend.FailNext(0, http.StatusInternalServerError)
	_, err := run(t, runLike, "", "tools", "tool6")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "toggling like")

	listJSON, listReload = true, true
	out, err := run(t, runList, "", "tools")
	require.NoError(t, err)
	items, err := content.DecodeMixed([]byte(out))
	require.NoError(t, err)
	for _, it := range items {
		if it.Common().ID == "tool6" {
			assert.False(t, content.LikeStateOf(it).IsLiked())
			assert.Equal(t, 0, content.LikeStateOf(it).Count)
		}
	}
}

func TestExpiredSessionIsCleared(t *testing.T) {
	backend := withBackend(t)
	signIn(t)

	backend.FailNext(http.StatusUnauthorized)
	_, err := run(t, runLiked, "")
	require.Error(t, err)

	_, err = run(t, runWhoami, "")
	assert.ErrorIs(t, err, errSignedOut)
}

func TestTagsCommand(t *testing.T) {
	withBackend(t)

	out, err := run(t, runTags, "")
	require.NoError(t, err)
	assert.Contains(t, strings.Split(strings.TrimSpace(out), "\n"), "Art")

	tagsKind = "news"
	out, err = run(t, runTags, "")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))
}

func TestSearchCommand(t *testing.T) {
	withBackend(t)

	out, err := run(t, runSearch, "", "copilot")
	require.NoError(t, err)
	assert.Contains(t, out, "GitHub Copilot")

	out, err = run(t, runSearch, "", "qqxzv")
	require.NoError(t, err)
	assert.Contains(t, out, "No matches.")
}

func TestFeatureFlags(t *testing.T) {
	withBackend(t)
	cfg.Features.Comments = false
	cfg.Features.Likes = false

	_, err := run(t, runComments, "", "tool1")
	assert.ErrorIs(t, err, errCommentsOff)
	_, err = run(t, runLike, "", "tools", "tool1")
	assert.Error(t, err)
}

func TestMockHandlerMountsAPI(t *testing.T) {
	ts := httptest.NewServer(newMockHandler(mockapi.New(mockapi.Options{})))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/tools")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/tools")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
