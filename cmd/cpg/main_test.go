package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func testApp() *cli.App {
	return &cli.App{
		Name: "cpg",
		Commands: []*cli.Command{
			buildCommand(),
			showCommand(),
		},
	}
}

func TestBuildThenShowRoundTrip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mod.py"), []byte("def helper():\n    return 1\n"), 0o644))
	dbPath := filepath.Join(dir, "out.sqlite")

	app := testApp()
	app.Writer = &bytes.Buffer{}
	err := app.Run([]string{"cpg", "build", "--db", dbPath, dir})
	require.NoError(t, err)

	_, statErr := os.Stat(dbPath)
	require.NoError(t, statErr)

	projectName := filepath.Base(dir)
	qn := projectName + ".mod.helper"

	var out bytes.Buffer
	app2 := testApp()
	app2.Writer = &out
	err = app2.Run([]string{"cpg", "show", "--db", dbPath, qn})
	require.NoError(t, err)
	assert.Contains(t, out.String(), qn)
}

func TestBuildRequiresPathArgument(t *testing.T) {
	app := testApp()
	err := app.Run([]string{"cpg", "build"})
	assert.Error(t, err)
}

func TestShowRequiresQNArgument(t *testing.T) {
	app := testApp()
	err := app.Run([]string{"cpg", "show"})
	assert.Error(t, err)
}

func TestShowUnknownQNErrors(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "out.sqlite")

	app := testApp()
	err := app.Run([]string{"cpg", "show", "--db", dbPath, "nothing.here"})
	assert.Error(t, err)
}
