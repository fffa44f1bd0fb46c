package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFlagsWithArgsDefaults(t *testing.T) {
	args, action := parseFlagsWithArgs([]string{})
	assert.Equal(t, "", action)
	assert.Equal(t, "", args.host)
	assert.Equal(t, "", args.port)
	assert.Equal(t, "", args.transport)
}

func TestParseFlagsWithArgsOverrides(t *testing.T) {
	args, action := parseFlagsWithArgs([]string{
		"-host", "127.0.0.1",
		"-port", "2121",
		"-transport", "rudp",
		"-log-level", "debug",
	})

	assert.Equal(t, "", action)
	assert.Equal(t, "127.0.0.1", args.host)
	assert.Equal(t, "2121", args.port)
	assert.Equal(t, "rudp", args.transport)
	assert.Equal(t, "debug", args.logLevel)
}

func TestParseFlagsWithArgsHelp(t *testing.T) {
	_, action := parseFlagsWithArgs([]string{"-help"})
	assert.Equal(t, "help", action)
}

func TestParseFlagsWithArgsVersion(t *testing.T) {
	_, action := parseFlagsWithArgs([]string{"-version"})
	assert.Equal(t, "version", action)
}
