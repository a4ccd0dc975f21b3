// ABOUTME: Tests for settings parsing, option ordering and the default fallback
// ABOUTME: Settings reads must never fail the caller
package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemConfigOrdering(t *testing.T) {
	backend := newFakeBackend()
	backend.setSheet("settings", [][]string{
		{"category", "value", "order", "enabled", "note", "color", "value2", "value3"},
		{"機會種類", "third", "5", "TRUE", "", "", "", ""},
		{"機會種類", "first", "1", "TRUE", "第一", "#111111", "", ""},
		{"機會種類", "last", "abc", "TRUE", "", "", "", ""},
	})

	reader := NewSystemReader(backend, testCache(), testConfig(), nil)
	settings, err := reader.SystemConfig(context.Background())
	require.NoError(t, err)

	opts := settings["機會種類"]
	require.Len(t, opts, 3)
	assert.Equal(t, "first", opts[0].Value)
	assert.Equal(t, "第一", opts[0].Note)
	assert.Equal(t, "third", opts[1].Value)
	assert.Equal(t, "last", opts[2].Value)
	assert.Equal(t, 99, opts[2].Order, "non-numeric order falls back to 99")
	assert.Equal(t, "last", opts[2].Note, "note defaults to the value")
}

func TestSystemConfigSeedsEventTypes(t *testing.T) {
	backend := newFakeBackend()
	backend.setSheet("settings", [][]string{
		{"category", "value", "order", "enabled"},
		{"機會種類", "x", "1", "TRUE"},
	})

	reader := NewSystemReader(backend, testCache(), testConfig(), nil)
	settings, err := reader.SystemConfig(context.Background())
	require.NoError(t, err)

	// The event type category is built in, present regardless of sheet
	// content, in its fixed order.
	opts := settings["事件類型"]
	require.Len(t, opts, 5)
	assert.Equal(t, "general", opts[0].Value)
	assert.Equal(t, "legacy", opts[4].Value)
	assert.Equal(t, "#007bff", opts[1].Color)
}

func TestSystemConfigSkipsDisabledRows(t *testing.T) {
	backend := newFakeBackend()
	backend.setSheet("settings", [][]string{
		{"category", "value", "order", "enabled"},
		{"機會種類", "on", "1", "TRUE"},
		{"機會種類", "off", "2", "FALSE"},
		{"機會種類", "blank", "3", ""},
		{"", "orphan", "4", "TRUE"},
	})

	reader := NewSystemReader(backend, testCache(), testConfig(), nil)
	settings, err := reader.SystemConfig(context.Background())
	require.NoError(t, err)

	opts := settings["機會種類"]
	require.Len(t, opts, 1)
	assert.Equal(t, "on", opts[0].Value)
}

func TestSystemConfigBackendErrorReturnsDefaults(t *testing.T) {
	backend := newFakeBackend()
	backend.err = errors.New("quota exhausted")

	reader := NewSystemReader(backend, testCache(), testConfig(), nil)
	settings, err := reader.SystemConfig(context.Background())
	require.NoError(t, err, "settings degrade to defaults instead of failing")
	assert.Len(t, settings["事件類型"], 5)
}

func TestSystemConfigEmptySheet(t *testing.T) {
	backend := newFakeBackend()
	backend.setSheet("settings", [][]string{{"category"}})

	reader := NewSystemReader(backend, testCache(), testConfig(), nil)
	settings, err := reader.SystemConfig(context.Background())
	require.NoError(t, err)
	assert.Empty(t, settings)
}

func TestUsersSkipIncompleteRows(t *testing.T) {
	backend := newFakeBackend()
	backend.setSheet("users", [][]string{
		{"username", "passwordHash", "displayName"},
		{"alice", "hash1", "Alice"},
		{"bob", "", "Bob"},
		{"", "hash3", "Nobody"},
	})

	reader := NewSystemReader(backend, testCache(), testConfig(), nil)
	users, err := reader.Users(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "Alice", users[0].DisplayName)
}
