package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/fdecunta/screenie/internal/domain"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorLine(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"domain error", fmt.Errorf("%w: got 0", domain.ErrInvalidLimit), "VALIDATION_ERROR"},
		{"wrapped conflict", fmt.Errorf("study 3: %w", domain.ErrRecipeNameConflict), "CONFLICT"},
		{"plain error", errors.New("boom"), "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := ErrorLine(tt.err)
			assert.Contains(t, line, tt.expected)
			assert.Contains(t, line, tt.err.Error())
		})
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintJSON(&buf, map[string]int{"imported": 2}))
	assert.JSONEq(t, `{"imported": 2}`, buf.String())
}

func TestPrintJSON_Unencodable(t *testing.T) {
	var buf bytes.Buffer
	err := PrintJSON(&buf, make(chan int))
	assert.Error(t, err)
	assert.Empty(t, buf.String())
}

func TestGenerateSchema(t *testing.T) {
	root := &cobra.Command{Use: "screenie", Short: "root"}
	root.PersistentFlags().Bool("output", false, "Output as JSON")
	run := &cobra.Command{Use: "run RECIPE", Short: "Screen", RunE: func(*cobra.Command, []string) error { return nil }}
	run.Flags().IntP("limit", "l", 1, "Maximum number of studies")
	root.AddCommand(run)

	schema := GenerateSchema(root)
	assert.Equal(t, "screenie", schema.Name)
	require.Len(t, schema.Subcommands, 1)

	sub := schema.Subcommands[0]
	assert.Equal(t, "run", sub.Name)
	var found bool
	for _, f := range sub.Flags {
		if f.Name == "limit" {
			found = true
			assert.Equal(t, "l", f.Shorthand)
			assert.Equal(t, "1", f.Default)
		}
	}
	assert.True(t, found, "limit flag missing from schema")
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))

	debug, err := NewLogger(true)
	require.NoError(t, err)
	assert.True(t, debug.Core().Enabled(-1))
}

func TestHelpJSON(t *testing.T) {
	root := &cobra.Command{Use: "screenie"}
	root.PersistentFlags().String("database", "", "PostgreSQL URL")
	AddHelpJSONFlag(root)
	export := &cobra.Command{Use: "export RECIPE", Short: "Export"}
	export.Flags().String("out", "", "File to write")
	root.AddCommand(export)

	var buf bytes.Buffer
	root.SetOut(&buf)

	handled, err := HelpJSON(root, []string{"--database", "postgres://x", "export", "--help-json"})
	require.NoError(t, err)
	require.True(t, handled)

	var schema CommandSchema
	require.NoError(t, json.Unmarshal(buf.Bytes(), &schema))
	assert.Equal(t, "export", schema.Name)
	assert.Equal(t, []string{"RECIPE"}, schema.Args)
	require.Len(t, schema.Flags, 1)
	assert.Equal(t, "out", schema.Flags[0].Name)

	handled, err = HelpJSON(root, []string{"export", "r.toml"})
	require.NoError(t, err)
	assert.False(t, handled)
}
