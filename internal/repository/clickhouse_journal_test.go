package repository

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SpinSignal/internal/domain/models"
	applogger "SpinSignal/pkg/logger"
)

func TestSchemaStatements(t *testing.T) {
	stmts := SchemaStatements("o_t", "d_t")
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS o_t")
	assert.Contains(t, stmts[0], "ReplacingMergeTree")
	assert.Contains(t, stmts[1], "CREATE TABLE IF NOT EXISTS d_t")
	for _, s := range stmts {
		assert.Equal(t, 1, strings.Count(s, "ENGINE"))
	}
}

func TestClickHouseJournal_DefaultTables(t *testing.T) {
	j := newClickHouseJournal(nil, "", "", applogger.Nop())
	assert.Equal(t, DefaultOutcomesTable, j.outcomes)
	assert.Equal(t, DefaultDecisionsTable, j.decisions)
}

func TestClickHouseJournal_SkipsWithoutRows(t *testing.T) {
	// A nil pool would panic if any statement were executed.
	j := newClickHouseJournal(nil, "", "", applogger.Nop())
	ctx := context.Background()

	assert.NoError(t, j.StoreOutcomes(ctx, nil))
	assert.NoError(t, j.StoreOutcomes(ctx, []models.Outcome{
		{ID: "", Color: models.ColorRed},
		{ID: "r1", Color: models.ColorNone},
	}))
}
