package psqlbuilder

import (
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdate_UsesDollarPlaceholders(t *testing.T) {
	query, args, err := Update("reservations").
		Set("status", "CANCELADA").
		Where(squirrel.Eq{"reservation_id": "r-1", "version": 2}).
		ToSql()
	require.NoError(t, err)

	assert.Equal(t, "UPDATE reservations SET status = $1 WHERE reservation_id = $2 AND version = $3", query)
	assert.Equal(t, []interface{}{"CANCELADA", "r-1", 2}, args)
}
