package migrations

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	t.Run("executes schema", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS members")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, Apply(context.Background(), db))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps exec error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))

		err = Apply(context.Background(), db)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "0001_group_chat.sql")
	})
}

func TestSchemaDeclaresConstraints(t *testing.T) {
	body, err := files.ReadFile("0001_group_chat.sql")
	require.NoError(t, err)

	for _, name := range []string{
		"members_nickname_key",
		"rooms_owner_id_fkey",
		"room_memberships_room_id_fkey",
		"room_memberships_member_id_fkey",
		"messages_room_id_fkey",
	} {
		assert.Contains(t, string(body), name)
	}
}
