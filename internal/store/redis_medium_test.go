package store

import (
	"context"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hapsayhub/backend/internal/models"
)

func TestRedisMedium_MissingKey(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectGet(KeyAttendees).RedisNil()

	doc, found, err := NewRedisMedium(db).Get(context.Background(), KeyAttendees)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, doc)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisMedium_UpsertRewritesWholeDocument(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()
	s := New(NewRedisMedium(db), KeyAttendees, models.AttendeeKey)

	mock.ExpectGet(KeyAttendees).SetVal(`[{"ticketID":"HH-1","eventId":1,"fname":"Ana"}]`)
	mock.Regexp().ExpectSet(KeyAttendees, `.*"HH-1".*"HH-2".*`, 0).SetVal("OK")

	err := s.Upsert(ctx, models.Attendee{TicketID: "HH-2", EventID: 1, FirstName: "Ben"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
