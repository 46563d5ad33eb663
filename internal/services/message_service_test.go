package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shiwutong/lostfound-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func TestSendMessageReusesConversationBothWays(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	msgs := NewMessageService(db, 1)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	var wg sync.WaitGroup
	results := make([]uint, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := alice.ID, bob.ID
			if i%2 == 1 {
				from, to = to, from
			}
			m, err := msgs.SendMessage(ctx, from, to, "hello")
			if assert.NoError(t, err) {
				results[i] = m.ConversationID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range results[1:] {
		assert.Equal(t, results[0], id)
	}
	var count int64
	db.Model(&models.Conversation{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSendMessageValidation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	msgs := NewMessageService(db, 1)
	alice := createUser(t, db, "alice")

	_, err := msgs.SendMessage(ctx, alice.ID, alice.ID, "hi me")
	assert.ErrorIs(t, err, ErrSelfMessage)

	_, err = msgs.SendMessage(ctx, alice.ID, 999, "hi")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = msgs.SendMessage(ctx, alice.ID, 999, "   ")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"content"}, verr.MissingFields)
}

func TestGetMessagesMarksReadAndHidesFromOutsiders(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	msgs := NewMessageService(db, 1)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	eve := createUser(t, db, "eve")

	first, err := msgs.SendMessage(ctx, alice.ID, bob.ID, "found your card")
	require.NoError(t, err)
	_, err = msgs.SendMessage(ctx, bob.ID, alice.ID, "thanks!")
	require.NoError(t, err)

	_, err = msgs.GetMessages(ctx, first.ConversationID, eve.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = msgs.GetMessages(ctx, 999, alice.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	convs, err := msgs.ListConversations(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, int64(1), convs[0].UnreadCount)
	assert.Equal(t, "alice", convs[0].OtherUsername)
	assert.Equal(t, "thanks!", convs[0].LastMessage)

	history, err := msgs.GetMessages(ctx, first.ConversationID, bob.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "found your card", history[0].Content)
	assert.True(t, history[0].Read)
	assert.False(t, history[1].Read)

	// Reading twice does not duplicate markers.
	_, err = msgs.GetMessages(ctx, first.ConversationID, bob.ID)
	require.NoError(t, err)
	var markers int64
	db.Model(&models.MessageReadStatus{}).Count(&markers)
	assert.Equal(t, int64(1), markers)

	convs, err = msgs.ListConversations(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), convs[0].UnreadCount)

	convs, err = msgs.ListConversations(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), convs[0].UnreadCount)
}

func TestListConversationsOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	msgs := NewMessageService(db, 1)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")
	dave := createUser(t, db, "dave")

	base := time.Now()
	msgs.now = func() time.Time { return base }
	_, err := msgs.SendMessage(ctx, alice.ID, bob.ID, "older")
	require.NoError(t, err)
	msgs.now = func() time.Time { return base.Add(time.Minute) }
	_, err = msgs.SendMessage(ctx, carol.ID, alice.ID, "newer")
	require.NoError(t, err)

	empty, err := msgs.CreateConversation(ctx, alice.ID, dave.ID)
	require.NoError(t, err)
	assert.Equal(t, "dave", empty.OtherUsername)
	assert.Nil(t, empty.LastMessageTime)

	again, err := msgs.CreateConversation(ctx, dave.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, empty.ID, again.ID)

	convs, err := msgs.ListConversations(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, convs, 3)
	assert.Equal(t, "carol", convs[0].OtherUsername)
	assert.Equal(t, "bob", convs[1].OtherUsername)
	assert.Equal(t, "dave", convs[2].OtherUsername)

	_, err = msgs.CreateConversation(ctx, alice.ID, alice.ID)
	assert.ErrorIs(t, err, ErrSelfMessage)
}

func TestConversationReadBackIsLockingRead(t *testing.T) {
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "user:pass@tcp(127.0.0.1:3306)/lostfound?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)

	var conv models.Conversation
	stmt := conversationByPair(db, 1, 2).Take(&conv).Statement
	sql := stmt.SQL.String()
	assert.Contains(t, sql, "user1_id = ?")
	assert.Contains(t, sql, "FOR SHARE")
	require.GreaterOrEqual(t, len(stmt.Vars), 2)
	assert.Equal(t, uint(1), stmt.Vars[0])
	assert.Equal(t, uint(2), stmt.Vars[1])
}
