package services

import (
	"testing"
	"time"

	"github.com/anjiri1684/mentora/apperrors"
	"github.com/anjiri1684/mentora/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyPushesAndStores(t *testing.T) {
	e := newEnv(t)
	student := e.user(t, models.RoleStudent)

	n, err := e.notifier.Notify(student.ID, models.NotifyPayment, "Hello", "World", "")
	require.NoError(t, err)
	assert.Nil(t, n.Link)
	assert.Nil(t, n.ReadAt)

	require.Len(t, e.pusher.pushes, 1)
	event, ok := e.pusher.pushes[0].Payload.(NotificationEvent)
	require.True(t, ok)
	assert.Equal(t, "notification", event.Type)
	assert.Equal(t, n.ID, event.Notification.ID)

	withLink, err := e.notifier.Notify(student.ID, models.NotifyPayment, "Linked", "", "/transactions")
	require.NoError(t, err)
	require.NotNil(t, withLink.Link)
	assert.Equal(t, "/transactions", *withLink.Link)
}

func TestNotifyManyDeduplicates(t *testing.T) {
	e := newEnv(t)
	a := e.user(t, models.RoleStudent)
	b := e.user(t, models.RoleStudent)

	require.NoError(t, e.notifier.NotifyMany([]uuid.UUID{a.ID, b.ID, a.ID}, models.NotifyCourseUpdate, "Update", "", ""))
	require.NoError(t, e.notifier.NotifyMany(nil, models.NotifyCourseUpdate, "Nobody", "", ""))

	countA, err := e.notifier.UnreadCount(a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), countA)
	assert.Equal(t, 1, e.pusher.For(b.ID))
}

func TestNotifyAdminsSkipsInactive(t *testing.T) {
	e := newEnv(t)
	active := e.user(t, models.RoleAdmin)
	inactive := e.user(t, models.RoleAdmin)
	require.NoError(t, e.db.Model(inactive).Update("is_active", false).Error)
	e.user(t, models.RoleStudent)

	require.NoError(t, e.notifier.NotifyAdmins(models.NotifyMentorApplication, "Queue", "", ""))
	assert.Equal(t, 1, e.pusher.For(active.ID))
	assert.Zero(t, e.pusher.For(inactive.ID))
	assert.Len(t, e.pusher.pushes, 1)
}

func TestReadAndDeleteNotifications(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, models.RoleStudent)
	other := e.user(t, models.RoleStudent)

	var ids []uuid.UUID
	for _, title := range []string{"one", "two", "three"} {
		n, err := e.notifier.Notify(owner.ID, models.NotifyEnrollment, title, "", "")
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}

	_, err := e.notifier.MarkRead(other.ID, ids[0])
	assert.True(t, apperrors.IsNotFound(err), "users cannot read each other's notifications")

	read, err := e.notifier.MarkRead(owner.ID, ids[0])
	require.NoError(t, err)
	require.NotNil(t, read.ReadAt)
	again, err := e.notifier.MarkRead(owner.ID, ids[0])
	require.NoError(t, err)
	assert.WithinDuration(t, *read.ReadAt, *again.ReadAt, time.Second)

	unread, err := e.notifier.ListMine(owner.ID, true, NewPagination(1, 10))
	require.NoError(t, err)
	assert.Len(t, unread.Data, 2)
	all, err := e.notifier.ListMine(owner.ID, false, NewPagination(1, 10))
	require.NoError(t, err)
	assert.Len(t, all.Data, 3)

	updated, err := e.notifier.MarkAllRead(owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)
	count, err := e.notifier.UnreadCount(owner.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	assert.True(t, apperrors.IsNotFound(e.notifier.Delete(other.ID, ids[1])))
	require.NoError(t, e.notifier.Delete(owner.ID, ids[1]))
	assert.True(t, apperrors.IsNotFound(e.notifier.Delete(owner.ID, ids[1])))
}
