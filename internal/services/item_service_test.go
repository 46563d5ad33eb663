package services

import (
	"context"
	"testing"
	"time"

	"github.com/shiwutong/lostfound-backend/internal/dto"
	"github.com/shiwutong/lostfound-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReportsAllMissingFields(t *testing.T) {
	items := newTestItems(t, newTestDB(t), false)

	_, err := items.Create(context.Background(), models.KindFound, &dto.CreateItemRequest{
		Category: "keys",
		Location: "gym",
	}, nil, nil)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"title", "description", "time"}, verr.MissingFields)
}

func TestCreateRejectsBadTime(t *testing.T) {
	items := newTestItems(t, newTestDB(t), false)

	_, err := items.Create(context.Background(), models.KindLost, &dto.CreateItemRequest{
		Title: "umbrella", Category: "other", Description: "blue", Location: "cafe", Time: "yesterday-ish",
	}, nil, nil)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "time")
}

func TestCreateDefaultsToPendingAndAppendsContact(t *testing.T) {
	db := newTestDB(t)
	items := newTestItems(t, db, false)

	id, err := items.Create(context.Background(), models.KindFound, &dto.CreateItemRequest{
		Title:        "card",
		Category:     "card",
		Description:  "student card",
		Location:     "canteen",
		Time:         "2024-03-01",
		ContactPhone: "12345",
	}, nil, nil)
	require.NoError(t, err)

	item, err := items.Get(context.Background(), models.KindFound, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, item.Status)
	assert.Nil(t, item.PublisherID)
	assert.Contains(t, item.Description, "Phone: 12345")
}

func TestListOnlyShowsApproved(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	pending := newTestItems(t, db, false)
	approved := newTestItems(t, db, true)

	createItem(t, pending, models.KindLost, "hidden", nil)
	createItem(t, approved, models.KindLost, "visible wallet", nil)
	createItem(t, approved, models.KindFound, "other table", nil)

	for _, f := range []ListFilter{
		{},
		{Category: "wallet"},
		{Search: "hidden"},
		{TimeRange: "day"},
		{Location: "lib"},
	} {
		list, _, err := approved.List(ctx, models.KindLost, f)
		require.NoError(t, err)
		for _, it := range list {
			assert.Equal(t, models.StatusApproved, it.Status)
			assert.NotEqual(t, "hidden", it.Title)
		}
	}

	list, page, err := approved.List(ctx, models.KindLost, ListFilter{Search: "wallet"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "visible wallet", list[0].Title)
	assert.Equal(t, models.KindLost, list[0].Kind)
	assert.Equal(t, int64(1), page.Total)
}

func TestListPaginationAndTimeRange(t *testing.T) {
	db := newTestDB(t)
	items := newTestItems(t, db, true)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		createItem(t, items, models.KindFound, "item", nil)
	}
	old := time.Now().AddDate(0, 0, -20)
	require.NoError(t, db.Table("found_items").Where("id = ?", 1).Update("occurred_at", old).Error)

	list, page, err := items.List(ctx, models.KindFound, ListFilter{Page: 2})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, dto.Pagination{Page: 2, Limit: 6, Total: 7, TotalPages: 2}, page)

	_, page, err = items.List(ctx, models.KindFound, ListFilter{TimeRange: "week"})
	require.NoError(t, err)
	assert.Equal(t, int64(6), page.Total)

	_, page, err = items.List(ctx, models.KindFound, ListFilter{TimeRange: "month"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), page.Total)
}

func TestDetailVisibility(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	items := newTestItems(t, db, false)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	id := createItem(t, items, models.KindLost, "phone", &alice.ID)

	_, err := items.Detail(ctx, models.KindLost, id, Viewer{})
	assert.ErrorIs(t, err, ErrItemNotFound)
	_, err = items.Detail(ctx, models.KindLost, id, Viewer{UserID: &bob.ID})
	assert.ErrorIs(t, err, ErrItemNotFound)

	detail, err := items.Detail(ctx, models.KindLost, id, Viewer{UserID: &alice.ID})
	require.NoError(t, err)
	require.NotNil(t, detail.PublisherUsername)
	assert.Equal(t, "alice", *detail.PublisherUsername)
	assert.Equal(t, "s-alice", *detail.PublisherStudentID)

	_, err = items.Detail(ctx, models.KindLost, id, Viewer{IsAdmin: true})
	assert.NoError(t, err)

	_, err = items.Detail(ctx, models.KindLost, 999, Viewer{IsAdmin: true})
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestPendingListingHiddenFromImageAndDescription(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	items := newTestItems(t, db, false)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	id := createItem(t, items, models.KindFound, "wallet", &alice.ID)
	url := "/uploads/wallet.png"
	require.NoError(t, db.Table("found_items").Where("id = ?", id).Update("image_url", url).Error)

	for _, v := range []Viewer{{}, {UserID: &bob.ID}} {
		_, err := items.Image(ctx, models.KindFound, id, v)
		assert.ErrorIs(t, err, ErrItemNotFound)
		_, _, err = items.Description(ctx, models.KindFound, id, v)
		assert.ErrorIs(t, err, ErrItemNotFound)
		_, err = items.Visible(ctx, models.KindFound, id, v)
		assert.ErrorIs(t, err, ErrItemNotFound)
	}

	for _, v := range []Viewer{{UserID: &alice.ID}, {IsAdmin: true}} {
		got, err := items.Image(ctx, models.KindFound, id, v)
		require.NoError(t, err)
		assert.Equal(t, url, got)
		title, _, err := items.Description(ctx, models.KindFound, id, v)
		require.NoError(t, err)
		assert.Equal(t, "wallet", title)
	}

	require.NoError(t, db.Table("found_items").Where("id = ?", id).Update("status", models.StatusApproved).Error)
	_, err := items.Image(ctx, models.KindFound, id, Viewer{})
	assert.NoError(t, err)
}

func TestViewerCanSee(t *testing.T) {
	alice, bob := uint(1), uint(2)
	assert.True(t, Viewer{}.CanSee(models.StatusApproved, nil))
	assert.False(t, Viewer{}.CanSee(models.StatusPending, &alice))
	assert.False(t, Viewer{UserID: &bob}.CanSee(models.StatusPending, &alice))
	assert.False(t, Viewer{UserID: &bob}.CanSee(models.StatusPending, nil))
	assert.True(t, Viewer{UserID: &alice}.CanSee(models.StatusReturned, &alice))
	assert.True(t, Viewer{IsAdmin: true}.CanSee(models.StatusPending, nil))
}

func TestDetailKeepsListingWithoutPublisher(t *testing.T) {
	db := newTestDB(t)
	items := newTestItems(t, db, true)
	id := createItem(t, items, models.KindFound, "keys", nil)

	detail, err := items.Detail(context.Background(), models.KindFound, id, Viewer{})
	require.NoError(t, err)
	assert.Nil(t, detail.PublisherUsername)
	assert.Equal(t, "keys", detail.Title)
}

func TestImage(t *testing.T) {
	db := newTestDB(t)
	items := newTestItems(t, db, true)
	ctx := context.Background()
	id := createItem(t, items, models.KindFound, "bag", nil)

	_, err := items.Image(ctx, models.KindFound, id, Viewer{})
	assert.ErrorIs(t, err, ErrImageNotFound)

	_, err = items.Image(ctx, models.KindFound, 404, Viewer{})
	assert.ErrorIs(t, err, ErrItemNotFound)

	url := "/uploads/bag.png"
	require.NoError(t, db.Table("found_items").Where("id = ?", id).Update("image_url", url).Error)
	got, err := items.Image(ctx, models.KindFound, id, Viewer{})
	require.NoError(t, err)
	assert.Equal(t, url, got)
}

func TestParseItemTime(t *testing.T) {
	for _, in := range []string{"2024-03-01T10:00:00Z", "2024-03-01 10:00:00", "2024-03-01T10:00", "2024-03-01"} {
		_, err := parseItemTime(in)
		assert.NoError(t, err, in)
	}
	_, err := parseItemTime("03/01/2024")
	assert.Error(t, err)
}
