package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"github.com/shiwutong/lostfound-backend/internal/database"
	"github.com/shiwutong/lostfound-backend/internal/dto"
	"github.com/shiwutong/lostfound-backend/internal/models"
	"github.com/shiwutong/lostfound-backend/internal/storage"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 6
	maxPageSize     = 50
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ListFilter narrows a listing query. Empty fields do not filter.
type ListFilter struct {
	Category  string
	TimeRange string // day, week, month
	Location  string
	Search    string
	Page      int
	PageSize  int
}

// Viewer is the caller a listing is shown to. The zero value is anonymous.
type Viewer struct {
	UserID  *uint
	IsAdmin bool
}

// CanSee reports whether a listing in the given state is visible to v.
// Approved listings are public; any other state is limited to the publisher
// and admins.
func (v Viewer) CanSee(status string, publisherID *uint) bool {
	if status == models.StatusApproved || v.IsAdmin {
		return true
	}
	return v.UserID != nil && publisherID != nil && *publisherID == *v.UserID
}

type ItemService struct {
	db          *gorm.DB
	uploads     *storage.Store
	autoApprove bool
	attempts    int
	now         func() time.Time
}

func NewItemService(db *gorm.DB, uploads *storage.Store, autoApprove bool, attempts int) *ItemService {
	return &ItemService{db: db, uploads: uploads, autoApprove: autoApprove, attempts: attempts, now: time.Now}
}

// Create validates and stores a new listing and returns its id. Every
// missing required field is reported, not just the first.
func (s *ItemService) Create(ctx context.Context, kind models.Kind, req *dto.CreateItemRequest, publisherID *uint, image *multipart.FileHeader) (uint, error) {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"title", req.Title},
		{"category", req.Category},
		{"description", req.Description},
		{"location", req.Location},
		{"time", req.Time},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return 0, missingFields(missing...)
	}

	occurredAt, err := parseItemTime(req.Time)
	if err != nil {
		return 0, invalidField("time", "time is not a recognised date")
	}

	var imageURL *string
	if image != nil {
		url, err := s.uploads.Save(image)
		if errors.Is(err, storage.ErrUnsupportedType) || errors.Is(err, storage.ErrTooLarge) {
			return 0, invalidField("image", err.Error())
		}
		if err != nil {
			return 0, err
		}
		imageURL = &url
	}

	status := models.StatusPending
	if s.autoApprove {
		status = models.StatusApproved
	}

	item := models.Item{
		Title:       strings.TrimSpace(req.Title),
		Description: withContact(strings.TrimSpace(req.Description), req),
		Category:    strings.TrimSpace(req.Category),
		Location:    strings.TrimSpace(req.Location),
		OccurredAt:  occurredAt,
		ImageURL:    imageURL,
		PublisherID: publisherID,
		Status:      status,
	}

	err = database.WithRetry(ctx, s.attempts, func() error {
		item.ID = 0
		return s.db.WithContext(ctx).Table(kind.Table()).Create(&item).Error
	})
	if err != nil {
		if imageURL != nil {
			s.uploads.Remove(*imageURL)
		}
		return 0, fmt.Errorf("failed to create %s item: %w", kind, err)
	}

	slog.Info("listing created", "kind", string(kind), "item_id", item.ID, "status", status)
	return item.ID, nil
}

// withContact appends the optional contact details to the description.
func withContact(description string, req *dto.CreateItemRequest) string {
	var parts []string
	if v := strings.TrimSpace(req.ContactName); v != "" {
		parts = append(parts, "Contact: "+v)
	}
	if v := strings.TrimSpace(req.ContactPhone); v != "" {
		parts = append(parts, "Phone: "+v)
	}
	if v := strings.TrimSpace(req.ContactEmail); v != "" {
		parts = append(parts, "Email: "+v)
	}
	if len(parts) == 0 {
		return description
	}
	return description + "\n\n" + strings.Join(parts, " ")
}

func parseItemTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}

// List returns approved listings of one kind, newest first.
func (s *ItemService) List(ctx context.Context, kind models.Kind, f ListFilter) ([]models.Item, dto.Pagination, error) {
	page, pageSize := normalizePage(f.Page, f.PageSize)

	query := func() *gorm.DB {
		q := s.db.WithContext(ctx).Table(kind.Table()).Scopes(models.Approved)
		if f.Category != "" {
			q = q.Where("category = ?", f.Category)
		}
		if cutoff, ok := s.cutoff(f.TimeRange); ok {
			q = q.Where("occurred_at >= ?", cutoff)
		}
		if f.Location != "" {
			q = q.Where("location LIKE ? ESCAPE '!'", "%"+escapeLike(f.Location)+"%")
		}
		if f.Search != "" {
			pattern := "%" + escapeLike(f.Search) + "%"
			q = q.Where("(title LIKE ? ESCAPE '!' OR description LIKE ? ESCAPE '!')", pattern, pattern)
		}
		return q
	}

	var total int64
	var items []models.Item
	err := database.WithRetry(ctx, s.attempts, func() error {
		if err := query().Count(&total).Error; err != nil {
			return err
		}
		return query().Order("created_at DESC").Scopes(models.Paginate(page, pageSize)).Find(&items).Error
	})
	if err != nil {
		return nil, dto.Pagination{}, err
	}

	for i := range items {
		items[i].Kind = kind
	}
	return items, dto.NewPagination(page, pageSize, total), nil
}

func (s *ItemService) cutoff(timeRange string) (time.Time, bool) {
	now := s.now()
	switch timeRange {
	case "day":
		return now.AddDate(0, 0, -1), true
	case "week":
		return now.AddDate(0, 0, -7), true
	case "month":
		return now.AddDate(0, -1, 0), true
	}
	return time.Time{}, false
}

// Detail returns a listing with its publisher's display fields. Listings the
// viewer may not see are reported as ErrItemNotFound.
func (s *ItemService) Detail(ctx context.Context, kind models.Kind, id uint, viewer Viewer) (*models.ItemDetail, error) {
	table := kind.Table()
	var detail models.ItemDetail
	var found bool
	err := database.WithRetry(ctx, s.attempts, func() error {
		res := s.db.WithContext(ctx).Table(table).
			Select(table+".*, users.username AS publisher_username, users.student_id AS publisher_student_id").
			Joins("LEFT JOIN users ON users.id = "+table+".publisher_id").
			Where(table+".id = ?", id).
			Limit(1).
			Scan(&detail)
		found = res.RowsAffected > 0
		return res.Error
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrItemNotFound
	}

	if !viewer.CanSee(detail.Status, detail.PublisherID) {
		return nil, ErrItemNotFound
	}

	detail.Kind = kind
	return &detail, nil
}

// Image returns the stored image URL of a listing the viewer may see.
func (s *ItemService) Image(ctx context.Context, kind models.Kind, id uint, viewer Viewer) (string, error) {
	item, err := s.Visible(ctx, kind, id, viewer)
	if err != nil {
		return "", err
	}
	if item.ImageURL == nil || *item.ImageURL == "" {
		return "", ErrImageNotFound
	}
	return *item.ImageURL, nil
}

// Get loads a listing regardless of status.
func (s *ItemService) Get(ctx context.Context, kind models.Kind, id uint) (*models.Item, error) {
	return s.find(ctx, kind, id)
}

// Visible loads a listing, hiding it behind ErrItemNotFound when the viewer
// may not see it.
func (s *ItemService) Visible(ctx context.Context, kind models.Kind, id uint, viewer Viewer) (*models.Item, error) {
	item, err := s.find(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if !viewer.CanSee(item.Status, item.PublisherID) {
		return nil, ErrItemNotFound
	}
	return item, nil
}

// Description returns the title and description the AI adapter works from.
func (s *ItemService) Description(ctx context.Context, kind models.Kind, id uint, viewer Viewer) (string, string, error) {
	item, err := s.Visible(ctx, kind, id, viewer)
	if err != nil {
		return "", "", err
	}
	return item.Title, item.Description, nil
}

func (s *ItemService) find(ctx context.Context, kind models.Kind, id uint) (*models.Item, error) {
	var item models.Item
	err := database.WithRetry(ctx, s.attempts, func() error {
		return s.db.WithContext(ctx).Table(kind.Table()).Where("id = ?", id).Take(&item).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	item.Kind = kind
	return &item, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// escapeLike neutralises LIKE wildcards, with '!' as the escape character.
func escapeLike(s string) string {
	return strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`).Replace(s)
}
