package hubs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a hubs repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateHub(ctx context.Context, hub *models.Hub) (*models.Hub, error) {
	if err := r.db.WithContext(ctx).Create(hub).Error; err != nil {
		return nil, err
	}
	return hub, nil
}

func (r *repository) FindHubByID(ctx context.Context, id uuid.UUID) (*models.Hub, error) {
	var hub models.Hub
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&hub).Error; err != nil {
		return nil, err
	}
	return &hub, nil
}

func (r *repository) ListHubs(ctx context.Context, params pagination.Params) ([]models.Hub, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Hub{})
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var hubs []models.Hub
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&hubs).Error; err != nil {
		return nil, nil, err
	}
	if len(hubs) > normalized {
		next := hubs[normalized]
		hubs = hubs[:normalized]
		return hubs, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return hubs, nil, nil
}

func (r *repository) CreateActivities(ctx context.Context, activities []models.HubActivity) error {
	if len(activities) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&activities).Error
}

func (r *repository) FindActivityByID(ctx context.Context, id uuid.UUID) (*models.HubActivity, error) {
	var activity models.HubActivity
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&activity).Error; err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *repository) ListActivities(ctx context.Context, filters ActivityFilters, params pagination.Params) ([]models.HubActivity, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.HubActivity{})
	if filters.State != "" {
		query = query.Where("state = ?", filters.State)
	}
	if filters.District != "" {
		query = query.Where("district = ?", filters.District)
	}
	if filters.NearestHub != "" {
		query = query.Where("nearest_hub = ?", filters.NearestHub)
	}
	if filters.Confirmed != nil {
		query = query.Where("hub_arrival_confirmed = ?", *filters.Confirmed)
	}
	if filters.FarmerID != nil {
		query = query.Where("farmer_id = ?", *filters.FarmerID)
	}
	if filters.CustomerID != nil {
		query = query.Where("customer_id = ?", *filters.CustomerID)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var activities []models.HubActivity
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&activities).Error; err != nil {
		return nil, nil, err
	}
	if len(activities) > normalized {
		next := activities[normalized]
		activities = activities[:normalized]
		return activities, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return activities, nil, nil
}

func (r *repository) SetArrivalOTP(ctx context.Context, id uuid.UUID, code string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.HubActivity{}).
		Where("id = ? AND hub_arrival_confirmed = ?", id, false).
		Updates(map[string]any{
			"otp_code":       code,
			"otp_expires_at": expiresAt,
		}).Error
}

// ConfirmArrival flips the custody record to confirmed only while it is still
// unconfirmed and the presented code matches, so concurrent verifications
// cannot both win. The OTP pair is cleared in the same statement.
func (r *repository) ConfirmArrival(ctx context.Context, id uuid.UUID, code string, confirmedBy uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.HubActivity{}).
		Where("id = ? AND hub_arrival_confirmed = ? AND otp_code = ?", id, false, code).
		Updates(map[string]any{
			"hub_arrival_confirmed": true,
			"otp_code":              nil,
			"otp_expires_at":        nil,
			"confirmed_at":          at,
			"confirmed_by":          confirmedBy,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) MarkCustomerNotified(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.HubActivity{}).
		Where("id = ?", id).
		UpdateColumn("customer_notified", true).Error
}
