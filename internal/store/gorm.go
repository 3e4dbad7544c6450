package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/gelato/internal/models"
)

// GormRepository stores everything in Postgres through GORM.
type GormRepository struct {
	db *gorm.DB
}

// Migrate creates or updates the tables the repository reads and writes.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.StoreProfile{},
		&models.LoyaltySettings{},
		&models.User{},
		&models.Admin{},
	)
}

// NewGormRepository wraps an opened connection.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (r *GormRepository) LoadProfile(ctx context.Context) (*models.StoreProfile, error) {
	var p models.StoreProfile
	if err := r.db.WithContext(ctx).Order("created_at asc").First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *GormRepository) CreateProfile(ctx context.Context, p *models.StoreProfile) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *GormRepository) MergeProfile(ctx context.Context, id uuid.UUID, columns map[string]any) error {
	return r.merge(ctx, &models.StoreProfile{}, id, columns)
}

func (r *GormRepository) LoadLoyaltySettings(ctx context.Context) (*models.LoyaltySettings, error) {
	var s models.LoyaltySettings
	if err := r.db.WithContext(ctx).Order("created_at asc").First(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *GormRepository) CreateLoyaltySettings(ctx context.Context, s *models.LoyaltySettings) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *GormRepository) MergeLoyaltySettings(ctx context.Context, id uuid.UUID, columns map[string]any) error {
	return r.merge(ctx, &models.LoyaltySettings{}, id, columns)
}

// merge issues a single UPDATE with only the given columns.
func (r *GormRepository) merge(ctx context.Context, model any, id uuid.UUID, columns map[string]any) error {
	if len(columns) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Updates(columns)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *GormRepository) ListUsers(ctx context.Context, search string, limit, offset int) ([]models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})
	if search != "" {
		query = query.Where(
			"first_name ILIKE ? OR last_name ILIKE ? OR phone ILIKE ?",
			"%"+search+"%", "%"+search+"%", "%"+search+"%",
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := query.Order("points desc, created_at desc").
		Limit(limit).Offset(offset).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *GormRepository) UpdateUserLoyalty(ctx context.Context, id uuid.UUID, points int, level string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]any{"points": points, "membership_level": level})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) FindAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var a models.Admin
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&a).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (r *GormRepository) CreateAdmin(ctx context.Context, a *models.Admin) error {
	return r.db.WithContext(ctx).Create(a).Error
}
