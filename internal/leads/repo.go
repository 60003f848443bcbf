package leads

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/autostore-backend/pkg/db"
	"github.com/angelmondragon/autostore-backend/pkg/db/models"
	"github.com/angelmondragon/autostore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autostore-backend/pkg/errors"
)

const defaultListLimit = 50

// Repository persists leads.
type Repository struct {
	db *gorm.DB
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn}
}

func (r *Repository) Create(ctx context.Context, lead *models.Lead) error {
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(lead).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "lead reference already exists")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create lead")
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	var lead models.Lead
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&lead).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "lead not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load lead")
	}
	return &lead, nil
}

// ListBySession returns the session's leads, newest first. An empty kind lists all.
func (r *Repository) ListBySession(ctx context.Context, sessionID string, kind enums.LeadKind, limit int) ([]models.Lead, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	query := r.db.WithContext(ctx).Where("session_id = ?", sessionID)
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	var out []models.Lead
	if err := query.Order("created_at DESC").Order("id").Limit(limit).Find(&out).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list leads")
	}
	return out, nil
}
