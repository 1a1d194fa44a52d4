package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nurpe/signmate-contracts/internal/model"
)

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *ContractRepository) WithTx(tx *gorm.DB) *ContractRepository {
	return &ContractRepository{db: tx}
}

func (r *ContractRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *ContractRepository) Create(ctx context.Context, contract model.Contract) (*model.Contract, error) {
	contract.ID = 0
	if err := r.db.WithContext(ctx).Create(&contract).Error; err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *ContractRepository) Get(ctx context.Context, id int64) (*model.Contract, error) {
	var contract model.Contract
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&contract).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *ContractRepository) Update(ctx context.Context, id int64, patch model.ContractPatch) (*model.Contract, error) {
	updates := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if patch.ContractType != nil {
		updates["contract_type"] = *patch.ContractType
	}
	if patch.WriterID != nil {
		updates["writer_id"] = *patch.WriterID
	}
	if patch.ReceiverID != nil {
		updates["receiver_id"] = *patch.ReceiverID
	}

	result := r.db.WithContext(ctx).
		Model(&model.Contract{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.Get(ctx, id)
}

// ListByParty returns a page of contracts matching filter and the total
// number of matches. A zero UserID matches every contract.
func (r *ContractRepository) ListByParty(ctx context.Context, filter model.ContractFilter) ([]model.Contract, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Contract{})

	if filter.UserID != 0 {
		switch filter.Role {
		case model.PartyRoleWriter:
			query = query.Where("writer_id = ?", filter.UserID)
		case model.PartyRoleReceiver:
			query = query.Where("receiver_id = ?", filter.UserID)
		default:
			query = query.Where("(writer_id = ? OR receiver_id = ?)", filter.UserID, filter.UserID)
		}
	}
	if filter.ContractType != nil {
		query = query.Where("contract_type = ?", *filter.ContractType)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := query.Order("id DESC")
	if filter.Limit > 0 {
		page = page.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		page = page.Offset(filter.Offset)
	}

	contracts := []model.Contract{}
	if err := page.Find(&contracts).Error; err != nil {
		return nil, 0, err
	}
	return contracts, total, nil
}
