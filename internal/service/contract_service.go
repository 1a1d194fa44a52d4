package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/signmate-contracts/internal/config"
	"github.com/nurpe/signmate-contracts/internal/model"
	"github.com/nurpe/signmate-contracts/internal/repository"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type ContractCache interface {
	Get(ctx context.Context, id int64) (*model.Contract, bool, error)
	Set(ctx context.Context, contract model.Contract) error
	SetNX(ctx context.Context, contract model.Contract) error
	Delete(ctx context.Context, id int64) error
}

type ExcelGenerator interface {
	Generate(listing model.ContractListing) ([]byte, error)
}

type PDFGenerator interface {
	Generate(doc model.ContractDocument) ([]byte, error)
}

type ContractService struct {
	contracts   *repository.ContractRepository
	users       *repository.UserRepository
	cache       ContractCache
	excel       ExcelGenerator
	pdf         PDFGenerator
	exportLimit int
	log         zerolog.Logger
}

func NewContractService(
	contracts *repository.ContractRepository,
	users *repository.UserRepository,
	cache ContractCache,
	excel ExcelGenerator,
	pdf PDFGenerator,
	cfg *config.Config,
	log zerolog.Logger,
) *ContractService {
	return &ContractService{
		contracts:   contracts,
		users:       users,
		cache:       cache,
		excel:       excel,
		pdf:         pdf,
		exportLimit: cfg.Contracts.ExportLimit,
		log:         log.With().Str("component", "contract_service").Logger(),
	}
}

type CreateContractInput struct {
	Principal    model.Principal
	ContractType string
	WriterID     int64
	ReceiverID   int64
}

type UpdateContractInput struct {
	Principal    model.Principal
	ID           int64
	ContractType *string
	WriterID     *int64
	ReceiverID   *int64
}

type ListContractsInput struct {
	Principal    model.Principal
	UserID       int64
	Role         string
	ContractType string
	Limit        int
	Offset       int
}

type ListContractsResult struct {
	Items []model.Contract
	Total int64
}

func (s *ContractService) Create(ctx context.Context, input CreateContractInput) (*model.Contract, error) {
	contractType, err := model.ParseContractType(input.ContractType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	writerID := input.WriterID
	if writerID == 0 {
		writerID = input.Principal.UserID
	}
	if !input.Principal.IsAdmin() && writerID != input.Principal.UserID {
		return nil, ErrPermissionDenied
	}

	candidate := model.Contract{
		ContractType: contractType,
		WriterID:     writerID,
		ReceiverID:   input.ReceiverID,
	}
	if err := validateParties(candidate); err != nil {
		return nil, err
	}

	var created *model.Contract
	err = s.contracts.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.ensureUsers(ctx, s.users.WithTx(tx), candidate.WriterID, candidate.ReceiverID); err != nil {
			return err
		}
		var err error
		created, err = s.contracts.WithTx(tx).Create(ctx, candidate)
		return err
	})
	if err != nil {
		return nil, translateStoreError(err)
	}

	s.remember(ctx, *created)
	s.log.Info().
		Int64("contract_id", created.ID).
		Str("contract_type", created.ContractType.String()).
		Int64("writer_id", created.WriterID).
		Int64("receiver_id", created.ReceiverID).
		Msg("contract created")
	return created, nil
}

func (s *ContractService) Get(ctx context.Context, principal model.Principal, id int64) (*model.Contract, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: id must be positive", ErrInvalidInput)
	}
	contract, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.CanRead(*contract) {
		return nil, ErrPermissionDenied
	}
	return contract, nil
}

func (s *ContractService) Update(ctx context.Context, input UpdateContractInput) (*model.Contract, error) {
	if input.ID <= 0 {
		return nil, fmt.Errorf("%w: id must be positive", ErrInvalidInput)
	}

	patch := model.ContractPatch{
		WriterID:   input.WriterID,
		ReceiverID: input.ReceiverID,
	}
	if input.ContractType != nil {
		contractType, err := model.ParseContractType(*input.ContractType)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		patch.ContractType = &contractType
	}
	if patch.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	var updated *model.Contract
	err := s.contracts.Transaction(ctx, func(tx *gorm.DB) error {
		contracts := s.contracts.WithTx(tx)
		current, err := contracts.Get(ctx, input.ID)
		if err != nil {
			return err
		}
		if !input.Principal.CanModify(*current) {
			return ErrPermissionDenied
		}

		next := patch.Apply(*current)
		if err := validateParties(next); err != nil {
			return err
		}

		var referenced []int64
		if patch.WriterID != nil {
			referenced = append(referenced, next.WriterID)
		}
		if patch.ReceiverID != nil {
			referenced = append(referenced, next.ReceiverID)
		}
		if err := s.ensureUsers(ctx, s.users.WithTx(tx), referenced...); err != nil {
			return err
		}

		updated, err = contracts.Update(ctx, input.ID, patch)
		return err
	})
	if err != nil {
		return nil, translateStoreError(err)
	}

	s.forget(ctx, updated.ID)
	s.remember(ctx, *updated)
	s.log.Info().Int64("contract_id", updated.ID).Msg("contract updated")
	return updated, nil
}

func (s *ContractService) List(ctx context.Context, input ListContractsInput) (*ListContractsResult, error) {
	filter, err := buildFilter(input)
	if err != nil {
		return nil, err
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultListLimit
	case filter.Limit > maxListLimit:
		filter.Limit = maxListLimit
	}

	items, total, err := s.contracts.ListByParty(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ListContractsResult{Items: items, Total: total}, nil
}

func (s *ContractService) load(ctx context.Context, id int64) (*model.Contract, error) {
	if cached, ok, err := s.cache.Get(ctx, id); err != nil {
		s.log.Warn().Err(err).Int64("contract_id", id).Msg("contract cache read failed")
	} else if ok {
		return cached, nil
	}

	contract, err := s.contracts.Get(ctx, id)
	if err != nil {
		return nil, translateStoreError(err)
	}
	s.fill(ctx, *contract)
	return contract, nil
}

func (s *ContractService) remember(ctx context.Context, contract model.Contract) {
	if err := s.cache.Set(ctx, contract); err != nil {
		s.log.Warn().Err(err).Int64("contract_id", contract.ID).Msg("contract cache write failed")
	}
}

// fill caches a row read from the store without replacing an entry that an
// update wrote in the meantime.
func (s *ContractService) fill(ctx context.Context, contract model.Contract) {
	if err := s.cache.SetNX(ctx, contract); err != nil {
		s.log.Warn().Err(err).Int64("contract_id", contract.ID).Msg("contract cache fill failed")
	}
}

func (s *ContractService) forget(ctx context.Context, id int64) {
	if err := s.cache.Delete(ctx, id); err != nil {
		s.log.Warn().Err(err).Int64("contract_id", id).Msg("contract cache delete failed")
	}
}

func (s *ContractService) ensureUsers(ctx context.Context, users *repository.UserRepository, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	distinct := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return fmt.Errorf("%w: user %d", ErrUnknownUser, id)
		}
		distinct[id] = struct{}{}
	}
	found, err := users.CountExisting(ctx, ids)
	if err != nil {
		return err
	}
	if found != len(distinct) {
		return fmt.Errorf("%w: %v", ErrUnknownUser, ids)
	}
	return nil
}

// validateParties rejects contracts with a missing party or where the
// writer is also the receiver.
func validateParties(c model.Contract) error {
	if c.WriterID <= 0 {
		return fmt.Errorf("%w: writer_id is required", ErrInvalidInput)
	}
	if c.ReceiverID <= 0 {
		return fmt.Errorf("%w: receiver_id is required", ErrInvalidInput)
	}
	if c.WriterID == c.ReceiverID {
		return fmt.Errorf("%w: writer and receiver must be different users", ErrInvalidInput)
	}
	return nil
}

func buildFilter(input ListContractsInput) (model.ContractFilter, error) {
	filter := model.ContractFilter{
		UserID: input.UserID,
		Limit:  input.Limit,
		Offset: input.Offset,
	}
	if filter.Offset < 0 {
		return filter, fmt.Errorf("%w: offset must not be negative", ErrInvalidInput)
	}

	if !input.Principal.IsAdmin() {
		if filter.UserID != 0 && filter.UserID != input.Principal.UserID {
			return filter, ErrPermissionDenied
		}
		filter.UserID = input.Principal.UserID
	}

	switch model.PartyRole(input.Role) {
	case model.PartyRoleAny, model.PartyRoleWriter, model.PartyRoleReceiver:
		filter.Role = model.PartyRole(input.Role)
	default:
		return filter, fmt.Errorf("%w: role must be writer or receiver", ErrInvalidInput)
	}
	if filter.Role != model.PartyRoleAny && filter.UserID == 0 {
		return filter, fmt.Errorf("%w: role filter requires user_id", ErrInvalidInput)
	}

	if input.ContractType != "" {
		contractType, err := model.ParseContractType(input.ContractType)
		if err != nil {
			return filter, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		filter.ContractType = &contractType
	}
	return filter, nil
}

func translateStoreError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", ErrUnknownUser, err)
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	default:
		return err
	}
}
