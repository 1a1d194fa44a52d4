package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nurpe/signmate-contracts/internal/model"
)

type ExportResult struct {
	FileName string
	Content  []byte
}

func (s *ContractService) ExportXLSX(ctx context.Context, input ListContractsInput) (*ExportResult, error) {
	filter, err := buildFilter(input)
	if err != nil {
		return nil, err
	}
	filter.Limit = s.exportLimit
	filter.Offset = 0

	contracts, _, err := s.contracts.ListByParty(ctx, filter)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(contracts)*2+1)
	for _, c := range contracts {
		ids = append(ids, c.WriterID, c.ReceiverID)
	}
	if filter.UserID != 0 {
		ids = append(ids, filter.UserID)
	}
	users, err := s.userIndex(ctx, ids)
	if err != nil {
		return nil, err
	}

	listing := model.ContractListing{
		GeneratedAt: time.Now().UTC(),
		Documents:   make([]model.ContractDocument, 0, len(contracts)),
	}
	if filter.UserID != 0 {
		owner := users.lookup(filter.UserID)
		listing.Owner = &owner
	}
	for _, c := range contracts {
		listing.Documents = append(listing.Documents, model.ContractDocument{
			Contract: c,
			Writer:   users.lookup(c.WriterID),
			Receiver: users.lookup(c.ReceiverID),
		})
	}

	content, err := s.excel.Generate(listing)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		FileName: buildListingFileName(listing),
		Content:  content,
	}, nil
}

func (s *ContractService) RenderPDF(ctx context.Context, principal model.Principal, id int64) (*ExportResult, error) {
	contract, err := s.Get(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	users, err := s.userIndex(ctx, []int64{contract.WriterID, contract.ReceiverID})
	if err != nil {
		return nil, err
	}

	content, err := s.pdf.Generate(model.ContractDocument{
		Contract: *contract,
		Writer:   users.lookup(contract.WriterID),
		Receiver: users.lookup(contract.ReceiverID),
	})
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		FileName: fmt.Sprintf("contract-%d-%s.pdf", contract.ID, strings.ToLower(contract.ContractType.String())),
		Content:  content,
	}, nil
}

type userIndex map[int64]model.User

// lookup falls back to a bare id so a removed user still renders.
func (idx userIndex) lookup(id int64) model.User {
	if u, ok := idx[id]; ok {
		return u
	}
	return model.User{ID: id, Name: fmt.Sprintf("user #%d", id)}
}

func (s *ContractService) userIndex(ctx context.Context, ids []int64) (userIndex, error) {
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	idx := make(userIndex, len(users))
	for _, u := range users {
		idx[u.ID] = u
	}
	return idx, nil
}

func buildListingFileName(listing model.ContractListing) string {
	target := "all"
	if listing.Owner != nil {
		target = sanitizeFileName(listing.Owner.DisplayName())
		if target == "" {
			target = fmt.Sprintf("user-%d", listing.Owner.ID)
		}
	}
	return fmt.Sprintf("contracts-%s-%s.xlsx", target, listing.GeneratedAt.Format("20060102"))
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}
