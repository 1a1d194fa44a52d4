package model

import (
	"fmt"
	"strings"
)

type ContractType string

const (
	ContractTypeService    ContractType = "SERVICE"
	ContractTypeEmployment ContractType = "EMPLOYMENT"
	ContractTypeLease      ContractType = "LEASE"
	ContractTypeSale       ContractType = "SALE"
	ContractTypeNDA        ContractType = "NDA"
	ContractTypeOther      ContractType = "OTHER"
)

var contractTypes = []ContractType{
	ContractTypeService,
	ContractTypeEmployment,
	ContractTypeLease,
	ContractTypeSale,
	ContractTypeNDA,
	ContractTypeOther,
}

// ContractTypes returns the declared classifications in declaration order.
func ContractTypes() []ContractType {
	out := make([]ContractType, len(contractTypes))
	copy(out, contractTypes)
	return out
}

func (t ContractType) Valid() bool {
	for _, known := range contractTypes {
		if t == known {
			return true
		}
	}
	return false
}

func (t ContractType) String() string {
	return string(t)
}

func ParseContractType(raw string) (ContractType, error) {
	candidate := ContractType(strings.ToUpper(strings.TrimSpace(raw)))
	if !candidate.Valid() {
		return "", fmt.Errorf("unknown contract type %q", raw)
	}
	return candidate, nil
}

// Contract links a writer and a receiver user. Party fields hold user ids
// only; users are never loaded through the contract.
type Contract struct {
	ID           int64        `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ContractType ContractType `gorm:"column:contract_type;type:varchar(32);not null" json:"contract_type"`
	WriterID     int64        `gorm:"column:writer_id;not null;index" json:"writer_id"`
	ReceiverID   int64        `gorm:"column:receiver_id;not null;index" json:"receiver_id"`
	Audit
}

func (Contract) TableName() string { return "contract" }

func (c Contract) HasParty(userID int64) bool {
	return userID != 0 && (c.WriterID == userID || c.ReceiverID == userID)
}

// ContractPatch carries the mutable fields of a contract. Nil means unchanged.
type ContractPatch struct {
	ContractType *ContractType
	WriterID     *int64
	ReceiverID   *int64
}

func (p ContractPatch) Empty() bool {
	return p.ContractType == nil && p.WriterID == nil && p.ReceiverID == nil
}

// Apply returns a copy of c with the patch fields set.
func (p ContractPatch) Apply(c Contract) Contract {
	if p.ContractType != nil {
		c.ContractType = *p.ContractType
	}
	if p.WriterID != nil {
		c.WriterID = *p.WriterID
	}
	if p.ReceiverID != nil {
		c.ReceiverID = *p.ReceiverID
	}
	return c
}

type PartyRole string

const (
	PartyRoleAny      PartyRole = ""
	PartyRoleWriter   PartyRole = "writer"
	PartyRoleReceiver PartyRole = "receiver"
)

type ContractFilter struct {
	UserID       int64
	Role         PartyRole
	ContractType *ContractType
	Limit        int
	Offset       int
}
