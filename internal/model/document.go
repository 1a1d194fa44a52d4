package model

import "time"

// ContractDocument is a contract with its parties resolved for rendering.
type ContractDocument struct {
	Contract Contract
	Writer   User
	Receiver User
}

type ContractListing struct {
	Owner       *User
	GeneratedAt time.Time
	Documents   []ContractDocument
}
