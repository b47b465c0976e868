package chaingrp

// AddBlock is the payload for mining a new block onto the chain.
type AddBlock struct {
	Data string `json:"data" validate:"required,max=4096"`
}

// TamperBlock is the payload for overwriting the data of a stored block.
type TamperBlock struct {
	Data string `json:"data" validate:"max=4096"`
}

type tampered struct {
	Index  uint64 `json:"index"`
	Data   string `json:"data"`
	Status string `json:"status"`
}

// validation is the response for a chain validation. Only an invalid chain
// reports the failing block and the reason.
type validation struct {
	Valid      bool    `json:"valid"`
	Message    string  `json:"message"`
	BlockIndex *uint64 `json:"block_index,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}
