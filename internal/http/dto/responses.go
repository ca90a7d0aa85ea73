package dto

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type SettlementResponse struct {
	ContractID  string  `json:"contract_id"`
	MilestoneID *string `json:"milestone_id,omitempty"`
	Status      string  `json:"status"`
	NetAmount   string  `json:"net_amount"`
}
