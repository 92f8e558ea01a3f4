package models

// PreviewRequest selects the window of a payroll preview or finalize call.
// Both dates empty means the live summary.
type PreviewRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// BulkEditRequest is the body of a batch job edit.
type BulkEditRequest struct {
	IDs   []string `json:"ids" binding:"required"`
	Patch JobPatch `json:"patch"`
}

// TransferRequest is the body of a job transfer.
type TransferRequest struct {
	IDs          []string `json:"ids" binding:"required"`
	TechnicianID string   `json:"technician_id" binding:"required"`
}

// SurchargeRequest toggles the aerial drop surcharge.
type SurchargeRequest struct {
	On bool `json:"on"`
}
