package leave

type SubmitLeaveRequest struct {
	EmployeeID string `json:"employee_id" binding:"required,uuid"`
	StartDate  string `json:"start_date" binding:"required"`
	EndDate    string `json:"end_date" binding:"required"`
	Reason     string `json:"reason"`
}

type RejectLeaveRequest struct {
	Notes *string `json:"notes"`
}

type LeaveRequestResponse struct {
	ID          string  `json:"id"`
	CompanyID   string  `json:"company_id"`
	EmployeeID  string  `json:"employee_id"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	DaysCount   int     `json:"days_count"`
	Reason      string  `json:"reason"`
	Status      string  `json:"status"`
	Notes       *string `json:"notes,omitempty"`
	CreatedBy   string  `json:"created_by"`
	ProcessedAt *string `json:"processed_at,omitempty"`
}

type LeaveStatsResponse struct {
	EmployeeID       string `json:"employee_id"`
	Year             int    `json:"year"`
	TotalDays        int    `json:"total_days"`
	UsedDays         int    `json:"used_days"`
	RemainingDays    int    `json:"remaining_days"`
	PendingRequests  int64  `json:"pending_requests"`
	ApprovedRequests int64  `json:"approved_requests"`
}
