package payroll

type GeneratePayrollRequest struct {
	Month int `json:"month" binding:"required,min=1,max=12"`
	Year  int `json:"year" binding:"required,min=2000,max=2100"`
}

type PayrollPeriodResponse struct {
	ID          string  `json:"id"`
	CompanyID   string  `json:"company_id"`
	Month       int     `json:"month"`
	Year        int     `json:"year"`
	Label       string  `json:"label"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	IsProcessed bool    `json:"is_processed"`
	ProcessedAt *string `json:"processed_at,omitempty"`
}

type GeneratePayrollResponse struct {
	Period         PayrollPeriodResponse `json:"period"`
	GeneratedCount int                   `json:"generated_count"`
}

type PayrollResponse struct {
	ID              string `json:"id"`
	CompanyID       string `json:"company_id"`
	EmployeeID      string `json:"employee_id"`
	PayrollPeriodID string `json:"payroll_period_id"`
	BaseSalary      int64  `json:"base_salary"`
	TaxDeduction    int64  `json:"tax_deduction"`
	LeaveDeduction  int64  `json:"leave_deduction"`
	Allowances      int64  `json:"allowances"`
	NetSalary       int64  `json:"net_salary"`
	CreatedBy       string `json:"created_by"`
}

type PeriodStatsResponse struct {
	PeriodID            string `json:"period_id"`
	TotalEmployees      int64  `json:"total_employees"`
	TotalBaseSalary     int64  `json:"total_base_salary"`
	TotalTaxDeduction   int64  `json:"total_tax_deduction"`
	TotalLeaveDeduction int64  `json:"total_leave_deduction"`
	TotalAllowances     int64  `json:"total_allowances"`
	TotalNetSalary      int64  `json:"total_net_salary"`
}
