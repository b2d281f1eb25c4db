package employee

type CreateEmployeeRequest struct {
	FullName     string `json:"full_name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Phone        string `json:"phone"`
	Position     string `json:"position"`
	DepartmentID string `json:"department_id" binding:"omitempty,uuid"`
	BaseSalary   int64  `json:"base_salary" binding:"required,min=0"`
	StartDate    string `json:"start_date" binding:"required"`
}

type UpdateEmployeeRequest struct {
	FullName     string `json:"full_name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Phone        string `json:"phone"`
	Position     string `json:"position"`
	DepartmentID string `json:"department_id" binding:"omitempty,uuid"`
	BaseSalary   int64  `json:"base_salary" binding:"required,min=0"`
	Status       string `json:"status" binding:"required"`
	StartDate    string `json:"start_date" binding:"required"`
}

type EmployeeResponse struct {
	ID           string                      `json:"id"`
	CompanyID    string                      `json:"company_id"`
	FullName     string                      `json:"full_name"`
	Email        string                      `json:"email"`
	Phone        string                      `json:"phone,omitempty"`
	Position     string                      `json:"position,omitempty"`
	DepartmentID string                      `json:"department_id,omitempty"`
	Department   *EmployeeDepartmentResponse `json:"department,omitempty"`
	BaseSalary   int64                       `json:"base_salary"`
	Status       string                      `json:"status"`
	StartDate    string                      `json:"start_date"`
}

type EmployeeDepartmentResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type PlanLimitResponse struct {
	Plan           string `json:"plan"`
	MaxEmployees   *int   `json:"max_employees,omitempty"`
	Unlimited      bool   `json:"unlimited"`
	CurrentCount   int    `json:"current_count"`
	RemainingSlots *int   `json:"remaining_slots,omitempty"`
}
