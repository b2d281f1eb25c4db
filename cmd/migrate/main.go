package main

import (
	"fmt"
	"os"

	"go-hrpay/internal/auth"
	"go-hrpay/internal/department"
	"go-hrpay/internal/employee"
	"go-hrpay/internal/leave"
	"go-hrpay/internal/payroll"
	"go-hrpay/internal/shared/connection"
	"go-hrpay/internal/tenant"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func getDB() (*gorm.DB, error) {
	return connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		3,
	)
}

func upCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply the schema to the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := getDB()
			if err != nil {
				return err
			}

			if err := db.AutoMigrate(
				&tenant.Tenant{},
				&department.Department{},
				&employee.Employee{},
				&auth.User{},
				&leave.LeaveQuota{},
				&leave.LeaveRequest{},
				&payroll.PayrollPeriod{},
				&payroll.Payroll{},
			); err != nil {
				return fmt.Errorf("auto migrate failed: %w", err)
			}

			if err := db.Exec(`
				CREATE TABLE IF NOT EXISTS outbox_events (
					id UUID PRIMARY KEY,
					request_id TEXT,
					aggregate_type TEXT NOT NULL,
					aggregate_id UUID NOT NULL,
					event_type TEXT NOT NULL,
					topic TEXT NOT NULL,
					payload JSONB NOT NULL,
					status TEXT NOT NULL DEFAULT 'pending',
					retry_count INT NOT NULL DEFAULT 0,
					error_message TEXT,
					next_retry_at TIMESTAMPTZ,
					processed_at TIMESTAMPTZ,
					created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
				)
			`).Error; err != nil {
				return fmt.Errorf("create outbox_events failed: %w", err)
			}

			if err := db.Exec(`
				CREATE TABLE IF NOT EXISTS roles (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					company_id UUID NOT NULL,
					name TEXT NOT NULL,
					description TEXT,
					created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
				);
				CREATE TABLE IF NOT EXISTS permissions (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					resource TEXT NOT NULL,
					action TEXT NOT NULL,
					label TEXT,
					category TEXT
				);
				CREATE TABLE IF NOT EXISTS employee_roles (
					employee_id UUID NOT NULL,
					role_id UUID NOT NULL,
					PRIMARY KEY (employee_id, role_id)
				);
				CREATE TABLE IF NOT EXISTS role_permissions (
					role_id UUID NOT NULL,
					permission_id UUID NOT NULL,
					PRIMARY KEY (role_id, permission_id)
				)
			`).Error; err != nil {
				return fmt.Errorf("create rbac tables failed: %w", err)
			}

			fmt.Println("schema applied")
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check database connectivity and schema presence",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := getDB()
			if err != nil {
				return err
			}

			tables := []string{
				"companies", "departments", "employees", "users",
				"leave_quotas", "leave_requests",
				"payroll_periods", "payrolls", "outbox_events",
			}
			for _, table := range tables {
				if db.Migrator().HasTable(table) {
					fmt.Printf("  %-20s ok\n", table)
				} else {
					fmt.Printf("  %-20s missing\n", table)
				}
			}
			return nil
		},
	}
}

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database schema management",
	}

	rootCmd.AddCommand(
		upCmd(),
		statusCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
