package tenant_test

import (
	"testing"

	"go-hrpay/internal/tenant"

	"github.com/stretchr/testify/assert"
)

func TestPlanLimit(t *testing.T) {
	tests := []struct {
		name      string
		plan      string
		max       int
		unlimited bool
	}{
		{name: "free plan capped at 5", plan: tenant.PlanFree, max: 5},
		{name: "pro plan unlimited", plan: tenant.PlanPro, unlimited: true},
		{name: "enterprise plan unlimited", plan: tenant.PlanEnterprise, unlimited: true},
		{name: "unknown plan treated as free", plan: "legacy-gold", max: 5},
		{name: "empty plan treated as free", plan: "", max: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit := tenant.PlanLimit(tt.plan)
			assert.Equal(t, tt.unlimited, limit.Unlimited)
			if !tt.unlimited {
				assert.Equal(t, tt.max, limit.Max)
			}
		})
	}
}

func TestLimitCanAdd(t *testing.T) {
	free := tenant.PlanLimit(tenant.PlanFree)

	assert.True(t, free.CanAdd(0))
	assert.True(t, free.CanAdd(4))
	assert.False(t, free.CanAdd(5))
	assert.False(t, free.CanAdd(6))

	pro := tenant.PlanLimit(tenant.PlanPro)
	assert.True(t, pro.CanAdd(0))
	assert.True(t, pro.CanAdd(5))
	assert.True(t, pro.CanAdd(1_000_000))
}

func TestLimitRemaining(t *testing.T) {
	free := tenant.PlanLimit(tenant.PlanFree)

	assert.Equal(t, 5, free.Remaining(0))
	assert.Equal(t, 1, free.Remaining(4))
	assert.Equal(t, 0, free.Remaining(5))
	assert.Equal(t, 0, free.Remaining(9))
}
