package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanTierMeets(t *testing.T) {
	tests := []struct {
		name     string
		have     PlanTier
		required PlanTier
		want     bool
	}{
		{"free meets free", PlanFree, PlanFree, true},
		{"free lacks leader", PlanFree, PlanLeader, false},
		{"leader meets free", PlanLeader, PlanFree, true},
		{"leader meets leader", PlanLeader, PlanLeader, true},
		{"leader lacks founder", PlanLeader, PlanFounder, false},
		{"founder meets everything", PlanFounder, PlanFounder, true},
		{"unknown lacks free", PlanTier("enterprise"), PlanFree, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.have.Meets(tt.required))
		})
	}
}

func TestParsePlanTier(t *testing.T) {
	for _, s := range []string{"free", "leader", "founder"} {
		tier, err := ParsePlanTier(s)
		require.NoError(t, err)
		assert.Equal(t, PlanTier(s), tier)
	}

	_, err := ParsePlanTier("premium")
	require.Error(t, err)

	_, err = ParsePlanTier("")
	require.Error(t, err)
}

func TestHasBillingLink(t *testing.T) {
	var p *Profile
	assert.False(t, p.HasBillingLink())
	assert.False(t, (&Profile{}).HasBillingLink())
	assert.True(t, (&Profile{StripeCustomerID: "cus_123"}).HasBillingLink())
}

func TestSelectProfile(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, SelectProfile(nil))
		assert.Nil(t, SelectProfile([]Profile{}))
	})

	t.Run("single row", func(t *testing.T) {
		rows := []Profile{{ID: "u1", Plan: PlanFree}}
		got := SelectProfile(rows)
		require.NotNil(t, got)
		assert.Equal(t, "u1", got.ID)
	})

	t.Run("billing link wins over order", func(t *testing.T) {
		rows := []Profile{
			{ID: "u1", Plan: PlanFree},
			{ID: "u1", Plan: PlanLeader, StripeCustomerID: "cus_123"},
			{ID: "u1", Plan: PlanFounder},
		}
		got := SelectProfile(rows)
		require.NotNil(t, got)
		assert.Equal(t, "cus_123", got.StripeCustomerID)
		assert.Equal(t, PlanLeader, got.Plan)
	})

	t.Run("first linked row wins when several are linked", func(t *testing.T) {
		rows := []Profile{
			{ID: "u1", Plan: PlanFree, StripeCustomerID: "cus_a"},
			{ID: "u1", Plan: PlanLeader, StripeCustomerID: "cus_b"},
		}
		got := SelectProfile(rows)
		require.NotNil(t, got)
		assert.Equal(t, "cus_a", got.StripeCustomerID)
	})

	t.Run("no link falls back to first row", func(t *testing.T) {
		rows := []Profile{
			{ID: "u1", Plan: PlanLeader},
			{ID: "u1", Plan: PlanFounder},
		}
		got := SelectProfile(rows)
		require.NotNil(t, got)
		assert.Equal(t, PlanLeader, got.Plan)
	})
}
