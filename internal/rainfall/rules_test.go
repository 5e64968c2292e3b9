/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package rainfall

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ruleByName(t *testing.T, name string) Rule {
	t.Helper()
	for _, r := range DefaultRules() {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("rule %s not found", name)
	return Rule{}
}

func TestDeficitSeverity(t *testing.T) {
	tests := []struct {
		accumulated float64
		want        Severity
	}{
		{100, SeverityNinguno},
		{110, SeverityNinguno},
		{85, SeverityLeve},
		{70, SeverityLeve},
		{55, SeverityModerado},
		{40, SeverityModerado},
		{39.9, SeveritySevero},
		{0, SeveritySevero},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, DeficitSeverity(tc.accumulated, 100), "accumulated %.1f", tc.accumulated)
	}
}

func TestExcessSeverity(t *testing.T) {
	tests := []struct {
		accumulated float64
		want        Severity
	}{
		{150, SeverityNinguno},
		{180, SeverityLeve}, // 20% over
		{225, SeverityModerado},
		{226, SeveritySevero},
		{400, SeveritySevero},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ExcessSeverity(tc.accumulated, 150), "accumulated %.1f", tc.accumulated)
	}
}

func TestDroughtRule(t *testing.T) {
	rule := ruleByName(t, RuleDrought)

	triggered, _ := rule.Validar(Observation{Accumulated30D: 50})
	assert.False(t, triggered)

	triggered, sev := rule.Validar(Observation{Accumulated30D: 30})
	assert.True(t, triggered)
	assert.Equal(t, SeverityModerado, sev)

	// Below 20mm on a 50mm threshold is under 40%, severe
	triggered, sev = rule.Validar(Observation{Accumulated30D: 15})
	assert.True(t, triggered)
	assert.Equal(t, SeveritySevero, sev)

	finding := rule.GenerarMensaje(Observation{Accumulated30D: 15}, sev)
	assert.Equal(t, RuleDrought, finding.Rule)
	assert.NotEmpty(t, finding.Titulo)
	assert.NotEmpty(t, finding.Recomendacion)
}

func TestExcessRule(t *testing.T) {
	rule := ruleByName(t, RuleExcess)

	triggered, _ := rule.Validar(Observation{Accumulated7D: 150})
	assert.False(t, triggered)

	triggered, sev := rule.Validar(Observation{Accumulated7D: 200})
	assert.True(t, triggered)
	assert.Equal(t, SeverityModerado, sev)
}

func TestCampaignDryRule(t *testing.T) {
	rule := ruleByName(t, RuleCampaignDry)

	// No history means no baseline to compare against
	triggered, _ := rule.Validar(Observation{CampaignToDate: 10, CampaignHistoric: 0})
	assert.False(t, triggered)

	triggered, _ = rule.Validar(Observation{CampaignToDate: 420, CampaignHistoric: 600})
	assert.False(t, triggered) // exactly 70%

	triggered, sev := rule.Validar(Observation{CampaignToDate: 300, CampaignHistoric: 600})
	assert.True(t, triggered)
	assert.Equal(t, SeverityModerado, sev)
}

func TestDryStreakRule(t *testing.T) {
	rule := ruleByName(t, RuleDryStreak)

	triggered, _ := rule.Validar(Observation{DryDays: 20})
	assert.False(t, triggered)

	triggered, sev := rule.Validar(Observation{DryDays: 21})
	assert.True(t, triggered)
	assert.Equal(t, SeverityModerado, sev)
}

func TestCampaignRange(t *testing.T) {
	start, end := CampaignRange(2024)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC), end)
}

func TestCampaignYear(t *testing.T) {
	// Before July the date belongs to the previous year's campaign
	assert.Equal(t, 2024, CampaignYear(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2025, CampaignYear(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2025, CampaignYear(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)))
}

func TestPriorityFor(t *testing.T) {
	require.Equal(t, "alta", priorityFor(SeveritySevero))
	require.Equal(t, "media", priorityFor(SeverityModerado))
	require.Equal(t, "baja", priorityFor(SeverityLeve))
	require.Equal(t, "baja", priorityFor(SeverityNinguno))
}
