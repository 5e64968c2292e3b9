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

package scheduler

import (
	"testing"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSchedules_AreValidCronExpressions(t *testing.T) {
	parser := cron.ParseStandard

	defaults := DefaultSchedules()
	for name, spec := range map[string]string{
		"daily":    defaults.Daily,
		"weekly":   defaults.Weekly,
		"monthly":  defaults.Monthly,
		"rainfall": defaults.Rainfall,
	} {
		_, err := parser(spec)
		assert.NoError(t, err, "schedule %s (%s)", name, spec)
	}
}

func TestNewRunner_EmptySchedulesFallBackToDefaults(t *testing.T) {
	runner := NewRunner(nil, nil, nil, zerolog.Nop(), Schedules{})

	assert.Equal(t, DefaultSchedules(), runner.schedules)
}

func TestNewRunner_KeepsExplicitSchedules(t *testing.T) {
	custom := Schedules{
		Daily:    "15 4 * * *",
		Weekly:   "0 7 * * 2",
		Monthly:  "0 8 2 * *",
		Rainfall: "30 10 * * *",
	}

	runner := NewRunner(nil, nil, nil, zerolog.Nop(), custom)

	assert.Equal(t, custom, runner.schedules)
}

func TestNewRunner_PartialSchedulesFillOnlyMissing(t *testing.T) {
	runner := NewRunner(nil, nil, nil, zerolog.Nop(), Schedules{Daily: "0 3 * * *"})

	require.Equal(t, "0 3 * * *", runner.schedules.Daily)
	assert.Equal(t, DefaultSchedules().Weekly, runner.schedules.Weekly)
	assert.Equal(t, DefaultSchedules().Monthly, runner.schedules.Monthly)
	assert.Equal(t, DefaultSchedules().Rainfall, runner.schedules.Rainfall)
}
