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

package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camposur/agroguardian/internal/store"
)

func TestResolvePeriod_Daily(t *testing.T) {
	now := time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)

	start, end, err := ResolvePeriod(store.FrequencyDaily, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 3, 15, 23, 59, 59, 0, time.UTC), end)
}

func TestResolvePeriod_WeeklyStartsMonday(t *testing.T) {
	// 2026-03-18 is a Wednesday
	now := time.Date(2026, 3, 18, 9, 0, 0, 0, time.UTC)

	start, end, err := ResolvePeriod(store.FrequencyWeekly, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Monday, start.Weekday())
	assert.Equal(t, time.Date(2026, 3, 22, 23, 59, 59, 0, time.UTC), end)
}

func TestResolvePeriod_WeeklySundayBelongsToSameWeek(t *testing.T) {
	// Sunday must map to the Monday six days earlier, not the next day
	now := time.Date(2026, 3, 22, 23, 0, 0, 0, time.UTC)

	start, _, err := ResolvePeriod(store.FrequencyWeekly, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), start)
}

func TestResolvePeriod_MonthlyIsPreviousMonth(t *testing.T) {
	now := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)

	start, end, err := ResolvePeriod(store.FrequencyMonthly, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 2, 28, 23, 59, 59, 0, time.UTC), end)
}

func TestResolvePeriod_MonthlyAcrossYearBoundary(t *testing.T) {
	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	start, end, err := ResolvePeriod(store.FrequencyMonthly, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC), end)
}

func TestResolvePeriod_UnknownFrequency(t *testing.T) {
	_, _, err := ResolvePeriod("QUARTERLY", time.Now())
	assert.Error(t, err)
}
