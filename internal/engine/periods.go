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
	"fmt"
	"time"

	"github.com/camposur/agroguardian/internal/store"
)

// ResolvePeriod maps a frequency tier onto the concrete period the run
// covers, anchored at now (UTC):
//
//	DAILY   the current calendar day
//	WEEKLY  the current ISO week (Monday through Sunday)
//	MONTHLY the previous calendar month
//
// Boundaries are deterministic so re-running a tier within the same
// period upserts the same history rows.
func ResolvePeriod(frequency string, now time.Time) (start, end time.Time, err error) {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch frequency {
	case store.FrequencyDaily:
		return day, day.AddDate(0, 0, 1).Add(-time.Second), nil
	case store.FrequencyWeekly:
		weekday := int(day.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		monday := day.AddDate(0, 0, 1-weekday)
		return monday, monday.AddDate(0, 0, 7).Add(-time.Second), nil
	case store.FrequencyMonthly:
		firstOfThis := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		firstOfPrev := firstOfThis.AddDate(0, -1, 0)
		return firstOfPrev, firstOfThis.Add(-time.Second), nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unknown frequency %q", frequency)
	}
}
