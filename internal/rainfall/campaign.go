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

import "time"

// CampaignRange returns the agricultural campaign window for a starting year:
// July 1 of that year through June 30 of the next. A record dated 2025-03-15
// belongs to the 2024 campaign.
func CampaignRange(year int) (time.Time, time.Time) {
	start := time.Date(year, time.July, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year+1, time.June, 30, 23, 59, 59, 0, time.UTC)
	return start, end
}

// CampaignYear returns the campaign a date belongs to
func CampaignYear(t time.Time) int {
	if t.Month() >= time.July {
		return t.Year()
	}
	return t.Year() - 1
}
