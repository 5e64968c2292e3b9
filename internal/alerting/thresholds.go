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

package alerting

import (
	"fmt"

	"github.com/camposur/agroguardian/internal/store"
)

// Classify maps a KPI value onto a traffic-light status using the
// configured threshold bands. A KPI without a threshold row is always
// VERDE: unconfigured KPIs are informational and never alarm.
func Classify(value float64, t *store.KPIThreshold) string {
	if t == nil {
		return store.StatusVerde
	}

	warning, critical, err := resolveCutoffs(t)
	if err != nil {
		return store.StatusVerde
	}

	switch t.Direction {
	case store.LowerIsBetter:
		if value >= critical {
			return store.StatusRojo
		}
		if value >= warning {
			return store.StatusAmarillo
		}
		return store.StatusVerde
	default:
		if value <= critical {
			return store.StatusRojo
		}
		if value <= warning {
			return store.StatusAmarillo
		}
		return store.StatusVerde
	}
}

// resolveCutoffs turns a threshold row into absolute warning/critical
// cutoffs. percent_of_target bands are expressed as a percentage of the
// configured target value.
func resolveCutoffs(t *store.KPIThreshold) (warning, critical float64, err error) {
	switch t.Mode {
	case store.ThresholdPercentOfTarget:
		if t.Target == nil {
			return 0, 0, fmt.Errorf("threshold for kpi %d uses percent_of_target without a target", t.KPIID)
		}
		return *t.Target * t.Warning / 100, *t.Target * t.Critical / 100, nil
	default:
		return t.Warning, t.Critical, nil
	}
}
