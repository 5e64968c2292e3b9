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

import "fmt"

// Rule names, also used as regla_aplicada on the alerts they raise.
const (
	RuleDrought     = "LLUVIA_SEQUIA_30D"
	RuleExcess      = "LLUVIA_EXCESO_7D"
	RuleCampaignDry = "LLUVIA_CAMPANIA_SECA"
	RuleDryStreak   = "LLUVIA_DIAS_SECOS"
)

// Fixed rule cutoffs.
const (
	DroughtModerateMm = 50.0  // 30-day accumulation below this is moderate drought
	DroughtSevereMm   = 20.0  // 30-day accumulation below this is severe drought
	ExcessMm          = 150.0 // 7-day accumulation above this is excess
	CampaignDryPct    = 70.0  // campaign-to-date below this % of historical is dry
	DryStreakDays     = 21    // consecutive dry days at or above this trigger
)

// Observation is the measured input a rule validates. Building one is
// the checker's job; validating it is pure.
type Observation struct {
	Accumulated30D   float64
	Accumulated7D    float64
	CampaignToDate   float64
	CampaignHistoric float64
	DryDays          int
}

// Finding is a triggered rule with its severity and message.
type Finding struct {
	Rule          string
	Severity      Severity
	Titulo        string
	Descripcion   string
	Recomendacion string
}

// Rule is an enabled/disabled predicate over an observation. Validar
// and GenerarMensaje are pure so rules can be tested without a store.
type Rule struct {
	Name           string
	Enabled        bool
	Validar        func(obs Observation) (bool, Severity)
	GenerarMensaje func(obs Observation, sev Severity) Finding
}

// DefaultRules returns the four built-in rainfall rules, all enabled.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:    RuleDrought,
			Enabled: true,
			Validar: func(obs Observation) (bool, Severity) {
				if obs.Accumulated30D >= DroughtModerateMm {
					return false, SeverityNinguno
				}
				return true, DeficitSeverity(obs.Accumulated30D, DroughtModerateMm)
			},
			GenerarMensaje: func(obs Observation, sev Severity) Finding {
				return Finding{
					Rule:     RuleDrought,
					Severity: sev,
					Titulo:   fmt.Sprintf("Sequía %s: %.1f mm en 30 días", sev, obs.Accumulated30D),
					Descripcion: fmt.Sprintf(
						"El acumulado de los últimos 30 días es %.1f mm, por debajo del umbral de %.0f mm.",
						obs.Accumulated30D, DroughtModerateMm),
					Recomendacion: "Revisar disponibilidad de agua y considerar ajustar la carga animal.",
				}
			},
		},
		{
			Name:    RuleExcess,
			Enabled: true,
			Validar: func(obs Observation) (bool, Severity) {
				if obs.Accumulated7D <= ExcessMm {
					return false, SeverityNinguno
				}
				return true, ExcessSeverity(obs.Accumulated7D, ExcessMm)
			},
			GenerarMensaje: func(obs Observation, sev Severity) Finding {
				return Finding{
					Rule:     RuleExcess,
					Severity: sev,
					Titulo:   fmt.Sprintf("Exceso hídrico %s: %.1f mm en 7 días", sev, obs.Accumulated7D),
					Descripcion: fmt.Sprintf(
						"El acumulado de los últimos 7 días es %.1f mm, por encima del umbral de %.0f mm.",
						obs.Accumulated7D, ExcessMm),
					Recomendacion: "Verificar anegamiento de potreros y estado de caminos internos.",
				}
			},
		},
		{
			Name:    RuleCampaignDry,
			Enabled: true,
			Validar: func(obs Observation) (bool, Severity) {
				if obs.CampaignHistoric <= 0 {
					return false, SeverityNinguno
				}
				pct := 100 * obs.CampaignToDate / obs.CampaignHistoric
				if pct >= CampaignDryPct {
					return false, SeverityNinguno
				}
				return true, DeficitSeverity(obs.CampaignToDate, obs.CampaignHistoric)
			},
			GenerarMensaje: func(obs Observation, sev Severity) Finding {
				pct := 0.0
				if obs.CampaignHistoric > 0 {
					pct = 100 * obs.CampaignToDate / obs.CampaignHistoric
				}
				return Finding{
					Rule:     RuleCampaignDry,
					Severity: sev,
					Titulo:   fmt.Sprintf("Campaña seca: %.0f%% del promedio histórico", pct),
					Descripcion: fmt.Sprintf(
						"La campaña acumula %.1f mm contra un promedio histórico de %.1f mm (%.0f%%).",
						obs.CampaignToDate, obs.CampaignHistoric, pct),
					Recomendacion: "Planificar reservas forrajeras para el resto de la campaña.",
				}
			},
		},
		{
			Name:    RuleDryStreak,
			Enabled: true,
			Validar: func(obs Observation) (bool, Severity) {
				if obs.DryDays < DryStreakDays {
					return false, SeverityNinguno
				}
				return true, SeverityModerado
			},
			GenerarMensaje: func(obs Observation, sev Severity) Finding {
				return Finding{
					Rule:     RuleDryStreak,
					Severity: sev,
					Titulo:   fmt.Sprintf("%d días consecutivos sin lluvia", obs.DryDays),
					Descripcion: fmt.Sprintf(
						"No se registran lluvias desde hace %d días (umbral %d).",
						obs.DryDays, DryStreakDays),
					Recomendacion: "Monitorear aguadas y estado corporal de la hacienda.",
				}
			},
		},
	}
}
