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

package kpi

import (
	"context"
	"math"
	"time"

	"github.com/camposur/agroguardian/internal/store"
)

// Input identifies what a formula is computed over: a firm, an inclusive
// period, and optionally a single lot.
type Input struct {
	FirmID      int64
	LotID       *int64
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// Result is the outcome of one formula evaluation. A nil Value is the
// recoverable "no data" outcome, not an error; Message then explains why.
type Result struct {
	Value    *float64
	Unit     string
	Metadata map[string]any
	Message  string
}

// HasValue reports whether the formula produced a number
func (r Result) HasValue() bool {
	return r.Value != nil
}

// Calculator computes one KPI over the period. Implementations pull whatever
// record sets they need through the store and must re-derive composed values
// fresh on every call.
type Calculator func(ctx context.Context, st store.Store, in Input) (Result, error)

// Round rounds to a fixed number of decimals. Formula outputs are rounded as
// part of the contract so fixtures are reproducible across platforms.
func Round(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}

func value(v float64, unit string, decimals int, metadata map[string]any) Result {
	rounded := Round(v, decimals)
	return Result{Value: &rounded, Unit: unit, Metadata: metadata}
}

func noData(unit, message string) Result {
	return Result{Unit: unit, Message: message}
}
