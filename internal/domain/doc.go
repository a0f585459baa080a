// Package domain models CDC Chronic Disease Indicators (CDI) counts and the
// forecast and premium-adjustment rules derived from them.
//
// # Data Source
//
// Indicator rows originate from the CDC open data portal (Socrata dataset
// g4ie-h725). The acquisition step pages through the dataset and stages it as
// a flat CSV in object storage; this package decodes that CSV into [RawRow]
// values and never talks to the network itself.
//
// # CDI Data Conventions
//
// Row selection:
//
//	datavalue       empty values are dropped before anything else.
//	yearstart       the 2001 collection year is known bad and dropped.
//	question        "mortality" (any case) selects the mortality metric,
//	                "hospital" (any case) selects hospitalization.
//	                Questions containing lowercase "rate" are dropped.
//	datavaluetype   only "Number" rows are counts; everything else is a
//	                rate, percentage or prevalence and is ignored.
//	topic           hospitalization rows under "Older Adults" duplicate
//	                other topics and are dropped.
//
// Field mapping:
//
//	yearend       -> IndicatorRecord.Year
//	locationdesc  -> IndicatorRecord.State
//	datavalue     -> IndicatorRecord.Count (truncated to an integer)
//
// Stratified rows (sex, race, age) are not filtered out: every selected row
// contributes to its state's yearly total, matching the counts the billing
// system was calibrated against.
//
// # Forecast Policy
//
// Each state's yearly total is forecast one year ahead with a fixed
// ARIMA(1,1,1) model. Fewer than two observations, or a model that cannot be
// fit, yields a [Missing] forecast for that state only. Missing values
// propagate through every later computation and render as empty CSV fields.
//
// # Premium Increase Rate
//
//	blended = 0.75 x hospitalization change + 0.25 x mortality change
//	rate    = 0.05 + 0.25 x (blended - lo) / (hi - lo)
//
// lo and hi are the minimum and maximum blended scores of the current run, so
// rates are batch-relative and always fall in [0.05, 0.30]. When every score
// is identical the range is empty and every state gets 0.05.
package domain
