package domain

import "time"

// TemporalQuery is the parsed temporal intent of a query.
//
// DecayFactor 0.0 means an explicit window was derived: skip decay and
// hard-filter to [StartDate, EndDate]. DecayFactor 1.0 means no temporal
// reference was found and the full decay function applies downstream.
type TemporalQuery struct {
	HasTemporalReference bool       `json:"has_temporal_reference"`
	TimeFrame            string     `json:"time_frame,omitempty"`
	StartDate            *time.Time `json:"start_date,omitempty"`
	EndDate              *time.Time `json:"end_date,omitempty"`
	TemporalKeywords     []string   `json:"temporal_keywords,omitempty"`
	DecayFactor          float64    `json:"decay_factor"`
}
