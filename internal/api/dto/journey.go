package dto

import (
	"time"

	"postcode-tracker/internal/domain"
)

type ManualJourneyRequest struct {
	Start     LocationQuery `json:"start"`
	End       LocationQuery `json:"end"`
	StartTime *time.Time    `json:"start_time"`
	EndTime   *time.Time    `json:"end_time"`
}

type JourneyResponse struct {
	ID             int64      `json:"id"`
	StartPostcode  string     `json:"start_postcode"`
	StartLatitude  float64    `json:"start_latitude"`
	StartLongitude float64    `json:"start_longitude"`
	StartTime      time.Time  `json:"start_time"`
	EndPostcode    *string    `json:"end_postcode"`
	EndLatitude    *float64   `json:"end_latitude"`
	EndLongitude   *float64   `json:"end_longitude"`
	EndTime        *time.Time `json:"end_time"`
	DistanceMiles  *float64   `json:"distance_miles"`
	IsManual       bool       `json:"is_manual"`
	Active         bool       `json:"active"`
}

func NewJourneyResponse(j *domain.Journey) JourneyResponse {
	res := JourneyResponse{
		ID:             j.ID,
		StartPostcode:  domain.FormatPostcode(j.StartPostcode),
		StartLatitude:  j.Start.Lat,
		StartLongitude: j.Start.Lon,
		StartTime:      j.StartTime,
		EndTime:        j.EndTime,
		DistanceMiles:  j.DistanceMiles,
		IsManual:       j.IsManual,
		Active:         j.Active(),
	}
	if j.EndPostcode != "" {
		pc := domain.FormatPostcode(j.EndPostcode)
		res.EndPostcode = &pc
	}
	if j.End != nil {
		lat, lon := j.End.Lat, j.End.Lon
		res.EndLatitude = &lat
		res.EndLongitude = &lon
	}
	return res
}

type ListJourneysResponse struct {
	Journeys []JourneyResponse `json:"journeys"`
}
