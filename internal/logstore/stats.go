package logstore

import (
	"gonum.org/v1/gonum/stat"
)

// StationStats summarizes a station's run history: total seconds watered
// and the mean run length, both in seconds.
type StationStats struct {
	StationID  int
	RunCount   int
	TotalSecs  float64
	MeanSecs   float64
}

// Stats computes per-station run statistics from one or more days' raw log
// entries (each as returned by DailyLogStore.Load), skipping sensor
// pseudo-records.
func Stats(days [][][5]int64) []StationStats {
	byStation := make(map[int][]float64)
	for _, day := range days {
		for _, e := range day {
			stationID := int(e[1])
			if stationID >= 200 {
				continue // sensor pseudo-record
			}
			byStation[stationID] = append(byStation[stationID], float64(e[2]))
		}
	}

	out := make([]StationStats, 0, len(byStation))
	for id, durations := range byStation {
		total := stat.Mean(durations, nil) * float64(len(durations))
		mean := stat.Mean(durations, nil)
		out = append(out, StationStats{
			StationID: id,
			RunCount:  len(durations),
			TotalSecs: total,
			MeanSecs:  mean,
		})
	}
	return out
}
