package logstore

import "testing"

func TestStatsComputesPerStationMeanAndTotal(t *testing.T) {
	days := [][][5]int64{
		{{1, 0, 60, 1000, recordManual}, {1, 1, 30, 1010, recordManual}},
		{{1, 0, 120, 2000, recordManual}},
	}
	stats := Stats(days)

	byID := make(map[int]StationStats)
	for _, s := range stats {
		byID[s.StationID] = s
	}

	s0, ok := byID[0]
	if !ok {
		t.Fatalf("expected stats for station 0")
	}
	if s0.RunCount != 2 {
		t.Fatalf("expected 2 runs for station 0, got %d", s0.RunCount)
	}
	if s0.MeanSecs != 90 {
		t.Fatalf("expected mean 90s for station 0, got %v", s0.MeanSecs)
	}
	if s0.TotalSecs != 180 {
		t.Fatalf("expected total 180s for station 0, got %v", s0.TotalSecs)
	}
}

func TestStatsSkipsSensorPseudoRecords(t *testing.T) {
	days := [][][5]int64{
		{{0, 200, 1, 1000, recordSensor}},
	}
	stats := Stats(days)
	if len(stats) != 0 {
		t.Fatalf("expected sensor pseudo-records excluded from station stats, got %+v", stats)
	}
}
