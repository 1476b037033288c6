package core

import (
	"testing"
	"time"
)

func weeklyProgram(dayBits int, startMinute int) *Program {
	p := &Program{
		Type:          ProgramWeekly,
		StartTimeMode: StartTimeFixed,
		Days:          [2]int{dayBits, 0},
	}
	p.StartTimes[0] = EncodeAbsoluteStartTime(startMinute)
	for i := 1; i < 4; i++ {
		p.StartTimes[i] = EncodeDisabledStartTime()
	}
	return p
}

func TestMatchProgramWeeklyFixedStart(t *testing.T) {
	// 2026-07-30 is a Thursday -> Monday-zero weekday index 3 -> bit 1<<3.
	p := weeklyProgram(1<<3, 6*60)
	now := time.Date(2026, 7, 30, 6, 0, 0, 0, time.UTC)

	m := MatchProgram(p, now, 0, 0)
	if !m.Matched {
		t.Fatalf("expected match at configured start time")
	}
	if m.RunNumber != 1 {
		t.Fatalf("expected run number 1, got %d", m.RunNumber)
	}

	wrongDay := now.AddDate(0, 0, 1)
	if MatchProgram(p, wrongDay, 0, 0).Matched {
		t.Fatalf("did not expect a match on a day not in Days bitmask")
	}

	wrongMinute := now.Add(time.Minute)
	if MatchProgram(p, wrongMinute, 0, 0).Matched {
		t.Fatalf("did not expect a match one minute off the start time")
	}
}

func TestMatchProgramSunriseRelative(t *testing.T) {
	p := weeklyProgram(0x7F, 0)
	p.StartTimes[0] = EncodeSolarStartTime(true, -30)

	now := time.Date(2026, 7, 30, 5, 30, 0, 0, time.UTC)
	sunrise := 6 * 60
	if !MatchProgram(p, now, sunrise, 0).Matched {
		t.Fatalf("expected match 30 minutes before sunrise")
	}
}

func TestMatchProgramRepeatingStartTimes(t *testing.T) {
	p := weeklyProgram(0x7F, 0)
	p.StartTimeMode = StartTimeRepeating
	p.StartTimes[0] = EncodeAbsoluteStartTime(6 * 60)
	p.StartTimes[1] = 3  // repeat 3 more times
	p.StartTimes[2] = 20 // every 20 minutes

	base := time.Date(2026, 7, 30, 6, 0, 0, 0, time.UTC)
	for i, want := range []int{1, 2, 3, 4} {
		now := base.Add(time.Duration(i*20) * time.Minute)
		m := MatchProgram(p, now, 0, 0)
		if !m.Matched || m.RunNumber != want {
			t.Fatalf("repeat %d: expected match with run number %d, got %+v", i, want, m)
		}
	}

	fifth := base.Add(80 * time.Minute)
	if MatchProgram(p, fifth, 0, 0).Matched {
		t.Fatalf("did not expect a 5th repeat beyond the configured count")
	}
}

func TestMatchProgramSingleRunMatchesOnlyItsDay(t *testing.T) {
	now := time.Date(2026, 7, 30, 6, 0, 0, 0, time.UTC)
	day := epochDay(now)
	p := &Program{
		Type:          ProgramSingleRun,
		StartTimeMode: StartTimeFixed,
		Days:          [2]int{int(day >> 8), int(day & 0xFF)},
	}
	p.StartTimes[0] = EncodeAbsoluteStartTime(6 * 60)
	for i := 1; i < 4; i++ {
		p.StartTimes[i] = EncodeDisabledStartTime()
	}

	if !MatchProgram(p, now, 0, 0).Matched {
		t.Fatalf("expected single-run program to match its configured day")
	}
	tomorrow := now.AddDate(0, 0, 1)
	if MatchProgram(p, tomorrow, 0, 0).Matched {
		t.Fatalf("single-run program must not match any other day")
	}
}

func TestMatchProgramOddEven(t *testing.T) {
	p := weeklyProgram(0x7F, 6*60)
	p.OddEven = OddEvenOdd

	odd := time.Date(2026, 7, 29, 6, 0, 0, 0, time.UTC)
	if !MatchProgram(p, odd, 0, 0).Matched {
		t.Fatalf("expected odd-day program to match on the 29th")
	}

	even := time.Date(2026, 7, 30, 6, 0, 0, 0, time.UTC)
	if MatchProgram(p, even, 0, 0).Matched {
		t.Fatalf("odd-day program must not match an even day")
	}
}

func TestMatchProgramDateRangeWraps(t *testing.T) {
	p := weeklyProgram(0x7F, 6*60)
	p.DateRangeConfig = DateRange{Enabled: true, From: (12 << 5) | 20, To: (1 << 5) | 10}

	inRange := time.Date(2026, 12, 25, 6, 0, 0, 0, time.UTC)
	if !MatchProgram(p, inRange, 0, 0).Matched {
		t.Fatalf("expected date range wrapping the new year to include late December")
	}
	outOfRange := time.Date(2026, 6, 1, 6, 0, 0, 0, time.UTC)
	if MatchProgram(p, outOfRange, 0, 0).Matched {
		t.Fatalf("did not expect a match outside the configured date range")
	}
}
