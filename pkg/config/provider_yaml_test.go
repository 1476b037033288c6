package config

import (
	"testing"
)

func TestYAMLProviderLoadOptionsBootstrapsOnFirstRun(t *testing.T) {
	dir := t.TempDir()
	p := NewYAMLProvider(dir)

	opts, err := p.LoadOptions()
	if err != nil {
		t.Fatalf("unexpected error bootstrapping options: %v", err)
	}
	if opts.WaterPercent != 100 {
		t.Fatalf("expected bootstrap default water_percent 100, got %d", opts.WaterPercent)
	}

	reloaded, err := p.LoadOptions()
	if err != nil {
		t.Fatalf("unexpected error re-loading bootstrapped options: %v", err)
	}
	if reloaded.Name != opts.Name {
		t.Fatalf("expected the bootstrapped file to persist across loads")
	}
}

func TestYAMLProviderStationsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := NewYAMLProvider(dir)

	stations := []StationData{{Name: "zone1", Kind: "standard"}, {Name: "zone2", Kind: "gpio"}}
	if err := p.SaveStations(stations); err != nil {
		t.Fatalf("SaveStations: %v", err)
	}

	loaded, err := p.LoadStations()
	if err != nil {
		t.Fatalf("LoadStations: %v", err)
	}
	if len(loaded) != 2 || loaded[0].Name != "zone1" || loaded[1].Kind != "gpio" {
		t.Fatalf("stations did not round trip through YAML: %+v", loaded)
	}
}

func TestYAMLProviderMissingStationsFileIsNotError(t *testing.T) {
	dir := t.TempDir()
	p := NewYAMLProvider(dir)

	stations, err := p.LoadStations()
	if err != nil {
		t.Fatalf("expected no error for a missing stations.yml, got %v", err)
	}
	if stations != nil {
		t.Fatalf("expected nil stations for a fresh install, got %+v", stations)
	}
}

func TestYAMLProviderProgramsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := NewYAMLProvider(dir)

	programs := map[int]ProgramData{0: {Name: "p0"}, 1: {Name: "p1"}}
	if err := p.SavePrograms(programs); err != nil {
		t.Fatalf("SavePrograms: %v", err)
	}

	loaded, err := p.LoadPrograms()
	if err != nil {
		t.Fatalf("LoadPrograms: %v", err)
	}
	if len(loaded) != 2 || loaded[1].Name != "p1" {
		t.Fatalf("programs did not round trip through YAML: %+v", loaded)
	}
}
