package topology

import (
	"reflect"
	"testing"
)

func sampleLine(t *testing.T) *Line {
	t.Helper()
	xde1, err := NewLocation(KindStation, "XDE#1", 0, "Derau")
	if err != nil {
		t.Fatal(err)
	}
	xce1, err := NewLocation(KindStation, "XCE#1", 30, "Cella")
	if err != nil {
		t.Fatal(err)
	}
	xlg1, err := NewLocation(KindStation, "XLG#1", 50, "Leopoldgruen")
	if err != nil {
		t.Fatal(err)
	}
	xde2, err := NewLocation(KindStation, "XDE#2", 100, "Derau")
	if err != nil {
		t.Fatal(err)
	}
	line, err := Load("sample", "Beispielstrecke", []Element{xde1, xce1, xlg1, xde2})
	if err != nil {
		t.Fatal(err)
	}
	return line
}

func idsOf(elems []Element) []string {
	ids := make([]string, len(elems))
	for i, e := range elems {
		ids[i] = e.ID
	}
	return ids
}

func TestLoadSynthesizesOpenLines(t *testing.T) {
	line := sampleLine(t)
	got := idsOf(line.Elements)
	want := []string{"XDE#1", "XDE#1_XCE#1", "XCE#1", "XCE#1_XLG#1", "XLG#1", "XLG#1_XDE#2", "XDE#2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestLoadSkipsSynthesisWhenOpenLineExplicit(t *testing.T) {
	xde1, _ := NewLocation(KindStation, "XDE#1", 0, "Derau")
	xce1, _ := NewLocation(KindStation, "XCE#1", 30, "Cella")
	ol := NewOpenLine("XDE#1_XCE#1", 15, 3000, 2)
	line, err := Load("sample2", "x", []Element{xde1, ol, xce1})
	if err != nil {
		t.Fatal(err)
	}
	got := idsOf(line.Elements)
	want := []string{"XDE#1", "XDE#1_XCE#1", "XCE#1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestLocations(t *testing.T) {
	line := sampleLine(t)
	got := idsOf(line.Locations())
	want := []string{"XDE#1", "XCE#1", "XLG#1", "XDE#2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestLocationsExtendedBetween(t *testing.T) {
	line := sampleLine(t)

	full := line.LocationsExtendedBetween(0, 1)
	if !reflect.DeepEqual(idsOf(full), idsOf(line.Locations())) {
		t.Fatalf("full-range query should return all locations, got %v", idsOf(full))
	}

	got := line.LocationsExtendedBetween(.31, .55)
	want := []string{"XCE#1", "XLG#1", "XDE#2"}
	if !reflect.DeepEqual(idsOf(got), want) {
		t.Fatalf("got %v, want %v", idsOf(got), want)
	}

	// Simulate floating point noise from a JS frontend: the intended
	// bounds are exactly .3 and .5, but arrive perturbed by < 1e-9.
	noisy := line.LocationsExtendedBetween(.299999999999, .500000000001)
	exact := line.LocationsExtendedBetween(.3, .5)
	if !reflect.DeepEqual(idsOf(noisy), idsOf(exact)) {
		t.Fatalf("noisy bounds changed the result: got %v, want %v", idsOf(noisy), idsOf(exact))
	}
}

func TestMalformedLocationID(t *testing.T) {
	if _, err := NewLocation(KindStation, "XDE", 0, "Derau"); err == nil {
		t.Fatal("expected ErrMalformedLocationID")
	}
	if _, err := NewLocation(KindStation, "XDE#1#2", 0, "Derau"); err == nil {
		t.Fatal("expected ErrMalformedLocationID for more than one '#'")
	}
}
