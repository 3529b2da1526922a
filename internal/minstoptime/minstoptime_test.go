package minstoptime

import "testing"

func intp(i int) *int { return &i }

func TestLookupSpecificity(t *testing.T) {
	table := NewTable([]Rule{
		{Seconds: 45, TrainType: "", Location: "", Track: nil},
		{Seconds: 200, TrainType: "IC", Location: "", Track: nil},
		{Seconds: 100, TrainType: "", Location: "XPN", Track: nil},
		{Seconds: 101, TrainType: "", Location: "XPN", Track: intp(1)},
		{Seconds: 103, TrainType: "", Location: "XPN", Track: intp(3)},
		{Seconds: 203, TrainType: "IC", Location: "XPN", Track: intp(3)},
	})

	cases := []struct {
		trainType, loc string
		track          *int
		want           int
	}{
		{"IC", "", nil, 200},
		{"RE", "", nil, 45},
		{"IC", "XPN", nil, 100},
		{"RE", "XPN", nil, 100},
		{"IC", "XPN", intp(2), 100},
		{"RE", "XPN", intp(2), 100},
		{"IC", "XPN", intp(3), 203},
		{"RE", "XPN", intp(3), 103},
		{"IC", "XDE", nil, 200},
		{"IC", "XDE", intp(1), 200},
		{"RE", "XDE", nil, 45},
		{"RE", "XDE", intp(1), 45},
	}
	for _, c := range cases {
		got, err := table.Lookup(c.trainType, c.loc, c.track)
		if err != nil {
			t.Fatalf("Lookup(%q,%q,%v): unexpected error: %v", c.trainType, c.loc, c.track, err)
		}
		if got != c.want {
			t.Errorf("Lookup(%q,%q,%v) = %d, want %d", c.trainType, c.loc, c.track, got, c.want)
		}
	}
}

func TestLookupNoDefault(t *testing.T) {
	table := NewTable([]Rule{
		{Seconds: 200, TrainType: "IC"},
	})
	if _, err := table.Lookup("RE", "XPN", nil); err == nil {
		t.Fatal("expected NoDefault error when no global rule exists")
	}
}
