package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseChannelValues(t *testing.T) {
	tests := []struct {
		in      string
		want    []float64
		wantErr bool
	}{
		{in: "191,0,0,127,0", want: []float64{191, 0, 0, 127, 0}},
		{in: " 1, 2.5 ,3", want: []float64{1, 2.5, 3}},
		{in: "-0.00390625", want: []float64{-0.00390625}},
		{in: "", wantErr: true},
		{in: "1,,3", wantErr: true},
		{in: "red", wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			got, err := parseChannelValues(test.in)
			if test.wantErr {
				if err == nil {
					t.Fatal("expected error, got", got)
				}
				return
			}
			if err != nil {
				t.Fatal("unexpected error:", err)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("unexpected diff (-want +got):\n%s", diff)
			}
		})
	}
}
