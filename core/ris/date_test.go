package ris

import "testing"

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		want    Date
		wantErr bool
	}{
		{input: "2020", want: Date{Year: 2020}},
		{input: "2020///", want: Date{Year: 2020}},
		{input: "2020/05/12", want: Date{Year: 2020, Month: 5, Day: 12}},
		{input: "2020/08/09/", want: Date{Year: 2020, Month: 8, Day: 9}},
		{input: "2019/10//Spring", want: Date{Year: 2019, Month: 10, Other: "Spring"}},
		{input: "2019///10:30 GMT", want: Date{Year: 2019, Other: "10:30 GMT"}},
		{input: "2019///a/b", want: Date{Year: 2019, Other: "a/b"}},
		{input: " 1998/ ", want: Date{Year: 1998}},
		{input: "/05//", want: Date{Month: 5}},
		{input: "", wantErr: true},
		{input: "Spring 2020", wantErr: true},
		{input: "2020/13", wantErr: true},
		{input: "2020/00", wantErr: true},
		{input: "2020/01/32", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseDate(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDateString(t *testing.T) {
	tests := []struct {
		date Date
		want string
	}{
		{Date{Year: 2020}, "2020///"},
		{Date{Year: 2020, Month: 5, Day: 1}, "2020/05/01/"},
		{Date{Year: 2019, Other: "Spring"}, "2019///Spring"},
		{Date{}, "///"},
	}
	for _, tt := range tests {
		if got := tt.date.String(); got != tt.want {
			t.Errorf("%+v.String() = %q, want %q", tt.date, got, tt.want)
		}
	}
	if !(Date{}).IsZero() || (Date{Day: 1}).IsZero() {
		t.Error("IsZero() mismatch")
	}
}
