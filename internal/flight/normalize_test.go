package flight

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestNormalize_TableDriven(t *testing.T) {
	t.Parallel()

	strPtr := func(s string) *string { return &s }
	intPtr := func(n int64) *int64 { return &n }

	tests := []struct {
		name string
		raw  map[string]any
		want Cleaned
	}{
		{
			name: "complete_record",
			raw: map[string]any{
				FieldDeparture:   " 北京 ",
				FieldDestination: "上海",
				FieldFlightDate:  "2026-03-15",
				FieldFlightCode:  " CA1831 ",
				FieldPrice:       "¥1,230",
			},
			want: Cleaned{
				Departure:   strPtr("北京"),
				Destination: strPtr("上海"),
				FlightType:  "国内航班",
				FlightDate:  strPtr("2026-03-15"),
				FlightCode:  strPtr("CA1831"),
				Price:       intPtr(1230),
			},
		},
		{
			name: "empty_strings_become_nil",
			raw: map[string]any{
				FieldDeparture:   "   ",
				FieldDestination: "",
				FieldFlightDate:  "",
				FieldFlightCode:  "\t",
				FieldPrice:       "",
			},
			want: Cleaned{FlightType: "国内航班"},
		},
		{
			name: "missing_fields_become_nil",
			raw:  map[string]any{},
			want: Cleaned{FlightType: "国内航班"},
		},
		{
			name: "bad_date_becomes_nil",
			raw: map[string]any{
				FieldDeparture:   "广州",
				FieldDestination: "成都",
				FieldFlightDate:  "2026/03/15",
				FieldFlightCode:  "CZ3401",
				FieldPrice:       "980",
			},
			want: Cleaned{
				Departure:   strPtr("广州"),
				Destination: strPtr("成都"),
				FlightType:  "国内航班",
				FlightCode:  strPtr("CZ3401"),
				Price:       intPtr(980),
			},
		},
		{
			name: "numeric_price_via_json_number",
			raw: map[string]any{
				FieldDeparture:   "深圳",
				FieldDestination: "西安",
				FieldFlightDate:  "2026-01-02",
				FieldFlightCode:  "ZH9101",
				FieldPrice:       json.Number("1560"),
			},
			want: Cleaned{
				Departure:   strPtr("深圳"),
				Destination: strPtr("西安"),
				FlightType:  "国内航班",
				FlightDate:  strPtr("2026-01-02"),
				FlightCode:  strPtr("ZH9101"),
				Price:       intPtr(1560),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParsePrice_TableDriven(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     string
		want   int64
		wantOK bool
	}{
		{name: "plain", in: "980", want: 980, wantOK: true},
		{name: "currency_symbol", in: "¥1,230", want: 1230, wantOK: true},
		{name: "fullwidth_symbol", in: "￥2,480", want: 2480, wantOK: true},
		{name: "fullwidth_digits", in: "￥１２３０", want: 1230, wantOK: true},
		{name: "inner_spaces", in: "1 230", want: 1230, wantOK: true},
		{name: "negative_passthrough", in: "-1", want: -1, wantOK: true},
		{name: "sentinel_wujiage", in: "无价格"},
		{name: "sentinel_zanwu", in: "暂无"},
		{name: "sentinel_na", in: "NA"},
		{name: "sentinel_n_slash_a", in: "N/A"},
		{name: "sentinel_lowercase", in: "n/a"},
		{name: "sentinel_no_price", in: "no price"},
		{name: "empty", in: ""},
		{name: "spaces_only", in: "   "},
		{name: "float_rejected", in: "123.45"},
		{name: "garbage", in: "call us"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parsePrice(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("parsePrice(%q) ok=%v, want %v", tt.in, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Fatalf("parsePrice(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseISODate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		wantOK bool
	}{
		{"2026-03-15", true},
		{" 2026-03-15 ", true},
		{"2026-3-5", false},
		{"2026-13-01", false},
		{"15-03-2026", false},
		{"not a date", false},
		{"", false},
	}

	for _, tt := range tests {
		if _, ok := parseISODate(tt.in); ok != tt.wantOK {
			t.Errorf("parseISODate(%q) ok=%v, want %v", tt.in, ok, tt.wantOK)
		}
	}
}

func TestCleanedValid_RequiresAllFields(t *testing.T) {
	t.Parallel()

	full := map[string]any{
		FieldDeparture:   "北京",
		FieldDestination: "上海",
		FieldFlightDate:  "2026-03-15",
		FieldFlightCode:  "CA1831",
		FieldPrice:       "1230",
	}
	if !Normalize(full).Valid() {
		t.Fatalf("complete record should be valid")
	}

	for _, field := range []string{
		FieldDeparture, FieldDestination, FieldFlightDate, FieldFlightCode, FieldPrice,
	} {
		raw := map[string]any{}
		for k, v := range full {
			raw[k] = v
		}
		delete(raw, field)
		if Normalize(raw).Valid() {
			t.Errorf("record missing %s should be invalid", field)
		}
	}
}

func TestRow_AlignsWithInsertColumns(t *testing.T) {
	t.Parallel()

	c := Normalize(map[string]any{
		FieldDeparture:   "北京",
		FieldDestination: "上海",
		FieldFlightDate:  "2026-03-15",
		FieldFlightCode:  "CA1831",
		FieldPrice:       "¥1,230",
	})
	if !c.Valid() {
		t.Fatalf("record should be valid")
	}

	row := c.Row("/data/json/beijing/a.json")
	cols := InsertColumns()
	if len(row) != len(cols) {
		t.Fatalf("row has %d values, want %d", len(row), len(cols))
	}

	want := []any{"北京", "上海", "国内航班", "2026-03-15", "CA1831", int64(1230), "/data/json/beijing/a.json"}
	if !reflect.DeepEqual(row, want) {
		t.Fatalf("Row() = %v, want %v", row, want)
	}
}
