package template

import (
	"testing"
)

func TestExpand(t *testing.T) {
	dateStore := map[string]any{
		"year":   2026,
		"month":  10,
		"day":    7,
		"hour":   9,
		"minute": 5,
		"wday":   "水",
		"date":   "2026-10-07",
		"time":   "09:05",
	}
	tests := []struct {
		name     string
		template string
		store    map[string]any
		expected string
		wantErr  bool
	}{
		{
			name:     "month and day without padding",
			template: "{{month}}/{{day}}",
			store:    dateStore,
			expected: "10/7",
		},
		{
			name:     "weekday in parentheses",
			template: "({{wday}})",
			store:    dateStore,
			expected: "(水)",
		},
		{
			name:     "update time label",
			template: "{{date}} {{time}} 更新",
			store:    dateStore,
			expected: "2026-10-07 09:05 更新",
		},
		{
			name:     "no variables to expand",
			template: "No variables here",
			store:    dateStore,
			expected: "No variables here",
		},
		{
			name:     "variable with spaces",
			template: "{{ wday }}",
			store:    dateStore,
			expected: "水",
		},
		{
			name:     "CEL ternary operator",
			template: `{{hour < 12 ? "AM" : "PM"}}`,
			store:    dateStore,
			expected: "AM",
		},
		{
			name:     "CEL arithmetic expression",
			template: "{{year - 2000}}",
			store:    dateStore,
			expected: "26",
		},
		{
			name:     "CEL string concatenation",
			template: `{{string(month) + "月" + string(day) + "日"}}`,
			store:    dateStore,
			expected: "10月7日",
		},
		{
			name:     "map[string]string access",
			template: "{{names.living}}",
			store:    map[string]any{"names": map[string]string{"living": "リビング"}},
			expected: "リビング",
		},
		{
			name:     "undefined variable",
			template: "{{undefined}}",
			store:    dateStore,
			wantErr:  true,
		},
		{
			name:     "invalid CEL expression",
			template: "{{month == }}",
			store:    dateStore,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Expand(tt.template, tt.store)

			if tt.wantErr {
				if err == nil {
					t.Errorf("Expand() expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("Expand() unexpected error: %v", err)
				return
			}

			if result != tt.expected {
				t.Errorf("Expand() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestCreateCELEnv(t *testing.T) {
	store := map[string]any{
		"simple":  "value",
		"number":  42,
		"boolean": true,
		"env": map[string]string{
			"HOME": "/home/user",
		},
	}

	env, err := createCELEnv(store)
	if err != nil {
		t.Fatalf("createCELEnv() error = %v", err)
	}

	_, issues := env.Compile(`simple + " test"`)
	if issues != nil && issues.Err() != nil {
		t.Errorf("Failed to compile expression: %v", issues.Err())
	}
}

func TestParseExecute(t *testing.T) {
	decl := map[string]any{"month": 0, "day": 0, "hour": 0}
	tmpl, err := Parse("{{month}}/{{day}} {{ month }}", decl)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		store map[string]any
		want  string
	}{
		{map[string]any{"month": 10, "day": 7, "hour": 9}, "10/7 10"},
		{map[string]any{"month": 1, "day": 31, "hour": 23}, "1/31 1"},
	}
	for _, tt := range tests {
		got, err := tmpl.Execute(tt.store)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("Execute() = %q, want %q", got, tt.want)
		}
	}

	if _, err := Parse("{{month +}}", decl); err == nil {
		t.Error("Parse() should reject an invalid expression")
	}
	div, err := Parse("{{hour / 0}}", decl)
	if err != nil {
		t.Fatalf("division by zero is only detected on evaluation: %v", err)
	}
	if _, err := div.Execute(map[string]any{"month": 1, "day": 1, "hour": 9}); err == nil {
		t.Error("Execute() should fail on division by zero")
	}
}
