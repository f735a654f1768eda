package llm

import "testing"

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "pure_object",
			input: `{"key":"value"}`,
			want:  `{"key":"value"}`,
		},
		{
			name:  "object_with_preamble",
			input: `Here: {"key":"value"} done.`,
			want:  `{"key":"value"}`,
		},
		{
			name:  "nested_brackets_in_strings",
			input: `{"arr":"[1,2,3]","key":"val}"}`,
			want:  `{"arr":"[1,2,3]","key":"val}"}`,
		},
		{
			name:  "markdown_wrapped_object",
			input: "```json\n{\"title\":\"t\"}\n```",
			want:  `{"title":"t"}`,
		},
		{
			name:  "garbage_before_valid_object",
			input: `note {broken then {"title":"real"}`,
			want:  `{"title":"real"}`,
		},
		{
			name:  "no_json",
			input: "just some text",
			want:  "just some text",
		},
		{
			name:  "invalid_json_brackets",
			input: `text { not json } more`,
			want:  "text { not json } more",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSON(tt.input); got != tt.want {
				t.Errorf("ExtractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}
