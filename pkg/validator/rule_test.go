package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseRule(t *testing.T) {
	tests := []struct {
		input   string
		want    Rule
		wantErr string
	}{
		{input: "required", want: Required()},
		{input: " email ", want: Email()},
		{input: "minLength:3", want: MinLength(3)},
		{input: "maxValue:9.5", want: MaxValue(9.5)},
		{input: "between:1,10", want: Between(1, 10)},
		{input: "between: 1 , 10", want: Between(1, 10)},
		{input: "in:draft,published", want: In("draft", "published")},
		{input: "exist:companies,id", want: Exist("companies", "id")},
		{input: "existEnabledNotDeleted:companies,id", want: ExistEnabledNotDeleted("companies", "id")},
		{input: "minLength", wantErr: "requires an argument"},
		{input: "minLength:abc", wantErr: "invalid length"},
		{input: "between:10", wantErr: "expected min,max"},
		{input: "between:10,1", wantErr: "greater than max"},
		{input: "exist:companies", wantErr: "expected table,column"},
		{input: "unique", wantErr: "unknown validation rule"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRule(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRuleStringRoundTrip(t *testing.T) {
	for _, s := range []string{"required", "minLength:3", "between:1,10.5", "in:a,b", "existNotDeleted:users,email"} {
		r, err := ParseRule(s)
		require.NoError(t, err)
		assert.Equal(t, s, r.String())
	}
}

func TestParseRules(t *testing.T) {
	rules, err := ParseRules([]string{"required", "string", "maxLength:255"})
	require.NoError(t, err)
	assert.Equal(t, []Rule{Required(), String(), MaxLength(255)}, rules)

	_, err = ParseRules([]string{"required", "bogus"})
	assert.Error(t, err)
}

func TestRuleYAML(t *testing.T) {
	var doc struct {
		Rules []Rule `yaml:"rules"`
	}
	err := yaml.Unmarshal([]byte("rules: [required, \"between:1,5\"]\n"), &doc)
	require.NoError(t, err)
	assert.Equal(t, []Rule{Required(), Between(1, 5)}, doc.Rules)
}
