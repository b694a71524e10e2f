package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Harshitk-cp/begrippen/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRules = `
contract_version: "2.1.0"
enabled_codes: [STR-01, LEN-01, CAT-PROC]
weights:
  STR-01: 2.0
  UNUSED-99: 5.0
thresholds:
  overall_accept: 0.75
  category_min:
    proces: 0.8
    type: 0.6
  max_failure_ratio: 0.4
params:
  LEN-01:
    min_length: 20
    max_length: 300
  UNUSED-99:
    foo: bar
category_scope:
  CAT-PROC: [proces]
blocking: [STR-01]
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(sampleRules))
	require.NoError(t, err)

	assert.Equal(t, "2.1.0", s.ContractVersion())
	assert.Equal(t, []string{"STR-01", "LEN-01", "CAT-PROC"}, s.EnabledCodes(""))

	str, ok := s.Rule("STR-01")
	require.True(t, ok)
	assert.Equal(t, 2.0, str.Weight)
	assert.True(t, str.Blocking)

	length, ok := s.Rule("LEN-01")
	require.True(t, ok)
	assert.Equal(t, DefaultRuleWeight, length.Weight)
	assert.Equal(t, 20, length.Params["min_length"])

	_, ok = s.Rule("UNUSED-99")
	assert.False(t, ok, "codes without an enabled entry are ignored")

	th := s.Thresholds()
	assert.Equal(t, 0.75, th.OverallAccept)
	assert.Equal(t, 0.4, th.MaxFailureRatio)
	min, ok := s.CategoryMin(domain.CategoryProcess)
	assert.True(t, ok)
	assert.Equal(t, 0.8, min)
}

func TestParse_CategoryScope(t *testing.T) {
	s, err := Parse([]byte(sampleRules))
	require.NoError(t, err)

	assert.Equal(t, []string{"STR-01", "LEN-01", "CAT-PROC"}, s.EnabledCodes(domain.CategoryProcess))
	assert.Equal(t, []string{"STR-01", "LEN-01"}, s.EnabledCodes(domain.CategoryType))
}

func TestParse_Defaults(t *testing.T) {
	s, err := Parse([]byte(`enabled_codes: [STR-01]`))
	require.NoError(t, err)

	assert.Equal(t, DefaultContractVersion, s.ContractVersion())
	th := s.Thresholds()
	assert.Equal(t, 0.0, th.OverallAccept)
	assert.Equal(t, DefaultMaxFailureRatio, th.MaxFailureRatio)
	assert.Nil(t, th.CategoryMin)
}

func TestParse_EmptyDocument(t *testing.T) {
	s, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, s.EnabledCodes(""))
	assert.Equal(t, DefaultContractVersion, s.ContractVersion())
}

func TestParse_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed yaml", "enabled_codes: [STR-01"},
		{"unknown section", "enabled_codes: [STR-01]\nrulez: {}"},
		{"unknown threshold", "thresholds:\n  overall_acept: 0.5"},
		{"overall accept above one", "thresholds:\n  overall_accept: 1.5"},
		{"negative category min", "thresholds:\n  category_min:\n    type: -0.1"},
		{"unknown category min", "thresholds:\n  category_min:\n    concept: 0.5"},
		{"failure ratio above one", "thresholds:\n  max_failure_ratio: 2"},
		{"negative weight", "enabled_codes: [STR-01]\nweights:\n  STR-01: -1"},
		{"duplicate code", "enabled_codes: [STR-01, STR-01]"},
		{"empty code", "enabled_codes: ['']"},
		{"unknown scope category", "enabled_codes: [X]\ncategory_scope:\n  X: [concept]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestSnapshot_AccessorsReturnCopies(t *testing.T) {
	s, err := Parse([]byte(sampleRules))
	require.NoError(t, err)

	r, _ := s.Rule("LEN-01")
	r.Params["min_length"] = 999

	again, _ := s.Rule("LEN-01")
	assert.Equal(t, 20, again.Params["min_length"])

	th := s.Thresholds()
	th.CategoryMin[domain.CategoryType] = 0
	min, _ := s.CategoryMin(domain.CategoryType)
	assert.Equal(t, 0.6, min)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleRules), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, s.Source())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSnapshot_Summary(t *testing.T) {
	s, err := Parse([]byte(sampleRules))
	require.NoError(t, err)

	sum := s.Summary()
	require.Len(t, sum.Rules, 3)
	assert.Equal(t, "CAT-PROC", sum.Rules[0].Code)
	assert.Equal(t, "2.1.0", sum.ContractVersion)
}
