package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/marshallshelly/babyorm/pkg/ident"
	"github.com/marshallshelly/babyorm/pkg/registry"
	"github.com/marshallshelly/babyorm/pkg/schema"
	"github.com/marshallshelly/babyorm/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userModel = `
config:
  table: users
  soft_delete: true
  fillable_fields: [name, email, company_id]
  hidden_fields: [password]
  validations:
    name: [required, "maxLength:80"]
    email: [required, email]
    company_id: ["exist:companies,id"]
  relations:
    company:
      model: company
      local_field: company_id
      distant_field: id
fields:
  role: member
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParse(t *testing.T) {
	def, err := Parse("user", []byte(userModel))
	require.NoError(t, err)

	assert.Equal(t, "users", def.Table)
	assert.Equal(t, schema.PrimaryKeyAutoIncrement, def.PrimaryKey)
	assert.True(t, def.Timestamps)
	assert.True(t, def.SoftDelete)
	assert.Equal(t, []string{"name", "email", "company_id"}, def.Fillable)
	assert.Equal(t, []string{"password"}, def.Hidden)
	assert.Equal(t, []validator.Rule{validator.Required(), validator.MaxLength(80)}, def.Validations["name"])
	assert.Equal(t, validator.Exist("companies", "id"), def.Validations["company_id"][0])
	assert.Equal(t, schema.Relation{Model: "company", LocalField: "company_id", DistantField: "id"}, def.Relations["company"])
	assert.Equal(t, "member", def.GetField("role"))
}

func TestParseDefaults(t *testing.T) {
	tests := []struct {
		name   string
		source string
		check  func(t *testing.T, def *schema.Definition)
	}{
		{
			name:   "empty source",
			source: "",
			check: func(t *testing.T, def *schema.Definition) {
				assert.Equal(t, "post", def.Table)
				assert.Equal(t, schema.PrimaryKeyAutoIncrement, def.PrimaryKey)
				assert.True(t, def.Timestamps)
				assert.False(t, def.SoftDelete)
				assert.Nil(t, def.Fillable)
				assert.Empty(t, def.Hidden)
				assert.Empty(t, def.Validations)
				assert.Empty(t, def.Relations)
				assert.Empty(t, def.IDFormat)
			},
		},
		{
			name:   "explicit false is honoured",
			source: "config:\n  use_autoincrement: false\n  timestamps: false\n",
			check: func(t *testing.T, def *schema.Definition) {
				assert.Equal(t, schema.PrimaryKeyGenerated, def.PrimaryKey)
				assert.False(t, def.Timestamps)
			},
		},
		{
			name:   "uuid id format",
			source: "config:\n  use_autoincrement: false\n  id_format: uuid\n",
			check: func(t *testing.T, def *schema.Definition) {
				assert.Equal(t, schema.PrimaryKeyGenerated, def.PrimaryKey)
				assert.Equal(t, ident.FormatUUID, def.IDFormat)
			},
		},
		{
			name:   "empty fillable list stays empty",
			source: "config:\n  fillable_fields: []\n",
			check: func(t *testing.T, def *schema.Definition) {
				assert.NotNil(t, def.Fillable)
				assert.Empty(t, def.Fillable)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := Parse("post", []byte(tt.source))
			require.NoError(t, err)
			tt.check(t, def)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantErr string
	}{
		{"unknown rule", "config:\n  validations:\n    name: [unique]\n", "validations of name"},
		{"unknown key", "config:\n  tabel: users\n", "invalid model source"},
		{"unknown id format", "config:\n  id_format: snowflake\n", "IDFormat"},
		{"incomplete relation", "config:\n  relations:\n    owner:\n      model: user\n", "relations.owner"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("post", []byte(tt.source))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadModelsFromPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "user.model.yaml", userModel)
	writeFile(t, dir, "nested/Company.model.yml", "config:\n  table: companies\n")
	writeFile(t, dir, "README.md", "not a model")

	reg := registry.NewRegistry()
	count, err := LoadModelsFromPath(dir, reg)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, []string{"company", "user"}, reg.Names())

	company, err := reg.Get("company")
	require.NoError(t, err)
	assert.Equal(t, "companies", company.Table)
}

func TestLoadModelsFromPathSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "user.model.yaml", userModel)

	reg := registry.NewRegistry()
	count, err := LoadModelsFromPath(path, reg)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.True(t, reg.Has("user"))
}

func TestLoadModelsFromPathErrors(t *testing.T) {
	dir := t.TempDir()
	reg := registry.NewRegistry()

	_, err := LoadModelsFromPath(filepath.Join(dir, "missing"), reg)
	assert.ErrorContains(t, err, "failed to stat path")

	_, err = LoadModelsFromPath(dir, reg)
	assert.ErrorContains(t, err, "no model files found")

	other := writeFile(t, dir, "user.json", "{}")
	_, err = LoadModelsFromPath(other, reg)
	assert.ErrorContains(t, err, "file must end with")

	writeFile(t, dir, "bad.model.yaml", "config: [")
	_, err = LoadModelsFromPath(dir, reg)
	assert.ErrorContains(t, err, "bad.model.yaml")
}
