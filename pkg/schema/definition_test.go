package schema

import (
	"errors"
	"testing"

	"github.com/marshallshelly/babyorm/pkg/runtime"
	"github.com/marshallshelly/babyorm/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userDefinition() *Definition {
	d := New("user")
	d.Table = "users"
	d.Fillable = []string{"name", "email", "password"}
	d.Hidden = []string{"password"}
	d.Validations = map[string][]validator.Rule{
		"name":  {validator.Required()},
		"email": {validator.Email()},
	}
	d.Methods = map[string]Method{
		"getDisplay": func(f Record) any { return "@" + f["name"].(string) },
	}
	return d
}

func TestNewDefaults(t *testing.T) {
	d := New("post")
	assert.Equal(t, "post", d.Table)
	assert.Equal(t, PrimaryKeyAutoIncrement, d.PrimaryKey)
	assert.True(t, d.Timestamps)
	assert.False(t, d.SoftDelete)
	assert.Nil(t, d.Fillable)
	assert.Empty(t, d.Hidden)
	assert.NoError(t, d.Validate())
}

func TestFill(t *testing.T) {
	d := New("post")
	d.Fillable = []string{"other"}

	got := d.Fill(Record{"id": 5, "other": "y"})

	assert.Equal(t, Record{"other": "y"}, got)
	assert.Equal(t, Record{"other": "y"}, d.Fields)
	assert.Nil(t, d.GetField("id"))
}

func TestFillWithNilFillableAcceptsNothing(t *testing.T) {
	d := New("post")
	assert.Empty(t, d.Fill(Record{"title": "x"}))
	assert.Empty(t, d.Fields)
}

func TestHiddenAndFillableAreIndependent(t *testing.T) {
	d := userDefinition()

	// password is hidden but still fillable
	require.NoError(t, d.Set("password", "s3cret"))
	assert.Equal(t, "s3cret", d.GetField("password"))
	assert.NotContains(t, d.Visible(), "password")

	// id is visible but not fillable
	d.Complete(Record{"id": 3})
	assert.Equal(t, 3, d.Visible()["id"])
	err := d.Set("id", 4)
	var protected *runtime.ProtectedFieldError
	require.True(t, errors.As(err, &protected))
	assert.Equal(t, "id", protected.Field)
}

func TestComplete(t *testing.T) {
	d := userDefinition()
	got := d.Complete(Record{"id": 1, "name": "ann", "password": "hash", "created_at": "now"})

	assert.Equal(t, Record{"id": 1, "name": "ann", "created_at": "now"}, got)
	assert.Nil(t, d.GetField("password"))
}

func TestGetAndHas(t *testing.T) {
	d := userDefinition()
	d.Complete(Record{"name": "ann", "_token": "x"})

	v, ok := d.Get("name")
	assert.True(t, ok)
	assert.Equal(t, "ann", v)

	v, ok = d.Get("display")
	assert.True(t, ok)
	assert.Equal(t, "@ann", v)

	_, ok = d.Get("missing")
	assert.False(t, ok)

	assert.True(t, d.Has("name"))
	assert.False(t, d.Has("_token"))
	assert.False(t, d.Has("missing"))
	assert.Equal(t, []string{"name"}, d.Keys())
}

func TestCloneSharesNoState(t *testing.T) {
	d := userDefinition()
	c := d.Clone()

	require.NoError(t, c.Set("name", "bob"))
	c.Hidden = append(c.Hidden, "email")
	c.Validations["name"][0] = validator.String()

	assert.Empty(t, d.Fields)
	assert.Equal(t, []string{"password"}, d.Hidden)
	assert.Equal(t, validator.Required(), d.Validations["name"][0])
}

func TestValidateDefinition(t *testing.T) {
	d := New("post")
	d.Table = ""
	assert.Error(t, d.Validate())

	d = New("post")
	d.PrimaryKey = "uuid"
	assert.Error(t, d.Validate())

	d = New("post")
	d.Relations["author"] = Relation{Model: "user", LocalField: "user_id"}
	assert.ErrorContains(t, d.Validate(), "relations.author")
}

func TestValidatedFieldsSorted(t *testing.T) {
	assert.Equal(t, []string{"email", "name"}, userDefinition().ValidatedFields())
}
