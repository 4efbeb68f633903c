package schema

import (
	"testing"
	"time"

	"github.com/marshallshelly/babyorm/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type account struct {
	ID        int64      `orm:"id"`
	Email     string     `orm:"email,fillable,validate=required|email"`
	Password  string     `orm:"password,fillable,hidden"`
	Age       *int       `orm:"age,fillable"`
	CreatedAt time.Time  `orm:"created_at"`
	DeletedAt *time.Time `orm:"deleted_at"`
	Internal  string     `orm:"-"`
	untagged  string
}

func TestFromStruct(t *testing.T) {
	def, err := FromStruct("account", &account{})
	require.NoError(t, err)

	assert.Equal(t, "account", def.Table)
	assert.Equal(t, []string{"email", "password", "age"}, def.Fillable)
	assert.Equal(t, []string{"password"}, def.Hidden)
	assert.Equal(t, []validator.Rule{validator.Required(), validator.Email()}, def.Validations["email"])
}

func TestParseTag(t *testing.T) {
	tests := []struct {
		tag  string
		want tagOptions
	}{
		{tag: "name", want: tagOptions{column: "name"}},
		{tag: "name, fillable ,hidden", want: tagOptions{column: "name", fillable: true, hidden: true}},
		{tag: "age,fillable,validate=between:1,10", want: tagOptions{column: "age", fillable: true, rules: []string{"between:1,10"}}},
		{tag: "status,validate=required|in:draft,published", want: tagOptions{column: "status", rules: []string{"required", "in:draft,published"}}},
		{tag: "company_id, validate=exist:companies,id", want: tagOptions{column: "company_id", rules: []string{"exist:companies,id"}}},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, parseTag(tt.tag))
		})
	}
}

func TestFromStructRulesWithArguments(t *testing.T) {
	type member struct {
		Age       int    `orm:"age,fillable,validate=between:1,10"`
		CompanyID int64  `orm:"company_id,fillable,validate=required|exist:companies,id"`
		Role      string `orm:"role,hidden,validate=in:admin,member"`
	}

	def, err := FromStruct("member", member{})
	require.NoError(t, err)

	assert.Equal(t, []string{"age", "company_id"}, def.Fillable)
	assert.Equal(t, []string{"role"}, def.Hidden)
	assert.Equal(t, []validator.Rule{validator.Between(1, 10)}, def.Validations["age"])
	assert.Equal(t, []validator.Rule{validator.Required(), validator.Exist("companies", "id")}, def.Validations["company_id"])
	assert.Equal(t, []validator.Rule{validator.In("admin", "member")}, def.Validations["role"])
}

func TestFromStructErrors(t *testing.T) {
	_, err := FromStruct("x", 42)
	assert.Error(t, err)

	type bad struct {
		Name string `orm:"name,validate=nope"`
	}
	_, err = FromStruct("bad", bad{})
	assert.ErrorContains(t, err, "unknown validation rule")
}

func TestDecode(t *testing.T) {
	now := time.Now()
	var a account
	err := Decode(Record{
		"id":         int32(9),
		"email":      "a@b.c",
		"age":        int64(41),
		"created_at": now,
		"deleted_at": nil,
		"extra":      true,
	}, &a)
	require.NoError(t, err)

	assert.Equal(t, int64(9), a.ID)
	assert.Equal(t, "a@b.c", a.Email)
	require.NotNil(t, a.Age)
	assert.Equal(t, 41, *a.Age)
	assert.Equal(t, now, a.CreatedAt)
	assert.Nil(t, a.DeletedAt)
	assert.Empty(t, a.untagged)
}

func TestDecodeErrors(t *testing.T) {
	var a account
	assert.Error(t, Decode(Record{}, a))
	assert.ErrorContains(t, Decode(Record{"email": 12}, &a), "column email")
}
