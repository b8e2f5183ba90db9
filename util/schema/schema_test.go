package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type child struct {
	Op string `json:"op"`
}

type TestStruct struct {
	Name     string      `json:"name" required:"true" description:"The name field"`
	Age      int         `json:"age" description:"Age in years"`
	Email    string      `json:"email,omitempty" format:"email"`
	Role     string      `json:"role,omitempty" enum:"admin, user,guest" description:"User role"`
	Score    *float64    `json:"score" description:"User score"`
	Active   *bool       `json:"active" required:"true"`
	Any      interface{} `json:"any"`
	Children []child     `json:"children,omitempty"`
	Labels   []string    `json:"labels" required:"false"`
	Ignored  string      `json:"-"`
	hidden   string
}

func TestFromStruct(t *testing.T) {
	s := FromStruct(TestStruct{})

	assert.Equal(t, "object", s.Type)
	assert.ElementsMatch(t, []string{"name", "age", "active"}, s.Required)

	assert.Equal(t, "string", s.Properties["name"].Type)
	assert.Equal(t, "The name field", s.Properties["name"].Description)
	assert.Equal(t, "integer", s.Properties["age"].Type)
	assert.Equal(t, "email", s.Properties["email"].Format)
	assert.Equal(t, []interface{}{"admin", "user", "guest"}, s.Properties["role"].Enum)
	assert.Equal(t, "number", s.Properties["score"].Type)
	assert.Equal(t, "boolean", s.Properties["active"].Type)
	assert.Empty(t, s.Properties["any"].Type, "interfaces accept any value")

	require.NotNil(t, s.Properties["children"].Items)
	assert.Equal(t, "array", s.Properties["children"].Type)
	assert.Equal(t, "object", s.Properties["children"].Items.Type)
	assert.Equal(t, "string", s.Properties["labels"].Items.Type)

	assert.NotContains(t, s.Properties, "Ignored")
	assert.NotContains(t, s.Properties, "-")
	assert.NotContains(t, s.Properties, "hidden")

	assert.Equal(t, s, FromStruct(&TestStruct{}), "pointer and value give the same schema")
}

func TestWithEnum(t *testing.T) {
	type level string
	base := FromStruct(TestStruct{})
	s := WithEnum(base, "name", []level{"low", "high"})

	assert.Equal(t, []interface{}{"low", "high"}, s.Properties["name"].Enum)
	assert.Equal(t, "The name field", s.Properties["name"].Description)
	assert.Empty(t, base.Properties["name"].Enum, "input schema is not modified")
}

func argsFromJSON(t *testing.T, s string) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

func TestValidator(t *testing.T) {
	s := WithEnum(FromStruct(TestStruct{}), "role", []string{"admin", "user"})
	v, err := Compile("test_tool", s)
	require.NoError(t, err)

	assert.NoError(t, v.Validate(argsFromJSON(t, `{"name":"n","age":3,"active":true,"any":[1,"x"]}`)))
	assert.NoError(t, v.Validate(argsFromJSON(t, `{"name":"n","age":3,"active":false,"role":"user","children":[{"op":"x"}]}`)))

	tests := map[string]string{
		"missing required": `{"name":"n","age":3}`,
		"wrong type":       `{"name":"n","age":"three","active":true}`,
		"not in enum":      `{"name":"n","age":3,"active":true,"role":"guest"}`,
		"bad array item":   `{"name":"n","age":3,"active":true,"children":["x"]}`,
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			err := v.Validate(argsFromJSON(t, args))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "test_tool")
		})
	}

	assert.Error(t, v.Validate(nil), "nil arguments are an empty object")
}

type handleArgs struct {
	Name  string  `json:"name" required:"true" enum:"a,b"`
	Count float64 `json:"count"`
	Flag  *bool   `json:"flag,omitempty"`
}

func TestHandleArgs(t *testing.T) {
	args, content, isErr := HandleArgs[handleArgs](map[string]interface{}{"name": "a", "count": 2.0, "flag": true})
	require.False(t, isErr)
	assert.Nil(t, content)
	assert.Equal(t, "a", args.Name)
	assert.Equal(t, 2.0, args.Count)
	require.NotNil(t, args.Flag)
	assert.True(t, *args.Flag)

	args, _, isErr = HandleArgs[handleArgs](`{"name":"b"}`)
	require.False(t, isErr)
	assert.Equal(t, "b", args.Name)

	_, content, isErr = HandleArgs[handleArgs](map[string]interface{}{"name": "c"})
	assert.True(t, isErr)
	require.Len(t, content, 1)
	assert.Equal(t, "text", content[0].GetType())

	_, _, isErr = HandleArgs[handleArgs](map[string]interface{}{"name": "a", "count": "many"})
	assert.True(t, isErr)

	_, _, isErr = HandleArgs[handleArgs](nil)
	assert.True(t, isErr, "name is required")

	_, _, isErr = HandleArgs[handleArgs](42)
	assert.True(t, isErr)
}
