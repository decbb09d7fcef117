package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaCoordinateTag(t *testing.T) {
	t.Parallel()

	type record struct {
		Fields []string `validate:"required,min=1,dive,required,schemacoord"`
	}

	tests := []struct {
		name    string
		fields  []string
		wantErr bool
	}{
		{name: "type", fields: []string{"Query"}},
		{name: "field", fields: []string{"Query.user", "User.id"}},
		{name: "argument", fields: []string{"Query.user.id"}},
		{name: "empty list", fields: []string{}, wantErr: true},
		{name: "empty coordinate", fields: []string{""}, wantErr: true},
		{name: "too deep", fields: []string{"Query.user.id.extra"}, wantErr: true},
		{name: "leading digit", fields: []string{"1Query"}, wantErr: true},
		{name: "whitespace", fields: []string{"Query .user"}, wantErr: true},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(record{Fields: tt.fields})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
