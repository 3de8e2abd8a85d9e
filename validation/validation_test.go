package validation

import (
	"testing"

	"github.com/kbukum/fixkit/errors"
)

type taggedUser struct {
	Name  string `validate:"required,min=2"`
	Email string `validate:"required,email"`
	Role  string `validate:"omitempty,oneof=admin member"`
}

func TestValidateStructTags(t *testing.T) {
	tests := []struct {
		name    string
		user    taggedUser
		wantErr bool
	}{
		{"valid", taggedUser{Name: "Alice", Email: "alice@example.com"}, false},
		{"valid with role", taggedUser{Name: "Bob", Email: "b@example.com", Role: "admin"}, false},
		{"missing name", taggedUser{Email: "a@example.com"}, true},
		{"short name", taggedUser{Name: "A", Email: "a@example.com"}, true},
		{"bad email", taggedUser{Name: "Alice", Email: "nope"}, true},
		{"bad role", taggedUser{Name: "Alice", Email: "a@example.com", Role: "root"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.user)
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil && !errors.IsCode(err, errors.ErrCodeInvalidInput) {
				t.Errorf("validation failures should carry INVALID_INPUT, got %s", errors.CodeOf(err))
			}
		})
	}
}

func TestValidateUntaggedStructPasses(t *testing.T) {
	type plain struct{ Name string }
	if err := Validate(plain{}); err != nil {
		t.Errorf("untagged struct should pass, got: %v", err)
	}
}

func TestProgrammaticValidator(t *testing.T) {
	v := New()
	v.Required("name", "").
		MaxLength("bio", "0123456789", 5).
		RequiredUUID("id", "not-a-uuid").
		Check(1 < 0, "math", "is broken")

	if !v.HasErrors() {
		t.Fatal("expected errors")
	}
	if len(v.Errors()) != 4 {
		t.Errorf("error count = %d, want 4", len(v.Errors()))
	}
	if v.Error() == nil {
		t.Error("Error() should be non-nil")
	}
}

func TestProgrammaticValidatorClean(t *testing.T) {
	v := New()
	v.Required("name", "Alice").
		MinLength("name", "Alice", 2).
		RequiredUUID("id", "7cb4b26a-5f17-4f74-9d6b-93d32f3e0a8e")

	if v.HasErrors() {
		t.Errorf("unexpected errors: %v", v.Errors())
	}
	if v.Error() != nil {
		t.Errorf("Error() = %v, want nil", v.Error())
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Name", "name"},
		{"CreatedAt", "created_at"},
		{"AuthorID", "author_i_d"},
		{"x", "x"},
	}
	for _, tc := range tests {
		if got := toSnakeCase(tc.in); got != tc.want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
