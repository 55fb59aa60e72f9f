package scenario

import "context"

// VerifyEqual compares a read-back value with the intended one. Equality is
// exact: a read-back that merely contains the wanted value is a failure.
func VerifyEqual(field, want, got string) error {
	if got != want {
		return &PreconditionError{Field: field, Want: want, Got: got}
	}
	return nil
}

// SetAndVerify sets field to want, reads it back and requires the two to match.
func SetAndVerify(ctx context.Context, field, want string, set func(context.Context, string) error, get func(context.Context) (string, error)) error {
	if err := set(ctx, want); err != nil {
		return err
	}
	got, err := get(ctx)
	if err != nil {
		return err
	}
	return VerifyEqual(field, want, got)
}
