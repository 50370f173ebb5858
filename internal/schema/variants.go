package schema

import "github.com/iliyamo/pet-buddy/internal/apperror"

// Logical names a column by meaning rather than by physical name.
type Logical string

const (
	BookingPK     Logical = "booking.pk"
	BookingOwner  Logical = "booking.owner"
	BookingSitter Logical = "booking.sitter"
	BookingDog    Logical = "booking.dog"
	BookingStatus Logical = "booking.status"

	UserPK       Logical = "user.pk"
	UserPassword Logical = "user.password"
	UserName     Logical = "user.name"
	UserPhone    Logical = "user.phone"

	DogPK    Logical = "dog.pk"
	DogOwner Logical = "dog.owner"
	DogName  Logical = "dog.name"
	DogPhoto Logical = "dog.photo"
	DogNotes Logical = "dog.notes"

	SitterPK Logical = "sitter.pk"

	JobPK           Logical = "job.pk"
	SitterPostingPK Logical = "sitter_posting.pk"
)

// variants lists the accepted physical names per logical column, preferred
// first. Both schema generations are covered; nothing else is.
var variants = map[Logical][]string{
	BookingPK:     {"id", "booking_id"},
	BookingOwner:  {"owner_user_id", "owner_id"},
	BookingSitter: {"sitter_user_id", "sitter_id"},
	BookingDog:    {"dog_id", "dogId"},
	BookingStatus: {"booking_status", "status"},

	UserPK:       {"user_id", "id"},
	UserPassword: {"password_hash", "password"},
	UserName:     {"full_name", "name"},
	UserPhone:    {"phone_number", "phone"},

	DogPK:    {"id", "dog_id"},
	DogOwner: {"owner_id", "user_id"},
	DogName:  {"name", "dog_name"},
	DogPhoto: {"photo_url", "profile_image_url"},
	DogNotes: {"notes", "special_notes"},

	SitterPK: {"sitter_id", "id"},

	JobPK:           {"job_id", "id"},
	SitterPostingPK: {"post_id", "id"},
}

// Variants returns the accepted physical names for l.
func Variants(l Logical) []string {
	return variants[l]
}

// Resolve returns the physical column used for l in this table.
func (s ColumnSet) Resolve(l Logical) (string, bool) {
	return s.Pick(variants[l]...)
}

// Require is Resolve for columns the operation cannot do without. The error
// names the table and every accepted variant.
func (s ColumnSet) Require(table string, l Logical) (string, error) {
	if col, ok := s.Resolve(l); ok {
		return col, nil
	}
	return "", apperror.SchemaMissing(table, variants[l]...)
}
