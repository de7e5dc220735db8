// Package domain provides the South African identity number primitive and the
// pure decoder that validates it and derives birth date, gender and residency.
package domain

import (
	"errors"
	"fmt"
)

// IDNumberLength is the number of ASCII digits in an identity number.
const IDNumberLength = 13

// centuryPivot is the highest two-digit year that resolves to the 2000s.
// Fixed policy: 00-21 -> 20xx, 22-99 -> 19xx.
const centuryPivot = 21

// Digit positions within the identity number (0-indexed).
const (
	genderDigitPos    = 6
	residentDigitPos  = 10
	checkDigitPos     = 12
	maleDigitMinimum  = 5
	citizenDigitValue = 0
)

// IDNumber is a 13-digit national identity number. Values obtained from
// ParseIDNumber have passed every decoder check.
type IDNumber string

func (n IDNumber) String() string { return string(n) }

// Gender is derived from the seventh digit.
type Gender string

const (
	GenderFemale Gender = "Female"
	GenderMale   Gender = "Male"
)

// ResidentStatus is derived from the eleventh digit.
type ResidentStatus string

const (
	ResidentCitizen   ResidentStatus = "South African Citizen"
	ResidentPermanent ResidentStatus = "Permanent Resident"
)

// BirthDate is the coarse date encoded in the first six digits. It is not
// calendar-checked: day 31 is accepted for every month.
type BirthDate struct {
	Year  int
	Month int
	Day   int
}

// String renders the date as DD/MM/YYYY.
func (d BirthDate) String() string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, d.Month, d.Year)
}

// DecodedIdentity holds the facts derived from a valid identity number.
type DecodedIdentity struct {
	IDNumber       IDNumber
	BirthDate      BirthDate
	Gender         Gender
	ResidentStatus ResidentStatus
}

// ValidationKind names a distinct decoding failure.
type ValidationKind string

const (
	KindMalformedInput ValidationKind = "malformed_input"
	KindInvalidDate    ValidationKind = "invalid_date"
	KindChecksumFailed ValidationKind = "checksum_failed"
)

// ValidationError reports why an identity number was rejected.
type ValidationError struct {
	Kind   ValidationKind
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// ValidationKindOf extracts the validation kind from err.
func ValidationKindOf(err error) (ValidationKind, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Kind, true
	}
	return "", false
}

// ParseIDNumber validates s and returns it as an IDNumber.
func ParseIDNumber(s string) (IDNumber, error) {
	decoded, err := DecodeIDNumber(s)
	if err != nil {
		return "", err
	}
	return decoded.IDNumber, nil
}

// DecodeIDNumber validates an identity number and decodes the facts it
// carries. The checksum is verified before the date bounds so that any
// number with a bad check digit reports KindChecksumFailed.
func DecodeIDNumber(s string) (DecodedIdentity, error) {
	digits, ok := toDigits(s)
	if !ok {
		return DecodedIdentity{}, &ValidationError{
			Kind:   KindMalformedInput,
			Detail: fmt.Sprintf("must be exactly %d digits", IDNumberLength),
		}
	}

	if want := CheckDigit(digits[:checkDigitPos]); want != digits[checkDigitPos] {
		return DecodedIdentity{}, &ValidationError{Kind: KindChecksumFailed, Detail: "check digit mismatch"}
	}

	yy := digits[0]*10 + digits[1]
	month := digits[2]*10 + digits[3]
	day := digits[4]*10 + digits[5]
	if month < 1 || month > 12 {
		return DecodedIdentity{}, &ValidationError{Kind: KindInvalidDate, Detail: fmt.Sprintf("month %02d out of range", month)}
	}
	if day < 1 || day > 31 {
		return DecodedIdentity{}, &ValidationError{Kind: KindInvalidDate, Detail: fmt.Sprintf("day %02d out of range", day)}
	}

	return DecodedIdentity{
		IDNumber:       IDNumber(s),
		BirthDate:      BirthDate{Year: resolveCentury(yy), Month: month, Day: day},
		Gender:         genderFromDigit(digits[genderDigitPos]),
		ResidentStatus: residentStatusFromDigit(digits[residentDigitPos]),
	}, nil
}

// CheckDigit computes the Luhn-style check digit over the given digits:
// walking from the least-significant end, every digit at an even index is
// doubled (minus 9 when above 9) and the result is (10 - sum%10) % 10.
func CheckDigit(digits []int) int {
	sum := 0
	for i := 0; i < len(digits); i++ {
		v := digits[len(digits)-1-i]
		if i%2 == 0 {
			v *= 2
			if v > 9 {
				v -= 9
			}
		}
		sum += v
	}
	return (10 - sum%10) % 10
}

func toDigits(s string) ([]int, bool) {
	if len(s) != IDNumberLength {
		return nil, false
	}
	digits := make([]int, IDNumberLength)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return nil, false
		}
		digits[i] = int(c - '0')
	}
	return digits, true
}

func resolveCentury(yy int) int {
	if yy > centuryPivot {
		return 1900 + yy
	}
	return 2000 + yy
}

func genderFromDigit(d int) Gender {
	if d >= maleDigitMinimum {
		return GenderMale
	}
	return GenderFemale
}

func residentStatusFromDigit(d int) ResidentStatus {
	if d == citizenDigitValue {
		return ResidentCitizen
	}
	return ResidentPermanent
}
