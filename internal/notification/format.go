package notification

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	NotProvided = "Not provided"

	timestampLayout = "02-01-2006 15:04"
	dayLayout       = "02-01-2006"
	clockLayout     = "15:04"
)

var fieldLabels = map[string]string{
	"firstName":         "First Name",
	"lastName":          "Last Name",
	"email":             "Email",
	"phoneNumber":       "Phone Number",
	"nationalId":        "National ID",
	"departmentId":      "Department",
	"titleId":           "Title",
	"contractType":      "Contract Type",
	"salary":            "Salary",
	"contractStartDate": "Contract Start Date",
	"contractEndDate":   "Contract End Date",
	"birthDate":         "Birth Date",
	"gender":            "Gender",
	"address":           "Address",
	"bankAccount":       "Bank Account",
	"insuranceNumber":   "Insurance Number",
	"profilePictureUrl": "Profile Picture",
}

var camelBoundary = regexp.MustCompile(`([a-z])([A-Z])`)

var printer = message.NewPrinter(language.English)

// FieldLabel returns the human label of a change-list field.
func FieldLabel(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	if strings.TrimSpace(field) == "" {
		return ""
	}
	spaced := camelBoundary.ReplaceAllString(field, "$1 $2")
	return strings.ToUpper(spaced[:1]) + spaced[1:]
}

// FormatValue renders a change-list value for a person reading the mail.
func FormatValue(field string, raw *string) string {
	if raw == nil {
		return NotProvided
	}
	v := strings.TrimSpace(*raw)
	if v == "" || v == "null" {
		return NotProvided
	}
	if field == "salary" {
		return FormatSalary(v)
	}
	return v
}

// FormatSalary groups thousands, e.g. 12345 becomes $12,345. Values that
// are not whole numbers are returned unchanged.
func FormatSalary(raw string) string {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return raw
	}
	return printer.Sprintf("$%d", n)
}
