package lookup

import (
	"fmt"
	"strings"

	"github.com/sells-group/company-lookup/internal/model"
)

// BuildBasicQuery returns the first-pass search query for a company:
// overview, head office, address, representative.
func BuildBasicQuery(companyName string) string {
	return fmt.Sprintf("%s 会社概要 本社 住所 代表", companyName)
}

// BuildFactCheckQuery derives the second search query from the first-pass
// extraction, most specific known fact first: postal code, then address
// locality, then representative name, falling back to a generic
// representative query.
func BuildFactCheckQuery(companyName string, first model.CompanyFields) string {
	switch {
	case first.PostalCode != "":
		return fmt.Sprintf("%s 郵便番号 %s", companyName, first.PostalCode)
	case first.Prefecture != "" || first.City != "":
		locality := strings.TrimSpace(strings.Join([]string{first.Prefecture, first.City}, " "))
		return fmt.Sprintf("%s %s 本社所在地", companyName, locality)
	case first.RepresentativeName != "":
		return fmt.Sprintf("%s %s 代表取締役", companyName, first.RepresentativeName)
	default:
		return fmt.Sprintf("%s 代表取締役", companyName)
	}
}

// sanitizeQuery shortens a query for the degraded fallback: the company
// name plus at most one qualifier term.
func sanitizeQuery(query string) string {
	fields := strings.Fields(query)
	if len(fields) <= 2 {
		return strings.Join(fields, " ")
	}
	return strings.Join(fields[:2], " ")
}
