package finance

import (
	"regexp"
	"strings"
)

// Template recognizes one notification format of one bank.
// Named groups: amount, method, recipient, account, and datetime or date.
type Template struct {
	Bank    string
	Pattern *regexp.Regexp
	Sign    int
}

// Transaction types recognized by the parser.
const (
	TypeTransfer = "Transfer"
	TypeCard     = "Card"
	TypePayNow   = "PayNow"
	TypeNETSQR   = "NETS QR"
	TypeUnknown  = "Unknown"
)

// methodTypes maps the wording banks use to a transaction type.
// Keys are checked in order as case-insensitive substrings.
var methodTypes = []struct {
	method string
	typ    string
}{
	{"nets qr payment", TypeNETSQR},
	{"nets qr", TypeNETSQR},
	{"one-time transfer", TypeTransfer},
	{"fund transfer(s)", TypeTransfer},
	{"fund transfer", TypeTransfer},
	{"paynow transfer", TypePayNow},
	{"paynow", TypePayNow},
	{"card", TypeCard},
	{"transfer", TypeTransfer},
}

// mapMethod normalizes a bank's method wording. Unknown wording is kept as is.
func mapMethod(method string) string {
	m := strings.ToLower(strings.TrimSpace(method))
	for _, mt := range methodTypes {
		if m == mt.method {
			return mt.typ
		}
	}
	for _, mt := range methodTypes {
		if strings.Contains(m, mt.method) {
			return mt.typ
		}
	}
	if method == "" {
		return TypeUnknown
	}
	return strings.TrimSpace(method)
}

// UOBTemplates are the UOB notification formats.
func UOBTemplates() []Template {
	const amount = `(?P<amount>[\d.,]+)`
	return []Template{
		{
			Bank:    "UOB",
			Pattern: regexp.MustCompile(`You made a (?P<method>.+?) of SGD ` + amount + ` to (?P<recipient>.+?) on your a/c ending (?P<account>\d+) at (?P<datetime>.+?)\. If unauthorised`),
			Sign:    -1,
		},
		{
			Bank:    "UOB",
			Pattern: regexp.MustCompile(`You made a (?P<method>.+?) of SGD ` + amount + ` to (?P<recipient>.+?) at (?P<datetime>.+?), on your a/c ending (?P<account>\d+)\. If unauthorised`),
			Sign:    -1,
		},
		{
			Bank:    "UOB",
			Pattern: regexp.MustCompile(`You have received SGD ` + amount + ` in your (?P<method>PayNow)-linked account ending (?P<account>\d+) on (?P<datetime>.+?)\.(?:\s|$)`),
			Sign:    1,
		},
		{
			Bank:    "UOB",
			Pattern: regexp.MustCompile(`A transaction of SGD ` + amount + ` was made with your UOB (?P<method>Card) ending (?P<account>\d+) on (?P<date>.+?) at (?P<recipient>.+?)\. If unauthorised`),
			Sign:    -1,
		},
		{
			Bank:    "UOB",
			Pattern: regexp.MustCompile(`(?P<recipient>UOB Instalment Payment Plan): Your monthly instalment of SGD ` + amount + ` has been billed to your UOB (?P<method>card) ending (?P<account>\d+) on (?P<date>\d{1,2}/\d{1,2}/\d{2,4})`),
			Sign:    -1,
		},
	}
}

type templateMatch struct {
	template Template
	groups   map[string]string
}

func (t Template) match(text string) (templateMatch, bool) {
	m := t.Pattern.FindStringSubmatch(text)
	if m == nil {
		return templateMatch{}, false
	}
	groups := make(map[string]string, len(m))
	for i, name := range t.Pattern.SubexpNames() {
		if name != "" {
			groups[name] = strings.TrimSpace(m[i])
		}
	}
	return templateMatch{template: t, groups: groups}, true
}
