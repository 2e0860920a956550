package generator

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/clientiq/clientiq/internal/customer"
)

// productClaimRe matches "<name or id> has/holds N product(s)" claims in a
// generated answer.
var productClaimRe = regexp.MustCompile(`(?i)(\bhas|\bholds|\bhave)\s+(\d+)\s+(products?)\b`)

// CorrectProductCounts is an optional post-processing filter over the
// generator's output. Models occasionally misreport how many products a
// customer holds even when the context states it; when the answer concerns
// exactly one retrieved record, any "has N products" claim with the wrong
// N is rewritten to the actual count.
//
// This is a heuristic patch on the generator, not part of the retrieval
// contract: it only ever rewrites the number in an existing claim, and it
// stays out of multi-record answers where a count may legitimately refer
// to any of several customers.
func CorrectProductCounts(answer string, records []customer.Record) string {
	if len(records) != 1 {
		return answer
	}
	actual := len(records[0].Products)

	return productClaimRe.ReplaceAllStringFunc(answer, func(claim string) string {
		m := productClaimRe.FindStringSubmatch(claim)
		claimed, err := strconv.Atoi(m[2])
		if err != nil || claimed == actual {
			return claim
		}

		noun := "products"
		if actual == 1 {
			noun = "product"
		}
		return fmt.Sprintf("%s %d %s", m[1], actual, noun)
	})
}
