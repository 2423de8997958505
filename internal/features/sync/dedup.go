package sync

import (
	"strings"

	"lavpop-sync/internal/features/customer"
	"lavpop-sync/pkg/utils"
)

// Deduplicate collapses customers sharing a normalized phone into one primary
// record each. Processing follows input order: a strictly higher transaction
// count replaces the current primary, equal or lower keeps it, so ties are
// deterministic (first seen wins). Records without a phone are dropped
// silently; they can never be synced and are not reported as duplicates.
// Output preserves the order in which distinct phones first appeared.
func Deduplicate(customers []customer.Customer) ([]customer.Customer, []Duplicate) {
	byPhone := make(map[string]int) // phone -> index into deduped
	var deduped []customer.Customer
	var duplicates []Duplicate

	for _, c := range customers {
		phone := utils.NormalizePhone(c.Telefone)
		if phone == "" {
			continue
		}

		idx, seen := byPhone[phone]
		if !seen {
			byPhone[phone] = len(deduped)
			deduped = append(deduped, c)
			continue
		}

		current := deduped[idx]
		if c.TransactionCount > current.TransactionCount {
			duplicates = append(duplicates, Duplicate{
				Phone:   phone,
				Kept:    ref(c),
				Skipped: ref(current),
			})
			deduped[idx] = c
		} else {
			duplicates = append(duplicates, Duplicate{
				Phone:   phone,
				Kept:    ref(current),
				Skipped: ref(c),
			})
		}
	}

	return deduped, duplicates
}

// FilterBlacklisted removes customers whose normalized phone matches a
// blacklist entry. Entries are matched with and without a leading "+", since
// the opt-out list is maintained by hand in both formats. Customers without
// a usable phone are removed as well.
func FilterBlacklisted(customers []customer.Customer, blacklist []string) []customer.Customer {
	blocked := make(map[string]bool, len(blacklist))
	for _, entry := range blacklist {
		normalized := utils.NormalizePhone(entry)
		if normalized == "" {
			continue
		}
		blocked[normalized] = true
		blocked[strings.TrimPrefix(entry, "+")] = true
	}

	var kept []customer.Customer
	for _, c := range customers {
		phone := utils.NormalizePhone(c.Telefone)
		if phone == "" {
			continue
		}
		if blocked[phone] {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

func ref(c customer.Customer) CustomerRef {
	return CustomerRef{Doc: c.Doc, Nome: c.Nome, Txns: c.TransactionCount}
}
