package sync

import (
	"testing"

	"lavpop-sync/internal/features/customer"
)

func TestDeduplicateKeepsHighestTransactionCount(t *testing.T) {
	customers := []customer.Customer{
		{Doc: "111", Nome: "Ana", Telefone: "5554999990000", TransactionCount: 2},
		{Doc: "222", Nome: "Ana B", Telefone: "+55 (54) 99999-0000", TransactionCount: 5},
	}

	deduped, duplicates := Deduplicate(customers)

	if len(deduped) != 1 {
		t.Fatalf("expected 1 customer after dedup, got %d", len(deduped))
	}
	if deduped[0].Doc != "222" {
		t.Errorf("expected customer 222 (5 txns) to win, got %s", deduped[0].Doc)
	}
	if len(duplicates) != 1 {
		t.Fatalf("expected 1 duplicate record, got %d", len(duplicates))
	}
	if duplicates[0].Kept.Doc != "222" || duplicates[0].Skipped.Doc != "111" {
		t.Errorf("wrong duplicate record: kept=%s skipped=%s",
			duplicates[0].Kept.Doc, duplicates[0].Skipped.Doc)
	}
}

func TestDeduplicateTieKeepsFirstSeen(t *testing.T) {
	customers := []customer.Customer{
		{Doc: "111", Telefone: "5554999990000", TransactionCount: 3},
		{Doc: "222", Telefone: "5554999990000", TransactionCount: 3},
	}

	deduped, duplicates := Deduplicate(customers)

	if len(deduped) != 1 || deduped[0].Doc != "111" {
		t.Fatalf("expected first-seen customer 111 to win the tie")
	}
	if len(duplicates) != 1 || duplicates[0].Skipped.Doc != "222" {
		t.Errorf("expected 222 recorded as skipped")
	}
}

func TestDeduplicateDropsPhonelessSilently(t *testing.T) {
	customers := []customer.Customer{
		{Doc: "111", Telefone: ""},
		{Doc: "222", Telefone: "  "},
		{Doc: "333", Telefone: "5554999990000"},
	}

	deduped, duplicates := Deduplicate(customers)

	if len(deduped) != 1 || deduped[0].Doc != "333" {
		t.Fatalf("expected only the customer with a phone to survive")
	}
	if len(duplicates) != 0 {
		t.Errorf("phoneless customers must not appear as duplicates, got %d", len(duplicates))
	}
}

func TestDeduplicatePreservesFirstSeenOrder(t *testing.T) {
	customers := []customer.Customer{
		{Doc: "a", Telefone: "111", TransactionCount: 1},
		{Doc: "b", Telefone: "222", TransactionCount: 1},
		{Doc: "c", Telefone: "111", TransactionCount: 9},
		{Doc: "d", Telefone: "333", TransactionCount: 1},
	}

	deduped, _ := Deduplicate(customers)

	want := []string{"c", "b", "d"}
	if len(deduped) != len(want) {
		t.Fatalf("expected %d customers, got %d", len(want), len(deduped))
	}
	for i, doc := range want {
		if deduped[i].Doc != doc {
			t.Errorf("position %d: expected %s, got %s", i, doc, deduped[i].Doc)
		}
	}
}

func TestFilterBlacklistedMatchesWithAndWithoutPlus(t *testing.T) {
	customers := []customer.Customer{
		{Doc: "111", Telefone: "5554999990000"},
		{Doc: "222", Telefone: "5554988880000"},
		{Doc: "333", Telefone: "5554977770000"},
	}
	blacklist := []string{"+5554999990000", "5554988880000"}

	kept := FilterBlacklisted(customers, blacklist)

	if len(kept) != 1 || kept[0].Doc != "333" {
		t.Fatalf("expected only 333 to survive the blacklist, got %v", kept)
	}
}

func TestFilterBlacklistedRemovesPhoneless(t *testing.T) {
	customers := []customer.Customer{
		{Doc: "111", Telefone: ""},
		{Doc: "222", Telefone: "5554999990000"},
	}

	kept := FilterBlacklisted(customers, nil)

	if len(kept) != 1 || kept[0].Doc != "222" {
		t.Fatalf("expected phoneless customer removed, got %v", kept)
	}
}

// End-to-end reduction: 12 phoned customers, one blacklisted (12 -> 11) and
// one duplicated phone (11 -> 10) leave 10 syncable customers with one
// resolved duplicate.
func TestReductionTwelveToTen(t *testing.T) {
	customers := []customer.Customer{
		{Doc: "01", Telefone: "5554900000001", TransactionCount: 1},
		{Doc: "02", Telefone: "5554900000002", TransactionCount: 1},
		{Doc: "03", Telefone: "5554900000003", TransactionCount: 1},
		{Doc: "04", Telefone: "5554900000004", TransactionCount: 1},
		{Doc: "05", Telefone: "5554900000005", TransactionCount: 1},
		{Doc: "06", Telefone: "5554900000006", TransactionCount: 1},
		{Doc: "07", Telefone: "5554900000007", TransactionCount: 1},
		{Doc: "08", Telefone: "5554900000008", TransactionCount: 1},
		{Doc: "09", Telefone: "5554900000009", TransactionCount: 1},
		{Doc: "10", Telefone: "5554900000001", TransactionCount: 7}, // duplicate of 01
		{Doc: "11", Telefone: "5554900000011", TransactionCount: 1},
		{Doc: "12", Telefone: "5554900000012", TransactionCount: 1},
	}
	blacklist := []string{"+5554900000012"}

	filtered := FilterBlacklisted(customers, blacklist)
	if len(filtered) != 11 {
		t.Fatalf("expected 11 customers after blacklist, got %d", len(filtered))
	}

	deduped, duplicates := Deduplicate(filtered)
	if len(deduped) != 10 {
		t.Fatalf("expected 10 customers after dedup, got %d", len(deduped))
	}

	results := make([]CustomerResult, len(deduped))
	for i := range results {
		results[i].Status = StatusCreated
	}
	summary := Tally(results, duplicates)

	if summary.Total != 10 {
		t.Errorf("expected total 10, got %d", summary.Total)
	}
	if summary.DuplicatesResolved != 1 {
		t.Errorf("expected 1 duplicate resolved, got %d", summary.DuplicatesResolved)
	}
	for _, c := range deduped {
		if c.Doc == "01" {
			t.Errorf("duplicate with fewer transactions should not survive")
		}
	}
}

// Variant with a record that has no phone at all: it must vanish without
// being reported as a duplicate.
func TestReductionPipeline(t *testing.T) {
	customers := []customer.Customer{
		{Doc: "01", Telefone: "5554900000001", TransactionCount: 1},
		{Doc: "02", Telefone: "5554900000002", TransactionCount: 1},
		{Doc: "03", Telefone: "5554900000003", TransactionCount: 1},
		{Doc: "04", Telefone: "5554900000004", TransactionCount: 1},
		{Doc: "05", Telefone: "5554900000005", TransactionCount: 1},
		{Doc: "06", Telefone: "5554900000006", TransactionCount: 1},
		{Doc: "07", Telefone: "5554900000007", TransactionCount: 1},
		{Doc: "08", Telefone: "5554900000008", TransactionCount: 1},
		{Doc: "09", Telefone: "5554900000009", TransactionCount: 1},
		{Doc: "10", Telefone: "5554900000001", TransactionCount: 7}, // duplicate of 01
		{Doc: "11", Telefone: ""},                                  // no phone
		{Doc: "12", Telefone: "5554900000012", TransactionCount: 1},
	}
	blacklist := []string{"+5554900000012"}

	filtered := FilterBlacklisted(customers, blacklist)
	deduped, duplicates := Deduplicate(filtered)

	results := make([]CustomerResult, len(deduped))
	for i := range results {
		results[i].Status = StatusCreated
	}
	summary := Tally(results, duplicates)

	if summary.Total != 9 {
		t.Errorf("expected total 9, got %d", summary.Total)
	}
	if summary.DuplicatesResolved != 1 {
		t.Errorf("expected 1 duplicate resolved, got %d", summary.DuplicatesResolved)
	}
	for _, c := range deduped {
		if c.Doc == "01" {
			t.Errorf("duplicate with fewer transactions should not survive")
		}
	}
}
