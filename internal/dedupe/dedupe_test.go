package dedupe

import (
	"fmt"
	"testing"

	"github.com/record-harvest/harvest/pkg/models"
)

func recordWithURL(term, title, url string) models.Record {
	r := models.NewRecord(term)
	r.Set(models.FieldTitle, title)
	r.Set(models.FieldURL, url)
	return r
}

func recordWithoutURL(term, title, company, location string) models.Record {
	r := models.NewRecord(term)
	r.Set(models.FieldTitle, title)
	r.Set(models.FieldCompany, company)
	r.Set(models.FieldLocation, location)
	return r
}

func TestKey_PrefersURL(t *testing.T) {
	a := recordWithURL("t", "Title A", "https://example.com/item/1?utm_source=feed")
	b := recordWithURL("t", "Completely Different Title", "https://example.com/item/1")

	if Key(a) != Key(b) {
		t.Errorf("Records with the same canonical URL should share a key: %q vs %q", Key(a), Key(b))
	}
}

func TestKey_CompositeFallback(t *testing.T) {
	a := recordWithoutURL("t", "Backend Dev", "Acme", "Buenos Aires")
	b := recordWithoutURL("t", "Backend Dev", "Acme", "Buenos Aires")
	c := recordWithoutURL("t", "Backend Dev", "Globex", "Buenos Aires")

	if Key(a) != Key(b) {
		t.Error("Identical composite records should share a key")
	}
	if Key(a) == Key(c) {
		t.Error("Different companies should produce different keys")
	}
}

func TestDedupe_PreservesFirstSeenOrder(t *testing.T) {
	records := []models.Record{
		recordWithURL("t", "One", "https://example.com/1"),
		recordWithURL("t", "Two", "https://example.com/2"),
		recordWithURL("t", "One dup", "https://example.com/1"),
		recordWithURL("t", "Three", "https://example.com/3"),
	}

	got := Dedupe(records)
	if len(got) != 3 {
		t.Fatalf("Expected 3 unique records, got %d", len(got))
	}

	wantTitles := []string{"One", "Two", "Three"}
	for i, w := range wantTitles {
		if got[i].Get(models.FieldTitle) != w {
			t.Errorf("Position %d: got %q, want %q", i, got[i].Get(models.FieldTitle), w)
		}
	}
}

func TestDedupe_Idempotent(t *testing.T) {
	var records []models.Record
	for i := 0; i < 10; i++ {
		records = append(records, recordWithURL("t", fmt.Sprintf("r%d", i), fmt.Sprintf("https://example.com/%d", i%4)))
	}

	once := Dedupe(records)
	twice := Dedupe(once)

	if len(once) != len(twice) {
		t.Fatalf("dedupe not idempotent: %d then %d", len(once), len(twice))
	}
	for i := range once {
		if Key(once[i]) != Key(twice[i]) {
			t.Errorf("Position %d changed between passes", i)
		}
	}
}

func TestDedupe_CrossBatchCount(t *testing.T) {
	// Batch A: 5 records, batch B: 4 records, 2 keys overlap.
	var batchA, batchB []models.Record
	for i := 0; i < 5; i++ {
		batchA = append(batchA, recordWithURL("a", fmt.Sprintf("a%d", i), fmt.Sprintf("https://example.com/a/%d", i)))
	}
	for i := 0; i < 2; i++ {
		batchB = append(batchB, recordWithURL("b", fmt.Sprintf("b%d", i), fmt.Sprintf("https://example.com/a/%d", i)))
	}
	for i := 2; i < 4; i++ {
		batchB = append(batchB, recordWithURL("b", fmt.Sprintf("b%d", i), fmt.Sprintf("https://example.com/b/%d", i)))
	}

	got := Dedupe(append(batchA, batchB...))
	if want := 5 + 4 - 2; len(got) != want {
		t.Errorf("Expected %d unique records, got %d", want, len(got))
	}
}
