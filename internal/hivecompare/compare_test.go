package hivecompare

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/wintoolssuite/regtx/internal/model"
)

func sampleRecords(n int) []*model.TransactionRecord {
	records := make([]*model.TransactionRecord, n)
	for i := range records {
		records[i] = &model.TransactionRecord{
			KeyPath:    "ControlSet001\\Services",
			ValueName:  "<Dirty Page>",
			DataBefore: "<Uncommitted>",
			DataAfter:  "DE AD BE EF",
			TxID:       "0x00000001",
			Offset:     int64(i),
		}
	}
	return records
}

func TestSimulatedCompare_Deterministic(t *testing.T) {
	const seed = 7

	records := sampleRecords(30)
	got := NewSimulated(seed).Compare(records)

	// Recompute the expected flag sequence with the same source.
	rnd := rand.New(rand.NewSource(seed))
	want := 0
	for range records {
		if rnd.Intn(3) == 0 {
			want++
		}
	}

	if got != want {
		t.Errorf("Compare flagged %d records, want %d", got, want)
	}
}

func TestSimulatedCompare_MutationContract(t *testing.T) {
	records := sampleRecords(50)
	NewSimulated(1).Compare(records)

	for i, r := range records {
		flagged := strings.HasSuffix(r.DataAfter, " [MODIFIED]")
		if flagged {
			if r.DataBefore != "<Original Value>" {
				t.Errorf("record %d: flagged but DataBefore = %q", i, r.DataBefore)
			}
		} else {
			if r.DataBefore != "<Uncommitted>" || r.DataAfter != "DE AD BE EF" {
				t.Errorf("record %d: unflagged record was mutated", i)
			}
		}
		// Record identity is never touched by a comparison pass.
		if r.KeyPath != "ControlSet001\\Services" || r.TxID != "0x00000001" {
			t.Errorf("record %d: identity fields changed", i)
		}
	}
}

func TestSimulatedCompare_Empty(t *testing.T) {
	if got := NewSimulated(3).Compare(nil); got != 0 {
		t.Errorf("Compare(nil) = %d, want 0", got)
	}
}
