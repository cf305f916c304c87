package models

import (
	"testing"

	"github.com/despasys/despasys_backend/utils"
)

func TestBucketOfIsTotalOverKnownStatuses(t *testing.T) {
	for _, s := range AllProcessStatuses {
		b, err := BucketOf(s)
		if err != nil {
			t.Fatalf("BucketOf(%s) returned error: %v", s, err)
		}
		found := false
		for _, known := range AllProcessBuckets {
			if b == known {
				found = true
			}
		}
		if !found {
			t.Fatalf("BucketOf(%s) = %q, not a known bucket", s, b)
		}
	}
}

func TestBucketOfIsDeterministic(t *testing.T) {
	for _, s := range AllProcessStatuses {
		first, _ := BucketOf(s)
		for i := 0; i < 10; i++ {
			again, _ := BucketOf(s)
			if again != first {
				t.Fatalf("BucketOf(%s) changed from %q to %q", s, first, again)
			}
		}
	}
}

func TestBucketOfNormalizesInput(t *testing.T) {
	cases := []struct {
		in   string
		want ProcessBucket
	}{
		{"em_processamento", BucketInProgress},
		{"Em Processamento", BucketInProgress},
		{"em-processamento", BucketInProgress},
		{" FINALIZADO ", BucketDone},
		{"aguardando_documentos", BucketPending},
		{"erro", BucketCancelled},
	}
	for _, tc := range cases {
		got, err := BucketOf(ProcessStatus(tc.in))
		if err != nil {
			t.Fatalf("BucketOf(%q) returned error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("BucketOf(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBucketOfRejectsUnknownStatus(t *testing.T) {
	if _, err := BucketOf("ARQUIVADO"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestClassifyStatusPanicsOutsideProduction(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unknown status")
		}
	}()
	classifyStatus("ARQUIVADO", false)
}

func TestClassifyStatusDefaultsToPendingInProduction(t *testing.T) {
	if got := classifyStatus("ARQUIVADO", true); got != BucketPending {
		t.Fatalf("classifyStatus = %q, want pending", got)
	}
	if got := classifyStatus(ProcessStatusCancelled, true); got != BucketCancelled {
		t.Fatalf("known statuses must keep their bucket in production, got %q", got)
	}
}

func TestStatusesInBucketIsInverseOfBucketOf(t *testing.T) {
	total := 0
	for _, b := range AllProcessBuckets {
		statuses := StatusesInBucket(b)
		total += len(statuses)
		for _, s := range statuses {
			if got, _ := BucketOf(s); got != b {
				t.Fatalf("%s listed under %q but BucketOf says %q", s, b, got)
			}
		}
	}
	if total != len(AllProcessStatuses) {
		t.Fatalf("buckets cover %d statuses, want %d", total, len(AllProcessStatuses))
	}
}

func TestMobileStatusRoundTrip(t *testing.T) {
	for _, s := range AllProcessStatuses {
		mobile := MobileStatusOf(s)
		statuses, err := StatusesForMobile(string(mobile))
		if err != nil {
			t.Fatalf("StatusesForMobile(%q) returned error: %v", mobile, err)
		}
		found := false
		for _, back := range statuses {
			if back == s {
				found = true
			}
		}
		if !found {
			t.Fatalf("%s -> %q does not map back to %s", s, mobile, s)
		}
	}
	if MobileStatusOf(ProcessStatusProcessing) != MobileStatusInProgress {
		t.Fatalf("EM_PROCESSAMENTO should be %q on mobile", MobileStatusInProgress)
	}
	if _, err := StatusesForMobile("arquivado"); !utils.IsValidationError(err) {
		t.Fatalf("expected validation error for unknown mobile status, got %v", err)
	}
}

func TestParseServiceType(t *testing.T) {
	cases := []struct {
		in   string
		want ServiceType
	}{
		{"Licenciamento", ServiceTypeLicensing},
		{"Transferência", ServiceTypeTransfer},
		{"primeiro emplacamento", ServiceTypeFirstRegistration},
		{"Segunda Via", ServiceTypeDuplicateDocument},
		{"Desbloqueio", ServiceTypeUnlock},
		{"INCLUSAO_GRAVAME", ServiceTypeLienInclusion},
	}
	for _, tc := range cases {
		got, err := ParseServiceType(tc.in)
		if err != nil {
			t.Fatalf("ParseServiceType(%q) returned error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseServiceType(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
	if _, err := ParseServiceType("Vistoria Cautelar"); !utils.IsValidationError(err) {
		t.Fatalf("unknown service type must be a validation error, got %v", err)
	}
	if _, err := ParseServiceType(" "); !utils.IsValidationError(err) {
		t.Fatalf("empty service type must be a validation error, got %v", err)
	}
}

func TestStatusLabel(t *testing.T) {
	if got := StatusLabel(ProcessStatusAwaitingDocuments); got != "Aguardando Docs" {
		t.Fatalf("StatusLabel = %q", got)
	}
	if got := StatusLabel(ProcessStatusDocumentsReceived); got != "Docs Recebidos" {
		t.Fatalf("StatusLabel = %q", got)
	}
	for _, s := range AllProcessStatuses {
		if StatusLabel(s) == string(s) {
			t.Fatalf("missing label for %s", s)
		}
	}
}

func TestParsePriorityDefaultsToMedium(t *testing.T) {
	p, err := ParsePriority("")
	if err != nil || p != PriorityMedium {
		t.Fatalf("ParsePriority(\"\") = %q, %v", p, err)
	}
	if _, err := ParsePriority("altissima"); err == nil {
		t.Fatalf("expected error for unknown priority")
	}
}
