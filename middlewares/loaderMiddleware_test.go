package middlewares

import (
	"testing"

	"github.com/despasys/despasys_backend/models"
)

func TestGenerateLoaderResultsKeepsRequestOrder(t *testing.T) {
	rows := []models.Customer{{ID: 5, Name: "Cinco"}, {ID: 2, Name: "Dois"}}
	results := generateLoaderResults(rows, []int{2, 9, 5, 0})
	if len(results) != 4 {
		t.Fatalf("len = %d, want 4", len(results))
	}
	if results[0].Data.Name != "Dois" || results[2].Data.Name != "Cinco" {
		t.Fatalf("order = %q, %q", results[0].Data.Name, results[2].Data.Name)
	}
	if results[1].Data.ID != 9 || results[1].Data.Status != models.RecordStatusInactive {
		t.Fatalf("missing id must get the default, got %+v", results[1].Data)
	}
	if results[3].Data.ID != 0 {
		t.Fatalf("id 0 = %+v", results[3].Data)
	}
}

func TestGenerateLoaderArrayResults(t *testing.T) {
	docs := []models.ProcessDocument{
		{ID: 1, ProcessId: 10, Name: "crlv.pdf"},
		{ID: 2, ProcessId: 11, Name: "rg.png"},
		{ID: 3, ProcessId: 10, Name: "cnh.pdf"},
	}
	results := generateLoaderArrayResults(docs, []int{10, 12, 11})
	if len(results[0].Data) != 2 || len(results[1].Data) != 0 || len(results[2].Data) != 1 {
		t.Fatalf("grouping = %d/%d/%d", len(results[0].Data), len(results[1].Data), len(results[2].Data))
	}
	if results[0].Data[0].Name != "crlv.pdf" || results[0].Data[1].Name != "cnh.pdf" {
		t.Fatalf("documents of process 10 = %q, %q", results[0].Data[0].Name, results[0].Data[1].Name)
	}
}
