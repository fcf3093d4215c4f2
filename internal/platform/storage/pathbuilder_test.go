package storage

import "testing"

func TestBuildSalesExportPath(t *testing.T) {
	path, err := BuildObjectPath(PurposeSalesExport, PathParams{
		TenantID: "tenant-1",
		Day:      "2026-08-31",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "exports/tenant-1/2026-08-31.jsonl"
	if path != expected {
		t.Fatalf("expected %s, got %s", expected, path)
	}
}

func TestBuildReceiptPathUsesReceiptNumber(t *testing.T) {
	path, err := BuildObjectPath(PurposeReceipt, PathParams{
		TenantID:      "tenant-1",
		SaleID:        "sale123",
		ReceiptNumber: "R-2026-000042",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "tenants/tenant-1/receipts/sale123/R-2026-000042.pdf"
	if path != expected {
		t.Fatalf("expected %s, got %s", expected, path)
	}
}

func TestBuildObjectPathRejectsInvalidSegment(t *testing.T) {
	_, err := BuildObjectPath(PurposeSalesExport, PathParams{
		TenantID: "../bad",
		Day:      "2026-08-31",
	})
	if err == nil {
		t.Fatalf("expected error for invalid segment")
	}
}
