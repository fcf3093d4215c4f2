package storage

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/tillpoint/api/internal/platform/auth"
)

type fakeSigner struct {
	email    string
	payloads [][]byte
	err      error
}

func (f *fakeSigner) Email() string {
	return f.email
}

func (f *fakeSigner) SignBytes(_ context.Context, payload []byte) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.payloads = append(f.payloads, append([]byte(nil), payload...))
	return []byte("signed"), nil
}

const receiptObject = "tenants/tenant-1/receipts/sale123/R-2026-000042.pdf"

func receiptSigner() *fakeSigner {
	return &fakeSigner{email: "receipts@tillpoint.iam.gserviceaccount.com"}
}

func TestSignedURLOwnerDownload(t *testing.T) {
	signer := receiptSigner()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	client, err := NewClient(signer, WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("unexpected error creating client: %v", err)
	}

	res, err := client.SignedURL(context.Background(), "tillpoint-receipts", receiptObject, DownloadOptions{
		OwnerID:     "cashier-7",
		Identity:    &auth.Identity{UID: "cashier-7", Roles: []string{auth.RoleCashier}},
		ExpiresIn:   10 * time.Minute,
		Disposition: "attachment",
	})
	if err != nil {
		t.Fatalf("SignedURL returned error: %v", err)
	}

	if res.Method != "GET" {
		t.Fatalf("expected method GET, got %s", res.Method)
	}
	if !res.ExpiresAt.Equal(now.Add(10 * time.Minute)) {
		t.Fatalf("unexpected expiry: %v", res.ExpiresAt)
	}
	parsed, err := url.Parse(res.URL)
	if err != nil {
		t.Fatalf("failed to parse signed URL: %v", err)
	}
	if !strings.Contains(parsed.RawQuery, "X-Goog-Signature=") {
		t.Fatalf("expected signature in query: %s", parsed.RawQuery)
	}
	if !strings.Contains(parsed.RawQuery, "response-content-disposition") {
		t.Fatalf("expected disposition in query: %s", parsed.RawQuery)
	}
	if len(signer.payloads) == 0 {
		t.Fatalf("expected signer to be invoked")
	}
}

func TestSignedURLDeniesOtherCashier(t *testing.T) {
	client, err := NewClient(receiptSigner())
	if err != nil {
		t.Fatalf("unexpected error creating client: %v", err)
	}

	_, err = client.SignedURL(context.Background(), "tillpoint-receipts", receiptObject, DownloadOptions{
		OwnerID:  "cashier-7",
		Identity: &auth.Identity{UID: "cashier-9", Roles: []string{auth.RoleCashier}},
	})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestSignedURLAllowsManager(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	client, err := NewClient(receiptSigner(), WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("unexpected error creating client: %v", err)
	}

	res, err := client.SignedURL(context.Background(), "tillpoint-receipts", receiptObject, DownloadOptions{
		OwnerID:  "cashier-7",
		Identity: &auth.Identity{UID: "manager-1", Roles: []string{auth.RoleManager}},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	// Expiry defaults when the caller does not set one.
	if !res.ExpiresAt.Equal(now.Add(defaultDownloadExpiry)) {
		t.Fatalf("unexpected default expiry: %v", res.ExpiresAt)
	}
}

func TestSignedURLRejectsLongExpiry(t *testing.T) {
	client, err := NewClient(receiptSigner())
	if err != nil {
		t.Fatalf("unexpected error creating client: %v", err)
	}

	_, err = client.SignedURL(context.Background(), "tillpoint-receipts", receiptObject, DownloadOptions{
		OwnerID:   "cashier-7",
		Identity:  &auth.Identity{UID: "cashier-7"},
		ExpiresIn: 30 * time.Minute,
	})
	if !errors.Is(err, errExpiryTooLong) {
		t.Fatalf("expected errExpiryTooLong, got %v", err)
	}
}

func TestSignedURLRejectsWriteMethods(t *testing.T) {
	client, err := NewClient(receiptSigner())
	if err != nil {
		t.Fatalf("unexpected error creating client: %v", err)
	}

	_, err = client.SignedURL(context.Background(), "tillpoint-receipts", receiptObject, DownloadOptions{
		Method:   "PUT",
		OwnerID:  "cashier-7",
		Identity: &auth.Identity{UID: "cashier-7"},
	})
	if !errors.Is(err, errMethodNotAllowed) {
		t.Fatalf("expected errMethodNotAllowed, got %v", err)
	}
}

func TestNewClientRequiresSigner(t *testing.T) {
	if _, err := NewClient(nil); !errors.Is(err, errNoSigner) {
		t.Fatalf("expected errNoSigner, got %v", err)
	}
	if _, err := NewClient(&fakeSigner{email: "  "}); !errors.Is(err, errNoSigner) {
		t.Fatalf("expected errNoSigner for blank email, got %v", err)
	}
}
