package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/despasys/despasys_backend/utils"
)

func TestValidateSignRequest(t *testing.T) {
	cases := []struct {
		name   string
		req    uploadSignRequest
		prefix string
		field  string
	}{
		{
			name:   "process document",
			req:    uploadSignRequest{FileName: "CRLV.PDF", MimeType: "application/pdf", Size: 1024, Context: uploadContext{ProcessID: 42}},
			prefix: "tenant-1/processes/42/",
		},
		{
			name:   "entity image without extension",
			req:    uploadSignRequest{FileName: "foto", MimeType: "image/png", Size: 10, Context: uploadContext{EntityType: "Customer Image"}},
			prefix: "tenant-1/customer_image/",
		},
		{
			name:   "no context",
			req:    uploadSignRequest{FileName: "a.xlsx", MimeType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", Size: 10},
			prefix: "tenant-1/uploads/",
		},
		{
			name:  "too large",
			req:   uploadSignRequest{FileName: "a.pdf", MimeType: "application/pdf", Size: maxUploadSizeBytes + 1},
			field: "size",
		},
		{
			name:  "missing size",
			req:   uploadSignRequest{FileName: "a.pdf", MimeType: "application/pdf"},
			field: "fileName",
		},
		{
			name:  "image field with pdf",
			req:   uploadSignRequest{FileName: "a.pdf", MimeType: "application/pdf", Size: 10, Context: uploadContext{Field: "image"}},
			field: "mimeType",
		},
		{
			name:  "unsupported type",
			req:   uploadSignRequest{FileName: "a.exe", MimeType: "application/x-msdownload", Size: 10},
			field: "mimeType",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key, err := validateSignRequest("tenant-1", tc.req)
			if tc.field != "" {
				ve, ok := err.(*utils.ValidationError)
				if !ok || ve.Field != tc.field {
					t.Fatalf("err = %v, want validation on %s", err, tc.field)
				}
				return
			}
			if err != nil {
				t.Fatalf("validateSignRequest: %v", err)
			}
			if !strings.HasPrefix(key, tc.prefix) {
				t.Fatalf("key = %s, want prefix %s", key, tc.prefix)
			}
			if !utils.IsSafeObjectKey(key) {
				t.Fatalf("key %s is not a safe object key", key)
			}
		})
	}
}

func TestSignedKeyKeepsExtension(t *testing.T) {
	key, err := validateSignRequest("tenant-1", uploadSignRequest{FileName: "CRLV.PDF", MimeType: "application/pdf", Size: 1})
	if err != nil {
		t.Fatalf("validateSignRequest: %v", err)
	}
	if !strings.HasSuffix(key, ".pdf") {
		t.Fatalf("key = %s", key)
	}
	key, _ = validateSignRequest("tenant-1", uploadSignRequest{FileName: "foto", MimeType: "image/jpeg", Size: 1})
	if !strings.HasSuffix(key, ".jpg") {
		t.Fatalf("key = %s", key)
	}
}

func TestThumbnailObjectKey(t *testing.T) {
	got := thumbnailObjectKey("tenant-1/processes/42/abc.jpg")
	if got != "tenant-1/processes/42/thumbnails/abc.jpg" {
		t.Fatalf("thumbnail key = %s", got)
	}
}

func TestSanitizeSegment(t *testing.T) {
	cases := map[string]string{
		"Vehicle Photo": "vehicle_photo",
		"../etc":        "etc",
		"doc-2024":      "doc-2024",
	}
	for in, want := range cases {
		if got := normalizeEntity(in); got != want {
			t.Fatalf("normalizeEntity(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCompleteUploadRejectsForeignKeys(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"other tenant", `{"objectKey":"tenant-2/processes/1/a.pdf","context":{"processId":1}}`},
		{"traversal", `{"objectKey":"tenant-1/../tenant-2/a.pdf","context":{"processId":1}}`},
		{"no process", `{"objectKey":"tenant-1/processes/1/a.pdf"}`},
	}
	h := newTestHandler(Options{})
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&testAuth)
			r.POST("/uploads/complete", withAuth(h.CompleteUpload))
			w := doRequest(r, http.MethodPost, "/uploads/complete", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestUploadObjectRejectsForeignKeys(t *testing.T) {
	h := newTestHandler(Options{})
	r := newTestRouter(&testAuth)
	r.GET("/uploads/object", withAuth(h.UploadObject))

	for _, key := range []string{"", "tenant-2/processes/1/a.pdf", "tenant-1/../x"} {
		w := doRequest(r, http.MethodGet, "/uploads/object?key="+key, "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("key %q: status = %d", key, w.Code)
		}
	}
}
