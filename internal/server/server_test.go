package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"scarletbooks/internal/app"
	"scarletbooks/internal/store"
	"scarletbooks/pkg/domain"
)

const testToken = "test-secret"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	appCore, err := app.New(app.Config{ImageDir: t.TempDir(), Store: store.NewMemoryStore()})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	srv, err := New(Config{App: appCore, AuthToken: testToken})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func insertBody(token string, catalogNumber int, info string) *bytes.Buffer {
	payload := map[string]any{
		"token":       token,
		"insert_type": "book",
		"parse":       true,
		"data": map[string]any{
			"CatalogNumber": catalogNumber,
			"Info":          info,
			"UnitPrice":     9.99,
			"InStock":       true,
		},
	}
	body, _ := json.Marshal(payload)
	return bytes.NewBuffer(body)
}

func TestInsertRequiresToken(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/insert", "application/json", insertBody("wrong", 1, "x"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestInsertAndListBooks(t *testing.T) {
	ts := newTestServer(t)

	// Empty table reads as 204, distinct from an error.
	resp, err := http.Get(ts.URL + "/books")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("empty list status = %d, want 204", resp.StatusCode)
	}

	resp, err = http.Post(ts.URL+"/insert", "application/json", insertBody(testToken, 1, "line1\nline2"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("insert status = %d, want 201", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/books?parse=true")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d, want 200", resp.StatusCode)
	}
	var books []domain.Book
	if err := json.NewDecoder(resp.Body).Decode(&books); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(books) != 1 || books[0].CatalogNumber != 1 {
		t.Fatalf("books = %+v", books)
	}
	if books[0].Info != "line1\nline2" {
		t.Fatalf("parsed info = %q", books[0].Info)
	}
}

func TestInsertUnknownKind(t *testing.T) {
	ts := newTestServer(t)
	payload, _ := json.Marshal(map[string]any{
		"token":       testToken,
		"insert_type": "order",
		"data":        map[string]any{"ID": 1},
	})
	resp, err := http.Post(ts.URL+"/insert", "application/json", bytes.NewBuffer(payload))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestMultipartInsertWithImage(t *testing.T) {
	ts := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("token", testToken)
	_ = mw.WriteField("insert_type", "book")
	_ = mw.WriteField("data", `{"CatalogNumber": 1234, "Info": "x", "UnitPrice": 5}`)
	fw, err := mw.CreateFormFile("image", "cover.jpeg")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = fw.Write([]byte("jpeg-bytes"))
	mw.Close()

	resp, err := http.Post(ts.URL+"/insert", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var stored domain.Record
	if err := json.NewDecoder(resp.Body).Decode(&stored); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stored["ImageURL"] != "book_1234.jpeg" {
		t.Fatalf("ImageURL = %v", stored["ImageURL"])
	}

	imgResp, err := http.Get(ts.URL + "/images/book_1234.jpeg")
	if err != nil {
		t.Fatalf("get image: %v", err)
	}
	defer imgResp.Body.Close()
	if imgResp.StatusCode != http.StatusOK {
		t.Fatalf("image status = %d, want 200", imgResp.StatusCode)
	}
}

func TestImageNotFound(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/images/book_999.jpeg")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestDelete(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/insert", "application/json", insertBody(testToken, 9, "x"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	resp.Body.Close()

	payload, _ := json.Marshal(map[string]any{
		"token":       testToken,
		"insert_type": "book",
		"item_id":     9,
	})
	resp, err = http.Post(ts.URL+"/delete", "application/json", bytes.NewBuffer(payload))
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", resp.StatusCode)
	}
	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result["deleted"] != float64(1) {
		t.Fatalf("deleted = %v, want 1", result["deleted"])
	}

	listResp, err := http.Get(ts.URL + "/books")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	listResp.Body.Close()
	if listResp.StatusCode != http.StatusNoContent {
		t.Fatalf("list status = %d, want 204 after delete", listResp.StatusCode)
	}
}

func TestUpdateKeepsSingleRow(t *testing.T) {
	ts := newTestServer(t)
	for _, info := range []string{"old", "new"} {
		endpoint := "/insert"
		if info == "new" {
			endpoint = "/update"
		}
		resp, err := http.Post(ts.URL+endpoint, "application/json", insertBody(testToken, 5, info))
		if err != nil {
			t.Fatalf("%s: %v", endpoint, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("%s status = %d", endpoint, resp.StatusCode)
		}
	}
	resp, err := http.Get(ts.URL + "/books?parse=true")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer resp.Body.Close()
	var books []domain.Book
	if err := json.NewDecoder(resp.Body).Decode(&books); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(books) != 1 || books[0].Info != "new" {
		t.Fatalf("books = %+v", books)
	}
}

func TestNewsletter(t *testing.T) {
	ts := newTestServer(t)

	subscribe := func(email string) int {
		body, _ := json.Marshal(map[string]string{"email_address": email, "name": "N"})
		resp, err := http.Post(ts.URL+"/newsletter/subscribe", "application/json", bytes.NewBuffer(body))
		if err != nil {
			t.Fatalf("subscribe: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if code := subscribe("not-an-email"); code != http.StatusBadRequest {
		t.Fatalf("bad email status = %d, want 400", code)
	}
	if code := subscribe("a@b.com"); code != http.StatusOK {
		t.Fatalf("subscribe status = %d, want 200", code)
	}
	if code := subscribe("a@b.com"); code != http.StatusOK {
		t.Fatalf("duplicate subscribe status = %d, want 200", code)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/newsletter/emails", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("list emails: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list emails status = %d, want 200", resp.StatusCode)
	}
	var emails []string
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(emails) != 1 || emails[0] != "a@b.com" {
		t.Fatalf("emails = %v", emails)
	}

	// Listing subscribers without the token is unauthorized.
	plain, err := http.Get(ts.URL + "/newsletter/emails")
	if err != nil {
		t.Fatalf("unauth list: %v", err)
	}
	plain.Body.Close()
	if plain.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauth status = %d, want 401", plain.StatusCode)
	}
}

func TestMutationBodyLimit(t *testing.T) {
	appCore, err := app.New(app.Config{ImageDir: t.TempDir(), Store: store.NewMemoryStore()})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	srv, err := New(Config{App: appCore, AuthToken: testToken, MaxImageBytes: 64})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	payload, _ := json.Marshal(map[string]any{
		"token":       testToken,
		"insert_type": "book",
		"data": map[string]any{
			"CatalogNumber": 1,
			"Info":          bytes.Repeat([]byte("x"), 4096),
		},
	})
	resp, err := http.Post(ts.URL+"/insert", "application/json", bytes.NewBuffer(payload))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusCreated {
		t.Fatal("oversized body must not be accepted")
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var status map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status["status"] != "ok" {
		t.Fatalf("status body = %v", status)
	}
}
