package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shuleni/shule/core/student"
)

func studentPath(id int, suffix string) string {
	return fmt.Sprintf("/v1/students/%d%s", id, suffix)
}

func Test_studentApi_scoping(t *testing.T) {
	setup(t)

	sch := createSchool(t, "Mlimani Primary")
	stu1 := createStudent(t, "Asha Mwangi", "asha", "Sup3rS3cret", sch.ID)
	stu2 := createStudent(t, "Baraka Juma", "baraka", "Sup3rS3cret", sch.ID)
	admin := createAdmin(t, "Head Master", "headmaster", "Sup3rS3cret")

	stu1Token := getToken(t, studentAccount(stu1))
	adminToken := getToken(t, admin)
	notFound := marshallObj(t, errNotFound)

	tests := []httpTest{
		{name: "auth required", path: studentPath(stu1.ID, ""), wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{name: "own profile", path: studentPath(stu1.ID, ""), token: stu1Token, wantData: marshallObj(t, stu1)},
		{name: "other student is not found", path: studentPath(stu2.ID, ""), token: stu1Token, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "nonexistent student is not found", path: studentPath(999999, ""), token: stu1Token, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "admin sees any student", path: studentPath(stu2.ID, ""), token: adminToken, wantData: marshallObj(t, stu2)},
		{name: "admin: nonexistent student", path: studentPath(999999, ""), token: adminToken, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "non-numeric id", path: "/v1/students/lol", token: stu1Token, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "other's academic records are not found", path: studentPath(stu2.ID, "/academic-records"), token: stu1Token, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "other's documents are not found", path: studentPath(stu2.ID, "/documents"), token: stu1Token, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "other's transfer certificates are not found", path: studentPath(stu2.ID, "/transfer-certificates"), token: stu1Token, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "other's schemes are not found", path: studentPath(stu2.ID, "/schemes"), token: stu1Token, wantCode: http.StatusNotFound, wantData: notFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runHTTPTest(t, tt)
		})
	}

	// an ownership mismatch must be indistinguishable from a nonexistent id
	t.Run("mismatch equals nonexistent", func(t *testing.T) {
		req1, rec1 := newAuthRequest(http.MethodGet, studentPath(stu2.ID, ""), stu1Token)
		app.ServeHTTP(rec1, req1)
		req2, rec2 := newAuthRequest(http.MethodGet, studentPath(999999, ""), stu1Token)
		app.ServeHTTP(rec2, req2)

		if rec1.Code != rec2.Code || rec1.Body.String() != rec2.Body.String() {
			t.Errorf("responses differ: (%d, %s) vs (%d, %s)", rec1.Code, rec1.Body.String(), rec2.Code, rec2.Body.String())
		}
	})
}

func Test_studentApi_academicRecordsAndSchemes(t *testing.T) {
	setup(t)

	stu := createStudent(t, "Asha Mwangi", "asha", "Sup3rS3cret", 0)
	token := getToken(t, studentAccount(stu))

	t.Run("no records", func(t *testing.T) {
		runHTTPTest(t, httpTest{path: studentPath(stu.ID, "/academic-records"), token: token, wantData: marshallList(t)})
	})

	rec1, err := stuSvc.CreateAcademicRecord(context.Background(), student.NewAcademicRecord{
		StudentID: stu.ID, Standard: 7, Subject: "Mathematics", Marks: 86, MaxMarks: 100,
	})
	if err != nil {
		t.Fatalf("CreateAcademicRecord(): %v", err)
	}
	rec2, err := stuSvc.CreateAcademicRecord(context.Background(), student.NewAcademicRecord{
		StudentID: stu.ID, Standard: 7, Subject: "Kiswahili", Marks: 54, MaxMarks: 100,
	})
	if err != nil {
		t.Fatalf("CreateAcademicRecord(): %v", err)
	}

	t.Run("own records", func(t *testing.T) {
		runHTTPTest(t, httpTest{path: studentPath(stu.ID, "/academic-records"), token: token, wantData: marshallList(t, rec1, rec2)})
	})

	t.Run("no schemes", func(t *testing.T) {
		runHTTPTest(t, httpTest{path: studentPath(stu.ID, "/schemes"), token: token, wantData: marshallList(t)})
	})

	enr := repo.AddSchemeEnrollment(student.SchemeEnrollment{
		StudentID:  stu.ID,
		SchemeID:   1,
		SchemeName: "School Feeding Programme",
		StartDate:  time.Now().UTC(),
		Status:     "active",
	})

	t.Run("own schemes", func(t *testing.T) {
		runHTTPTest(t, httpTest{path: studentPath(stu.ID, "/schemes"), token: token, wantData: marshallList(t, enr)})
	})
}

func uploadRequest(t *testing.T, path, token, filename, documentType string, content []byte) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("document_type", documentType); err != nil {
		t.Fatalf("WriteField(): %v", err)
	}
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile(): %v", err)
	}
	if _, err = fw.Write(content); err != nil {
		t.Fatalf("writing file content: %v", err)
	}
	if err = w.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	return req, rec
}

func Test_studentApi_documents(t *testing.T) {
	setup(t)

	stu1 := createStudent(t, "Asha Mwangi", "asha", "Sup3rS3cret", 0)
	stu2 := createStudent(t, "Baraka Juma", "baraka", "Sup3rS3cret", 0)
	stu1Token := getToken(t, studentAccount(stu1))
	stu2Token := getToken(t, studentAccount(stu2))

	content := []byte("%PDF-1.4 fake birth certificate")

	t.Run("upload rejects unlisted extension", func(t *testing.T) {
		req, rec := uploadRequest(t, studentPath(stu1.ID, "/documents"), stu1Token, "virus.exe", "birth_certificate", content)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("upload requires a file", func(t *testing.T) {
		runHTTPTest(t, httpTest{
			method: http.MethodPost, path: studentPath(stu1.ID, "/documents"), token: stu1Token,
			body: marshallObj(t, map[string]string{"document_type": "birth_certificate"}), wantCode: http.StatusBadRequest,
		})
	})

	var doc student.Document
	t.Run("upload ok", func(t *testing.T) {
		req, rec := uploadRequest(t, studentPath(stu1.ID, "/documents"), stu1Token, "birth-cert.pdf", "birth_certificate", content)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; want %v; body: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
			t.Fatalf("unmarshalling Document: %v", err)
		}
		if doc.StudentID != stu1.ID {
			t.Errorf("StudentID = %v; want %v", doc.StudentID, stu1.ID)
		}
		if doc.FileName != "birth-cert.pdf" {
			t.Errorf("FileName = %v; want birth-cert.pdf", doc.FileName)
		}
		if doc.Type != "birth_certificate" {
			t.Errorf("Type = %v; want birth_certificate", doc.Type)
		}
	})

	t.Run("list own documents", func(t *testing.T) {
		runHTTPTest(t, httpTest{path: studentPath(stu1.ID, "/documents"), token: stu1Token, wantData: marshallList(t, doc)})
	})

	t.Run("download own document", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, studentPath(stu1.ID, fmt.Sprintf("/documents/%d/download", doc.ID)), stu1Token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		got, err := io.ReadAll(rec.Body)
		if err != nil {
			t.Fatalf("reading body: %v", err)
		}
		if !bytes.Equal(got, content) {
			t.Errorf("downloaded content differs")
		}
	})

	t.Run("download of another student's document is not found", func(t *testing.T) {
		runHTTPTest(t, httpTest{
			path: studentPath(stu2.ID, fmt.Sprintf("/documents/%d/download", doc.ID)), token: stu2Token,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, errNotFound),
		})
	})

	t.Run("download of nonexistent document is not found", func(t *testing.T) {
		runHTTPTest(t, httpTest{
			path: studentPath(stu1.ID, "/documents/999999/download"), token: stu1Token,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, errNotFound),
		})
	})
}

func Test_studentApi_transferCertificates(t *testing.T) {
	setup(t)

	stu := createStudent(t, "Asha Mwangi", "asha", "Sup3rS3cret", 0)
	token := getToken(t, studentAccount(stu))

	t.Run("no applications", func(t *testing.T) {
		runHTTPTest(t, httpTest{path: studentPath(stu.ID, "/transfer-certificates"), token: token, wantData: marshallList(t)})
	})

	var tc student.TransferCertificate
	t.Run("apply", func(t *testing.T) {
		rec := runHTTPTest(t, httpTest{
			method: http.MethodPost, path: studentPath(stu.ID, "/transfer-certificates"), token: token,
			body: marshallObj(t, map[string]string{
				"destination_school": "Mlimani Secondary",
				"reason":             "family moved",
				"transfer_date":      "2026-09-01",
			}),
			wantCode: http.StatusCreated,
		})
		if err := json.Unmarshal(rec.Body.Bytes(), &tc); err != nil {
			t.Fatalf("unmarshalling TransferCertificate: %v", err)
		}
		if tc.Status != student.TCStatusPending {
			t.Errorf("Status = %v; want %v", tc.Status, student.TCStatusPending)
		}
		if tc.StudentID != stu.ID {
			t.Errorf("StudentID = %v; want %v", tc.StudentID, stu.ID)
		}
		if tc.ApplicationDate.IsZero() {
			t.Error("ApplicationDate not set")
		}
	})

	t.Run("list own applications", func(t *testing.T) {
		runHTTPTest(t, httpTest{path: studentPath(stu.ID, "/transfer-certificates"), token: token, wantData: marshallList(t, tc)})
	})

	t.Run("apply with bad date rejected", func(t *testing.T) {
		runHTTPTest(t, httpTest{
			method: http.MethodPost, path: studentPath(stu.ID, "/transfer-certificates"), token: token,
			body: marshallObj(t, map[string]string{
				"destination_school": "Mlimani Secondary",
				"reason":             "family moved",
				"transfer_date":      "01/09/2026",
			}),
			wantCode: http.StatusBadRequest,
		})
	})
}
