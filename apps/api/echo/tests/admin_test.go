package tests

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/shuleni/shule/core/school"
	"github.com/shuleni/shule/core/student"
)

func Test_adminApi_accessControl(t *testing.T) {
	setup(t)

	stu := createStudent(t, "Asha Mwangi", "asha", "Sup3rS3cret", 0)
	stuToken := getToken(t, studentAccount(stu))
	forbidden := marshallObj(t, errForbidden)

	paths := []string{
		"/v1/admin/students",
		"/v1/admin/academic-records",
		"/v1/admin/transfer-certificates",
		"/v1/admin/schools",
	}
	for _, path := range paths {
		t.Run("auth required "+path, func(t *testing.T) {
			runHTTPTest(t, httpTest{path: path, wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)})
		})
		t.Run("admin required "+path, func(t *testing.T) {
			runHTTPTest(t, httpTest{path: path, token: stuToken, wantCode: http.StatusForbidden, wantData: forbidden})
		})
	}
}

func Test_adminApi_students(t *testing.T) {
	setup(t)

	sch := createSchool(t, "Mlimani Primary")
	admin := createAdmin(t, "Head Master", "headmaster", "Sup3rS3cret")
	adminToken := getToken(t, admin)

	var created student.Student
	t.Run("create", func(t *testing.T) {
		rec := runHTTPTest(t, httpTest{
			method: http.MethodPost, path: "/v1/admin/students", token: adminToken,
			body: marshallObj(t, map[string]interface{}{
				"name":              "Asha Mwangi",
				"username":          "asha",
				"email":             "asha@shule.test",
				"password":          "Sup3rS3cret",
				"dob":               "2012-04-15",
				"gender":            "female",
				"current_school_id": sch.ID,
			}),
			wantCode: http.StatusCreated,
		})
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("unmarshalling Student: %v", err)
		}
		if !created.IsActive {
			t.Error("new student should be active")
		}
		if created.SchoolName.String != sch.Name {
			t.Errorf("SchoolName = %v; want %v", created.SchoolName.String, sch.Name)
		}
	})

	t.Run("create with duplicate username rejected", func(t *testing.T) {
		runHTTPTest(t, httpTest{
			method: http.MethodPost, path: "/v1/admin/students", token: adminToken,
			body: marshallObj(t, map[string]interface{}{
				"name":     "Imposter",
				"username": "asha",
				"password": "Sup3rS3cret",
			}),
			wantCode: http.StatusBadRequest,
		})
	})

	t.Run("create with short password rejected", func(t *testing.T) {
		runHTTPTest(t, httpTest{
			method: http.MethodPost, path: "/v1/admin/students", token: adminToken,
			body: marshallObj(t, map[string]interface{}{
				"name":     "Short",
				"username": "shorty",
				"password": "short",
			}),
			wantCode: http.StatusBadRequest,
		})
	})

	stu2 := createStudent(t, "Baraka Juma", "baraka", "Sup3rS3cret", 0)

	t.Run("query all", func(t *testing.T) {
		stu1, err := stuSvc.GetByID(context.Background(), created.ID)
		if err != nil {
			t.Fatalf("GetByID(): %v", err)
		}
		runHTTPTest(t, httpTest{path: "/v1/admin/students", token: adminToken, wantData: marshallList(t, stu1, stu2)})
	})

	t.Run("query with search", func(t *testing.T) {
		runHTTPTest(t, httpTest{path: "/v1/admin/students?search=baraka", token: adminToken, wantData: marshallList(t, stu2)})
	})

	t.Run("query with school filter", func(t *testing.T) {
		stu1, err := stuSvc.GetByID(context.Background(), created.ID)
		if err != nil {
			t.Fatalf("GetByID(): %v", err)
		}
		runHTTPTest(t, httpTest{
			path: fmt.Sprintf("/v1/admin/students?school_id=%d", sch.ID), token: adminToken,
			wantData: marshallList(t, stu1),
		})
	})

	t.Run("comprehensive view", func(t *testing.T) {
		rec, err := stuSvc.CreateAcademicRecord(context.Background(), student.NewAcademicRecord{
			StudentID: created.ID, Standard: 7, Subject: "Mathematics", Marks: 86, MaxMarks: 100,
		})
		if err != nil {
			t.Fatalf("CreateAcademicRecord(): %v", err)
		}
		stu1, err := stuSvc.GetByID(context.Background(), created.ID)
		if err != nil {
			t.Fatalf("GetByID(): %v", err)
		}
		runHTTPTest(t, httpTest{
			path: fmt.Sprintf("/v1/admin/students/%d", created.ID), token: adminToken,
			wantData: marshallObj(t, student.Details{Student: stu1, AcademicRecords: []student.AcademicRecord{rec}}),
		})
	})

	t.Run("retrieve nonexistent", func(t *testing.T) {
		runHTTPTest(t, httpTest{
			path: "/v1/admin/students/999999", token: adminToken,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, errNotFound),
		})
	})

	t.Run("update", func(t *testing.T) {
		rec := runHTTPTest(t, httpTest{
			method: http.MethodPut, path: fmt.Sprintf("/v1/admin/students/%d", stu2.ID), token: adminToken,
			body: marshallObj(t, map[string]string{"contact_info": "+255 700 000 000"}),
		})
		var updated student.Student
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("unmarshalling Student: %v", err)
		}
		if updated.ContactInfo.String != "+255 700 000 000" {
			t.Errorf("ContactInfo = %v; want +255 700 000 000", updated.ContactInfo.String)
		}
		if updated.Name != stu2.Name {
			t.Errorf("Name = %v; want %v (unchanged)", updated.Name, stu2.Name)
		}
	})

	t.Run("update nonexistent", func(t *testing.T) {
		runHTTPTest(t, httpTest{
			method: http.MethodPut, path: "/v1/admin/students/999999", token: adminToken,
			body:     marshallObj(t, map[string]string{"name": "Nobody"}),
			wantCode: http.StatusNotFound, wantData: marshallObj(t, errNotFound),
		})
	})
}

func Test_adminApi_academicRecords(t *testing.T) {
	setup(t)

	admin := createAdmin(t, "Head Master", "headmaster", "Sup3rS3cret")
	adminToken := getToken(t, admin)
	stu := createStudent(t, "Asha Mwangi", "asha", "Sup3rS3cret", 0)

	var rec student.AcademicRecord
	t.Run("create computes percentage and grade", func(t *testing.T) {
		resp := runHTTPTest(t, httpTest{
			method: http.MethodPost, path: "/v1/admin/academic-records", token: adminToken,
			body: marshallObj(t, map[string]interface{}{
				"student_id":      stu.ID,
				"school_standard": 7,
				"subject":         "Mathematics",
				"marks":           43.0,
				"max_marks":       50.0,
			}),
			wantCode: http.StatusCreated,
		})
		if err := json.Unmarshal(resp.Body.Bytes(), &rec); err != nil {
			t.Fatalf("unmarshalling AcademicRecord: %v", err)
		}
		if rec.Percentage != 86 {
			t.Errorf("Percentage = %v; want 86", rec.Percentage)
		}
		if rec.Grade != "A" {
			t.Errorf("Grade = %v; want A", rec.Grade)
		}
	})

	t.Run("create for unknown student rejected", func(t *testing.T) {
		runHTTPTest(t, httpTest{
			method: http.MethodPost, path: "/v1/admin/academic-records", token: adminToken,
			body: marshallObj(t, map[string]interface{}{
				"student_id":      999999,
				"school_standard": 7,
				"subject":         "Mathematics",
				"marks":           43.0,
			}),
			wantCode: http.StatusBadRequest,
		})
	})

	t.Run("create with marks above max rejected", func(t *testing.T) {
		runHTTPTest(t, httpTest{
			method: http.MethodPost, path: "/v1/admin/academic-records", token: adminToken,
			body: marshallObj(t, map[string]interface{}{
				"student_id":      stu.ID,
				"school_standard": 7,
				"subject":         "Mathematics",
				"marks":           101.0,
			}),
			wantCode: http.StatusBadRequest,
		})
	})

	t.Run("query requires student_id", func(t *testing.T) {
		runHTTPTest(t, httpTest{path: "/v1/admin/academic-records", token: adminToken, wantCode: http.StatusBadRequest})
	})

	t.Run("query by student", func(t *testing.T) {
		runHTTPTest(t, httpTest{
			path: fmt.Sprintf("/v1/admin/academic-records?student_id=%d", stu.ID), token: adminToken,
			wantData: marshallList(t, rec),
		})
	})

	t.Run("update subject only keeps marks and grade", func(t *testing.T) {
		resp := runHTTPTest(t, httpTest{
			method: http.MethodPut, path: fmt.Sprintf("/v1/admin/academic-records/%d", rec.ID), token: adminToken,
			body: marshallObj(t, map[string]string{"subject": "Advanced Mathematics"}),
		})
		var updated student.AcademicRecord
		if err := json.Unmarshal(resp.Body.Bytes(), &updated); err != nil {
			t.Fatalf("unmarshalling AcademicRecord: %v", err)
		}
		if updated.Subject != "Advanced Mathematics" {
			t.Errorf("Subject = %v; want Advanced Mathematics", updated.Subject)
		}
		if updated.Marks != 43 || updated.Percentage != 86 || updated.Grade != "A" {
			t.Errorf("got marks=%v %%=%v grade=%v; want 43 86 A", updated.Marks, updated.Percentage, updated.Grade)
		}
	})

	t.Run("update regrades", func(t *testing.T) {
		resp := runHTTPTest(t, httpTest{
			method: http.MethodPut, path: fmt.Sprintf("/v1/admin/academic-records/%d", rec.ID), token: adminToken,
			body: marshallObj(t, map[string]interface{}{"marks": 30.0, "max_marks": 100.0}),
		})
		var updated student.AcademicRecord
		if err := json.Unmarshal(resp.Body.Bytes(), &updated); err != nil {
			t.Fatalf("unmarshalling AcademicRecord: %v", err)
		}
		if updated.Percentage != 30 || updated.Grade != "F" {
			t.Errorf("got %%=%v grade=%v; want 30 F", updated.Percentage, updated.Grade)
		}
	})

	t.Run("update nonexistent", func(t *testing.T) {
		runHTTPTest(t, httpTest{
			method: http.MethodPut, path: "/v1/admin/academic-records/999999", token: adminToken,
			body:     marshallObj(t, map[string]interface{}{"marks": 30.0}),
			wantCode: http.StatusNotFound, wantData: marshallObj(t, errNotFound),
		})
	})

	t.Run("delete", func(t *testing.T) {
		runHTTPTest(t, httpTest{
			method: http.MethodDelete, path: fmt.Sprintf("/v1/admin/academic-records/%d", rec.ID), token: adminToken,
			wantCode: http.StatusNoContent, wantData: nil,
		})
	})

	t.Run("delete again", func(t *testing.T) {
		runHTTPTest(t, httpTest{
			method: http.MethodDelete, path: fmt.Sprintf("/v1/admin/academic-records/%d", rec.ID), token: adminToken,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, errNotFound),
		})
	})
}

func Test_adminApi_transferCertificates(t *testing.T) {
	setup(t)

	admin := createAdmin(t, "Head Master", "headmaster", "Sup3rS3cret")
	adminToken := getToken(t, admin)
	stu := createStudent(t, "Asha Mwangi", "asha", "Sup3rS3cret", 0)

	tc, err := stuSvc.ApplyForTransfer(context.Background(), stu.ID, student.NewTransferCertificate{
		DestinationSchool: "Mlimani Secondary",
		Reason:            "family moved",
		TransferDate:      "2026-09-01",
	})
	if err != nil {
		t.Fatalf("ApplyForTransfer(): %v", err)
	}

	t.Run("query all", func(t *testing.T) {
		runHTTPTest(t, httpTest{path: "/v1/admin/transfer-certificates", token: adminToken, wantData: marshallList(t, tc)})
	})

	t.Run("process approves and records the processing admin", func(t *testing.T) {
		rec := runHTTPTest(t, httpTest{
			method: http.MethodPatch, path: fmt.Sprintf("/v1/admin/transfer-certificates/%d", tc.ID), token: adminToken,
			body: marshallObj(t, map[string]string{"status": "approved", "comments": "records verified"}),
		})
		var processed student.TransferCertificate
		if err := json.Unmarshal(rec.Body.Bytes(), &processed); err != nil {
			t.Fatalf("unmarshalling TransferCertificate: %v", err)
		}
		if processed.Status != student.TCStatusApproved {
			t.Errorf("Status = %v; want %v", processed.Status, student.TCStatusApproved)
		}
		if processed.ProcessedBy.String != admin.Username {
			t.Errorf("ProcessedBy = %v; want %v", processed.ProcessedBy.String, admin.Username)
		}
		if !processed.ProcessedDate.Valid {
			t.Error("ProcessedDate not set")
		}
		if processed.Comments.String != "records verified" {
			t.Errorf("Comments = %v; want records verified", processed.Comments.String)
		}
	})

	t.Run("process again rejected", func(t *testing.T) {
		runHTTPTest(t, httpTest{
			method: http.MethodPatch, path: fmt.Sprintf("/v1/admin/transfer-certificates/%d", tc.ID), token: adminToken,
			body:     marshallObj(t, map[string]string{"status": "rejected"}),
			wantCode: http.StatusBadRequest,
		})
	})

	t.Run("process with unknown status rejected", func(t *testing.T) {
		runHTTPTest(t, httpTest{
			method: http.MethodPatch, path: fmt.Sprintf("/v1/admin/transfer-certificates/%d", tc.ID), token: adminToken,
			body:     marshallObj(t, map[string]string{"status": "maybe"}),
			wantCode: http.StatusBadRequest,
		})
	})

	t.Run("process nonexistent", func(t *testing.T) {
		runHTTPTest(t, httpTest{
			method: http.MethodPatch, path: "/v1/admin/transfer-certificates/999999", token: adminToken,
			body:     marshallObj(t, map[string]string{"status": "approved"}),
			wantCode: http.StatusNotFound, wantData: marshallObj(t, errNotFound),
		})
	})

	t.Run("delete", func(t *testing.T) {
		runHTTPTest(t, httpTest{
			method: http.MethodDelete, path: fmt.Sprintf("/v1/admin/transfer-certificates/%d", tc.ID), token: adminToken,
			wantCode: http.StatusNoContent, wantData: nil,
		})
	})

	t.Run("delete again", func(t *testing.T) {
		runHTTPTest(t, httpTest{
			method: http.MethodDelete, path: fmt.Sprintf("/v1/admin/transfer-certificates/%d", tc.ID), token: adminToken,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, errNotFound),
		})
	})
}

func Test_adminApi_schools(t *testing.T) {
	setup(t)

	admin := createAdmin(t, "Head Master", "headmaster", "Sup3rS3cret")
	adminToken := getToken(t, admin)

	var created school.School
	t.Run("create", func(t *testing.T) {
		rec := runHTTPTest(t, httpTest{
			method: http.MethodPost, path: "/v1/admin/schools", token: adminToken,
			body: marshallObj(t, map[string]string{
				"name":      "Mlimani Primary",
				"address":   "Mlimani Rd, Dar es Salaam",
				"principal": "Mw. Juma",
			}),
			wantCode: http.StatusCreated,
		})
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("unmarshalling School: %v", err)
		}
		if created.ID == 0 {
			t.Error("ID not set")
		}
	})

	t.Run("create without name rejected", func(t *testing.T) {
		runHTTPTest(t, httpTest{
			method: http.MethodPost, path: "/v1/admin/schools", token: adminToken,
			body: marshallObj(t, map[string]string{"address": "nowhere"}), wantCode: http.StatusBadRequest,
		})
	})

	t.Run("query", func(t *testing.T) {
		runHTTPTest(t, httpTest{path: "/v1/admin/schools", token: adminToken, wantData: marshallList(t, created)})
	})

	t.Run("update", func(t *testing.T) {
		rec := runHTTPTest(t, httpTest{
			method: http.MethodPut, path: fmt.Sprintf("/v1/admin/schools/%d", created.ID), token: adminToken,
			body: marshallObj(t, map[string]string{"contact": "+255 700 000 001"}),
		})
		var updated school.School
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("unmarshalling School: %v", err)
		}
		if updated.Contact.String != "+255 700 000 001" {
			t.Errorf("Contact = %v; want +255 700 000 001", updated.Contact.String)
		}
		if updated.Name != created.Name {
			t.Errorf("Name = %v; want %v (unchanged)", updated.Name, created.Name)
		}
	})

	t.Run("update nonexistent", func(t *testing.T) {
		runHTTPTest(t, httpTest{
			method: http.MethodPut, path: "/v1/admin/schools/999999", token: adminToken,
			body:     marshallObj(t, map[string]string{"name": "Nowhere"}),
			wantCode: http.StatusNotFound, wantData: marshallObj(t, errNotFound),
		})
	})

	t.Run("delete", func(t *testing.T) {
		runHTTPTest(t, httpTest{
			method: http.MethodDelete, path: fmt.Sprintf("/v1/admin/schools/%d", created.ID), token: adminToken,
			wantCode: http.StatusNoContent, wantData: nil,
		})
	})

	t.Run("delete again", func(t *testing.T) {
		runHTTPTest(t, httpTest{
			method: http.MethodDelete, path: fmt.Sprintf("/v1/admin/schools/%d", created.ID), token: adminToken,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, errNotFound),
		})
	})
}
