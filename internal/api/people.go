package api

import (
	"bytes"
	"net/http"
	"strconv"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxSheetBytes   = 20 << 20
)

// ExportPeople handles GET /api/people/export.
//
//	@Summary		Download every contact as an .xlsx workbook
//	@Tags			people
//	@Produce		application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
//	@Success		200
//	@Security		BearerAuth
//	@Router			/people/export [get]
func (h *Handler) ExportPeople(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.svc.ExportPeople(r.Context(), UserID(r.Context()), &buf); err != nil {
		writeError(w, "export people", err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="people.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// ImportPeople handles POST /api/people/import (multipart/form-data, field "file").
//
//	@Summary		Import contacts from an .xlsx workbook, skipping duplicates
//	@Tags			people
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Workbook"
//	@Success		200		{object}	records.ImportReport
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/people/import [post]
func (h *Handler) ImportPeople(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSheetBytes)
	if err := r.ParseMultipartForm(maxSheetBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	rep, err := h.svc.ImportPeopleSheet(r.Context(), UserID(r.Context()), file)
	if err != nil {
		writeError(w, "import people", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
