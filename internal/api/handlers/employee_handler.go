package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qasimdev/sijill/internal/models"
	"github.com/qasimdev/sijill/internal/services"
	"github.com/qasimdev/sijill/internal/utils"
)

type EmployeeHandler struct {
	employees   services.EmployeeService
	attachments services.AttachmentService
	maxMB       int64
}

func NewEmployeeHandler(employees services.EmployeeService, attachments services.AttachmentService, maxMB int64) *EmployeeHandler {
	return &EmployeeHandler{employees: employees, attachments: attachments, maxMB: maxMB}
}

func (h *EmployeeHandler) Dashboard(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	q := strings.TrimSpace(c.Query("q"))
	specialty := strings.TrimSpace(c.Query("specialty"))

	employees, err := h.employees.Search(c.Request.Context(), actor, q, specialty)
	if err != nil {
		writeError(c, err)
		return
	}

	render(c, http.StatusOK, "dashboard.html", gin.H{
		"Employees": employees,
		"Q":         q,
		"Specialty": specialty,
	}, h.maxMB)
}

func (h *EmployeeHandler) NewForm(c *gin.Context) {
	if _, ok := requireActor(c); !ok {
		return
	}
	render(c, http.StatusOK, "employee_form.html", gin.H{"Emp": nil}, h.maxMB)
}

func (h *EmployeeHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if h.formTooLarge(c) {
		c.Redirect(http.StatusFound, "/employees/new")
		return
	}

	emp := &models.Employee{}
	h.applyForm(c, emp)

	if err := h.employees.Create(c.Request.Context(), actor, emp); err != nil {
		if utils.IsCode(err, utils.CodeInvalidArgument) {
			addFlash(c, "danger", "اسم الموظف مطلوب")
			c.Redirect(http.StatusFound, "/employees/new")
			return
		}
		addFlash(c, "danger", "خطأ في حفظ البيانات")
		c.Redirect(http.StatusFound, "/employees/new")
		return
	}

	h.saveUploads(c, actor, emp.ID)

	addFlash(c, "success", "تم إضافة الموظف بنجاح")
	c.Redirect(http.StatusFound, "/")
}

func (h *EmployeeHandler) View(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := paramUint(c, "id")
	if !ok {
		writeError(c, utils.E(utils.CodeInvalidArgument, "EmployeeHandler.View", "invalid employee id", nil))
		return
	}

	emp, err := h.employees.Get(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}
	render(c, http.StatusOK, "employee_view.html", gin.H{"Emp": emp}, h.maxMB)
}

func (h *EmployeeHandler) EditForm(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := paramUint(c, "id")
	if !ok {
		writeError(c, utils.E(utils.CodeInvalidArgument, "EmployeeHandler.EditForm", "invalid employee id", nil))
		return
	}

	emp, err := h.employees.Get(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}
	render(c, http.StatusOK, "employee_form.html", gin.H{"Emp": emp}, h.maxMB)
}

func (h *EmployeeHandler) Update(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := paramUint(c, "id")
	if !ok {
		writeError(c, utils.E(utils.CodeInvalidArgument, "EmployeeHandler.Update", "invalid employee id", nil))
		return
	}

	if h.formTooLarge(c) {
		c.Redirect(http.StatusFound, fmt.Sprintf("/employees/%d/edit", id))
		return
	}

	// load first, then overwrite only what the form submitted
	emp, err := h.employees.Get(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}
	h.applyForm(c, emp)

	if err := h.employees.Update(c.Request.Context(), actor, emp); err != nil {
		if utils.IsCode(err, utils.CodeEmployeeNotFound) {
			writeError(c, err)
			return
		}
		addFlash(c, "danger", "خطأ في تحديث البيانات")
		c.Redirect(http.StatusFound, fmt.Sprintf("/employees/%d/edit", id))
		return
	}

	h.saveUploads(c, actor, id)

	addFlash(c, "success", "تم تحديث بيانات الموظف")
	c.Redirect(http.StatusFound, fmt.Sprintf("/employees/%d", id))
}

func (h *EmployeeHandler) Delete(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := paramUint(c, "id")
	if !ok {
		writeError(c, utils.E(utils.CodeInvalidArgument, "EmployeeHandler.Delete", "invalid employee id", nil))
		return
	}

	if err := h.attachments.CascadeDeleteEmployee(c.Request.Context(), actor, id); err != nil {
		writeError(c, err)
		return
	}

	addFlash(c, "info", "تم حذف الموظف")
	c.Redirect(http.StatusFound, "/")
}

// applyForm overwrites only the fields present in the submitted form, so an
// edit that omits a field keeps the stored value.
func (h *EmployeeHandler) applyForm(c *gin.Context, emp *models.Employee) {
	fields := map[string]*string{
		"name":              &emp.Name,
		"specialty":         &emp.Specialty,
		"qualification":     &emp.Qualification,
		"courses":           &emp.Courses,
		"experience":        &emp.Experience,
		"certificates_text": &emp.CertificatesText,
	}
	for key, dst := range fields {
		if v, ok := c.GetPostForm(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	if raw, ok := c.GetPostForm("hire_date"); ok {
		if raw = strings.TrimSpace(raw); raw != "" {
			if d, err := time.Parse("2006-01-02", raw); err == nil {
				emp.HireDate = &d
			} else {
				addFlash(c, "warning", "صيغة تاريخ التعيين غير صحيحة")
			}
		}
	}
}

// formTooLarge reports whether the request body hit the configured upload cap.
// Without this check the failed multipart parse would surface as a misleading
// validation flash.
func (h *EmployeeHandler) formTooLarge(c *gin.Context) bool {
	if _, err := c.MultipartForm(); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			addFlash(c, "danger", fmt.Sprintf("حجم الملفات يتجاوز الحد الأقصى المسموح (%d م.ب)", h.maxMB))
			return true
		}
	}
	return false
}

// saveUploads stores an optional CV plus any attachments from the multipart
// form. Per-file failures become flash warnings; the employee mutation that
// already happened stands.
func (h *EmployeeHandler) saveUploads(c *gin.Context, actor string, employeeID uint) {
	form, err := c.MultipartForm()
	if err != nil {
		return
	}

	if cvs := form.File["cv_file"]; len(cvs) > 0 && cvs[0].Filename != "" {
		fh := cvs[0]
		f, err := fh.Open()
		if err == nil {
			_, err = h.attachments.ReplaceCV(c.Request.Context(), actor, employeeID, fh.Filename, f)
			f.Close()
		}
		if err != nil {
			h.flashUploadError(c, fh.Filename, err)
		}
	}

	label := c.PostForm("attachment_label")
	if label == "" {
		label = "مرفق"
	}
	for _, fh := range form.File["attachments"] {
		if fh.Filename == "" {
			continue
		}
		f, err := fh.Open()
		if err == nil {
			_, err = h.attachments.Upload(c.Request.Context(), actor, employeeID, fh.Filename, label, f)
			f.Close()
		}
		if err != nil {
			h.flashUploadError(c, fh.Filename, err)
		}
	}
}

func (h *EmployeeHandler) flashUploadError(c *gin.Context, filename string, err error) {
	if utils.IsCode(err, utils.CodeUnsupportedFileType) {
		addFlash(c, "danger", "نوع الملف غير مسموح: "+filename)
		return
	}
	addFlash(c, "danger", "تعذر حفظ الملف: "+filename)
}
