package handlers

import (
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"github.com/qasimdev/sijill/internal/services"
	"github.com/qasimdev/sijill/internal/utils"
)

type FileHandler struct {
	attachments services.AttachmentService
}

func NewFileHandler(attachments services.AttachmentService) *FileHandler {
	return &FileHandler{attachments: attachments}
}

// ServeEmployeeFile streams an attachment looked up by its record, with the
// ownership check done in the service.
func (h *FileHandler) ServeEmployeeFile(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	employeeID, ok := paramUint(c, "id")
	if !ok {
		writeError(c, utils.E(utils.CodeInvalidArgument, "FileHandler.ServeEmployeeFile", "invalid employee id", nil))
		return
	}
	fileID, ok := paramUint(c, "file_id")
	if !ok {
		writeError(c, utils.E(utils.CodeInvalidArgument, "FileHandler.ServeEmployeeFile", "invalid file id", nil))
		return
	}

	f, rec, err := h.attachments.Retrieve(c.Request.Context(), actor, employeeID, fileID)
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()

	serveFile(c, f, path.Base(rec.Filename))
}

// ServePath streams a file addressed by its relative storage path. CVs are
// referenced this way from the employee row.
func (h *FileHandler) ServePath(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	rel := strings.TrimPrefix(c.Param("relpath"), "/")
	f, err := h.attachments.OpenPath(c.Request.Context(), actor, rel)
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()

	serveFile(c, f, path.Base(rel))
}

func (h *FileHandler) DeleteEmployeeFile(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	employeeID, ok := paramUint(c, "id")
	if !ok {
		writeError(c, utils.E(utils.CodeInvalidArgument, "FileHandler.DeleteEmployeeFile", "invalid employee id", nil))
		return
	}
	fileID, ok := paramUint(c, "file_id")
	if !ok {
		writeError(c, utils.E(utils.CodeInvalidArgument, "FileHandler.DeleteEmployeeFile", "invalid file id", nil))
		return
	}

	if err := h.attachments.Delete(c.Request.Context(), actor, employeeID, fileID); err != nil {
		writeError(c, err)
		return
	}

	addFlash(c, "info", "تم حذف الملف")
	c.Redirect(http.StatusFound, fmt.Sprintf("/employees/%d/edit", employeeID))
}

func serveFile(c *gin.Context, f afero.File, name string) {
	modTime := time.Time{}
	if info, err := f.Stat(); err == nil {
		modTime = info.ModTime()
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))
	http.ServeContent(c.Writer, c.Request, name, modTime, f)
}
