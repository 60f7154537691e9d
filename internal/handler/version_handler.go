package handler

import (
	"context"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Noel-Teens/pms-server/internal/dto"
	"github.com/Noel-Teens/pms-server/internal/models"
	"github.com/Noel-Teens/pms-server/internal/service"
	appErrors "github.com/Noel-Teens/pms-server/pkg/errors"
	"github.com/Noel-Teens/pms-server/pkg/response"
)

// uploadFields maps multipart field names to artifact slots.
var uploadFields = map[string]models.FileKind{
	"paper_pdf":  models.FilePDF,
	"latex_tex":  models.FileLatex,
	"python_zip": models.FileCode,
	"docx_file":  models.FileDocx,
}

const multipartMemory = 32 << 20

type versionService interface {
	Submit(ctx context.Context, actor *models.JWTClaims, paperworkID string, req dto.SubmitVersionRequest) (*models.Version, error)
	List(ctx context.Context, actor *models.JWTClaims, paperworkID string) ([]models.Version, error)
	Get(ctx context.Context, actor *models.JWTClaims, paperworkID string, versionNo int) (*dto.VersionDetailResponse, error)
	OpenFile(ctx context.Context, actor *models.JWTClaims, paperworkID string, versionNo int, kind models.FileKind, inline bool) (*service.FileDownload, error)
}

// VersionHandler serves version submission and retrieval.
type VersionHandler struct {
	service versionService
}

// NewVersionHandler constructs the handler.
func NewVersionHandler(svc versionService) *VersionHandler {
	return &VersionHandler{service: svc}
}

// Submit godoc
// @Summary Submit a new version
// @Description Stores the artifacts, marks the paperwork SUBMITTED and prunes old versions.
// @Tags Versions
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Paperwork ID"
// @Param paper_pdf formData file true "Paper PDF"
// @Param latex_tex formData file true "LaTeX source"
// @Param python_zip formData file true "Code archive"
// @Param docx_file formData file false "Word document"
// @Param ai_percent_self formData number false "Self-reported AI percentage"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /paperworks/{id}/versions [post]
func (h *VersionHandler) Submit(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		response.Error(c, bindError(err, "invalid multipart payload"))
		return
	}
	defer func() {
		if c.Request.MultipartForm != nil {
			_ = c.Request.MultipartForm.RemoveAll()
		}
	}()

	req := dto.SubmitVersionRequest{Files: make(map[models.FileKind]dto.ArtifactUpload, len(uploadFields))}
	if raw := strings.TrimSpace(c.PostForm("ai_percent_self")); raw != "" {
		ai, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			response.Error(c, appErrors.Validation("invalid submission", map[string]string{"ai_percent_self": "number"}))
			return
		}
		req.AIPercentSelf = ai
	}

	var opened []multipart.File
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	for field, kind := range uploadFields {
		header, err := c.FormFile(field)
		if err != nil {
			continue
		}
		file, err := header.Open()
		if err != nil {
			response.Error(c, appErrors.Internal(err, "failed to read upload"))
			return
		}
		opened = append(opened, file)
		req.Files[kind] = dto.ArtifactUpload{Filename: header.Filename, Size: header.Size, Content: file}
	}

	version, err := h.service.Submit(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, version)
}

// List godoc
// @Summary List versions, newest first
// @Tags Versions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Paperwork ID"
// @Success 200 {object} response.Envelope
// @Router /paperworks/{id}/versions [get]
func (h *VersionHandler) List(c *gin.Context) {
	versions, err := h.service.List(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, versions, nil)
}

// Get godoc
// @Summary Version detail with signed viewer links
// @Tags Versions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Paperwork ID"
// @Param ver path int true "Version number"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /paperworks/{id}/versions/{ver} [get]
func (h *VersionHandler) Get(c *gin.Context) {
	ver, err := versionParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	detail, err := h.service.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"), ver)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// ViewFile godoc
// @Summary Stream one artifact of a version
// @Description Inline by default; download=1 forces an attachment. Accepts ?token= instead of a header.
// @Tags Versions
// @Produce octet-stream
// @Param id path string true "Paperwork ID"
// @Param ver path int true "Version number"
// @Param fileType path string true "pdf, tex, zip or docx"
// @Param download query string false "1 to download"
// @Param token query string false "Access token"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /paperworks/{id}/versions/{ver}/{fileType}/view [get]
func (h *VersionHandler) ViewFile(c *gin.Context) {
	ver, err := versionParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	kind := models.FileKind(strings.ToLower(c.Param("fileType")))
	inline := c.Query("download") != "1"
	file, err := h.service.OpenFile(c.Request.Context(), claimsFromContext(c), c.Param("id"), ver, kind, inline)
	if err != nil {
		response.Error(c, err)
		return
	}
	sendFile(c, file)
}
