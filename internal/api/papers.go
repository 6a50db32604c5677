package api

import (
	stderrors "errors"
	"io"
	"mime"
	"net/http"

	"research_copilot_go_backend/internal/errors"
	"research_copilot_go_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// multipart framing on top of the file itself
const multipartOverhead = 1 << 20

func uploadPaperHandler(pipeline *services.UploadPipeline, maxUploadBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxUploadBytes+multipartOverhead {
			errors.HandleError(c, errors.NewFileTooLargeError(maxUploadBytes))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes+multipartOverhead)

		fileHeader, err := c.FormFile("file")
		if err != nil {
			if isBodyTooLarge(err) {
				errors.HandleError(c, errors.NewFileTooLargeError(maxUploadBytes))
				return
			}
			errors.HandleError(c, errors.NewMissingFileError("No file uploaded"))
			return
		}
		if fileHeader.Size > maxUploadBytes {
			errors.HandleError(c, errors.NewFileTooLargeError(maxUploadBytes))
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			errors.HandleError(c, errors.New500Error(err))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			errors.HandleError(c, errors.New500Error(err))
			return
		}

		uploadID := c.Query("uploadId")
		if uploadID == "" {
			uploadID = c.GetHeader("X-Upload-ID")
		}

		paper, err := pipeline.Process(c.Request.Context(), services.UploadInput{
			FileName:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Data:        data,
			UploadID:    uploadID,
		})
		if err != nil {
			errors.HandleError(c, err)
			return
		}

		c.JSON(http.StatusOK, paper)
	}
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return stderrors.As(err, &maxErr)
}

func listPapersHandler(paperService *services.PaperService) gin.HandlerFunc {
	return func(c *gin.Context) {
		papers, err := paperService.ListPapers(c.Request.Context(), services.PaperFilter{Query: c.Query("q")})
		if err != nil {
			errors.HandleError(c, err)
			return
		}
		c.JSON(http.StatusOK, papers)
	}
}

func getPaperHandler(paperService *services.PaperService) gin.HandlerFunc {
	return func(c *gin.Context) {
		paper, err := paperService.GetPaper(c.Request.Context(), c.Param("id"))
		if err != nil {
			errors.HandleError(c, err)
			return
		}
		c.JSON(http.StatusOK, paper)
	}
}

func downloadPaperHandler(paperService *services.PaperService) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := paperService.GetPaperFile(c.Request.Context(), c.Param("id"))
		if err != nil {
			errors.HandleError(c, err)
			return
		}
		c.Header("Content-Disposition", attachment(file.FileName))
		c.Data(http.StatusOK, file.ContentType, file.Data)
	}
}

func exportSummaryHandler(paperService *services.PaperService, exportService *services.ExportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		paper, err := paperService.GetPaper(c.Request.Context(), c.Param("id"))
		if err != nil {
			errors.HandleError(c, err)
			return
		}
		data, err := exportService.SummaryPDF(paper)
		if err != nil {
			errors.HandleError(c, errors.New500Error(err))
			return
		}
		c.Header("Content-Disposition", attachment(paper.Title+"-summary.pdf"))
		c.Data(http.StatusOK, "application/pdf", data)
	}
}

func exportCitationsHandler(paperService *services.PaperService, exportService *services.ExportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		paper, err := paperService.GetPaper(c.Request.Context(), c.Param("id"))
		if err != nil {
			errors.HandleError(c, err)
			return
		}
		c.Header("Content-Disposition", attachment(paper.Title+".bib"))
		c.Data(http.StatusOK, "application/x-bibtex; charset=utf-8", []byte(exportService.CitationsBibTeX(paper)))
	}
}

func shareLinkHandler(paperService *services.PaperService) gin.HandlerFunc {
	return func(c *gin.Context) {
		url, expiresAt, err := paperService.ShareLink(c.Request.Context(), c.Param("id"))
		if err != nil {
			errors.HandleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": url, "expiresAt": expiresAt})
	}
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK", "message": "Server is running"})
}

func attachment(fileName string) string {
	if fileName == "" {
		fileName = "paper.pdf"
	}
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": fileName}); v != "" {
		return v
	}
	return "attachment"
}
