package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chakravyuh/backend/internal/domain/shared"
)

// maxUploadSize caps a single uploaded file (certificate or screenshot)
const maxUploadSize = 5 << 20

var allowedUploadTypes = map[string]struct{}{
	"application/pdf": {},
	"image/jpeg":      {},
	"image/jpg":       {},
	"image/png":       {},
}

// formFile reads the named multipart file into memory. Returns found=false
// when the field is absent. Enforces the per-file size cap and the
// PDF/JPG/PNG type whitelist.
func formFile(c *gin.Context, field string) (fileName, contentType string, data []byte, found bool, err error) {
	header, err := c.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return "", "", nil, false, nil
		}
		return "", "", nil, false, shared.NewDomainError("BAD_REQUEST", "Invalid form data")
	}

	if header.Size > maxUploadSize {
		return "", "", nil, false, shared.NewDomainError("PAYLOAD_TOO_LARGE", "Uploaded file is too large (max 5MB)")
	}

	data, err = readMultipartFile(header)
	if err != nil {
		return "", "", nil, false, shared.NewDomainError("BAD_REQUEST", "Invalid form data")
	}
	if len(data) > maxUploadSize {
		return "", "", nil, false, shared.NewDomainError("PAYLOAD_TOO_LARGE", "Uploaded file is too large (max 5MB)")
	}

	contentType = strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if _, ok := allowedUploadTypes[contentType]; !ok {
		return "", "", nil, false, shared.NewDomainError("VALIDATION", "Only PDF, JPG, PNG files are allowed")
	}

	return header.Filename, contentType, data, true, nil
}

func readMultipartFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxUploadSize+1))
}
