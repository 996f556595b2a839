package extractors

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

func TestDefault_Dispatch(t *testing.T) {
	set := Default(nil)

	tests := []struct {
		fileType domain.FileType
		mime     string
		want     string
	}{
		{domain.FileTypePDF, "application/pdf", "office"},
		{domain.FileTypeWord, "", "office"},
		{domain.FileTypeExcel, "", "office"},
		{domain.FileTypePowerPoint, "", "office"},
		{domain.FileTypeEmail, "message/rfc822", "email"},
		{domain.FileTypeText, "text/html", "html"},
		{domain.FileTypeText, "text/plain", "text"},
		{domain.FileTypeText, "text/markdown", "text"},
		{domain.FileTypeImage, "image/png", "image"},
		{domain.FileTypeCAD, "image/vnd.dxf", "cad"},
	}
	for _, tt := range tests {
		t.Run(string(tt.fileType)+" "+tt.mime, func(t *testing.T) {
			e := set.For(tt.fileType, tt.mime)
			if assert.NotNil(t, e) {
				assert.Equal(t, tt.want, e.Name())
			}
		})
	}

	assert.Nil(t, set.For(domain.FileTypeUnknown, ""))
}

func TestSet_SkipsNil(t *testing.T) {
	set := NewSet(nil)
	assert.Equal(t, 0, set.Len())
	assert.Empty(t, set.Names())
}

func TestSet_Names(t *testing.T) {
	assert.Equal(t, []string{"office", "email", "html", "text", "image", "cad"}, Default(nil).Names())
}
