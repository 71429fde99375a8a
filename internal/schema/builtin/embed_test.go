package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnab-dev/cnab/internal/schema"
)

func TestGenericLayoutsLoad(t *testing.T) {
	l := schema.NewLoader(Source())
	layouts := map[string][]string{
		"cnab240": {"file_header", "batch_header", "segment_p", "segment_q", "segment_j", "batch_trailer", "file_trailer"},
		"cnab400": {"header", "detail", "trailer"},
	}
	for format, records := range layouts {
		width := 240
		if format == "cnab400" {
			width = 400
		}
		for _, rt := range records {
			s, err := l.Load("341", format, rt, "")
			require.NoError(t, err, "%s/%s", format, rt)
			assert.True(t, s.Metadata().Fallback())

			fields := s.Fields()
			assert.Equal(t, 1, fields[0].Start(), "%s/%s starts at column 1", format, rt)
			assert.Equal(t, width, fields[len(fields)-1].End(), "%s/%s covers the full line", format, rt)
			for _, f := range fields {
				assert.Equal(t, f.Width(), schema.ParsePicture(f.Picture).Length(), "%s/%s %s", format, rt, f.Name)
			}
		}
	}
}
