package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileID(t *testing.T) {
	assert.Equal(t, "projects/sb_1/main.go", FileID("sb_1", "main.go"))
	assert.Equal(t, "projects/sb_1/src/app.ts", ChildID(FileID("sb_1", "src"), "app.ts"))
	assert.Equal(t, "app.ts", Base("projects/sb_1/src/app.ts"))
}

func TestRel(t *testing.T) {
	rel, ok := Rel("sb_1", "projects/sb_1/src/app.ts")
	assert.True(t, ok)
	assert.Equal(t, "src/app.ts", rel)

	_, ok = Rel("sb_1", "projects/sb_10/app.ts")
	assert.False(t, ok)
}

func TestLayoutFile(t *testing.T) {
	assert.Equal(t, filepath.Join("/var/layouts", "u1", "sb_1.yaml"), LayoutFile("/var/layouts", "u1", "sb_1"))
}

func TestValidateSegment(t *testing.T) {
	assert.NoError(t, ValidateSegment("sandbox id", "sb_1"))
	for _, bad := range []string{"", ".", "..", "a/b", `a\b`} {
		assert.Error(t, ValidateSegment("sandbox id", bad), bad)
	}
}
